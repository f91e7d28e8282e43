package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperkb/internal/model"
)

const validExtraction = `{
    "Goals": "Synthesize nuanced expressions.",
    "Methodology": "Diffusion model over landmarks.",
    "Contributions": "New conditioning scheme.",
    "Main Results": "State-of-the-art FID.",
    "Limitations": "Single dataset.",
    "Main Area": "Facial expression synthesis",
    "Keywords": "diffusion, faces, synthesis"
}`

func TestExtract_ParsesJSON(t *testing.T) {
	e := NewExtractor(&scriptedGenerator{reply: validExtraction}, DefaultPrompts())
	out, err := e.Extract(context.Background(), "paper text")
	require.NoError(t, err)
	assert.Equal(t, "Synthesize nuanced expressions.", out.Goals)
	assert.Equal(t, "Facial expression synthesis", out.MainArea)
	assert.Equal(t, "diffusion, faces, synthesis", out.Keywords)
}

func TestExtract_StripsCodeFence(t *testing.T) {
	fenced := "```json\n" + validExtraction + "\n```"
	e := NewExtractor(&scriptedGenerator{reply: fenced}, DefaultPrompts())
	out, err := e.Extract(context.Background(), "paper text")
	require.NoError(t, err)
	assert.Equal(t, "Single dataset.", out.Limitations)
}

func TestExtract_MalformedOutput(t *testing.T) {
	e := NewExtractor(&scriptedGenerator{reply: "Sure! Here is the summary: ..."}, DefaultPrompts())
	_, err := e.Extract(context.Background(), "paper text")
	assert.ErrorIs(t, err, model.ErrMalformedOutput)
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct{ name, in, want string }{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fence with lang", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without lang", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{}\n```\n ", "{}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripCodeFence(tc.in))
		})
	}
}

func TestLoadPrompts_MissingFileKeepsDefaults(t *testing.T) {
	set, err := LoadPrompts(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompts(), set)
}

func TestLoadPrompts_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.toml")
	require.NoError(t, os.WriteFile(path, []byte("extractor_system = \"custom system\"\n"), 0o644))

	set, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, "custom system", set.ExtractorSystem)
	assert.Equal(t, DefaultPrompts().AnalyzerSystem, set.AnalyzerSystem)
}

func TestLoadPrompts_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.toml")
	require.NoError(t, os.WriteFile(path, []byte("= broken"), 0o644))
	_, err := LoadPrompts(path)
	assert.Error(t, err)
}
