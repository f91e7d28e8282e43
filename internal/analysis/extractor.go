package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"paperkb/internal/logger"
	"paperkb/internal/model"
)

// Extraction is the structured knowledge pulled out of a single paper.
// Field names mirror the JSON keys the extraction prompt demands.
type Extraction struct {
	Goals         string `json:"Goals"`
	Methodology   string `json:"Methodology"`
	Contributions string `json:"Contributions"`
	MainResults   string `json:"Main Results"`
	Limitations   string `json:"Limitations"`
	MainArea      string `json:"Main Area"`
	Keywords      string `json:"Keywords"`
}

// Extractor turns raw paper text into an Extraction via the language model.
type Extractor struct {
	gen     model.Generator
	prompts PromptSet
	log     *slog.Logger
}

func NewExtractor(gen model.Generator, prompts PromptSet) *Extractor {
	return &Extractor{
		gen:     gen,
		prompts: prompts,
		log:     logger.WithComponent("extractor"),
	}
}

// Extract asks the model for the structured summary and parses it strictly.
// Output that is not a valid JSON object is ErrMalformedOutput; the caller
// decides whether to retry or record a failure.
func (e *Extractor) Extract(ctx context.Context, paperContent string) (Extraction, error) {
	user := fmt.Sprintf(e.prompts.ExtractorUser, paperContent)
	raw, err := e.gen.Generate(ctx, e.prompts.ExtractorSystem, user)
	if err != nil {
		return Extraction{}, fmt.Errorf("extraction request: %w", err)
	}

	var out Extraction
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		e.log.Warn("unparseable extraction output", "error", err)
		return Extraction{}, fmt.Errorf("extraction output is not valid JSON: %w", model.ErrMalformedOutput)
	}
	return out, nil
}

// stripCodeFence removes a surrounding markdown code fence, with or without
// a language tag. Models add these despite being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
