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

const qaHeading = "## Question Answering"

// Questions are the five fixed evaluation questions, in prompt order.
var Questions = []string{
	"Is it correlated with the research directly?",
	"Is the method well-explained and reproducible?",
	"Does it compare against strong, state-of-the-art baselines?",
	"Does it use relevant techniques?",
	"Is the paper close to recent state-of-the-art?",
}

// Verdicts are the only answers the analyzer accepts for each question.
var Verdicts = map[string]bool{
	"Yes":       true,
	"Partially": true,
	"Slightly":  true,
	"No":        true,
}

// Analyzer produces the long-form markdown review of a paper plus the
// structured verdicts on the five evaluation questions.
type Analyzer struct {
	gen     model.Generator
	prompts PromptSet
	log     *slog.Logger
}

func NewAnalyzer(gen model.Generator, prompts PromptSet) *Analyzer {
	return &Analyzer{
		gen:     gen,
		prompts: prompts,
		log:     logger.WithComponent("analyzer"),
	}
}

// Analyze runs the review and returns the full markdown verbatim together
// with the parsed question verdicts.
func (a *Analyzer) Analyze(ctx context.Context, paperMetadata, paperContent string) (string, model.QAResult, error) {
	if paperMetadata == "" {
		paperMetadata = "{}"
	}
	user := fmt.Sprintf(a.prompts.AnalyzerUser, paperMetadata, paperContent)
	raw, err := a.gen.Generate(ctx, a.prompts.AnalyzerSystem, user)
	if err != nil {
		return "", nil, fmt.Errorf("analysis request: %w", err)
	}

	qa, err := ParseQA(raw)
	if err != nil {
		a.log.Warn("analysis output missing valid verdicts", "error", err)
		return "", nil, err
	}
	return raw, qa, nil
}

// ParseQA locates the Question Answering section of an analysis and parses
// the JSON object inside it. The object must hold exactly the five fixed
// questions, each with one of the four allowed verdicts; anything else is
// ErrMalformedOutput.
func ParseQA(markdown string) (model.QAResult, error) {
	idx := strings.Index(markdown, qaHeading)
	if idx < 0 {
		return nil, fmt.Errorf("no %q section: %w", qaHeading, model.ErrMalformedOutput)
	}
	section := markdown[idx:]

	start := strings.Index(section, "{")
	end := strings.LastIndex(section, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object after %q: %w", qaHeading, model.ErrMalformedOutput)
	}
	blob := strings.ReplaceAll(section[start:end+1], "\n", " ")

	var qa model.QAResult
	if err := json.Unmarshal([]byte(blob), &qa); err != nil {
		return nil, fmt.Errorf("verdicts are not valid JSON: %w", model.ErrMalformedOutput)
	}
	if len(qa) != len(Questions) {
		return nil, fmt.Errorf("expected %d verdicts, got %d: %w", len(Questions), len(qa), model.ErrMalformedOutput)
	}
	for _, q := range Questions {
		verdict, ok := qa[q]
		if !ok {
			return nil, fmt.Errorf("missing verdict for %q: %w", q, model.ErrMalformedOutput)
		}
		if !Verdicts[verdict] {
			return nil, fmt.Errorf("invalid verdict %q for %q: %w", verdict, q, model.ErrMalformedOutput)
		}
	}
	return qa, nil
}
