package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"paperkb/internal/analysis"
	"paperkb/internal/batch"
	"paperkb/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full review pipeline over the whole library",
	Long: "For each paper in the manifest, produces a long-form markdown review plus " +
		"verdicts on the five evaluation questions, written as <paper>_analysis.md and " +
		"<paper>_qa.json. Papers with existing output are skipped.",
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	a, entries, err := setupBatch()
	if err != nil {
		return err
	}
	defer a.docs.Close()

	orch := batch.NewOrchestrator(
		a.loader,
		a.cache,
		analysis.NewExtractor(a.llm, a.prompts),
		analysis.NewAnalyzer(a.llm, a.prompts),
		batch.Options{
			PDFDir:      a.cfg.PDFDir,
			ExtractDir:  a.cfg.ExtractionDir,
			AnalysisDir: a.cfg.AnalysisDir,
		},
	)

	summary, err := orch.RunAnalysis(cmd.Context(), entries)
	printBatchSummary("Analysis", summary)
	if err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
		}
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d papers failed", summary.Failed)
	}
	return nil
}
