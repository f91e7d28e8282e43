package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"paperkb/internal/analysis"
	"paperkb/internal/batch"
	"paperkb/internal/model"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run structured knowledge extraction over the whole library",
	Long: "For each paper in the manifest, asks the model for a structured JSON summary " +
		"(goals, methodology, contributions, results, limitations, area, keywords) and " +
		"writes <paper>_extraction.json. Papers with existing output are skipped, so an " +
		"interrupted run resumes where it stopped.",
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, _ []string) error {
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

	summary, err := orch.RunExtraction(cmd.Context(), entries)
	printBatchSummary("Extraction", summary)
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

func setupBatch() (*app, []model.ManifestEntry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	a, err := buildApp(cfg)
	if err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
		}
		return nil, nil, err
	}
	entries, err := a.manifestEntries()
	if err != nil {
		a.docs.Close()
		return nil, nil, err
	}
	return a, entries, nil
}

func printBatchSummary(title string, s batch.Summary) {
	st := newStyles(os.Stdout)
	fmt.Println(st.sectionHeader(title + " complete"))
	fmt.Println(st.kv("Done", fmt.Sprintf("%d", s.Done)))
	fmt.Println(st.kv("Skipped", fmt.Sprintf("%d", s.Skipped)))
	fmt.Println(st.kv("Failed", fmt.Sprintf("%d", s.Failed)))
	for _, item := range s.Items {
		if item.State == batch.StateFailed {
			fmt.Printf("  %s %s: %v\n", st.errPrefix(), item.Filename, item.Err)
		}
	}
}
