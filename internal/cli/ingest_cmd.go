package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"paperkb/internal/ingest"
	"paperkb/internal/metadata"
	"paperkb/internal/model"
)

var ingestFlags struct {
	force         bool
	fetchMetadata bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the PDF library into the vector store",
	Long: "Reads the CSV manifest, extracts text from each PDF, chunks and embeds the " +
		"content, and upserts it into the vector collection. Already-indexed documents " +
		"are skipped unless --force is given.",
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestFlags.force, "force", false, "re-ingest documents that are already indexed")
	ingestCmd.Flags().BoolVar(&ingestFlags.fetchMetadata, "fetch-metadata", false, "refresh the Zotero metadata cache before ingesting")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
		}
		return err
	}
	defer a.docs.Close()

	entries, err := a.manifestEntries()
	if err != nil {
		return err
	}

	if ingestFlags.fetchMetadata {
		if err := refreshMetadataCache(cmd, a, entries); err != nil {
			if errors.Is(err, model.ErrConfiguration) {
				exitWith(ExitConfigInvalid, "ERROR: "+err.Error())
			}
			return err
		}
	}

	svc, err := ingest.NewService(ctx, a.loader, a.chunker, a.llm, a.vectors, a.docs, a.cache, ingest.Options{
		PDFDir: a.cfg.PDFDir,
		Backoff: ingest.BackoffPolicy{
			MaxAttempts:  a.cfg.Retry.MaxAttempts,
			InitialDelay: time.Duration(a.cfg.Retry.InitialDelayMS) * time.Millisecond,
			MaxDelay:     time.Duration(a.cfg.Retry.MaxDelayMS) * time.Millisecond,
			Multiplier:   a.cfg.Retry.Multiplier,
		},
	})
	if err != nil {
		return err
	}

	report, err := svc.Ingest(ctx, entries, !ingestFlags.force)
	if err != nil {
		return err
	}

	st := newStyles(os.Stdout)
	fmt.Println(st.sectionHeader("Ingestion complete"))
	fmt.Println(st.kv("Indexed", fmt.Sprintf("%d", report.Indexed)))
	fmt.Println(st.kv("Skipped", fmt.Sprintf("%d", report.Skipped)))
	fmt.Println(st.kv("Failed", fmt.Sprintf("%d", len(report.Failures))))
	for _, f := range report.Failures {
		fmt.Printf("  %s %s: %v\n", st.errPrefix(), f.Filename, f.Err)
	}
	if len(report.Failures) > 0 {
		return fmt.Errorf("%d documents failed to ingest", len(report.Failures))
	}
	return nil
}

// refreshMetadataCache pulls bibliographic records from the Zotero API,
// joins them to manifest entries by normalized title, and fills the on-disk
// cache. Existing cache entries are left untouched.
func refreshMetadataCache(cmd *cobra.Command, a *app, entries []model.ManifestEntry) error {
	timeout := time.Duration(a.cfg.RequestTimeoutSecs) * time.Second
	zot, err := metadata.NewZoteroClient("", a.cfg.ZoteroUserID, a.cfg.ZoteroAPIKey, timeout)
	if err != nil {
		return err
	}

	records, err := zot.FetchCollection(cmd.Context(), a.cfg.ZoteroCollection)
	if err != nil {
		return fmt.Errorf("fetch Zotero collection: %w", err)
	}

	matched := metadata.MatchRecords(entries, records)
	for pdfName, rec := range matched {
		if err := a.cache.Put(pdfName, rec); err != nil {
			return fmt.Errorf("cache metadata for %s: %w", pdfName, err)
		}
	}
	fmt.Printf("Matched metadata for %d of %d papers\n", len(matched), len(entries))
	return nil
}
