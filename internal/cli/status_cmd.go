package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"paperkb/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List indexed documents and their chunk counts",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
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

	docs, err := a.docs.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}

	st := newStyles(os.Stdout)
	if len(docs) == 0 {
		fmt.Println(st.dim("No documents indexed yet. Run 'paperkb ingest' first."))
		return nil
	}

	fmt.Println(st.sectionHeader(fmt.Sprintf("Indexed documents (%d)", len(docs))))
	for _, d := range docs {
		when := ""
		if d.IndexedUnix > 0 {
			when = time.Unix(d.IndexedUnix, 0).Format("2006-01-02 15:04")
		}
		fmt.Printf("  %s  %s  %s\n",
			st.stat("chunks", d.ChunkCount),
			d.Filename,
			st.dim(when),
		)
	}
	return nil
}
