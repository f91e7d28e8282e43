package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"paperkb/internal/model"
	"paperkb/internal/retrieval"
	"paperkb/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session over the indexed library",
	Long:  "Opens a terminal chat grounded in the indexed papers. Type 'exit' or 'bye' to quit.",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, _ []string) error {
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

	svc := retrieval.NewService(a.llm, a.vectors, a.llm, a.cfg.SearchK, a.cfg.ContextCharBudget)
	return tui.Run(cmd.Context(), svc)
}
