package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"paperkb/internal/model"
	"paperkb/internal/retrieval"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question against the indexed library",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
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
	answer, err := svc.Answer(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}
