package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"paperkb/internal/config"
	"paperkb/internal/logger"
)

// Exit codes.
const (
	ExitSuccess       = 0
	ExitGenericError  = 1
	ExitConfigInvalid = 2
)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	ConfigPath string
	PDFDir     string
	Manifest   string
	LogLevel   string
	Quiet      bool
}

var globalFlags GlobalFlags

var rootCmd = &cobra.Command{
	Use:   "paperkb",
	Short: "Research paper knowledge base: ingest, analyze and query a PDF library",
	Long: "paperkb turns a directory of research PDFs plus a Zotero-exported manifest into a " +
		"searchable knowledge base: semantic ingestion into a vector index, structured " +
		"extraction and review of each paper, and grounded question answering over the corpus.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := globalFlags.LogLevel
		if globalFlags.Quiet {
			level = "error"
		}
		logger.Setup(level, "text")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "paperkb.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&globalFlags.PDFDir, "pdf-dir", "", "directory holding the PDF library (overrides config)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Manifest, "manifest", "", "CSV manifest path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Quiet, "quiet", false, "reduce output")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command and returns an error; exit code is set by RunE.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig builds the effective configuration with flag overrides applied.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(globalFlags.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if globalFlags.PDFDir != "" {
		cfg.PDFDir = globalFlags.PDFDir
	}
	if globalFlags.Manifest != "" {
		cfg.ManifestPath = globalFlags.Manifest
	}
	return cfg, nil
}

// exitWith prints message to stderr and exits with code.
func exitWith(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
