package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmcleod/erpdesk/internal/config"
	"github.com/jmcleod/erpdesk/internal/obs"
)

// Version is set at build time.
var Version = "dev"

var (
	envFile string
	cfg     config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "erpdesk",
	Short: "erpdesk is an ERP dashboard client and demo API server",
	Long: `Browse ERP lists (inventory, purchase orders, roles, audit logs,
translations, menus) from the terminal, or serve the demo API they come from.

Settings are read from ERPDESK_* environment variables and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(envFile); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		level, _ := cfg.Log.SlogLevel()
		logger = obs.NewLogger(os.Stderr, level, cfg.Log.Format)
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file")
}

// cliLogger tags records written by the commands themselves. Libraries get
// the untagged logger and add their own component.
func cliLogger() *slog.Logger {
	return logger.With("component", "cli")
}
