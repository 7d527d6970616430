// Package commands defines the Cobra commands of the catalogai binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/54b3r/catalogai-go/internal/audit"
	"github.com/54b3r/catalogai-go/internal/config"
	"github.com/54b3r/catalogai-go/internal/logging"
)

// NewRootCmd constructs the root command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "catalogai",
		Short: "Chat with the Rutgers course catalog",
		Long: `catalogai answers questions about Rutgers courses, majors and requirements
using only the text of the undergraduate catalog.

Build the index once with 'catalogai scrape' and 'catalogai ingest', then run
'catalogai serve' for the web UI or 'catalogai ask' from the terminal.

Settings come from the environment, a .env file, or a YAML config file
(~/.catalogai/config.yaml). Environment variables always win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}

			audit.LogCommandStart(log, cmd.Name(), path)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.catalogai/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewAskCmd(),
		NewIngestCmd(),
		NewScrapeCmd(),
		NewVersionCmd(),
	)

	return root
}
