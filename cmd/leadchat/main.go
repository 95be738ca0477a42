package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leadcatalyst/leadchat/pkg/config"
	"github.com/leadcatalyst/leadchat/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	configPath string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "leadchat",
	Short: "Chat with the lead search webhook and export the results as CSV",
	Long: `leadchat posts free-text requests to the lead search webhook, turns the
reply into a table and exports it as CSV.

Run "leadchat serve" for the browser chat page or "leadchat send" for a single
request from the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// These run without a config file, or create it.
		if cmd == versionCmd || cmd == configInitCmd {
			return nil
		}
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		// JSON lines when stderr is redirected, readable output on a terminal
		logger.SetOutput(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
		logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
		if verbose {
			logger.SetLevel(logger.DEBUG)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the leadchat version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "leadchat %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Config file (JSON, YAML or TOML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Override webchat.host")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Override webchat.port")

	sendCmd.Flags().StringVar(&sendCSV, "csv", "", "Also write the resulting rows to this CSV file")
	sendCmd.Flags().BoolVar(&sendCopy, "copy", false, "Copy the rows as CSV to the clipboard")

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(serveCmd, sendCmd, configCmd, versionCmd)
}

func defaultConfigPath() string {
	if p := os.Getenv("LEADCHAT_CONFIG_PATH"); p != "" {
		return p
	}
	return "config.json"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
