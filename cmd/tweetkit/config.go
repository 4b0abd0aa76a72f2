package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tweetkit/pkg/config"
	"tweetkit/pkg/ui"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tweetkit configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (TWEETKIT_*)
  - .env and ~/.tweetkit.env files
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file with every option at its default value.

The file is written to ` + config.DefaultPath() + `
unless a different path is given with --config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if path == "" {
			path = config.DefaultPath()
		}
		if err := initConfig(path, configForce); err != nil {
			return err
		}

		ui.PrintSuccess("Configuration file created: " + path)
		fmt.Fprintln(ui.Default().Out(), "\nNext steps:")
		fmt.Fprintln(ui.Default().Out(), "1. Run 'tweetkit auth login' to store your session cookies")
		fmt.Fprintln(ui.Default().Out(), "2. Run 'tweetkit config validate' to check the configuration")
		fmt.Fprintln(ui.Default().Out(), "3. Try 'tweetkit timeline home --pages 1'")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source.

Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, globalFlags())
		if err != nil {
			return err
		}
		return showConfig(ui.Default().Out(), cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile, globalFlags())
		if err != nil {
			return err
		}

		var warnings []string
		if !cfg.Account.HasSession() && !cfg.OAuth1.Enabled() {
			warnings = append(warnings, "no session configured; stored credentials are used at run time")
		}
		if cfg.Account.BearerToken == "" && !cfg.OAuth1.Enabled() {
			warnings = append(warnings, "no bearer token; it is fetched from the web client on every run")
		}
		for _, w := range warnings {
			ui.PrintWarning(w)
		}

		ui.PrintSuccess("Configuration is valid")
		out := ui.Default().Out()
		fmt.Fprintln(out, "\nConfiguration summary:")
		fmt.Fprintf(out, "  API base: %s\n", cfg.Transport.APIBase)
		fmt.Fprintf(out, "  Rate limit: %d requests/minute, burst %d\n", cfg.Transport.RequestsPerMinute, cfg.Transport.BurstSize)
		fmt.Fprintf(out, "  Upload chunk size: %s\n", ui.FormatBytes(cfg.Upload.ChunkSize))
		fmt.Fprintf(out, "  Concurrent uploads: %d\n", cfg.Upload.Concurrent)
		fmt.Fprintf(out, "  Archive: %s\n", cfg.Archive.Path)
		fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

// initConfig writes the default configuration to path
func initConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	return config.DefaultConfig().Save(path)
}

func showConfig(w io.Writer, cfg *config.Config) error {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}
	fmt.Fprintln(w, ui.Magenta("Current Configuration"))
	fmt.Fprintln(w)
	fmt.Fprint(w, string(data))
	return nil
}
