package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"tweetkit/pkg/auth"
	"tweetkit/pkg/config"
	"tweetkit/pkg/logger"
	"tweetkit/pkg/twitter"
	"tweetkit/pkg/ui"
	"tweetkit/pkg/upload"
)

var (
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	accountName   string
	authToken     string
	csrfToken     string
	notifications bool
	quiet         bool
	noRetry       bool
)

var rootCmd = &cobra.Command{
	Use:   "tweetkit",
	Short: "Upload media, post and walk timelines through the x.com web API",
	Long: `tweetkit drives the same web API as the x.com client.

Features:
  - Chunked media uploads (images, gifs, videos) with processing status polling
  - Concurrent uploads with a shared request pacer
  - Posting with media, replies and quotes
  - Cursor-paginated timelines, search and notifications, resumable from checkpoints
  - Local SQLite archive of everything fetched
  - Credential storage in the system keychain or an encrypted file`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetQuiet(quiet)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	rootCmd.PersistentFlags().StringVar(&authToken, "auth-token", "", "auth_token cookie, overrides stored credentials")
	rootCmd.PersistentFlags().StringVar(&csrfToken, "csrf-token", "", "ct0 cookie, overrides stored credentials")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when long runs finish")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&noRetry, "no-retry", false, "do not retry failed reads")

	rootCmd.SetVersionTemplate(`tweetkit {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags for config.MergeCommandLineFlags
func globalFlags() map[string]interface{} {
	return map[string]interface{}{
		"account":    accountName,
		"auth-token": authToken,
		"csrf-token": csrfToken,
		"log-level":  logLevel,
		"no-retry":   noRetry,
	}
}

// loadConfig loads the layered configuration, initialises logging and fills
// the session from the credential store when needed.
func loadConfig(extra map[string]interface{}) (*config.Config, logger.Logger, error) {
	flags := globalFlags()
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialise logging: %w", err)
	}
	log := logger.GetLogger()

	if !cfg.Account.HasSession() && !cfg.OAuth1.Enabled() {
		manager, err := auth.NewManager(log)
		if err != nil {
			log.WithError(err).Warn("credential store unavailable")
		} else if err := manager.Resolve(cfg); err != nil {
			return nil, nil, fmt.Errorf("%w (run 'tweetkit auth list' to see stored accounts)", err)
		}
	}
	return cfg, log, nil
}

// newClient builds the API client. Without a configured bearer the web
// client's bearer is discovered first.
func newClient(ctx context.Context, cfg *config.Config, log logger.Logger, uploadOpts ...upload.Option) (*twitter.Client, error) {
	if !cfg.Account.HasSession() && !cfg.OAuth1.Enabled() {
		return nil, fmt.Errorf("no credentials: run 'tweetkit auth login' or set TWEETKIT_AUTH_TOKEN and TWEETKIT_CSRF_TOKEN")
	}
	if cfg.Account.BearerToken == "" && !cfg.OAuth1.Enabled() {
		fetcher := auth.NewBearerFetcher(cfg.Transport.WebBase, log)
		cfg.Account.BearerToken = fetcher.FetchOrDefault(ctx)
	}
	if name := cfg.Account.Name; name != "" {
		ui.PrintInfo("Account", name)
	}
	return twitter.NewFromConfig(cfg, log, uploadOpts...), nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func notifier() *ui.Notifier {
	return ui.NewNotifier(ui.Default(), notifications)
}
