package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tweetkit/pkg/auth"
	"tweetkit/pkg/config"
	"tweetkit/pkg/logger"
	"tweetkit/pkg/ui"
)

var authStoreBearer bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored sessions",
	Long: `Manage stored x.com sessions.

Sessions are stored in:
  - the system keychain, when available
  - an encrypted file protected with a PBKDF2-derived key
  - TWEETKIT_AUTH_TOKEN / TWEETKIT_CSRF_TOKEN, read only

Never share your cookies or config files!`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store session cookies",
	Long: `Store the auth_token and ct0 cookies of a logged in browser session.

The cookie values are read without echo.`,
	Example: `  tweetkit auth login
  tweetkit auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager(logger.GetLogger())
		if err != nil {
			return err
		}
		accounts, err := manager.List()
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			ui.PrintWarning("No stored accounts, run 'tweetkit auth login'")
			return nil
		}

		out := ui.Default().Out()
		fmt.Fprintf(out, "%s\n\n", ui.Magenta(fmt.Sprintf("Stored accounts (%d)", len(accounts))))
		for _, a := range accounts {
			s := auth.SanitizeAccount(a)
			fmt.Fprintf(out, "  %s\n", ui.Cyan(s.Name))
			fmt.Fprintf(out, "    auth_token: %s\n", s.AuthToken)
			fmt.Fprintf(out, "    ct0:        %s\n", s.CSRFToken)
			if s.BearerToken != "" {
				fmt.Fprintf(out, "    bearer:     %s\n", s.BearerToken)
			}
			if !s.LastModified.IsZero() {
				fmt.Fprintf(out, "    updated:    %s\n", s.LastModified.Format(time.RFC3339))
			}
		}
		return nil
	},
}

var authRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"logout"},
	Short:   "Remove a stored account",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := auth.NewManager(logger.GetLogger())
		if err != nil {
			return err
		}
		if err := manager.Delete(args[0]); err != nil {
			return err
		}
		ui.PrintSuccess("Removed " + args[0])
		return nil
	},
}

var authGuideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain how to copy the session cookies from a browser",
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowCookieExtractionGuide(os.Stdout)
	},
}

var authBearerCmd = &cobra.Command{
	Use:   "bearer",
	Short: "Fetch the bearer token of the web client",
	Long: `Fetch the bearer token the web client ships in its main script.

With --store the token is saved with the selected account, so later runs
skip the lookup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		cfg := config.DefaultConfig()
		fetcher := auth.NewBearerFetcher(cfg.Transport.WebBase, logger.GetLogger())
		token, err := fetcher.Fetch(ctx)
		if err != nil {
			return err
		}
		fmt.Println(token)

		if !authStoreBearer {
			return nil
		}
		manager, err := auth.NewManager(logger.GetLogger())
		if err != nil {
			return err
		}
		var account *auth.Account
		if accountName != "" {
			account, err = manager.Retrieve(accountName)
		} else {
			account, err = manager.RetrieveDefault()
		}
		if err != nil {
			return err
		}
		account.BearerToken = token
		account.LastModified = time.Now()
		if err := manager.Store(account); err != nil {
			return err
		}
		ui.PrintSuccess("Bearer token stored for " + account.Name)
		return nil
	},
}

func init() {
	authBearerCmd.Flags().BoolVar(&authStoreBearer, "store", false, "save the token with the account")

	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authRemoveCmd)
	authCmd.AddCommand(authGuideCmd)
	authCmd.AddCommand(authBearerCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager(logger.GetLogger())
	if err != nil {
		return fmt.Errorf("failed to initialise credential store: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	interactive := term.IsTerminal(int(os.Stdin.Fd()))

	if interactive {
		auth.ShowQuickExtractGuide(os.Stdout)
		fmt.Println()
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	} else if interactive {
		fmt.Print("Account name [default]: ")
		input, err := auth.ReadLine(reader)
		if err != nil {
			return fmt.Errorf("failed to read account name: %w", err)
		}
		if input != "" {
			name = input
		}
	}

	if existing, _ := manager.Retrieve(name); existing != nil && interactive {
		fmt.Printf("Account '%s' already exists. Update it? (y/N): ", name)
		input, _ := auth.ReadLine(reader)
		if !strings.HasPrefix(strings.ToLower(input), "y") {
			return nil
		}
	}

	readSecret := func(prompt string) (string, error) {
		if interactive {
			return auth.ReadSecret(os.Stdin, os.Stdout, prompt)
		}
		return auth.ReadLine(reader)
	}

	authToken, err := readSecret("auth_token cookie value: ")
	if err != nil {
		return fmt.Errorf("failed to read auth_token: %w", err)
	}
	csrf, err := readSecret("ct0 cookie value: ")
	if err != nil {
		return fmt.Errorf("failed to read ct0: %w", err)
	}

	account := &auth.Account{
		Name:         name,
		AuthToken:    authToken,
		CSRFToken:    csrf,
		LastModified: time.Now(),
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess("Account saved: " + name)
	ui.PrintInfo("Use it with", "tweetkit --account "+name+" ...")
	return nil
}
