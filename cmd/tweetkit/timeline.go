package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tweetkit/pkg/checkpoint"
	"tweetkit/pkg/config"
	"tweetkit/pkg/logger"
	"tweetkit/pkg/storage"
	"tweetkit/pkg/timeline"
	"tweetkit/pkg/twitter"
	"tweetkit/pkg/ui"
)

var (
	walkPages     int
	walkResume    bool
	walkNoArchive bool
	walkArchive   string
	walkNoPrint   bool
	searchProduct string
)

var timelineCmd = &cobra.Command{
	Use:   "timeline <kind> [user|list-id|tab]",
	Short: "Walk a paginated listing",
	Long: `Walk a listing page by page, printing and archiving what it returns.

User listings (user-tweets, media, likes, followers, following) take a screen
name or a numeric user id. The list listing takes a list id. Account
listings (home, latest, bookmarks, blocked, muted) take no argument, and
notifications takes an optional tab (all, verified, mentions).

Every page is checkpointed, so an interrupted walk continues with --resume.`,
	Example: `  tweetkit timeline user-tweets jack --pages 5
  tweetkit timeline followers 12 --resume
  tweetkit timeline list 1234567890
  tweetkit timeline notifications mentions
  tweetkit timeline bookmarks --no-archive`,
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: append(listingNames(), "notifications"),
	RunE:      runTimeline,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Walk search results",
	Example: `  tweetkit search "golang" --product Latest --pages 3
  tweetkit search "from:jack" --product Media`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var notificationsCmd = &cobra.Command{
	Use:       "notifications [all|verified|mentions]",
	Short:     "Walk a notifications tab",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"all", "verified", "mentions"},
	RunE:      runNotifications,
}

func init() {
	for _, cmd := range []*cobra.Command{timelineCmd, searchCmd, notificationsCmd} {
		cmd.Flags().IntVarP(&walkPages, "pages", "p", 0, "stop after this many pages (0 walks to the end)")
		cmd.Flags().BoolVarP(&walkResume, "resume", "r", false, "continue from the last checkpoint")
		cmd.Flags().BoolVar(&walkNoArchive, "no-archive", false, "do not store results in the local archive")
		cmd.Flags().StringVar(&walkArchive, "archive", "", "archive database path")
		cmd.Flags().BoolVar(&walkNoPrint, "no-print", false, "only show progress, not the entities")
		rootCmd.AddCommand(cmd)
	}
	searchCmd.Flags().StringVar(&searchProduct, "product", twitter.ProductTop, "search tab (Top, Latest, People, Media, Lists)")
}

func listingNames() []string {
	var names []string
	for _, l := range twitter.Listings() {
		if !strings.HasPrefix(string(l), "search-") {
			names = append(names, string(l))
		}
	}
	return names
}

func runTimeline(cmd *cobra.Command, args []string) error {
	if args[0] == "notifications" {
		return runNotifications(cmd, args[1:])
	}
	listing, err := twitter.ParseListing(args[0])
	if err != nil {
		return fmt.Errorf("%w (one of: %s)", err, strings.Join(listingNames(), ", "))
	}
	arg := ""
	if len(args) > 1 {
		arg = args[1]
	}
	if listing.NeedsArgument() && arg == "" {
		return fmt.Errorf("listing %s needs a user or list id", listing)
	}
	if !listing.NeedsArgument() && arg != "" {
		return fmt.Errorf("listing %s takes no argument", listing)
	}

	cfg, log, err := loadConfig(map[string]interface{}{"archive": walkArchive})
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(ctx, cfg, log)
	if err != nil {
		return err
	}

	if listing.TakesUser() && !isNumeric(arg) {
		user, err := client.UserByScreenName(ctx, strings.TrimPrefix(arg, "@"))
		if err != nil {
			return fmt.Errorf("failed to resolve @%s: %w", strings.TrimPrefix(arg, "@"), err)
		}
		ui.PrintInfo("User", fmt.Sprintf("@%s (%s)", user.ScreenName, user.ID))
		arg = user.ID
	}

	return walk(ctx, cfg, log, client.Walker(listing, arg), arg)
}

func runSearch(cmd *cobra.Command, args []string) error {
	listing, err := twitter.SearchListing(searchProduct)
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig(map[string]interface{}{"archive": walkArchive})
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	return walk(ctx, cfg, log, client.Walker(listing, args[0]), args[0])
}

func runNotifications(cmd *cobra.Command, args []string) error {
	tab := twitter.NotificationsAll
	if len(args) == 1 {
		k, err := twitter.ParseNotificationKind(args[0])
		if err != nil {
			return err
		}
		tab = k
	}

	cfg, log, err := loadConfig(map[string]interface{}{"archive": walkArchive})
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	client, err := newClient(ctx, cfg, log)
	if err != nil {
		return err
	}

	out := ui.Default().Out()
	w := client.NotificationWalker(tab, func(_ int, p twitter.NotificationPage) error {
		if walkNoPrint {
			return nil
		}
		for i := range p.Notifications {
			fmt.Fprintln(out, ui.FormatNotification(&p.Notifications[i]))
		}
		return nil
	})
	return walk(ctx, cfg, log, w, "")
}

// walk runs a walker with checkpointing, archiving and progress output
func walk(ctx context.Context, cfg *config.Config, log logger.Logger, w *timeline.Walker, arg string) error {
	w.MaxPages = walkPages
	out := ui.Default().Out()
	tracker := ui.NewWalkTracker(out, w.Listing)

	var archive *storage.Manager
	if !walkNoArchive {
		if archive = openArchive(ctx, cfg, log); archive != nil {
			defer archive.Close()
		}
	}

	w.OnPage = func(n int, p timeline.Page) error {
		if archive != nil {
			added, err := archive.SavePage(ctx, w.Listing, p)
			if err != nil {
				return fmt.Errorf("failed to archive page %d: %w", n, err)
			}
			log.DebugWithFields("page archived", map[string]interface{}{
				"listing": w.Listing,
				"page":    n,
				"new":     added,
			})
		}
		if !walkNoPrint {
			ui.PrintPage(out, p)
		}
		tracker.Page(n, p)
		return nil
	}

	manager, err := checkpoint.NewManager(checkpoint.Key(w.Listing, arg), log)
	if err != nil {
		return err
	}
	cp, err := startCheckpoint(manager, w.Listing, arg)
	if err != nil {
		return err
	}
	manager.Track(cp, w)

	res, walkErr := w.Walk(ctx)
	if err := manager.Finish(cp, res); err != nil {
		log.WithError(err).Warn("failed to save checkpoint")
	}
	tracker.Done(res)

	if walkErr != nil {
		notifier().Failure("tweetkit "+w.Listing, walkErr.Error())
		if ctx.Err() != nil {
			ui.PrintWarning("Interrupted, continue with --resume")
		}
		return walkErr
	}
	notifier().Success("tweetkit "+w.Listing, fmt.Sprintf("%d pages, %d entities", res.Pages, res.Entities))
	return nil
}

// startCheckpoint loads the saved checkpoint when resuming, otherwise starts
// a fresh one.
func startCheckpoint(manager *checkpoint.Manager, listing, arg string) (*checkpoint.Checkpoint, error) {
	if walkResume {
		cp, err := manager.Load()
		if err != nil {
			return nil, err
		}
		switch {
		case cp == nil:
			ui.PrintWarning("No checkpoint found, starting from the first page")
		case cp.Exhausted:
			ui.PrintWarning("Previous walk reached the end, starting over")
		default:
			ui.PrintInfo("Resuming", fmt.Sprintf("after %d pages, %d entities", cp.Pages, cp.Entities))
			return cp, nil
		}
	}
	return manager.Create(listing, arg)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
