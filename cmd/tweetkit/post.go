package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tweetkit/internal/batch"
	"tweetkit/pkg/twitter"
	"tweetkit/pkg/ui"
	"tweetkit/pkg/upload"
)

var (
	postMedia    []string
	postMediaIDs []string
	postReplyTo  string
	postQuote    string
)

var postCmd = &cobra.Command{
	Use:   "post <text>",
	Short: "Publish a post",
	Long: `Publish a post, optionally with up to four media attachments, as a reply
or as a quote of another post. Media given with --media are uploaded first.`,
	Example: `  tweetkit post "hello"
  tweetkit post "look" --media a.jpg --media b.jpg
  tweetkit post "agreed" --reply-to 1790000000000000000
  tweetkit post "" --media-id 1791234567890123456`,
	Args: cobra.ExactArgs(1),
	RunE: runPost,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <tweet-id>",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(nil)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		client, err := newClient(ctx, cfg, log)
		if err != nil {
			return err
		}
		if err := client.DeleteTweet(ctx, args[0]); err != nil {
			return err
		}
		ui.PrintSuccess("Deleted " + args[0])
		return nil
	},
}

func init() {
	postCmd.Flags().StringArrayVarP(&postMedia, "media", "m", nil, "file or gif URL to upload and attach (repeatable, max 4)")
	postCmd.Flags().StringSliceVar(&postMediaIDs, "media-id", nil, "already uploaded media id to attach")
	postCmd.Flags().StringVar(&postReplyTo, "reply-to", "", "id of the post to reply to")
	postCmd.Flags().StringVar(&postQuote, "quote", "", "id of the post to quote")
	postCmd.MarkFlagsMutuallyExclusive("reply-to", "quote")

	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runPost(cmd *cobra.Command, args []string) error {
	if n := len(postMedia) + len(postMediaIDs); n > twitter.MaxMediaPerTweet {
		return fmt.Errorf("at most %d media per post, got %d", twitter.MaxMediaPerTweet, n)
	}

	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	progress := ui.NewUploadProgress(ui.Default().Out(), len(postMedia) > 1)
	client, err := newClient(ctx, cfg, log, upload.WithProgress(progress.Handle))
	if err != nil {
		return err
	}

	mediaIDs := append([]string(nil), postMediaIDs...)
	if len(postMedia) > 0 {
		jobs := make([]batch.Job, 0, len(postMedia))
		for _, source := range postMedia {
			jobs = append(jobs, batch.Job{Source: source, Category: cfg.Upload.DefaultCategory})
		}

		var recorder batch.Recorder
		if archive := openArchive(ctx, cfg, log); archive != nil {
			defer archive.Close()
			recorder = archive
		}

		results := batch.Run(ctx, cfg.Upload.Concurrent, client.Uploader(), recorder, nil, log, jobs)
		for _, r := range results {
			progress.Finish(r.Job.Source, r.MediaID, r.Error)
			if r.Error != nil {
				return fmt.Errorf("media upload failed, nothing was posted: %w", r.Error)
			}
			mediaIDs = append(mediaIDs, r.MediaID)
		}
	}

	tweet, err := client.CreateTweet(ctx, twitter.Post{
		Text:     args[0],
		MediaIDs: mediaIDs,
		ReplyTo:  postReplyTo,
		Quote:    postQuote,
	})
	if err != nil {
		return err
	}

	ui.PrintSuccess("Posted " + tweet.ID)
	ui.PrintInfo("URL", strings.TrimRight(cfg.Transport.WebBase, "/")+"/i/status/"+tweet.ID)
	if quiet {
		fmt.Println(tweet.ID)
	}
	return nil
}
