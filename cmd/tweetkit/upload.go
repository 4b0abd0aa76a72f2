package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tweetkit/internal/batch"
	"tweetkit/pkg/config"
	"tweetkit/pkg/logger"
	"tweetkit/pkg/storage"
	"tweetkit/pkg/ui"
	"tweetkit/pkg/upload"
)

var (
	uploadCategory     string
	uploadConcurrent   int
	uploadPollDeadline time.Duration
	uploadNoArchive    bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file|gif-url>...",
	Short: "Upload media and print the media ids",
	Long: `Upload one or more local files, or remote gif URLs, through the chunked
media endpoint. Each source gets its own session; sources are uploaded
concurrently and the printed media ids can be attached to a post.`,
	Example: `  tweetkit upload photo.jpg
  tweetkit upload --category tweet_video clip.mp4
  tweetkit upload -j 4 a.png b.png c.gif
  tweetkit upload https://media.example.com/cat.gif`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadCategory, "category", "", "media category (tweet_image, tweet_gif, tweet_video); inferred when empty")
	uploadCmd.Flags().IntVarP(&uploadConcurrent, "concurrent", "j", 0, "number of concurrent uploads")
	uploadCmd.Flags().DurationVar(&uploadPollDeadline, "poll-deadline", 0, "give up waiting for processing after this long (0 waits for the server)")
	uploadCmd.Flags().BoolVar(&uploadNoArchive, "no-archive", false, "do not record uploads in the local archive")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(map[string]interface{}{
		"category":      uploadCategory,
		"concurrent":    uploadConcurrent,
		"poll-deadline": uploadPollDeadline,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	workers := cfg.Upload.Concurrent
	if workers > len(args) {
		workers = len(args)
	}
	progress := ui.NewUploadProgress(ui.Default().Out(), workers > 1)

	client, err := newClient(ctx, cfg, log, upload.WithProgress(progress.Handle))
	if err != nil {
		return err
	}

	var recorder batch.Recorder
	if !uploadNoArchive {
		if archive := openArchive(ctx, cfg, log); archive != nil {
			defer archive.Close()
			recorder = archive
		}
	}

	jobs := make([]batch.Job, 0, len(args))
	for _, source := range args {
		jobs = append(jobs, batch.Job{Source: source, Category: cfg.Upload.DefaultCategory})
	}

	results := batch.Run(ctx, workers, client.Uploader(), recorder, nil, log, jobs)
	for _, r := range results {
		progress.Finish(r.Job.Source, r.MediaID, r.Error)
		// Quiet runs still print the ids so they can be piped into post.
		if quiet && r.Error == nil {
			fmt.Println(r.MediaID)
		}
	}
	progress.Summary()

	succeeded, failed := batch.Summary(results)
	notify := notifier()
	if failed > 0 {
		notify.Failure("tweetkit upload", fmt.Sprintf("%d of %d uploads failed", failed, len(results)))
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	notify.Success("tweetkit upload", fmt.Sprintf("%d media uploaded", succeeded))
	return nil
}

// openArchive opens the local archive. Failures are reported and the command
// carries on without it.
func openArchive(ctx context.Context, cfg *config.Config, log logger.Logger) *storage.Manager {
	if cfg.Archive.Path == "" {
		return nil
	}
	archive, err := storage.Open(ctx, cfg.Archive.Path, log)
	if err != nil {
		ui.PrintWarning("Archive unavailable", err)
		return nil
	}
	return archive
}
