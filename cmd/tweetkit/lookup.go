package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tweetkit/pkg/ui"
)

var (
	lookupJSON  bool
	tweetThread bool
)

var userCmd = &cobra.Command{
	Use:   "user <screen-name>",
	Short: "Show a user profile",
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
		user, err := client.UserByScreenName(ctx, strings.TrimPrefix(args[0], "@"))
		if err != nil {
			return err
		}
		if lookupJSON {
			return printJSON(user)
		}
		fmt.Println(ui.FormatUser(user))
		return nil
	},
}

var tweetCmd = &cobra.Command{
	Use:   "tweet <tweet-id>",
	Short: "Show a post, or its whole conversation with --thread",
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

		if !tweetThread {
			tweet, err := client.TweetDetail(ctx, args[0])
			if err != nil {
				return err
			}
			if lookupJSON {
				return printJSON(tweet)
			}
			fmt.Println(ui.FormatTweet(tweet))
			return nil
		}

		tweets, err := client.TweetConversation(ctx, args[0])
		if err != nil {
			return err
		}
		if lookupJSON {
			return printJSON(tweets)
		}
		for i := range tweets {
			fmt.Println(ui.FormatTweet(&tweets[i]))
		}
		return nil
	},
}

func init() {
	userCmd.Flags().BoolVar(&lookupJSON, "json", false, "print the parsed record as JSON")
	tweetCmd.Flags().BoolVar(&lookupJSON, "json", false, "print the parsed records as JSON")
	tweetCmd.Flags().BoolVar(&tweetThread, "thread", false, "show every post of the conversation")
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(tweetCmd)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
