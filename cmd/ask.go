package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askImage string
	askModel string
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <text>",
	Short: "Send a question in the active conversation",
	Long: `Send a question, optionally with an image, and print the reply.

The whole conversation so far is sent with the question. If the request
fails the question is discarded and the conversation is left as it was.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, store, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if askModel != "" {
			if err := sess.SetModel(askModel); err != nil {
				return fmt.Errorf("cannot switch to %s: %w", askModel, err)
			}
		}
		if err := connect(sess); err != nil {
			return err
		}

		reply, err := ask(ctx, sess, store, strings.Join(args, " "), askImage)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), reply.DisplayContent)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askImage, "image", "i", "", "Attach an image to the question")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "Model to use (only before the conversation starts)")
}
