package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/iksnae/claude-session/internal"
	"github.com/spf13/cobra"
)

var chatModel string

const chatHelp = `Commands:
  /image <path>  attach an image to the next question
  /show          print the conversation so far
  /quit          leave the chat`

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to Claude interactively",
	Long: `Start an interactive loop on the active conversation.

Each line is sent as a question. Lines starting with / are commands:

` + chatHelp,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, store, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		if chatModel != "" {
			if err := sess.SetModel(chatModel); err != nil {
				return fmt.Errorf("cannot switch to %s: %w", chatModel, err)
			}
		}
		if err := connect(sess); err != nil {
			return err
		}

		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
		fmt.Fprintln(out, internal.Styled(out, internal.HeadingStyle, fmt.Sprintf("Chatting with %s (%d turns so far)", sess.Model(), sess.Ledger().Len())))
		fmt.Fprintln(out, internal.Styled(out, internal.DimStyle, chatHelp))

		var pendingImage string
		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())

			switch {
			case line == "":
				continue
			case line == "/quit" || line == "/exit":
				return nil
			case line == "/show":
				renderHistory(out, sess.Ledger().Turns(), historyOptions{Locale: cfg.Locale})
				continue
			case strings.HasPrefix(line, "/image"):
				p := strings.TrimSpace(strings.TrimPrefix(line, "/image"))
				if p == "" {
					pendingImage = ""
					internal.PrintInfo(out, "Image cleared")
					continue
				}
				if _, err := internal.AttachmentSize(p); err != nil {
					internal.PrintError(errOut, err.Error())
					continue
				}
				pendingImage = p
				internal.PrintInfo(out, fmt.Sprintf("%s will be sent with the next question", p))
				continue
			case strings.HasPrefix(line, "/"):
				internal.PrintWarning(errOut, fmt.Sprintf("Unknown command %s", line))
				continue
			}

			reply, err := ask(ctx, sess, store, line, pendingImage)
			if err != nil {
				internal.PrintError(errOut, err.Error())
				continue
			}
			pendingImage = ""
			fmt.Fprintln(out, reply.DisplayContent)
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "Model to use (only before the conversation starts)")
}
