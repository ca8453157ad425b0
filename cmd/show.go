package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/claude-session/internal"
	"github.com/spf13/cobra"
)

var (
	showLast bool
	showRaw  bool
)

// historyLabels are the headings used when printing the conversation
type historyLabels struct {
	Question    string
	Answer      string
	Attachment  string
	Unavailable string
}

func labelsFor(locale string) historyLabels {
	if locale == "en" {
		return historyLabels{Question: "Question", Answer: "Answer", Attachment: "Image", Unavailable: "unavailable"}
	}
	return historyLabels{Question: "質問", Answer: "回答", Attachment: "画像添付", Unavailable: "読み込めません"}
}

type historyOptions struct {
	Locale string
	// LastOnly prints just the final exchange
	LastOnly bool
	// Raw prints assistant replies as the original Markdown
	Raw bool
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active conversation",
	Long: `Print the active conversation as numbered question and answer blocks.

Replies are shown as plain text; use --raw for the Markdown the model sent.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, store, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if sess.Ledger().IsEmpty() {
			internal.PrintInfo(out, "No conversation yet")
			return nil
		}

		renderHistory(out, sess.Ledger().Turns(), historyOptions{
			Locale:   cfg.Locale,
			LastOnly: showLast,
			Raw:      showRaw,
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showLast, "last", false, "Show only the last exchange")
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Show replies as Markdown")
}

// renderHistory writes turns as 【質問 N】/【回答 N】 blocks. Exchanges keep
// their numbers when only the last one is printed.
func renderHistory(w io.Writer, turns []internal.Turn, opts historyOptions) {
	labels := labelsFor(opts.Locale)

	start := 0
	if opts.LastOnly {
		for i := len(turns) - 1; i >= 0; i-- {
			if turns[i].Role == internal.RoleUser {
				start = i
				break
			}
		}
	}

	pair := 0
	for i, turn := range turns {
		label := labels.Answer
		if turn.Role == internal.RoleUser {
			pair++
			label = labels.Question
		}
		if i < start {
			continue
		}

		fmt.Fprintln(w, internal.Styled(w, internal.HeadingStyle, fmt.Sprintf("【%s %d】", label, pair)))
		content := turn.DisplayContent
		if opts.Raw {
			content = turn.CanonicalContent
		}
		fmt.Fprintln(w, content)
		if turn.HasAttachment() {
			fmt.Fprintln(w, internal.Styled(w, internal.DimStyle, attachmentLine(turn.AttachmentPath, labels)))
		}
		fmt.Fprintln(w)
	}
}

// attachmentLine describes an attached image. A file that can no longer be
// read is shown with a placeholder instead of failing the listing.
func attachmentLine(p string, labels historyLabels) string {
	name := filepath.Base(p)
	size, err := internal.AttachmentSize(p)
	if err != nil {
		internal.LogDebug("Attachment preview failed: %v", err)
		return fmt.Sprintf("[%s: %s (%s)]", labels.Attachment, name, labels.Unavailable)
	}
	return fmt.Sprintf("[%s: %s (%s)]", labels.Attachment, name, humanize.Bytes(uint64(size)))
}
