package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iksnae/claude-session/internal"
	"github.com/iksnae/claude-session/internal/export"
	"github.com/spf13/cobra"
)

var (
	clearYes    bool
	clearSaveAs string
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Start a new conversation",
	Long: `Discard the active conversation.

A non-empty conversation is only cleared with --yes. Use --save-as to export
it first; the format follows the file extension (.json, .yaml, .md, or .zip
for a json bundle). Nothing is cleared if the export fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, store, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		n := sess.Ledger().Len()
		if n == 0 {
			internal.PrintInfo(out, "Nothing to clear")
			return nil
		}
		if !clearYes {
			return fmt.Errorf("the conversation has %d turns; rerun with --yes to clear it (or --save-as to keep a copy)", n)
		}

		if clearSaveAs != "" {
			f, bundle, err := formatForPath(clearSaveAs)
			if err != nil {
				return err
			}
			res, err := export.Export(sess.Ledger().Turns(), export.Options{
				Format:   f,
				Bundle:   bundle,
				Metadata: sess.Metadata(),
				Locale:   cfg.Locale,
			}, clearSaveAs)
			if err != nil {
				return err
			}
			internal.PrintSuccess(out, fmt.Sprintf("Saved %d turns to %s", n, res.Path))
		}

		if err := store.ClearActive(ctx); err != nil {
			return err
		}
		sess.Reset()
		internal.PrintSuccess(out, "Conversation cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Clear without asking")
	clearCmd.Flags().StringVar(&clearSaveAs, "save-as", "", "Export the conversation to this file before clearing")
}

// formatForPath picks an export format from a file extension
func formatForPath(p string) (export.Format, bool, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), ".")
	if ext == "zip" {
		return export.FormatJSON, true, nil
	}
	f, err := export.ParseFormat(ext)
	if err != nil {
		return "", false, err
	}
	return f, false, nil
}
