package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/iksnae/claude-session/internal"
	"github.com/iksnae/claude-session/internal/importer"
	"github.com/spf13/cobra"
)

var resumeExtractDir string

// resumeCmd represents the resume command
var resumeCmd = &cobra.Command{
	Use:     "resume <file>",
	Aliases: []string{"import"},
	Short:   "Replace the conversation with an exported one",
	Long: `Load a conversation written by 'claude-session export' and make it the active one.

Accepts json, yaml and md files and zip bundles. Images in a bundle are
extracted (by default to a new directory under the system temp dir). The
file is validated completely before anything is replaced; on error the
active conversation is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, store, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		var res *importer.Result
		err = internal.ShowProgressWithSteps(ctx, []internal.ProgressStep{
			{
				Message: "Reading " + filepath.Base(args[0]),
				Fn: func() error {
					var importErr error
					res, importErr = importer.Import(args[0], importer.Options{ExtractDir: resumeExtractDir})
					return importErr
				},
			},
			{
				Message: "Saving conversation",
				Fn: func() error {
					sess.Replace(res.Turns, res.Metadata.Model, res.Metadata.CreatedAt)
					return store.SaveActive(ctx, sess)
				},
			},
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		internal.PrintSuccess(out, fmt.Sprintf("Resumed %d turns from %s", len(res.Turns), res.Source))
		if res.Bundled {
			internal.PrintInfo(out, fmt.Sprintf("Images extracted to %s", res.ExtractDir))
		}

		if !sess.Ledger().IsEmpty() {
			fmt.Fprintln(out)
			renderHistory(out, sess.Ledger().Turns(), historyOptions{Locale: cfg.Locale, LastOnly: true})
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.Flags().StringVar(&resumeExtractDir, "extract-dir", "", "Directory to extract bundled images into")
}
