package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/iksnae/claude-session/internal"
	"github.com/iksnae/claude-session/internal/export"
	"github.com/spf13/cobra"
)

var (
	format       string
	exportBundle bool
	exportOut    string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the conversation to a file",
	Long: `Export the active conversation as json, yaml or md (a question/answer transcript).

With --bundle the document and every attached image are written to a zip
archive whose document refers to the images as img/<name>. Without --out the
file is named claude_conversation_YYYYMMDD_HHMMSS in the current directory;
if --out is a directory the default name is used inside it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}

		sess, store, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		turns := sess.Ledger().Turns()
		if len(turns) == 0 {
			internal.PrintWarning(cmd.ErrOrStderr(), "The conversation is empty; writing an empty document")
		}

		now := time.Now()
		dest := exportDestination(exportOut, f, exportBundle, now)
		res, err := export.Export(turns, export.Options{
			Format:   f,
			Bundle:   exportBundle,
			Metadata: sess.Metadata(),
			Locale:   cfg.Locale,
			Now:      now,
		}, dest)
		if err != nil {
			return err
		}

		internal.PrintSuccess(out, fmt.Sprintf("Exported %d turns to %s (%s)", len(turns), res.Path, humanize.Bytes(uint64(res.Bytes))))
		if res.Bundled {
			internal.PrintInfo(out, fmt.Sprintf("Bundled %d image(s)", res.Attachments))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "Export format (json, yaml, md)")
	exportCmd.Flags().BoolVar(&exportBundle, "bundle", false, "Write a zip archive holding the document and its images")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file or directory")
}

func exportDestination(out string, f export.Format, bundle bool, now time.Time) string {
	name := export.DefaultFilename(f, bundle, now)
	if out == "" {
		return name
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, name)
	}
	return out
}
