package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/claude-session/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckOffline bool
	healthcheckDetails bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that claude-session is ready to talk to the API",
	Long: `Check the health of claude-session by verifying:
  • Configuration
  • API key presence
  • Session database access
  • API reachability (skipped with --offline)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		ctx := cmd.Context()
		failed := 0

		fmt.Fprintln(w, internal.Styled(w, sectionStyle, "Claude Session Health Check"))
		fmt.Fprintln(w)

		// Step 1: Configuration
		fmt.Fprintln(w, internal.Styled(w, infoStyle, "Step 1: Checking configuration..."))
		fmt.Fprintln(w, internal.Styled(w, successStyle, "✅ Configuration loaded"))
		if healthcheckDetails {
			fmt.Fprintf(w, "   Model: %s (max %d tokens)\n", cfg.Model, cfg.MaxTokens)
			fmt.Fprintf(w, "   Locale: %s\n", cfg.Locale)
			fmt.Fprintf(w, "   Data dir: %s\n", cfg.DataDir)
			fmt.Fprintf(w, "   API: %s (version %s)\n", cfg.API.BaseURL, cfg.API.Version)
		}
		fmt.Fprintln(w)

		// Step 2: API key
		fmt.Fprintln(w, internal.Styled(w, infoStyle, "Step 2: Checking API key..."))
		hasKey := cfg.APIKey != ""
		if hasKey {
			fmt.Fprintln(w, internal.Styled(w, successStyle, "✅ API key found"))
		} else {
			failed++
			fmt.Fprintln(w, internal.Styled(w, errorStyle, fmt.Sprintf("❌ No API key (set %s or add it to .env)", internal.APIKeyEnv)))
		}
		fmt.Fprintln(w)

		// Step 3: Session store
		fmt.Fprintln(w, internal.Styled(w, infoStyle, "Step 3: Opening session database..."))
		if err := checkStore(ctx, w); err != nil {
			failed++
			fmt.Fprintln(w, internal.Styled(w, errorStyle, "❌ Session database unavailable:"), err)
		}
		fmt.Fprintln(w)

		// Step 4: API
		fmt.Fprintln(w, internal.Styled(w, infoStyle, "Step 4: Contacting the API..."))
		switch {
		case healthcheckOffline:
			fmt.Fprintln(w, internal.Styled(w, warningStyle, "⚠️  Skipped (--offline)"))
		case !hasKey:
			fmt.Fprintln(w, internal.Styled(w, warningStyle, "⚠️  Skipped (no API key)"))
		default:
			if err := checkAPI(ctx); err != nil {
				failed++
				fmt.Fprintln(w, internal.Styled(w, errorStyle, "❌ API unreachable:"), err)
			} else {
				fmt.Fprintln(w, internal.Styled(w, successStyle, "✅ API reachable"))
			}
		}
		fmt.Fprintln(w)

		// Summary
		fmt.Fprintln(w, internal.Styled(w, sectionStyle, "Summary"))
		if failed > 0 {
			fmt.Fprintln(w, internal.Styled(w, errorStyle, fmt.Sprintf("❌ %d check(s) failed", failed)))
			return fmt.Errorf("health check failed: %d check(s) failed", failed)
		}
		fmt.Fprintln(w, internal.Styled(w, successStyle, "✅ Health check passed!"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckOffline, "offline", false, "Skip contacting the API")
	healthcheckCmd.Flags().BoolVar(&healthcheckDetails, "details", false, "Show detailed diagnostic information")
}

func checkStore(ctx context.Context, w io.Writer) error {
	sess, store, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintln(w, internal.Styled(w, successStyle, fmt.Sprintf("✅ Session database ready (%d turns)", sess.Ledger().Len())))
	if healthcheckDetails {
		fmt.Fprintf(w, "   Database: %s\n", store.Path())
		fmt.Fprintf(w, "   Session model: %s, %d max tokens\n", sess.Model(), sess.MaxTokens())
	}
	return nil
}

func checkAPI(ctx context.Context) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return client.Heartbeat(ctx)
}
