package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/iksnae/claude-session/internal"
	"github.com/iksnae/claude-session/internal/transport"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	dataDir    string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"

	// cfg is loaded before every command runs
	cfg *internal.Config
)

// apiClient is the slice of the Messages API client the commands use
type apiClient interface {
	internal.Transport
	ListModels(ctx context.Context) ([]string, error)
	Heartbeat(ctx context.Context) error
}

// newClient builds the API client; tests replace it with a stub
var newClient = func(c *internal.Config) (apiClient, error) {
	return transport.New(transport.Config{
		BaseURL: c.API.BaseURL,
		Version: c.API.Version,
		Timeout: c.API.Timeout,
	}, c.APIKey, internal.Logger())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "claude-session",
	Short: "Chat with Claude from the terminal and keep the conversation",
	Long: `A CLI for holding a conversation with Claude through the Anthropic Messages API.

The active conversation is kept between invocations, can be exported as
JSON, YAML or a Markdown transcript (optionally bundled with its images in a
zip archive) and resumed later from any of those files.

Quick Start:
  claude-session ask "What is a monad?"          # Ask a question
  claude-session ask --image cat.png "What's this?"
  claude-session show                             # Print the history
  claude-session export --format md --bundle      # Save the conversation
  claude-session resume claude_conversation.zip   # Pick it up again

The API key is read from ANTHROPIC_API_KEY (a .env file in the working
directory is loaded first).`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := internal.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if dataDir != "" {
			c.DataDir = dataDir
		}
		if err := internal.InitLogger(c.Logging.Level, c.Logging.Format); err != nil {
			return err
		}
		if verbose {
			internal.SetVerbose(true)
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		internal.SyncLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.claude-session/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the session database and model cache")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// openSession opens the session store and restores the active conversation.
// The caller closes the store.
func openSession(ctx context.Context) (*internal.Session, *internal.SessionStore, error) {
	store, err := internal.OpenSessionStore(cfg.StorePath())
	if err != nil {
		return nil, nil, err
	}

	sess := internal.NewSession(nil, cfg.Model, cfg.MaxTokens)
	restored, err := store.Restore(ctx, sess)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	if restored {
		internal.LogDebug("Restored %d turns from %s", sess.Ledger().Len(), store.Path())
	}
	return sess, store, nil
}

// connect attaches an API client to sess
func connect(sess *internal.Session) error {
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	sess.SetTransport(client)
	return nil
}

// ask runs one request cycle behind a spinner and persists the result
func ask(ctx context.Context, sess *internal.Session, store *internal.SessionStore, text, image string) (internal.Turn, error) {
	var reply internal.Turn
	err := internal.ShowProgress(ctx, fmt.Sprintf("Waiting for %s", sess.Model()), func() error {
		var askErr error
		reply, askErr = sess.Ask(ctx, text, image)
		return askErr
	})
	if transport.HasCode(err, transport.ErrCodeAuthentication) {
		return internal.Turn{}, fmt.Errorf("%w (set %s or add it to .env)", err, internal.APIKeyEnv)
	}
	if err != nil {
		return internal.Turn{}, err
	}
	if err := store.SaveActive(ctx, sess); err != nil {
		return reply, err
	}
	return reply, nil
}
