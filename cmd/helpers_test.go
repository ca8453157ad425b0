package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/claude-session/internal"
	"github.com/iksnae/claude-session/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// fakeClient stands in for the Messages API
type fakeClient struct {
	internal.StubTransport
	Models       []string
	ListErr      error
	HeartbeatErr error
}

func (f *fakeClient) ListModels(ctx context.Context) ([]string, error) {
	return f.Models, f.ListErr
}

func (f *fakeClient) Heartbeat(ctx context.Context) error {
	return f.HeartbeatErr
}

// useClient makes every command talk to client
func useClient(t *testing.T, client *fakeClient) {
	t.Helper()
	orig := newClient
	newClient = func(*internal.Config) (apiClient, error) {
		return client, nil
	}
	t.Cleanup(func() { newClient = orig })
}

// isolate points HOME at a temp dir so no real config or .env is picked up
func isolate(t *testing.T) string {
	t.Helper()
	home := testutil.CreateTempDir(t)
	t.Setenv("HOME", home)
	t.Setenv(internal.APIKeyEnv, "")
	return testutil.CreateTempDir(t)
}

// resetFlags restores every flag to its default. Cobra keeps flag values
// between Execute calls on the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCommand executes the CLI against dataDir and returns stdout and stderr
func runCommand(t *testing.T, dataDir string, args ...string) (string, string, error) {
	t.Helper()
	return runCommandWithInput(t, dataDir, "", args...)
}

func runCommandWithInput(t *testing.T, dataDir, input string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(input))

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// storedTurns reads the active conversation straight from the store
func storedTurns(t *testing.T, dataDir string) []internal.Turn {
	t.Helper()
	store, err := internal.OpenSessionStore(filepath.Join(dataDir, "session.db"))
	if err != nil {
		t.Fatalf("OpenSessionStore() error = %v", err)
	}
	defer store.Close()

	stored, err := store.LoadActive(context.Background(), nil)
	if err != nil {
		t.Fatalf("LoadActive() error = %v", err)
	}
	if stored == nil {
		return nil
	}
	return stored.Turns
}
