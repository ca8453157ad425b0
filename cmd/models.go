package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/iksnae/claude-session/internal"
	"github.com/spf13/cobra"
)

// modelCacheTTL is how long a cached model list is used without asking the API
const modelCacheTTL = 24 * time.Hour

var modelsRefresh bool

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	currentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// modelsCmd represents the models command
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available Claude models",
	Long: `List the Claude models available to your API key.

The list is cached in the data directory for a day. When the API cannot be
reached the cached list is shown instead, however old it is.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		cache := internal.NewModelCache(cfg.ModelCachePath())

		index, fromCache, err := loadModels(ctx, cache, modelsRefresh)
		if err != nil {
			return err
		}

		fmt.Fprintln(out, internal.Styled(out, headerStyle, fmt.Sprintf("%d models", len(index.Models))))
		for _, m := range index.Models {
			if m == cfg.Model {
				fmt.Fprintln(out, internal.Styled(out, currentStyle, "* "+m))
				continue
			}
			fmt.Fprintln(out, "  "+m)
		}
		if fromCache {
			fmt.Fprintln(out, internal.Styled(out, internal.DimStyle, fmt.Sprintf("cached %s", humanize.Time(index.FetchedAt))))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().BoolVar(&modelsRefresh, "refresh", false, "Ignore the cache and ask the API")
}

// loadModels returns the model list and whether it came from the cache
func loadModels(ctx context.Context, cache *internal.ModelCache, refresh bool) (*internal.ModelIndex, bool, error) {
	if !refresh && cache.Exists() {
		index, err := cache.Load()
		if err == nil && index.Age() < modelCacheTTL {
			internal.LogDebug("Using model cache %s", cache.Path())
			return index, true, nil
		}
		if err != nil {
			internal.LogWarn("Failed to read model cache: %v", err)
		}
	}

	models, source, fetchErr := fetchModels(ctx)
	if fetchErr == nil {
		if err := cache.Save(models, source); err != nil {
			internal.LogWarn("Failed to save model cache: %v", err)
		}
		return &internal.ModelIndex{Models: models, FetchedAt: time.Now()}, false, nil
	}

	internal.LogWarn("Failed to fetch models: %v", fetchErr)
	index, err := cache.Load()
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch models and no cache is available: %w", fetchErr)
	}
	return index, true, nil
}

// fetchModels asks the API and names the endpoint that answered
func fetchModels(ctx context.Context) ([]string, string, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, "", err
	}
	source := "api"
	if b, ok := client.(interface{ BaseURL() string }); ok {
		source = b.BaseURL()
	}

	var models []string
	err = internal.ShowProgress(ctx, "Fetching model list", func() error {
		var listErr error
		models, listErr = client.ListModels(ctx)
		return listErr
	})
	return models, source, err
}
