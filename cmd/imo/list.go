package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/render"
)

var (
	listSort          string
	listDesc          bool
	listSearch        string
	listHideDiscarded bool
	listOnlyLoved     bool
	listNoURLs        bool
	listNoSummary     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the current view as text",
	Long: `Fetch listings for the configured query and print them as a table,
followed by rent/buy summaries and the yield table.

--hide-discarded and --only-loved are saved like the dashboard toggles.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listSort, "sort", "",
		"Sort field: source, title, url, snippet, price_eur, area_m2, eur_m2")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "Sort descending")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter title and snippet")
	listCmd.Flags().BoolVar(&listHideDiscarded, "hide-discarded", false, "Hide discarded listings")
	listCmd.Flags().BoolVar(&listOnlyLoved, "only-loved", false, "Show only loved listings")
	listCmd.Flags().BoolVar(&listNoURLs, "no-urls", false, "Omit the URL column")
	listCmd.Flags().BoolVar(&listNoSummary, "no-summary", false, "Omit bucket summaries")
	rootCmd.AddCommand(listCmd)
}

// insightsOnly asks the session to fetch aggregate stats without printing
// intermediate views.
type insightsOnly struct{}

func (insightsOnly) Render(domain.DerivedView)            {}
func (insightsOnly) RenderInsights(domain.AggregateStats) {}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	s := a.session
	s.AddRenderer(insightsOnly{})

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("failed to fetch listings: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("hide-discarded") || flags.Changed("only-loved") {
		st := s.State()
		hide, loved := st.HideDiscarded, st.OnlyLoved
		if flags.Changed("hide-discarded") {
			hide = listHideDiscarded
		}
		if flags.Changed("only-loved") {
			loved = listOnlyLoved
		}
		s.SetToggles(hide, loved)
	}
	if listSort != "" {
		if err := s.SortBy(domain.SortField(listSort)); err != nil {
			return err
		}
		if listDesc {
			// Second call on the same field flips the direction
			s.SortBy(domain.SortField(listSort))
		}
	}
	if listSearch != "" {
		s.SetSearch(listSearch)
	}

	v, ok := s.View()
	if !ok {
		return domain.ErrNoResultSet
	}

	out := render.NewText(os.Stdout)
	out.ShowURLs = !listNoURLs
	out.Summary = !listNoSummary
	out.Render(v)
	if st, ok := s.Insights(); ok {
		out.RenderInsights(st)
	}
	return nil
}
