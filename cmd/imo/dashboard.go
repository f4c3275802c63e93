package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/imo/internal/adapter"
	"github.com/mmcdole/imo/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive dashboard (default)",
	Long: `Open the interactive dashboard.

When stdout is not a terminal the current view is printed as text instead.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		logger.Info("stdout is not a terminal, printing text view")
		return runList(cmd, args)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	launcher := adapter.NewLauncher(cfg.Browser.Command, cfg.Browser.Args, logger)
	model := tui.NewModel(a.session, a.marks, launcher, cfg.Query.District)

	p := tea.NewProgram(model, tea.WithAltScreen())
	a.session.AddRenderer(tui.NewSink(p))

	logger.Info("starting TUI", "session", a.session.ID)

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
