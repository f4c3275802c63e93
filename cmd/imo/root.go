package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmcdole/imo/internal/adapter"
	"github.com/mmcdole/imo/internal/domain"
)

var (
	serverURL  string
	district   string
	remoteKind string
	logLevel   string

	cfg    *adapter.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "imo",
	Short: "Real-estate listing dashboard",
	Long: `imo browses property listings from an imo listing service.

Listings can be loved or discarded; marks are kept locally and synced
to the service (or a redis hash) in the background.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runDashboard,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"Listing service URL (overrides server.url)")
	rootCmd.PersistentFlags().StringVarP(&district, "district", "d", "",
		"District to query (overrides query.district)")
	rootCmd.PersistentFlags().StringVar(&remoteKind, "remote", "",
		"Marks remote: http, redis or none (overrides remote.kind)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "",
		"Log level: debug, info, warn, error")
}

// setup loads configuration, applies flag overrides and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if serverURL != "" {
		loaded.Server.URL = serverURL
	}
	if district != "" {
		loaded.Query.District = district
	}
	if remoteKind != "" {
		loaded.Remote.Kind = adapter.RemoteKind(remoteKind)
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}
	loaded.Query.Typology = domain.NormalizeTypology(loaded.Query.Typology)
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	l, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		l = adapter.NullLogger()
	}
	slog.SetDefault(l)
	logger = l

	logger.Info("starting imo", "version", Version, "command", cmd.Name())
	return nil
}
