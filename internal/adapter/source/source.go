package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/imo/internal/adapter"
	"github.com/mmcdole/imo/internal/adapter/source/api"
	"github.com/mmcdole/imo/internal/adapter/source/redismarks"
	"github.com/mmcdole/imo/internal/domain"
)

// Backend bundles the collaborators a session needs from the outside world.
type Backend struct {
	Listings domain.ListingRepository
	Stats    domain.StatsRepository
	Marks    domain.MarksRemote // nil when marks stay local

	close func() error
}

// Close releases remote connections
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// NewBackend creates the listing client and the marks remote selected by cfg.
func NewBackend(cfg *adapter.Config, logger *slog.Logger) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if cfg.Server.URL == "" {
		return nil, fmt.Errorf("server URL is required")
	}

	client := api.NewClient(cfg.Server.URL, logger)
	b := &Backend{Listings: client, Stats: client}

	switch cfg.Remote.Kind {
	case adapter.RemoteHTTP, "":
		b.Marks = client

	case adapter.RemoteRedis:
		r := redismarks.New(redismarks.Options{
			Address:  cfg.Remote.Redis.Address,
			Password: cfg.Remote.Redis.Password,
			DB:       cfg.Remote.Redis.DB,
			Key:      cfg.Remote.Redis.Key,
		}, logger)
		b.Marks = r
		b.close = r.Close

		// Unreachable redis is not fatal; marks fall back to the local cache
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Remote.Timeout)
		if err := r.Ping(ctx); err != nil {
			logger.Warn("marks remote unreachable", "address", cfg.Remote.Redis.Address, "error", err)
		}
		cancel()

	case adapter.RemoteNone:
		// Marks stay local

	default:
		return nil, fmt.Errorf("unknown remote kind: %s", cfg.Remote.Kind)
	}
	return b, nil
}
