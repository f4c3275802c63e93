package source

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/imo/internal/adapter"
	"github.com/mmcdole/imo/internal/adapter/source/api"
	"github.com/mmcdole/imo/internal/adapter/source/redismarks"
)

func TestNewBackendKinds(t *testing.T) {
	cfg := adapter.DefaultConfig()

	b, err := NewBackend(cfg, adapter.NullLogger())
	require.NoError(t, err)
	assert.IsType(t, &api.Client{}, b.Marks)
	assert.NoError(t, b.Close())

	cfg.Remote.Kind = adapter.RemoteRedis
	b, err = NewBackend(cfg, adapter.NullLogger())
	require.NoError(t, err)
	assert.IsType(t, &redismarks.Remote{}, b.Marks)
	assert.NoError(t, b.Close())

	cfg.Remote.Kind = adapter.RemoteNone
	b, err = NewBackend(cfg, adapter.NullLogger())
	require.NoError(t, err)
	assert.Nil(t, b.Marks)

	cfg.Remote.Kind = "smoke-signals"
	_, err = NewBackend(cfg, adapter.NullLogger())
	assert.Error(t, err)
}

func TestNewBackendRequiresURL(t *testing.T) {
	cfg := adapter.DefaultConfig()
	cfg.Server.URL = ""
	_, err := NewBackend(cfg, adapter.NullLogger())
	assert.Error(t, err)

	_, err = NewBackend(nil, adapter.NullLogger())
	assert.Error(t, err)
}

func TestNewBackendPingsRedis(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	mr := miniredis.RunT(t)
	cfg := adapter.DefaultConfig()
	cfg.Remote.Kind = adapter.RemoteRedis
	cfg.Remote.Redis.Address = mr.Addr()

	b, err := NewBackend(cfg, logger)
	require.NoError(t, err)
	assert.NoError(t, b.Close())
	assert.NotContains(t, buf.String(), "unreachable")

	// Nothing listens here; construction still succeeds
	mr.Close()
	cfg.Remote.Timeout = 200 * time.Millisecond
	b, err = NewBackend(cfg, logger)
	require.NoError(t, err)
	assert.NotNil(t, b.Marks)
	assert.NoError(t, b.Close())
	assert.Contains(t, buf.String(), "marks remote unreachable")
}
