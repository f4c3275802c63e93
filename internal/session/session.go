// Package session owns the current result set and view state, and re-runs
// the view pipeline whenever one of its inputs changes.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/imo/internal/bus"
	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/metrics"
	"github.com/mmcdole/imo/internal/view"
)

const defaultFetchTimeout = 30 * time.Second

// MarkStore is the part of the annotation store a session reads.
// *marks.Service satisfies it.
type MarkStore interface {
	Load(ctx context.Context) error
	All() domain.Marks
	Flush(ctx context.Context) error
}

// Deps are the collaborators of a Session. Stats, Slots and Logger are
// optional.
type Deps struct {
	Listings domain.ListingRepository
	Stats    domain.StatsRepository
	Marks    MarkStore
	Bus      *bus.Bus
	Slots    domain.SlotStore
	Logger   *slog.Logger

	Query        domain.ListingQuery
	View         view.Options
	FetchTimeout time.Duration
}

// Session is one dashboard: a result set, a view state and the sinks
// rendering them.
type Session struct {
	ID string

	listings domain.ListingRepository
	stats    domain.StatsRepository
	marks    MarkStore
	bus      *bus.Bus
	slots    domain.SlotStore
	logger   *slog.Logger
	opts     view.Options
	timeout  time.Duration

	mu       sync.Mutex // Serializes pipeline runs and state swaps
	raw      *domain.RawResultSet
	state    domain.ViewState
	query    domain.ListingQuery
	queryGen uint64 // Bumped by every query edit
	view     domain.DerivedView
	hasView  bool
	seq      uint64
	insights *domain.AggregateStats

	renderMu    sync.Mutex // Orders sink delivery
	renderedSeq uint64
	sinks       []domain.Renderer

	flightMu sync.Mutex
	flight   *call

	unsubscribe func()
}

type call struct {
	gen  uint64 // Query generation the fetch was started with
	done chan struct{}
	err  error
}

// New creates a session. Call Start to restore preferences, load marks and
// fetch the first result set.
func New(d Deps) *Session {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if d.Bus == nil {
		d.Bus = bus.New(logger)
	}
	timeout := d.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	id := uuid.NewString()

	return &Session{
		ID:       id,
		listings: d.Listings,
		stats:    d.Stats,
		marks:    d.Marks,
		bus:      d.Bus,
		slots:    d.Slots,
		logger:   logger.With("session", id),
		opts:     d.View,
		timeout:  timeout,
		query:    d.Query.Clone(),
		state:    domain.ViewState{SortDir: domain.Asc},
	}
}

// AddRenderer registers a sink. It receives every view computed afterwards.
func (s *Session) AddRenderer(r domain.Renderer) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	s.sinks = append(s.sinks, r)
}

// Start restores the persisted toggles, subscribes to mark changes, loads
// marks and runs the first refresh. A failed refresh is returned but leaves
// the session usable.
func (s *Session) Start(ctx context.Context) error {
	s.restorePreferences()

	s.unsubscribe = s.bus.Subscribe(domain.TopicMarksChanged, func(any) {
		s.Recompute()
	})

	if s.marks != nil {
		if err := s.marks.Load(ctx); err != nil {
			s.logger.Warn("failed to persist reconciled marks", "error", err)
		}
	}

	return s.Refresh(ctx)
}

// Close stops reacting to mark changes and waits for pending mark pushes.
func (s *Session) Close(ctx context.Context) error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	if s.marks != nil {
		return s.marks.Flush(ctx)
	}
	return nil
}

// Refresh fetches the current query. On success the result set is replaced
// and the view recomputed; on failure the previous state is kept. Calls
// arriving while a fetch of the same query is in flight share its outcome.
// A call made after the query changed waits for the in-flight fetch and
// then fetches again.
func (s *Session) Refresh(ctx context.Context) error {
	for {
		s.mu.Lock()
		q, gen := s.query.Clone(), s.queryGen
		s.mu.Unlock()

		s.flightMu.Lock()
		c := s.flight
		if c == nil {
			c = &call{gen: gen, done: make(chan struct{})}
			s.flight = c
			s.flightMu.Unlock()

			c.err = s.refresh(ctx, q)

			s.flightMu.Lock()
			s.flight = nil
			s.flightMu.Unlock()
			close(c.done)
			return c.err
		}
		s.flightMu.Unlock()

		select {
		case <-c.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if c.gen >= gen {
			return c.err
		}
	}
}

func (s *Session) refresh(ctx context.Context, q domain.ListingQuery) error {

	fctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.listings.GetListings(fctx, q)
	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	metrics.RefreshTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Error("failed to fetch listings", "error", err, "district", q.District)
		return fmt.Errorf("refresh listings: %w", err)
	}
	if raw == nil {
		raw = &domain.RawResultSet{}
	}
	s.logger.Debug("fetched listings", "count", raw.Len(), "district", q.District, "duration", time.Since(start))

	s.mu.Lock()
	s.raw = raw
	seq, v := s.computeLocked()
	s.mu.Unlock()
	s.render(seq, v)

	s.refreshInsights(ctx)
	return nil
}

// refreshInsights fetches aggregate stats for sinks that show them. Failures
// only cost the insights panel.
func (s *Session) refreshInsights(ctx context.Context) {
	if s.stats == nil || !s.wantsInsights() {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	st, err := s.stats.GetStats(sctx)
	if err != nil {
		s.logger.Warn("failed to fetch stats", "error", err)
		return
	}

	s.mu.Lock()
	s.insights = st
	s.mu.Unlock()

	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	for _, sink := range s.sinks {
		if ir, ok := sink.(domain.InsightsRenderer); ok {
			ir.RenderInsights(*st)
		}
	}
}

func (s *Session) wantsInsights() bool {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	for _, sink := range s.sinks {
		if _, ok := sink.(domain.InsightsRenderer); ok {
			return true
		}
	}
	return false
}

// Recompute re-runs the pipeline on the cached result set. It does nothing
// before the first successful refresh.
func (s *Session) Recompute() {
	s.mu.Lock()
	if s.raw == nil {
		s.mu.Unlock()
		return
	}
	seq, v := s.computeLocked()
	s.mu.Unlock()
	s.render(seq, v)
}

// computeLocked must be called with s.mu held.
func (s *Session) computeLocked() (uint64, domain.DerivedView) {
	var marks domain.Marks
	if s.marks != nil {
		marks = s.marks.All()
	}
	v := view.Compute(s.raw, marks, s.state, s.opts)
	s.view = v
	s.hasView = true
	s.seq++

	metrics.PipelineRuns.Inc()
	metrics.VisibleListings.Set(float64(v.VisibleCount()))
	return s.seq, v
}

// render delivers v unless a newer view was already rendered.
func (s *Session) render(seq uint64, v domain.DerivedView) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if seq <= s.renderedSeq {
		return
	}
	s.renderedSeq = seq
	for _, sink := range s.sinks {
		sink.Render(v)
	}
}

// View returns the last derived view; false before the first refresh.
func (s *Session) View() (domain.DerivedView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.hasView
}

// Insights returns the last aggregate stats, if any were fetched.
func (s *Session) Insights() (domain.AggregateStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insights == nil {
		return domain.AggregateStats{}, false
	}
	return *s.insights, true
}

// Raw returns the cached result set or domain.ErrNoResultSet.
func (s *Session) Raw() (*domain.RawResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, domain.ErrNoResultSet
	}
	return s.raw, nil
}

// Marks returns a snapshot of the user's marks.
func (s *Session) Marks() domain.Marks {
	if s.marks == nil {
		return domain.Marks{}
	}
	return s.marks.All()
}

// Bus returns the bus the session listens on.
func (s *Session) Bus() *bus.Bus { return s.bus }
