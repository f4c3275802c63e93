package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/imo/internal/bus"
	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/marks"
	"github.com/mmcdole/imo/internal/store"
	"github.com/mmcdole/imo/internal/view"
)

var f = domain.Float

type fakeListings struct {
	mu      sync.Mutex
	results *domain.RawResultSet
	err     error
	calls   atomic.Int32
	gate    chan struct{}
	queries []domain.ListingQuery
}

func (r *fakeListings) GetListings(ctx context.Context, q domain.ListingQuery) (*domain.RawResultSet, error) {
	r.calls.Add(1)
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	if r.err != nil {
		return nil, r.err
	}
	return r.results, nil
}

func (r *fakeListings) set(rs *domain.RawResultSet, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results, r.err = rs, err
}

type fakeStats struct {
	stats *domain.AggregateStats
	err   error
}

func (f *fakeStats) GetStats(ctx context.Context) (*domain.AggregateStats, error) {
	return f.stats, f.err
}

type sink struct {
	mu       sync.Mutex
	views    []domain.DerivedView
	insights []domain.AggregateStats
}

func (s *sink) Render(v domain.DerivedView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, v)
}

func (s *sink) RenderInsights(st domain.AggregateStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insights = append(s.insights, st)
}

func (s *sink) last() domain.DerivedView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[len(s.views)-1]
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func results() *domain.RawResultSet {
	return &domain.RawResultSet{Results: []domain.Listing{
		{URL: "a", Source: "olx", Title: "Alfa", PriceEUR: f(800), AreaM2: f(60), EurM2: f(13.3)},
		{URL: "b", Source: "idealista", Title: "Beta", PriceEUR: f(200000), AreaM2: f(90), EurM2: f(2222)},
		{URL: "c", Source: "olx", Title: "Gama", PriceEUR: nil},
	}}
}

type fixture struct {
	session  *Session
	listings *fakeListings
	marks    *marks.Service
	slots    *store.SlotStore
	sink     *sink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	slots, err := store.NewSlotStore("", "")
	require.NoError(t, err)

	b := bus.New(quiet())
	m := marks.NewService(slots, nil, b, quiet())
	listings := &fakeListings{results: results()}
	sk := &sink{}

	s := New(Deps{
		Listings: listings,
		Stats:    &fakeStats{stats: &domain.AggregateStats{Yields: []domain.Yield{{District: "Leiria", Yield: 0.05}}}},
		Marks:    m,
		Bus:      b,
		Slots:    slots,
		Logger:   quiet(),
		Query:    domain.DefaultQuery(),
		View:     view.DefaultOptions(),
	})
	s.AddRenderer(sk)
	t.Cleanup(func() { s.Close(context.Background()) })

	return &fixture{session: s, listings: listings, marks: m, slots: slots, sink: sk}
}

func visibleURLs(v domain.DerivedView) []string {
	out := make([]string, len(v.Visible))
	for i, l := range v.Visible {
		out[i] = l.URL
	}
	return out
}

func TestStartRendersFirstView(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.session.Start(context.Background()))

	require.Equal(t, 1, fx.sink.count())
	v := fx.sink.last()
	assert.Equal(t, []string{"a", "b", "c"}, visibleURLs(v))
	assert.Equal(t, 1, v.Rent.Count())
	assert.Equal(t, 1, v.Buy.Count())

	require.Len(t, fx.sink.insights, 1)
	assert.Equal(t, "Leiria", fx.sink.insights[0].Yields[0].District)

	assert.NotEmpty(t, fx.session.ID)
}

func TestRefreshFailureKeepsPreviousState(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.session.Start(context.Background()))
	before, _ := fx.session.View()

	fx.listings.set(nil, domain.ErrServerOffline)
	err := fx.session.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrServerOffline)

	after, ok := fx.session.View()
	require.True(t, ok)
	assert.Equal(t, visibleURLs(before), visibleURLs(after))
	assert.Equal(t, 1, fx.sink.count(), "failed refresh renders nothing")

	raw, err := fx.session.Raw()
	require.NoError(t, err)
	assert.Equal(t, 3, raw.Len())
}

func TestRecomputeWithoutResultSetIsNoop(t *testing.T) {
	fx := newFixture(t)
	fx.session.Recompute()
	fx.session.SetHideDiscarded(true)

	assert.Equal(t, 0, fx.sink.count())
	_, ok := fx.session.View()
	assert.False(t, ok)
	_, err := fx.session.Raw()
	assert.ErrorIs(t, err, domain.ErrNoResultSet)
}

func TestMarkChangeRecomputesWithoutRefetch(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.session.Start(ctx))
	fx.session.SetOnlyLoved(true)
	assert.Empty(t, fx.sink.last().Visible)

	require.NoError(t, fx.marks.Set(ctx, "b", domain.MarkLoved))

	assert.Equal(t, []string{"b"}, visibleURLs(fx.sink.last()))
	assert.Equal(t, int32(1), fx.listings.calls.Load())
}

func TestTogglesArePersistedAndRestored(t *testing.T) {
	fx := newFixture(t)
	fx.session.SetToggles(true, false)

	data, ok := fx.slots.Load(domain.SlotUI)
	require.True(t, ok)
	assert.JSONEq(t, `{"hide_discarded":1,"only_loved":0}`, string(data))

	next := New(Deps{Listings: fx.listings, Slots: fx.slots, Logger: quiet()})
	require.NoError(t, next.Start(context.Background()))
	defer next.Close(context.Background())
	assert.True(t, next.State().HideDiscarded)
	assert.False(t, next.State().OnlyLoved)
}

func TestCorruptPreferencesIgnored(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.slots.Save(domain.SlotUI, []byte("][")))
	require.NoError(t, fx.session.Start(context.Background()))
	assert.False(t, fx.session.State().HideDiscarded)
}

func TestHideDiscarded(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.session.Start(ctx))
	require.NoError(t, fx.marks.Set(ctx, "a", domain.MarkDiscarded))

	fx.session.SetHideDiscarded(true)
	assert.Equal(t, []string{"b", "c"}, visibleURLs(fx.sink.last()))

	fx.session.SetOnlyLoved(true)
	assert.Empty(t, fx.sink.last().Visible, "only loved wins over hide discarded")
}

func TestSortBy(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.session.Start(context.Background()))

	require.NoError(t, fx.session.SortBy(domain.SortPriceEUR))
	assert.Equal(t, []string{"a", "b", "c"}, visibleURLs(fx.sink.last()))
	assert.Equal(t, domain.Asc, fx.session.State().SortDir)

	require.NoError(t, fx.session.SortBy(domain.SortPriceEUR))
	assert.Equal(t, []string{"b", "a", "c"}, visibleURLs(fx.sink.last()), "missing price stays last")
	assert.Equal(t, domain.Desc, fx.session.State().SortDir)

	require.NoError(t, fx.session.SortBy(domain.SortTitle))
	assert.Equal(t, domain.Asc, fx.session.State().SortDir)

	assert.Error(t, fx.session.SortBy("bedrooms"))
}

func TestSetSearch(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.session.Start(context.Background()))

	fx.session.SetSearch("gama")
	assert.Equal(t, []string{"c"}, visibleURLs(fx.sink.last()))

	fx.session.SetSearch("")
	assert.Len(t, fx.sink.last().Visible, 3)
}

func TestUpdateQueryRefetches(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.session.Start(ctx))

	require.NoError(t, fx.session.UpdateQuery(ctx, func(q *domain.ListingQuery) { q.District = "Porto" }))

	assert.Equal(t, int32(2), fx.listings.calls.Load())
	assert.Equal(t, "Porto", fx.listings.queries[1].District)
	assert.Equal(t, "Porto", fx.session.Query().District)
}

func TestConcurrentRefreshIsCoalesced(t *testing.T) {
	fx := newFixture(t)
	fx.listings.gate = make(chan struct{})

	var wg sync.WaitGroup
	var started atomic.Int32
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Add(1)
			errs[i] = fx.session.Refresh(context.Background())
		}(i)
	}

	require.Eventually(t, func() bool {
		return started.Load() == 5 && fx.listings.calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(fx.listings.gate)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), fx.listings.calls.Load())
}

func TestCoalescedCallersShareError(t *testing.T) {
	fx := newFixture(t)
	fx.listings.gate = make(chan struct{})
	fx.listings.set(nil, errors.New("boom"))

	first := make(chan error, 1)
	go func() { first <- fx.session.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return fx.listings.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- fx.session.Refresh(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	close(fx.listings.gate)

	assert.Error(t, <-first)
	assert.Error(t, <-second)
	assert.Equal(t, int32(1), fx.listings.calls.Load())
}

func TestUpdateQueryDuringFetchRefetches(t *testing.T) {
	fx := newFixture(t)
	fx.listings.gate = make(chan struct{})
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- fx.session.Refresh(ctx) }()
	require.Eventually(t, func() bool { return fx.listings.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() {
		second <- fx.session.UpdateQuery(ctx, func(q *domain.ListingQuery) { q.District = "Porto" })
	}()
	require.Eventually(t, func() bool { return fx.session.Query().District == "Porto" }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(fx.listings.gate)

	require.NoError(t, <-first)
	require.NoError(t, <-second)

	fx.listings.mu.Lock()
	defer fx.listings.mu.Unlock()
	require.Len(t, fx.listings.queries, 2)
	assert.Equal(t, "Leiria", fx.listings.queries[0].District)
	assert.Equal(t, "Porto", fx.listings.queries[1].District)
}

func TestRefreshSharesFetchOfSameQuery(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.session.UpdateQuery(ctx, func(q *domain.ListingQuery) { q.District = "Faro" }))
	fx.listings.gate = make(chan struct{})

	first := make(chan error, 1)
	go func() { first <- fx.session.Refresh(ctx) }()
	require.Eventually(t, func() bool { return fx.listings.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- fx.session.Refresh(ctx) }()
	time.Sleep(20 * time.Millisecond)
	close(fx.listings.gate)

	require.NoError(t, <-first)
	require.NoError(t, <-second)
	assert.Equal(t, int32(2), fx.listings.calls.Load())
}

func TestStatsFailureDoesNotFailRefresh(t *testing.T) {
	slots, err := store.NewSlotStore("", "")
	require.NoError(t, err)
	sk := &sink{}
	s := New(Deps{
		Listings: &fakeListings{results: results()},
		Stats:    &fakeStats{err: errors.New("down")},
		Slots:    slots,
		Logger:   quiet(),
	})
	s.AddRenderer(sk)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, sk.count())
	assert.Empty(t, sk.insights)
	_, ok := s.Insights()
	assert.False(t, ok)
}

func TestCloseUnsubscribes(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.session.Start(ctx))
	assert.Equal(t, 1, fx.session.Bus().Len(domain.TopicMarksChanged))

	require.NoError(t, fx.session.Close(ctx))
	assert.Equal(t, 0, fx.session.Bus().Len(domain.TopicMarksChanged))

	require.NoError(t, fx.marks.Set(ctx, "a", domain.MarkLoved))
	assert.Equal(t, 1, fx.sink.count())
}

func TestRendererFunc(t *testing.T) {
	fx := newFixture(t)
	var got int
	fx.session.AddRenderer(domain.RendererFunc(func(v domain.DerivedView) { got = v.Total }))
	require.NoError(t, fx.session.Start(context.Background()))
	assert.Equal(t, 3, got)
}
