package marks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/imo/internal/bus"
	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/store"
)

type fakeRemote struct {
	mu       sync.Mutex
	marks    domain.Marks
	getErr   error
	postErr  error
	posted   []PushResult
	postGate chan struct{}
	getCalls chan struct{} // signalled when GetMarks starts
	getGate  chan struct{}
}

func (f *fakeRemote) GetMarks(ctx context.Context) (domain.Marks, error) {
	if f.getCalls != nil {
		f.getCalls <- struct{}{}
	}
	if f.getGate != nil {
		<-f.getGate
	}
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marks.Clone(), nil
}

func (f *fakeRemote) PostMark(ctx context.Context, url string, mark domain.Mark) error {
	if f.postGate != nil {
		<-f.postGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, PushResult{URL: url, Mark: mark})
	return f.postErr
}

type recorder struct {
	mu     sync.Mutex
	events []domain.Marks
}

func (r *recorder) Publish(topic string, payload any) {
	if topic != domain.TopicMarksChanged {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, payload.(domain.Marks))
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSlots(t *testing.T) *store.SlotStore {
	t.Helper()
	s, err := store.NewSlotStore("", "")
	require.NoError(t, err)
	return s
}

func TestLoadRemoteWinsOnCollision(t *testing.T) {
	slots := newSlots(t)
	require.NoError(t, slots.Save(domain.SlotMarks, []byte(`{"A":"loved"}`)))
	remote := &fakeRemote{marks: domain.Marks{"A": domain.MarkDiscarded, "B": domain.MarkLoved}}
	rec := &recorder{}

	svc := NewService(slots, remote, rec, quiet())
	require.NoError(t, svc.Load(context.Background()))

	want := domain.Marks{"A": domain.MarkDiscarded, "B": domain.MarkLoved}
	assert.Equal(t, want, svc.All())
	require.Equal(t, 1, rec.count())
	assert.Equal(t, want, rec.events[0])

	data, ok := slots.Load(domain.SlotMarks)
	require.True(t, ok)
	assert.JSONEq(t, `{"A":"discarded","B":"loved"}`, string(data))
}

func TestLoadKeepsLocalOnlyKeys(t *testing.T) {
	slots := newSlots(t)
	require.NoError(t, slots.Save(domain.SlotMarks, []byte(`{"L":"loved"}`)))
	remote := &fakeRemote{marks: domain.Marks{"R": domain.MarkDiscarded}}

	svc := NewService(slots, remote, nil, quiet())
	require.NoError(t, svc.Load(context.Background()))

	assert.Equal(t, domain.MarkLoved, svc.Get("L"))
	assert.Equal(t, domain.MarkDiscarded, svc.Get("R"))
}

func TestSetDuringLoadSurvivesMerge(t *testing.T) {
	slots := newSlots(t)
	remote := &fakeRemote{
		marks:    domain.Marks{"A": domain.MarkDiscarded, "B": domain.MarkLoved},
		getCalls: make(chan struct{}, 1),
		getGate:  make(chan struct{}),
	}
	svc := NewService(slots, remote, nil, quiet())

	loaded := make(chan error, 1)
	go func() { loaded <- svc.Load(context.Background()) }()
	<-remote.getCalls

	require.NoError(t, svc.Set(context.Background(), "A", domain.MarkLoved))
	close(remote.getGate)
	require.NoError(t, <-loaded)
	require.NoError(t, svc.Flush(context.Background()))

	assert.Equal(t, domain.Marks{"A": domain.MarkLoved, "B": domain.MarkLoved}, svc.All())
	data, ok := slots.Load(domain.SlotMarks)
	require.True(t, ok)
	assert.JSONEq(t, `{"A":"loved","B":"loved"}`, string(data))

	// Later loads merge normally again
	remote.mu.Lock()
	remote.marks = domain.Marks{"A": domain.MarkDiscarded}
	remote.mu.Unlock()
	remote.getCalls, remote.getGate = nil, nil
	require.NoError(t, svc.Load(context.Background()))
	assert.Equal(t, domain.MarkDiscarded, svc.Get("A"))
}

func TestLoadSkipsInvalidRemoteValues(t *testing.T) {
	remote := &fakeRemote{marks: domain.Marks{"A": "maybe", "B": domain.MarkNone, "C": domain.MarkLoved}}

	svc := NewService(newSlots(t), remote, nil, quiet())
	require.NoError(t, svc.Load(context.Background()))

	assert.Equal(t, domain.Marks{"C": domain.MarkLoved}, svc.All())
}

func TestLoadRemoteFailureFallsBackToLocal(t *testing.T) {
	slots := newSlots(t)
	require.NoError(t, slots.Save(domain.SlotMarks, []byte(`{"A":"loved"}`)))
	remote := &fakeRemote{getErr: errors.New("connection refused")}
	rec := &recorder{}

	svc := NewService(slots, remote, rec, quiet())
	require.NoError(t, svc.Load(context.Background()))

	assert.Equal(t, domain.Marks{"A": domain.MarkLoved}, svc.All())
	assert.Equal(t, 1, rec.count(), "publishes even when the remote is down")
}

func TestLoadCorruptCacheStartsEmpty(t *testing.T) {
	slots := newSlots(t)
	require.NoError(t, slots.Save(domain.SlotMarks, []byte(`{not json`)))

	svc := NewService(slots, nil, nil, quiet())
	require.NoError(t, svc.Load(context.Background()))

	assert.Empty(t, svc.All())
}

func TestLoadWithoutRemote(t *testing.T) {
	slots := newSlots(t)
	require.NoError(t, slots.Save(domain.SlotMarks, []byte(`{"A":"discarded","B":""}`)))
	rec := &recorder{}

	svc := NewService(slots, nil, rec, quiet())
	require.NoError(t, svc.Load(context.Background()))

	assert.Equal(t, domain.Marks{"A": domain.MarkDiscarded}, svc.All())
	assert.Equal(t, 1, rec.count())
}

func TestSetIsVisibleImmediately(t *testing.T) {
	remote := &fakeRemote{postGate: make(chan struct{})}
	rec := &recorder{}
	svc := NewService(newSlots(t), remote, rec, quiet())

	require.NoError(t, svc.Set(context.Background(), "u1", domain.MarkLoved))

	// The push is still blocked; local effects are already done.
	assert.Equal(t, domain.MarkLoved, svc.Get("u1"))
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, domain.Marks{"u1": domain.MarkLoved}, rec.events[0])

	close(remote.postGate)
	require.NoError(t, svc.Flush(context.Background()))
	assert.Equal(t, []PushResult{{URL: "u1", Mark: domain.MarkLoved}}, remote.posted)
}

func TestSetPersists(t *testing.T) {
	slots := newSlots(t)
	svc := NewService(slots, nil, nil, quiet())

	require.NoError(t, svc.Set(context.Background(), "u1", domain.MarkDiscarded))

	data, ok := slots.Load(domain.SlotMarks)
	require.True(t, ok)
	assert.JSONEq(t, `{"u1":"discarded"}`, string(data))
}

func TestSetNoneDeletesKey(t *testing.T) {
	svc := NewService(newSlots(t), nil, nil, quiet())
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "u1", domain.MarkLoved))
	require.NoError(t, svc.Set(ctx, "u1", domain.MarkNone))

	assert.Equal(t, domain.MarkNone, svc.Get("u1"))
	_, exists := svc.All()["u1"]
	assert.False(t, exists)

	require.NoError(t, svc.Set(ctx, "u2", domain.Mark("bogus")))
	assert.Empty(t, svc.All())
}

func TestSetEmptyURL(t *testing.T) {
	rec := &recorder{}
	svc := NewService(newSlots(t), nil, rec, quiet())

	err := svc.Set(context.Background(), "", domain.MarkLoved)
	assert.ErrorIs(t, err, domain.ErrEmptyURL)
	assert.Equal(t, 0, rec.count())
}

func TestPushFailureDoesNotRollBack(t *testing.T) {
	remote := &fakeRemote{postErr: errors.New("503")}
	results := make(chan PushResult, 1)
	svc := NewService(newSlots(t), remote, nil, quiet(), WithPushHook(func(r PushResult) { results <- r }))

	require.NoError(t, svc.Set(context.Background(), "u1", domain.MarkLoved))

	select {
	case r := <-results:
		assert.Equal(t, "u1", r.URL)
		assert.Equal(t, domain.MarkLoved, r.Mark)
		assert.Error(t, r.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("push result not delivered")
	}
	assert.Equal(t, domain.MarkLoved, svc.Get("u1"))
}

func TestPushOutlivesCallerContext(t *testing.T) {
	remote := &fakeRemote{postGate: make(chan struct{})}
	svc := NewService(newSlots(t), remote, nil, quiet())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Set(ctx, "u1", domain.MarkLoved))
	cancel()

	close(remote.postGate)
	require.NoError(t, svc.Flush(context.Background()))
	assert.Len(t, remote.posted, 1)
}

func TestToggle(t *testing.T) {
	svc := NewService(newSlots(t), nil, nil, quiet())
	ctx := context.Background()

	require.NoError(t, svc.Toggle(ctx, "u1", domain.MarkLoved))
	assert.Equal(t, domain.MarkLoved, svc.Get("u1"))

	require.NoError(t, svc.Toggle(ctx, "u1", domain.MarkDiscarded))
	assert.Equal(t, domain.MarkDiscarded, svc.Get("u1"))

	require.NoError(t, svc.Toggle(ctx, "u1", domain.MarkDiscarded))
	assert.Equal(t, domain.MarkNone, svc.Get("u1"))
}

func TestAllReturnsCopy(t *testing.T) {
	svc := NewService(newSlots(t), nil, nil, quiet())
	require.NoError(t, svc.Set(context.Background(), "u1", domain.MarkLoved))

	all := svc.All()
	all["u1"] = domain.MarkDiscarded
	all["u2"] = domain.MarkLoved

	assert.Equal(t, domain.MarkLoved, svc.Get("u1"))
	assert.Equal(t, domain.MarkNone, svc.Get("u2"))
}

func TestSetPublishesThroughBus(t *testing.T) {
	b := bus.New(quiet())
	svc := NewService(newSlots(t), nil, b, quiet())

	var got domain.Marks
	b.Subscribe(domain.TopicMarksChanged, func(p any) { got = p.(domain.Marks) })
	b.Subscribe(domain.TopicMarksChanged, func(any) { panic("bad subscriber") })

	require.NoError(t, svc.Set(context.Background(), "u1", domain.MarkLoved))
	assert.Equal(t, domain.Marks{"u1": domain.MarkLoved}, got)
}

func TestFlushHonoursContext(t *testing.T) {
	remote := &fakeRemote{postGate: make(chan struct{})}
	svc := NewService(newSlots(t), remote, nil, quiet())
	require.NoError(t, svc.Set(context.Background(), "u1", domain.MarkLoved))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Flush(ctx), context.DeadlineExceeded)

	close(remote.postGate)
	require.NoError(t, svc.Flush(context.Background()))
}

func TestConcurrentSets(t *testing.T) {
	svc := NewService(newSlots(t), nil, nil, quiet())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := "u" + string(rune('a'+i%26))
			_ = svc.Set(context.Background(), url, domain.MarkLoved)
		}(i)
	}
	wg.Wait()
	assert.Len(t, svc.All(), 26)
}
