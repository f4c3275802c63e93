// Package marks keeps the user's loved/discarded annotations. Reads are
// served from memory, writes go through to the durable slot store and are
// pushed to the remote in the background.
package marks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/imo/internal/domain"
	"github.com/mmcdole/imo/internal/metrics"
)

const defaultTimeout = 5 * time.Second

// Publisher delivers change notifications. *bus.Bus satisfies it.
type Publisher interface {
	Publish(topic string, payload any)
}

// PushResult reports the outcome of one background remote push.
type PushResult struct {
	URL  string
	Mark domain.Mark
	Err  error
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each remote call. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPushHook registers fn to receive every push result. fn runs on the
// push goroutine.
func WithPushHook(fn func(PushResult)) Option {
	return func(s *Service) { s.onPush = fn }
}

// Service is the annotation store.
type Service struct {
	slots  domain.SlotStore
	remote domain.MarksRemote // nil means local-only
	pub    Publisher
	logger *slog.Logger

	timeout time.Duration
	onPush  func(PushResult)

	opMu   sync.Mutex // Serializes mutations so persists land in order
	mu     sync.RWMutex
	marks  domain.Marks
	dirty  map[string]struct{} // URLs set while Load awaits the remote
	pushes sync.WaitGroup
}

// NewService creates an annotation store. remote and pub may be nil.
func NewService(slots domain.SlotStore, remote domain.MarksRemote, pub Publisher, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		slots:   slots,
		remote:  remote,
		pub:     pub,
		logger:  logger,
		timeout: defaultTimeout,
		marks:   make(domain.Marks),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the durable cache, merges the remote mapping over it (remote
// wins on collision) and publishes the result. A remote failure leaves the
// local mapping in place. Only a failure to persist the merge is returned.
// Marks set while the remote is being fetched keep the local value.
func (s *Service) Load(ctx context.Context) error {
	s.opMu.Lock()
	local := s.readCache()
	s.mu.Lock()
	s.marks = local
	cached := len(local)
	s.dirty = make(map[string]struct{})
	s.mu.Unlock()
	s.opMu.Unlock()
	defer func() {
		s.mu.Lock()
		s.dirty = nil
		s.mu.Unlock()
	}()

	if s.remote == nil {
		s.logger.Debug("no marks remote, using local cache", "count", cached)
		s.publish()
		return nil
	}

	remote, err := s.fetchRemote(ctx)
	if err != nil {
		s.logger.Warn("remote marks unavailable, using local cache", "error", err, "count", cached)
		metrics.MarksLoadTotal.WithLabelValues(metrics.ResultError).Inc()
		s.publish()
		return nil
	}
	metrics.MarksLoadTotal.WithLabelValues(metrics.ResultOK).Inc()

	s.opMu.Lock()
	s.mu.Lock()
	for url := range s.dirty {
		delete(remote, url)
	}
	s.marks.Merge(remote)
	snapshot := s.marks.Clone()
	s.mu.Unlock()
	perr := s.persist(snapshot)
	s.opMu.Unlock()

	s.logger.Debug("marks reconciled", "local", cached, "remote", len(remote), "merged", len(snapshot))
	s.publish()
	return perr
}

func (s *Service) readCache() domain.Marks {
	data, ok := s.slots.Load(domain.SlotMarks)
	if !ok {
		return make(domain.Marks)
	}
	var m domain.Marks
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("corrupt marks cache, starting empty", "error", err)
		return make(domain.Marks)
	}
	if m == nil {
		return make(domain.Marks)
	}
	return m.Sanitize()
}

func (s *Service) fetchRemote(ctx context.Context) (domain.Marks, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.remote.GetMarks(ctx)
}

// Get returns the mark for url, or domain.MarkNone.
func (s *Service) Get(url string) domain.Mark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marks.Get(url)
}

// All returns a copy of the whole mapping.
func (s *Service) All() domain.Marks {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marks.Clone()
}

// Set stores mark for url; anything other than loved or discarded clears it.
// Memory, durable cache and notification are updated before Set returns.
// The remote push runs in the background and never rolls those back.
func (s *Service) Set(ctx context.Context, url string, mark domain.Mark) error {
	return s.update(ctx, url, func(domain.Mark) domain.Mark { return mark })
}

// Toggle sets mark, or clears it when url already carries mark.
func (s *Service) Toggle(ctx context.Context, url string, mark domain.Mark) error {
	return s.update(ctx, url, func(cur domain.Mark) domain.Mark {
		if cur == mark {
			return domain.MarkNone
		}
		return mark
	})
}

func (s *Service) update(ctx context.Context, url string, next func(domain.Mark) domain.Mark) error {
	if url == "" {
		return domain.ErrEmptyURL
	}

	s.opMu.Lock()
	s.mu.Lock()
	mark := next(s.marks.Get(url))
	if s.dirty != nil {
		s.dirty[url] = struct{}{}
	}
	if mark.Valid() {
		s.marks[url] = mark
	} else {
		mark = domain.MarkNone
		delete(s.marks, url)
	}
	snapshot := s.marks.Clone()
	s.mu.Unlock()
	err := s.persist(snapshot)
	s.opMu.Unlock()

	if err != nil {
		s.logger.Error("failed to persist marks", "error", err, "url", url)
	}
	s.publish()
	s.push(ctx, url, mark)
	return err
}

func (s *Service) persist(m domain.Marks) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode marks: %w", err)
	}
	if err := s.slots.Save(domain.SlotMarks, data); err != nil {
		return fmt.Errorf("save marks: %w", err)
	}
	return nil
}

func (s *Service) publish() {
	if s.pub == nil {
		return
	}
	s.pub.Publish(domain.TopicMarksChanged, s.All())
}

func (s *Service) push(ctx context.Context, url string, mark domain.Mark) {
	if s.remote == nil {
		return
	}
	// The push outlives the caller's context but keeps its values
	ctx = context.WithoutCancel(ctx)

	s.pushes.Add(1)
	go func() {
		defer s.pushes.Done()

		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		err := s.remote.PostMark(pctx, url, mark)
		metrics.MarksPushTotal.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			s.logger.Warn("failed to push mark", "error", err, "url", url, "mark", mark.String())
		} else {
			s.logger.Debug("pushed mark", "url", url, "mark", mark.String())
		}
		if s.onPush != nil {
			s.onPush(PushResult{URL: url, Mark: mark, Err: err})
		}
	}()
}

// Flush waits for in-flight pushes or for ctx to end.
func (s *Service) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pushes.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
