package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mmcdole/imo/internal/domain"
)

// State returns the current view state.
func (s *Session) State() domain.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Query returns a copy of the current listing query.
func (s *Session) Query() domain.ListingQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query.Clone()
}

// SetToggles sets both mark filters, persists them and recomputes.
func (s *Session) SetToggles(hideDiscarded, onlyLoved bool) {
	s.update(func(st *domain.ViewState) {
		st.HideDiscarded = hideDiscarded
		st.OnlyLoved = onlyLoved
	}, true)
}

// SetHideDiscarded sets the hide-discarded filter.
func (s *Session) SetHideDiscarded(on bool) {
	s.update(func(st *domain.ViewState) { st.HideDiscarded = on }, true)
}

// SetOnlyLoved sets the only-loved filter.
func (s *Session) SetOnlyLoved(on bool) {
	s.update(func(st *domain.ViewState) { st.OnlyLoved = on }, true)
}

// SortBy sorts on field. Repeating the active field flips the direction,
// a new field starts ascending.
func (s *Session) SortBy(field domain.SortField) error {
	if !field.Valid() {
		return fmt.Errorf("unknown sort field %q", field)
	}
	s.update(func(st *domain.ViewState) {
		if st.SortField == field {
			st.SortDir = st.SortDir.Flip()
			return
		}
		st.SortField = field
		st.SortDir = domain.Asc
	}, false)
	return nil
}

// SetSearch sets the free-text filter.
func (s *Session) SetSearch(text string) {
	s.update(func(st *domain.ViewState) { st.Query = text }, false)
}

// UpdateQuery edits the listing query and refreshes.
func (s *Session) UpdateQuery(ctx context.Context, edit func(q *domain.ListingQuery)) error {
	s.mu.Lock()
	edit(&s.query)
	s.queryGen++
	s.mu.Unlock()
	return s.Refresh(ctx)
}

func (s *Session) update(edit func(st *domain.ViewState), persist bool) {
	s.mu.Lock()
	edit(&s.state)
	prefs := s.state.Preferences()
	if s.raw == nil {
		s.mu.Unlock()
		if persist {
			s.savePreferences(prefs)
		}
		return
	}
	seq, v := s.computeLocked()
	s.mu.Unlock()

	if persist {
		s.savePreferences(prefs)
	}
	s.render(seq, v)
}

func (s *Session) savePreferences(p domain.Preferences) {
	if s.slots == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("failed to encode preferences", "error", err)
		return
	}
	if err := s.slots.Save(domain.SlotUI, data); err != nil {
		s.logger.Error("failed to save preferences", "error", err)
	}
}

func (s *Session) restorePreferences() {
	if s.slots == nil {
		return
	}
	data, ok := s.slots.Load(domain.SlotUI)
	if !ok {
		return
	}
	var p domain.Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("corrupt preferences, using defaults", "error", err)
		return
	}
	s.mu.Lock()
	s.state.ApplyPreferences(p)
	s.mu.Unlock()
}
