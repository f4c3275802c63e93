package domain

import (
	"context"
)

// TopicMarksChanged is published with a Marks snapshot after every mark
// mutation or reconciliation.
const TopicMarksChanged = "marksChanged"

// Durable slot names.
const (
	SlotMarks = "imo_marks"
	SlotUI    = "imo_ui"
)

// ListingRepository fetches listing result sets
type ListingRepository interface {
	// GetListings runs one query; a non-2xx answer is an error
	GetListings(ctx context.Context, q ListingQuery) (*RawResultSet, error)
}

// StatsRepository fetches aggregate market statistics
type StatsRepository interface {
	GetStats(ctx context.Context) (*AggregateStats, error)
}

// MarksRemote is the shared annotation store
type MarksRemote interface {
	// GetMarks returns the full url -> mark mapping
	GetMarks(ctx context.Context) (Marks, error)

	// PostMark writes one mark; MarkNone clears it
	PostMark(ctx context.Context, url string, mark Mark) error
}

// SlotStore is the durable local cache: named slots holding raw JSON.
type SlotStore interface {
	// Load returns the slot contents and whether the slot exists
	Load(slot string) ([]byte, bool)

	// Save replaces the slot contents
	Save(slot string, data []byte) error

	Close() error
}

// Renderer is a sink that displays derived views.
type Renderer interface {
	Render(view DerivedView)
}

// InsightsRenderer is implemented by sinks that also show aggregate stats.
type InsightsRenderer interface {
	RenderInsights(stats AggregateStats)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(view DerivedView)

func (f RendererFunc) Render(view DerivedView) { f(view) }
