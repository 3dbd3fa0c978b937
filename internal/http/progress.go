package http

import (
	"sync"
	"time"

	"github.com/fyrsmithlabs/handclass/internal/classify"
)

// ProgressResponse is the response body for GET /api/v1/progress.
type ProgressResponse struct {
	SessionID string         `json:"session_id"`
	Mode      string         `json:"mode"`
	Position  int            `json:"position"`
	Total     int            `json:"total"`
	Items     int            `json:"items"`
	Previous  int            `json:"previous"`
	Remaining int            `json:"remaining"`
	Done      bool           `json:"done"`
	Counts    map[string]int `json:"counts"`
	Last      *Decision      `json:"last,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Decision is the most recent result row.
type Decision struct {
	Identifier string   `json:"identifier"`
	Label      string   `json:"label"`
	Row        []string `json:"row"`
}

// Tracker keeps a snapshot of session progress for the status server. The
// session feeds it from the UI goroutine while handlers read it, so every
// access is guarded.
//
// Tracker implements classify.Observer and classify.ProgressSink.
type Tracker struct {
	mu   sync.RWMutex
	snap ProgressResponse
	now  func() time.Time
}

// TrackerConfig describes the session being tracked.
type TrackerConfig struct {
	SessionID string
	Mode      classify.Mode
	Items     int
	Previous  int
	Labels    []string
	Now       func() time.Time
}

// NewTracker creates a tracker with zero counts for every label.
func NewTracker(cfg TrackerConfig) *Tracker {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	counts := make(map[string]int, len(cfg.Labels))
	for _, l := range cfg.Labels {
		counts[l] = 0
	}
	started := now()
	return &Tracker{
		now: now,
		snap: ProgressResponse{
			SessionID: cfg.SessionID,
			Mode:      cfg.Mode.String(),
			Items:     cfg.Items,
			Previous:  cfg.Previous,
			Remaining: cfg.Items,
			Total:     cfg.Previous,
			Counts:    counts,
			StartedAt: started,
			UpdatedAt: started,
		},
	}
}

// Progress implements classify.ProgressSink.
func (t *Tracker) Progress(position, total int, row classify.Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Position = position
	t.snap.Total = total
	t.snap.Remaining = t.snap.Items - position
	last := &Decision{Row: append([]string(nil), row...)}
	if len(row) > 0 {
		last.Identifier = row[0]
	}
	if t.snap.Last != nil && t.snap.Last.Identifier == last.Identifier {
		last.Label = t.snap.Last.Label
	}
	t.snap.Last = last
	t.snap.UpdatedAt = t.now()
}

// Decided implements classify.Observer.
func (t *Tracker) Decided(identifier string, _ classify.Item, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Counts[label]++
	if t.snap.Last == nil || t.snap.Last.Identifier != identifier {
		t.snap.Last = &Decision{Identifier: identifier}
	}
	t.snap.Last.Label = label
	t.snap.UpdatedAt = t.now()
}

// Complete marks the session finished.
func (t *Tracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Done = true
	t.snap.Remaining = 0
	t.snap.UpdatedAt = t.now()
}

// Snapshot returns a copy of the current progress.
func (t *Tracker) Snapshot() ProgressResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := t.snap
	out.Counts = make(map[string]int, len(t.snap.Counts))
	for k, v := range t.snap.Counts {
		out.Counts[k] = v
	}
	if t.snap.Last != nil {
		last := *t.snap.Last
		last.Row = append([]string(nil), t.snap.Last.Row...)
		out.Last = &last
	}
	return out
}
