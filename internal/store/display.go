package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weathermap/internal/display"
	"github.com/i474232898/weathermap/internal/geo"
)

var (
	// ErrNotFound is returned when nothing has been displayed yet.
	ErrNotFound = errors.New("no weather displayed")
)

// Current is the weather panel content and the point it belongs to.
type Current struct {
	Seq       uint64        `json:"seq"`
	Point     geo.Point     `json:"point"`
	Model     display.Model `json:"model"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Snapshot is everything the UI surface renders.
type Snapshot struct {
	Current *Current `json:"current,omitempty"`
	Loading bool     `json:"loading"`
	Message string   `json:"message,omitempty"`
}

// DisplayStore is a concurrency-safe single slot for the displayed weather,
// plus the loading indicator and the last user message.
type DisplayStore struct {
	mu sync.RWMutex

	current *Current
	busy    int
	message string
}

// NewDisplayStore creates an empty store.
func NewDisplayStore() *DisplayStore {
	return &DisplayStore{}
}

// SetBusy shows or hides the loading indicator. Calls nest: the indicator is
// visible while any action holds it.
func (s *DisplayStore) SetBusy(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if on {
		s.busy++
		return
	}
	if s.busy > 0 {
		s.busy--
	}
}

// Loading reports whether the indicator is visible.
func (s *DisplayStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy > 0
}

// Show replaces the displayed weather unless a newer interaction already
// wrote it. It clears the user message and reports whether it wrote.
func (s *DisplayStore) Show(seq uint64, p geo.Point, m display.Model) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && seq < s.current.Seq {
		return false
	}
	s.current = &Current{
		Seq:       seq,
		Point:     p,
		Model:     m,
		UpdatedAt: time.Now().UTC(),
	}
	s.message = ""
	return true
}

// Notify sets the user message.
func (s *DisplayStore) Notify(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

// FollowView moves the coordinates slot to the map center, as the panel
// tracks the view once weather is displayed.
func (s *DisplayStore) FollowView(lat, lon float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.current.Model.Coordinates = display.FormatCoordinates(lat, lon)
}

// Latest returns the displayed weather.
func (s *DisplayStore) Latest() (Current, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Current{}, ErrNotFound
	}
	return *s.current, nil
}

// Snapshot copies the store for rendering.
func (s *DisplayStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Loading: s.busy > 0, Message: s.message}
	if s.current != nil {
		c := *s.current
		snap.Current = &c
	}
	return snap
}
