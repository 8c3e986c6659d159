// Package window holds the authoritative set of open windows for one desktop:
// geometry, stacking order and minimized state. All mutation goes through
// Store so id and z-index assignment stay atomic.
package window

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smithos/smithos-backend/internal/clock"
)

// Store is safe for concurrent use. Operations on unknown ids are no-ops.
type Store struct {
	mu      sync.Mutex
	clock   clock.Clock
	windows []Window
	maxZ    int
	// appID -> time until which ToggleWindow is ignored
	recentlyClosed map[string]time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the clock used for reopen suppression.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		clock:          clock.Real(),
		maxZ:           BaseZIndex,
		recentlyClosed: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddWindow creates a window on top of the stack and returns its id.
func (s *Store) AddWindow(spec Spec) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(spec)
}

func (s *Store) addLocked(spec Spec) string {
	s.maxZ++
	w := Window{
		ID:          uuid.NewString(),
		AppID:       spec.AppID,
		Title:       spec.Title,
		Component:   spec.Component,
		Position:    spec.Position,
		Size:        spec.Size,
		IsMinimized: spec.IsMinimized,
		ZIndex:      s.maxZ,
	}
	s.windows = append(s.windows, w)
	return w.ID
}

// RemoveWindow deletes the window and suppresses ToggleWindow for its app
// for ReopenSuppression.
func (s *Store) RemoveWindow(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return
	}
	appID := s.windows[i].AppID
	s.windows = append(s.windows[:i], s.windows[i+1:]...)
	s.recentlyClosed[appID] = s.clock.Now().Add(ReopenSuppression)
}

func (s *Store) MinimizeWindow(id string) {
	s.mutate(id, func(w *Window) { w.IsMinimized = true })
}

func (s *Store) MaximizeWindow(id string) {
	s.mutate(id, func(w *Window) { w.IsMinimized = false })
}

// BringToFront gives the window a z-index above every other.
func (s *Store) BringToFront(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bringToFrontLocked(id)
}

func (s *Store) bringToFrontLocked(id string) {
	i := s.indexLocked(id)
	if i < 0 {
		return
	}
	s.maxZ++
	s.windows[i].ZIndex = s.maxZ
}

// UpdateWindowPosition overwrites the position as given.
func (s *Store) UpdateWindowPosition(id string, p Point) {
	s.mutate(id, func(w *Window) { w.Position = p })
}

// UpdateWindowSize overwrites the size as given. Callers apply ClampSize.
func (s *Store) UpdateWindowSize(id string, size Size) {
	s.mutate(id, func(w *Window) { w.Size = size })
}

// Get returns a copy of the window with the given id.
func (s *Store) Get(id string) (Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return Window{}, false
	}
	return s.windows[i], true
}

// GetWindowByAppID returns the first window hosting appID, in creation order.
func (s *Store) GetWindowByAppID(appID string) (Window, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.appIndexLocked(appID); i >= 0 {
		return s.windows[i], true
	}
	return Window{}, false
}

// ToggleWindow implements taskbar click semantics: restore and focus a
// minimized window, minimize a visible one, or open a new one. It does
// nothing while appID is inside its reopen suppression window.
func (s *Store) ToggleWindow(appID string, spec Spec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.suppressedLocked(appID) {
		return
	}

	if i := s.appIndexLocked(appID); i >= 0 {
		w := &s.windows[i]
		if w.IsMinimized {
			w.IsMinimized = false
			s.bringToFrontLocked(w.ID)
		} else {
			w.IsMinimized = true
		}
		return
	}

	spec.AppID = appID
	s.addLocked(spec)
}

// Windows returns a copy of all windows in creation order.
func (s *Store) Windows() []Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Window, len(s.windows))
	copy(out, s.windows)
	return out
}

// Snapshot captures the windows and the z counter.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Window, len(s.windows))
	copy(out, s.windows)
	return Snapshot{Windows: out, MaxZ: s.maxZ}
}

// Restore replaces the windows with snap. The z counter never moves backwards.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.windows = make([]Window, len(snap.Windows))
	copy(s.windows, snap.Windows)

	if snap.MaxZ > s.maxZ {
		s.maxZ = snap.MaxZ
	}
	for _, w := range s.windows {
		if w.ZIndex > s.maxZ {
			s.maxZ = w.ZIndex
		}
	}
}

func (s *Store) mutate(id string, fn func(*Window)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		fn(&s.windows[i])
	}
}

func (s *Store) suppressedLocked(appID string) bool {
	until, ok := s.recentlyClosed[appID]
	if !ok {
		return false
	}
	if s.clock.Now().Before(until) {
		return true
	}
	delete(s.recentlyClosed, appID)
	return false
}

func (s *Store) indexLocked(id string) int {
	for i := range s.windows {
		if s.windows[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) appIndexLocked(appID string) int {
	for i := range s.windows {
		if s.windows[i].AppID == appID {
			return i
		}
	}
	return -1
}
