package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/smithos/smithos-backend/internal/clock"
	"github.com/smithos/smithos-backend/internal/desktop"
	"github.com/smithos/smithos-backend/internal/desktop/interaction"
	"github.com/smithos/smithos-backend/internal/desktop/window"
)

// LayoutStore persists window snapshots per user.
type LayoutStore interface {
	Load(ctx context.Context, userID string) (window.Snapshot, bool, error)
	Save(ctx context.Context, userID string, snap window.Snapshot) error
	Delete(ctx context.Context, userID string) error
}

// Pointer phases accepted by Pointer.
const (
	PhaseDown   = "down"
	PhaseMove   = "move"
	PhaseUp     = "up"
	PhaseCancel = "cancel"
)

// PointerEvent is one pointer sample against a window.
type PointerEvent struct {
	Phase  string
	Target interaction.Target
	Point  window.Point
}

// PointerState is the gesture state after an event. Window carries any
// in-flight geometry.
type PointerState struct {
	Mode     string        `json:"mode"`
	Accepted bool          `json:"accepted"`
	Window   window.Window `json:"window"`
}

type userDesktop struct {
	store *window.Store
	ctrl  *interaction.Controller
}

// Manager owns one window store and interaction controller per user.
type Manager struct {
	mu       sync.Mutex
	desktops map[string]*userDesktop

	layouts LayoutStore
	catalog *desktop.Catalog
	clock   clock.Clock
	log     *zap.Logger
}

type Option func(*Manager)

func WithClock(c clock.Clock) Option { return func(m *Manager) { m.clock = c } }

func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.log = l } }

func NewManager(layouts LayoutStore, catalog *desktop.Catalog, opts ...Option) *Manager {
	m := &Manager{
		desktops: make(map[string]*userDesktop),
		layouts:  layouts,
		catalog:  catalog,
		clock:    clock.Real(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Named("desktop")
	return m
}

func (m *Manager) Apps(isAdmin bool) []desktop.App {
	return m.catalog.Visible(isAdmin)
}

func (m *Manager) Windows(ctx context.Context, userID string) ([]window.Window, error) {
	d, err := m.desktop(ctx, userID)
	if err != nil {
		return nil, err
	}
	return d.store.Windows(), nil
}

// Open adds a window. Fields missing from spec are filled from the catalog.
func (m *Manager) Open(ctx context.Context, userID string, isAdmin bool, spec window.Spec) ([]window.Window, error) {
	app, err := m.app(spec.AppID, isAdmin)
	if err != nil {
		return nil, err
	}
	spec = withDefaults(spec, app)

	d, err := m.desktop(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.store.AddWindow(spec)
	return m.save(ctx, userID, d)
}

// Toggle applies taskbar semantics for appID.
func (m *Manager) Toggle(ctx context.Context, userID string, isAdmin bool, appID string) ([]window.Window, error) {
	app, err := m.app(appID, isAdmin)
	if err != nil {
		return nil, err
	}

	d, err := m.desktop(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.store.ToggleWindow(app.ID, app.Spec())
	return m.save(ctx, userID, d)
}

func (m *Manager) Close(ctx context.Context, userID, windowID string) ([]window.Window, error) {
	return m.mutate(ctx, userID, windowID, func(d *userDesktop) {
		d.ctrl.Cancel(windowID)
		d.store.RemoveWindow(windowID)
	})
}

func (m *Manager) Minimize(ctx context.Context, userID, windowID string) ([]window.Window, error) {
	return m.mutate(ctx, userID, windowID, func(d *userDesktop) { d.store.MinimizeWindow(windowID) })
}

func (m *Manager) Maximize(ctx context.Context, userID, windowID string) ([]window.Window, error) {
	return m.mutate(ctx, userID, windowID, func(d *userDesktop) { d.store.MaximizeWindow(windowID) })
}

func (m *Manager) Focus(ctx context.Context, userID, windowID string) ([]window.Window, error) {
	return m.mutate(ctx, userID, windowID, func(d *userDesktop) { d.store.BringToFront(windowID) })
}

func (m *Manager) Move(ctx context.Context, userID, windowID string, p window.Point) ([]window.Window, error) {
	return m.mutate(ctx, userID, windowID, func(d *userDesktop) { d.store.UpdateWindowPosition(windowID, p) })
}

// Resize clamps size to the minimum before storing it.
func (m *Manager) Resize(ctx context.Context, userID, windowID string, size window.Size) ([]window.Window, error) {
	size = window.ClampSize(size)
	return m.mutate(ctx, userID, windowID, func(d *userDesktop) { d.store.UpdateWindowSize(windowID, size) })
}

// Pointer feeds one pointer event to the window's gesture controller. The
// layout is saved only when a gesture commits.
func (m *Manager) Pointer(ctx context.Context, userID, windowID string, ev PointerEvent) (PointerState, error) {
	d, err := m.desktop(ctx, userID)
	if err != nil {
		return PointerState{}, err
	}
	if _, ok := d.store.Get(windowID); !ok {
		return PointerState{}, ErrWindowNotFound
	}

	accepted := true
	switch ev.Phase {
	case PhaseDown:
		accepted = d.ctrl.PointerDown(windowID, ev.Target, ev.Point)
		if accepted {
			d.store.BringToFront(windowID)
		}
	case PhaseMove:
		d.ctrl.PointerMove(windowID, ev.Point)
	case PhaseUp:
		committing := d.ctrl.Mode(windowID) != interaction.ModeIdle
		d.ctrl.PointerUp(windowID)
		if committing {
			if _, err := m.save(ctx, userID, d); err != nil {
				return PointerState{}, err
			}
		}
	case PhaseCancel:
		d.ctrl.Cancel(windowID)
	default:
		return PointerState{}, fmt.Errorf("%w: %q", ErrInvalidPhase, ev.Phase)
	}

	live, _ := d.ctrl.Live(windowID)
	return PointerState{
		Mode:     d.ctrl.Mode(windowID).String(),
		Accepted: accepted,
		Window:   live,
	}, nil
}

// Reset closes every window and deletes the saved layout.
func (m *Manager) Reset(ctx context.Context, userID string) ([]window.Window, error) {
	if err := m.layouts.Delete(ctx, userID); err != nil {
		m.log.Error("failed to delete layout", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("delete layout: %w", err)
	}
	store := window.NewStore(window.WithClock(m.clock))
	m.mu.Lock()
	m.desktops[userID] = &userDesktop{store: store, ctrl: interaction.NewController(store)}
	m.mu.Unlock()
	return []window.Window{}, nil
}

// Forget drops the in-memory desktop for userID, for example on logout. The
// saved layout is kept and restored on next use.
func (m *Manager) Forget(userID string) {
	m.mu.Lock()
	delete(m.desktops, userID)
	m.mu.Unlock()
}

func (m *Manager) app(appID string, isAdmin bool) (desktop.App, error) {
	app, ok := m.catalog.Get(appID)
	if !ok {
		return desktop.App{}, fmt.Errorf("%w: %s", ErrUnknownApp, appID)
	}
	if app.AdminOnly && !isAdmin {
		return desktop.App{}, ErrAppForbidden
	}
	return app, nil
}

func (m *Manager) mutate(ctx context.Context, userID, windowID string, fn func(*userDesktop)) ([]window.Window, error) {
	d, err := m.desktop(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := d.store.Get(windowID); !ok {
		return nil, ErrWindowNotFound
	}
	fn(d)
	return m.save(ctx, userID, d)
}

// desktop returns the user's desktop, restoring it from the saved layout on
// first use. The layout is loaded without holding m.mu; when two requests race
// the first insert wins.
func (m *Manager) desktop(ctx context.Context, userID string) (*userDesktop, error) {
	m.mu.Lock()
	d, ok := m.desktops[userID]
	m.mu.Unlock()
	if ok {
		return d, nil
	}

	store := window.NewStore(window.WithClock(m.clock))
	snap, found, err := m.layouts.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	if found {
		store.Restore(snap)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.desktops[userID]; ok {
		return d, nil
	}
	d = &userDesktop{store: store, ctrl: interaction.NewController(store)}
	m.desktops[userID] = d
	return d, nil
}

func (m *Manager) save(ctx context.Context, userID string, d *userDesktop) ([]window.Window, error) {
	snap := d.store.Snapshot()
	if err := m.layouts.Save(ctx, userID, snap); err != nil {
		m.log.Error("failed to save layout", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("save layout: %w", err)
	}
	return snap.Windows, nil
}

func withDefaults(spec window.Spec, app desktop.App) window.Spec {
	if spec.Title == "" {
		spec.Title = app.Name
	}
	if spec.Component == "" {
		spec.Component = app.ID
	}
	if spec.Size == (window.Size{}) {
		spec.Size = app.DefaultSize
	}
	if spec.Position == (window.Point{}) {
		spec.Position = desktop.DefaultPosition
	}
	return spec
}
