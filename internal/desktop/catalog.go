// Package desktop describes the applications a SmithOS desktop can launch.
package desktop

import "github.com/smithos/smithos-backend/internal/desktop/window"

// App is a launchable desktop application.
type App struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	DefaultSize window.Size `json:"default_size"`
	AdminOnly   bool        `json:"admin_only"`
}

var (
	DefaultPosition = window.Point{X: 100, Y: 100}
	defaultSize     = window.Size{Width: 800, Height: 600}
)

// Catalog is an ordered, read-only list of apps.
type Catalog struct {
	apps  []App
	index map[string]int
}

func NewCatalog(apps []App) *Catalog {
	c := &Catalog{apps: apps, index: make(map[string]int, len(apps))}
	for i, a := range apps {
		c.index[a.ID] = i
	}
	return c
}

// DefaultCatalog is the stock SmithOS app set.
func DefaultCatalog() *Catalog {
	return NewCatalog([]App{
		{ID: "wallet", Name: "Wallet", DefaultSize: defaultSize},
		{ID: "token-data", Name: "$AIS Data", DefaultSize: defaultSize},
		{ID: "admin", Name: "Admin", DefaultSize: defaultSize, AdminOnly: true},
		{ID: "airdrops", Name: "Airdrops", DefaultSize: defaultSize},
		{ID: "chat", Name: "Chat", DefaultSize: defaultSize},
		{ID: "documents", Name: "Documents", DefaultSize: defaultSize},
		{ID: "gamba", Name: "Gamba", DefaultSize: defaultSize},
		{ID: "neural-network", Name: "Neural Network", DefaultSize: defaultSize},
		{ID: "zion", Name: "Zion", DefaultSize: defaultSize},
		{ID: "token-tracker", Name: "$AIS Token Tracker", DefaultSize: window.Size{Width: 400, Height: 500}},
		{ID: "raffle", Name: "Raffle", DefaultSize: defaultSize, AdminOnly: true},
	})
}

func (c *Catalog) Get(id string) (App, bool) {
	i, ok := c.index[id]
	if !ok {
		return App{}, false
	}
	return c.apps[i], true
}

// Visible returns the apps a caller may launch.
func (c *Catalog) Visible(isAdmin bool) []App {
	out := make([]App, 0, len(c.apps))
	for _, a := range c.apps {
		if a.AdminOnly && !isAdmin {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Spec returns the window spec used when the app is opened from the taskbar.
func (a App) Spec() window.Spec {
	return window.Spec{
		AppID:     a.ID,
		Title:     a.Name,
		Component: a.ID,
		Position:  DefaultPosition,
		Size:      a.DefaultSize,
	}
}
