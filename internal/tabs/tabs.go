// Package tabs gives the coordinator access to the pages the user is looking
// at: the active tab whose document gets scraped, and new tabs opened as a
// side effect (the login page).
package tabs

import "context"

// Tab is an open page.
type Tab interface {
	ID() string
	URL() string
	HTML(ctx context.Context) (string, error)
}

// Host owns the tabs of the current window.
type Host interface {
	// Active returns the active tab of the current window, or nil when there is none.
	Active(ctx context.Context) (Tab, error)
	// Open shows url in a new tab.
	Open(ctx context.Context, url string) error
}
