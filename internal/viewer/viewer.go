// Package viewer tracks the PDF viewer state of one session. Pages are
// rendered in the browser; the server only keeps the page, zoom and load
// status, and resets them whenever the file changes.
package viewer

import (
	"fmt"
	"sync"
)

// Zoom is held in tenths so repeated steps never drift.
const (
	minZoom     = 5
	maxZoom     = 20
	defaultZoom = 10
)

// LoadErrorText is shown when the browser reports a failed load without a reason.
const LoadErrorText = "Failed to load PDF. Please ensure the file is accessible and try again."

// Viewer is the PDF viewer state. The zero value is not usable; call New.
type Viewer struct {
	mu       sync.Mutex
	file     string
	page     int
	numPages int // 0 while unknown
	zoom     int
	loading  bool
	err      string
}

// New returns a viewer with no file.
func New() *Viewer {
	return &Viewer{page: 1, zoom: defaultZoom}
}

// SetFile points the viewer at url. Page, page count, zoom and load
// status reset only when url differs from the current file.
func (v *Viewer) SetFile(url string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if url == v.file {
		return
	}
	v.file = url
	v.page = 1
	v.numPages = 0
	v.zoom = defaultZoom
	v.err = ""
	v.loading = url != ""
}

// File returns the current file URL.
func (v *Viewer) File() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.file
}

// LoadSucceeded records the page count reported by the browser for url.
// Reports for a file that is no longer shown are ignored.
func (v *Viewer) LoadSucceeded(url string, numPages int) error {
	if numPages < 1 {
		return fmt.Errorf("viewer: invalid page count %d", numPages)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if url != v.file {
		return nil
	}
	v.numPages = numPages
	if v.page > numPages {
		v.page = numPages
	}
	v.loading = false
	v.err = ""
	return nil
}

// LoadFailed records a load failure for url. The error stays until the
// file changes.
func (v *Viewer) LoadFailed(url, msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if url != v.file {
		return
	}
	if msg == "" {
		msg = LoadErrorText
	}
	v.loading = false
	v.err = msg
}

// PrevPage moves back one page; no-op on page 1 or while loading.
func (v *Viewer) PrevPage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loading || v.page <= 1 {
		return
	}
	v.page--
}

// NextPage moves forward one page; no-op on the last page, while the
// page count is unknown, or while loading.
func (v *Viewer) NextPage() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loading || v.numPages == 0 || v.page >= v.numPages {
		return
	}
	v.page++
}

// ZoomIn increases the scale by 0.1 up to 2.0.
func (v *Viewer) ZoomIn() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = min(maxZoom, v.zoom+1)
}

// ZoomOut decreases the scale by 0.1 down to 0.5.
func (v *Viewer) ZoomOut() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = max(minZoom, v.zoom-1)
}

// ResetZoom sets the scale back to 1.0.
func (v *Viewer) ResetZoom() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoom = defaultZoom
}

// State is a copy of the viewer state for rendering.
type State struct {
	File     string  `json:"file"`
	Page     int     `json:"page"`
	NumPages int     `json:"num_pages"`
	Scale    float64 `json:"scale"`
	Loading  bool    `json:"loading"`
	Error    string  `json:"error,omitempty"`
}

// State returns the current viewer state.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		File:     v.file,
		Page:     v.page,
		NumPages: v.numPages,
		Scale:    float64(v.zoom) / 10,
		Loading:  v.loading,
		Error:    v.err,
	}
}

// PageLabel is the "page / count" indicator, "--" for unknown parts.
func (s State) PageLabel() string {
	if s.Loading {
		return "--"
	}
	if s.NumPages == 0 {
		return fmt.Sprintf("%d / --", s.Page)
	}
	return fmt.Sprintf("%d / %d", s.Page, s.NumPages)
}

// CanPrev reports whether the previous-page control is enabled.
func (s State) CanPrev() bool { return !s.Loading && s.Page > 1 }

// CanNext reports whether the next-page control is enabled.
func (s State) CanNext() bool { return !s.Loading && s.NumPages > 0 && s.Page < s.NumPages }

// Percent is the zoom level as a whole percentage.
func (s State) Percent() int { return int(s.Scale*100 + 0.5) }

// Restore sets the state from a saved copy, clamping invalid values.
func (v *Viewer) Restore(s State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.file = s.File
	v.numPages = max(0, s.NumPages)
	v.page = max(1, s.Page)
	if v.numPages > 0 && v.page > v.numPages {
		v.page = v.numPages
	}
	v.zoom = min(maxZoom, max(minZoom, int(s.Scale*10+0.5)))
	v.loading = s.Loading
	v.err = s.Error
}
