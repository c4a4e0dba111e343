package analysis

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/ziadkadry99/fee-web/internal/api"
)

// Results tabs.
const (
	TabOverview    = "overview"
	TabPerspective = "perspective"
)

// ErrUnknownTab is returned by SetTab for names other than the two tabs.
var ErrUnknownTab = errors.New("analysis: unknown tab")

// Panel is the results panel state of one session: the active tab and
// which facet panels are expanded. Facets start collapsed.
type Panel struct {
	mu       sync.Mutex
	tab      string
	expanded map[string]bool
}

// NewPanel returns a panel on the overview tab.
func NewPanel() *Panel {
	return &Panel{tab: TabOverview, expanded: make(map[string]bool)}
}

// SetTab selects a results tab.
func (p *Panel) SetTab(tab string) error {
	if tab != TabOverview && tab != TabPerspective {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	p.mu.Lock()
	p.tab = tab
	p.mu.Unlock()
	return nil
}

// Tab returns the active tab.
func (p *Panel) Tab() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tab
}

// ToggleFacet flips the expanded flag of a facet and returns the new value.
func (p *Panel) ToggleFacet(facet string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded[facet] = !p.expanded[facet]
	return p.expanded[facet]
}

// Expanded returns a copy of the expanded flags.
func (p *Panel) Expanded() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.expanded)
}

// Reset returns the panel to the overview tab with every facet collapsed.
// It is called when a new analysis arrives.
func (p *Panel) Reset() {
	p.mu.Lock()
	p.tab = TabOverview
	clear(p.expanded)
	p.mu.Unlock()
}

// PanelState is the persistent form of a Panel.
type PanelState struct {
	Tab      string          `json:"tab"`
	Expanded map[string]bool `json:"expanded,omitempty"`
}

// State returns the persistent form.
func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PanelState{Tab: p.tab, Expanded: maps.Clone(p.expanded)}
}

// Restore replaces the panel state. Unknown tabs fall back to overview.
func (p *Panel) Restore(s PanelState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tab = s.Tab
	if p.tab != TabPerspective {
		p.tab = TabOverview
	}
	p.expanded = make(map[string]bool, len(s.Expanded))
	maps.Copy(p.expanded, s.Expanded)
}

// View combines both tabs for rendering. Expanded is keyed by facet name.
type View struct {
	Tab         string          `json:"tab"`
	Overview    Overview        `json:"overview"`
	Perspective Perspective     `json:"perspective"`
	Expanded    map[string]bool `json:"expanded"`
	LensTitle   string          `json:"-"`
	LensText    string          `json:"-"`
}

// Build renders a into a View using the panel's current state.
func (p *Panel) Build(a *api.Analysis) View {
	st := p.State()
	if st.Expanded == nil {
		st.Expanded = map[string]bool{}
	}
	return View{
		Tab:         st.Tab,
		Overview:    BuildOverview(a),
		Perspective: BuildPerspective(a),
		Expanded:    st.Expanded,
		LensTitle:   LensTitle,
		LensText:    LensText,
	}
}
