package monitor

import (
	"sync"

	"github.com/google/uuid"

	"github.com/devadoot/devadoot/agent"
)

// Phase is the monitoring state of a tab.
type Phase int

const (
	// PhaseIdle means no agent matched the tab's current page.
	PhaseIdle Phase = iota

	// PhaseMonitoring means matched agents are armed and sampling.
	PhaseMonitoring

	// PhaseCaseOpen means a rule fired and a case is open for the tab.
	PhaseCaseOpen
)

// IconState is the toolbar icon shown for a tab.
type IconState string

const (
	IconGray  IconState = "gray"
	IconGreen IconState = "green"
)

// IconSetter is invoked whenever a tab's icon should change.
type IconSetter func(tabID int, state IconState)

// TabState is the tracked state of one tab.
type TabState struct {
	Phase   Phase
	URL     string
	Site    string
	Matches []agent.Match

	// CaseID is the most recently opened case for the tab.
	CaseID uuid.UUID

	// openCases guards against opening a second case for the same agent
	// while one is active on this tab.
	openCases map[uuid.UUID]uuid.UUID
}

// Tracker holds per-tab monitoring state. All methods are safe for
// concurrent use.
type Tracker struct {
	mu      sync.Mutex
	tabs    map[int]*TabState
	setIcon IconSetter
}

// NewTracker creates a tracker. The icon setter may be nil.
func NewTracker(setIcon IconSetter) *Tracker {
	if setIcon == nil {
		setIcon = func(int, IconState) {}
	}
	return &Tracker{
		tabs:    make(map[int]*TabState),
		setIcon: setIcon,
	}
}

// StartMonitoring records that agents matched the tab's page and arms it.
// Any previous state for the tab is replaced.
func (t *Tracker) StartMonitoring(tabID int, url, site string, matches []agent.Match) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tabs[tabID] = &TabState{
		Phase:     PhaseMonitoring,
		URL:       url,
		Site:      site,
		Matches:   matches,
		openCases: make(map[uuid.UUID]uuid.UUID),
	}
	t.setIcon(tabID, IconGray)
}

// Get returns a snapshot of the tab's state. The snapshot's case map is
// a copy, so callers may iterate it while other goroutines open cases.
func (t *Tracker) Get(tabID int) (TabState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.tabs[tabID]
	if !ok {
		return TabState{}, false
	}

	snapshot := *state
	snapshot.openCases = make(map[uuid.UUID]uuid.UUID, len(state.openCases))
	for agentID, caseID := range state.openCases {
		snapshot.openCases[agentID] = caseID
	}
	return snapshot, true
}

// CaseForAgent returns the open case for a tab/agent pair, if any.
func (t *Tracker) CaseForAgent(tabID int, agentID uuid.UUID) (uuid.UUID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.tabs[tabID]
	if !ok {
		return uuid.Nil, false
	}
	caseID, ok := state.openCases[agentID]
	return caseID, ok
}

// OpenCase records a newly opened case for a tab/agent pair and turns the
// icon green. Returns false when the tab is unknown or the agent already
// has an open case on this tab; at most one case per tab/agent pair.
func (t *Tracker) OpenCase(tabID int, agentID, caseID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.tabs[tabID]
	if !ok {
		return false
	}
	if _, exists := state.openCases[agentID]; exists {
		return false
	}

	state.openCases[agentID] = caseID
	state.CaseID = caseID
	state.Phase = PhaseCaseOpen
	t.setIcon(tabID, IconGreen)
	return true
}

// ClearCases drops all case references for a tab and returns it to the
// monitoring phase. Used when the support session ends.
func (t *Tracker) ClearCases(tabID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.tabs[tabID]
	if !ok {
		return
	}

	state.openCases = make(map[uuid.UUID]uuid.UUID)
	state.CaseID = uuid.Nil
	state.Phase = PhaseMonitoring
	t.setIcon(tabID, IconGray)
}

// DrainCases atomically collects and clears every open case on a tab,
// returning the drained case ids. A rule firing concurrently either
// lands before the drain and is returned, or opens against the cleared
// state afterwards; the ids never race.
func (t *Tracker) DrainCases(tabID int) []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.tabs[tabID]
	if !ok {
		return nil
	}

	caseIDs := make([]uuid.UUID, 0, len(state.openCases))
	for _, caseID := range state.openCases {
		caseIDs = append(caseIDs, caseID)
	}

	state.openCases = make(map[uuid.UUID]uuid.UUID)
	state.CaseID = uuid.Nil
	state.Phase = PhaseMonitoring
	t.setIcon(tabID, IconGray)
	return caseIDs
}

// Remove evicts all state for a tab.
func (t *Tracker) Remove(tabID int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.tabs, tabID)
}

// Len returns the number of tracked tabs.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.tabs)
}
