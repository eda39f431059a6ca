package monitor

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devadoot/devadoot/agent"
)

type iconRecorder struct {
	states map[int][]IconState
}

func newIconRecorder() *iconRecorder {
	return &iconRecorder{states: map[int][]IconState{}}
}

func (r *iconRecorder) set(tabID int, state IconState) {
	r.states[tabID] = append(r.states[tabID], state)
}

func (r *iconRecorder) last(tabID int) IconState {
	history := r.states[tabID]
	if len(history) == 0 {
		return ""
	}
	return history[len(history)-1]
}

func testMatch(agentID uuid.UUID) agent.Match {
	return agent.Match{
		AgentID:    agentID,
		Name:       "Checkout Helper",
		Monitoring: agent.MonitoringBoth,
		Rule:       agent.RuleSnapshot{NL: "invoke when checkout fails"},
	}
}

func TestTrackerLifecycle(t *testing.T) {
	icons := newIconRecorder()
	tracker := NewTracker(icons.set)
	agentID := uuid.New()

	tracker.StartMonitoring(7, "https://amazon.com/checkout", "amazon.com", []agent.Match{testMatch(agentID)})
	assert.Equal(t, IconGray, icons.last(7))

	state, ok := tracker.Get(7)
	require.True(t, ok)
	assert.Equal(t, PhaseMonitoring, state.Phase)
	assert.Equal(t, "amazon.com", state.Site)
	require.Len(t, state.Matches, 1)

	caseID := uuid.New()
	assert.True(t, tracker.OpenCase(7, agentID, caseID))
	assert.Equal(t, IconGreen, icons.last(7))

	state, ok = tracker.Get(7)
	require.True(t, ok)
	assert.Equal(t, PhaseCaseOpen, state.Phase)
	assert.Equal(t, caseID, state.CaseID)

	got, open := tracker.CaseForAgent(7, agentID)
	require.True(t, open)
	assert.Equal(t, caseID, got)

	tracker.ClearCases(7)
	assert.Equal(t, IconGray, icons.last(7))

	_, open = tracker.CaseForAgent(7, agentID)
	assert.False(t, open)

	tracker.Remove(7)
	_, ok = tracker.Get(7)
	assert.False(t, ok)
	assert.Equal(t, 0, tracker.Len())
}

func TestTrackerOneCasePerTabAgent(t *testing.T) {
	tracker := NewTracker(nil)
	agentID := uuid.New()

	tracker.StartMonitoring(1, "https://amazon.com/", "amazon.com", []agent.Match{testMatch(agentID)})

	first := uuid.New()
	require.True(t, tracker.OpenCase(1, agentID, first))

	// A second fire for the same agent on the same tab must not open
	// another case.
	assert.False(t, tracker.OpenCase(1, agentID, uuid.New()))

	got, open := tracker.CaseForAgent(1, agentID)
	require.True(t, open)
	assert.Equal(t, first, got)

	// A different agent on the same tab may open its own case.
	other := uuid.New()
	tracker.StartMonitoring(2, "https://amazon.com/", "amazon.com", []agent.Match{testMatch(other)})
	assert.True(t, tracker.OpenCase(2, other, uuid.New()))
}

func TestTrackerUnknownTab(t *testing.T) {
	tracker := NewTracker(nil)

	assert.False(t, tracker.OpenCase(99, uuid.New(), uuid.New()))
	_, ok := tracker.Get(99)
	assert.False(t, ok)

	// Clearing or removing unknown tabs is harmless.
	tracker.ClearCases(99)
	tracker.Remove(99)
}

func TestTrackerNavigationReplacesState(t *testing.T) {
	tracker := NewTracker(nil)
	agentID := uuid.New()

	tracker.StartMonitoring(3, "https://amazon.com/a", "amazon.com", []agent.Match{testMatch(agentID)})
	require.True(t, tracker.OpenCase(3, agentID, uuid.New()))

	// New navigation re-arms the tab and drops the old case reference.
	tracker.StartMonitoring(3, "https://amazon.com/b", "amazon.com", []agent.Match{testMatch(agentID)})

	state, ok := tracker.Get(3)
	require.True(t, ok)
	assert.Equal(t, PhaseMonitoring, state.Phase)
	assert.Equal(t, "https://amazon.com/b", state.URL)

	_, open := tracker.CaseForAgent(3, agentID)
	assert.False(t, open)
}

func TestTrackerGetSnapshotIsolation(t *testing.T) {
	tracker := NewTracker(nil)
	agentID := uuid.New()

	tracker.StartMonitoring(7, "https://amazon.com/checkout", "amazon.com", []agent.Match{testMatch(agentID)})

	before, ok := tracker.Get(7)
	require.True(t, ok)
	assert.Empty(t, before.openCases)

	caseID := uuid.New()
	require.True(t, tracker.OpenCase(7, agentID, caseID))

	// The earlier snapshot must not see the newly opened case.
	assert.Empty(t, before.openCases)

	after, ok := tracker.Get(7)
	require.True(t, ok)
	assert.Equal(t, caseID, after.openCases[agentID])

	// Writes through a snapshot stay local to the snapshot.
	after.openCases[uuid.New()] = uuid.New()
	fresh, ok := tracker.Get(7)
	require.True(t, ok)
	assert.Len(t, fresh.openCases, 1)
}

func TestTrackerDrainCases(t *testing.T) {
	icons := newIconRecorder()
	tracker := NewTracker(icons.set)
	firstAgent := uuid.New()
	secondAgent := uuid.New()

	tracker.StartMonitoring(7, "https://amazon.com/checkout", "amazon.com",
		[]agent.Match{testMatch(firstAgent), testMatch(secondAgent)})

	firstCase := uuid.New()
	secondCase := uuid.New()
	require.True(t, tracker.OpenCase(7, firstAgent, firstCase))
	require.True(t, tracker.OpenCase(7, secondAgent, secondCase))

	drained := tracker.DrainCases(7)
	assert.ElementsMatch(t, []uuid.UUID{firstCase, secondCase}, drained)
	assert.Equal(t, IconGray, icons.last(7))

	state, ok := tracker.Get(7)
	require.True(t, ok)
	assert.Equal(t, PhaseMonitoring, state.Phase)
	assert.Empty(t, state.openCases)

	assert.Empty(t, tracker.DrainCases(7))
	assert.Nil(t, tracker.DrainCases(404))
}

func TestTrackerConcurrentCaseAccess(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.StartMonitoring(7, "https://amazon.com/checkout", "amazon.com", nil)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			tracker.OpenCase(7, uuid.New(), uuid.New())
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if state, ok := tracker.Get(7); ok {
				for range state.openCases {
				}
			}
			tracker.DrainCases(7)
		}
	}()

	wg.Wait()
}
