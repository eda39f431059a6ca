package monitor

import (
	"strings"
	"sync"
	"time"
)

const (
	// uiDebounce is how long the sensor waits for a quiet period before
	// delivering buffered mutations.
	uiDebounce = 250 * time.Millisecond

	// uiBufferFlushSize forces immediate delivery once this many fragments
	// have accumulated.
	uiBufferFlushSize = 5

	// uiSampleMaxChars caps the delivered sample length.
	uiSampleMaxChars = 2000

	// uiMinFragmentChars drops trivially short text fragments.
	uiMinFragmentChars = 10
)

// excludedTags are DOM subtrees whose text never reaches the rule
// evaluator.
var excludedTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
}

// Mutation is one observed DOM change: the text content of an added node
// or modified character data, plus the enclosing element tag.
type Mutation struct {
	Text string
	Tag  string
}

// UISensor buffers DOM mutation text and delivers debounced, sanitized
// samples. A sensor delivers through the function given at install time;
// installing twice reuses the first delivery function.
type UISensor struct {
	mu        sync.Mutex
	buffer    []string
	timer     *time.Timer
	deliver   func(sample string)
	installed bool
	debounce  time.Duration
}

// NewUISensor creates a UI sensor.
func NewUISensor() *UISensor {
	return &UISensor{
		debounce: uiDebounce,
	}
}

// Install arms the sensor with a delivery function. Subsequent installs
// are no-ops, re-arming after navigation reuses the existing observer.
func (s *UISensor) Install(deliver func(sample string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.installed {
		return
	}
	s.deliver = deliver
	s.installed = true
}

// Observe feeds one DOM mutation into the sensor. Fragments from excluded
// subtrees or at or below the minimum length are dropped. The buffer is
// delivered after a quiet period, or immediately once it fills.
func (s *UISensor) Observe(m Mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.installed {
		return
	}
	if _, excluded := excludedTags[strings.ToLower(m.Tag)]; excluded {
		return
	}

	text := strings.TrimSpace(m.Text)
	if len(text) <= uiMinFragmentChars {
		return
	}

	s.buffer = append(s.buffer, text)

	if len(s.buffer) >= uiBufferFlushSize {
		s.flushLocked()
		return
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.Flush)
}

// Flush delivers the buffered sample immediately.
func (s *UISensor) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *UISensor) flushLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if len(s.buffer) == 0 {
		return
	}

	sample := sanitizeSample(strings.Join(s.buffer, " "))
	s.buffer = nil

	deliver := s.deliver
	if deliver != nil {
		go deliver(sample)
	}
}

// sanitizeSample collapses whitespace runs and caps the sample length.
func sanitizeSample(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) > uiSampleMaxChars {
		return collapsed[:uiSampleMaxChars] + "..."
	}
	return collapsed
}
