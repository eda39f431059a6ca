package monitor

import (
	"strings"
	"sync"
	"time"
)

// apiThrottle is the minimum interval between delivered API observations.
const apiThrottle = 1 * time.Second

// APICall is one observed network request/response pair.
type APICall struct {
	Method      string
	URL         string
	Status      int
	Duration    time.Duration
	ReqSnippet  string
	RespSnippet string
}

// APISensor delivers observed API calls, throttled to at most one
// delivery per interval. Extension-origin requests are never delivered.
type APISensor struct {
	mu           sync.Mutex
	deliver      func(call APICall)
	installed    bool
	throttle     time.Duration
	lastDelivery time.Time
	now          func() time.Time
}

// NewAPISensor creates an API sensor.
func NewAPISensor() *APISensor {
	return &APISensor{
		throttle: apiThrottle,
		now:      time.Now,
	}
}

// Install arms the sensor with a delivery function. Subsequent installs
// are no-ops.
func (s *APISensor) Install(deliver func(call APICall)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.installed {
		return
	}
	s.deliver = deliver
	s.installed = true
}

// Observe feeds one API call into the sensor.
func (s *APISensor) Observe(call APICall) {
	s.mu.Lock()

	if !s.installed {
		s.mu.Unlock()
		return
	}
	if strings.HasPrefix(call.URL, "chrome-extension://") {
		s.mu.Unlock()
		return
	}

	now := s.now()
	if !s.lastDelivery.IsZero() && now.Sub(s.lastDelivery) < s.throttle {
		s.mu.Unlock()
		return
	}
	s.lastDelivery = now
	deliver := s.deliver
	s.mu.Unlock()

	deliver(call)
}
