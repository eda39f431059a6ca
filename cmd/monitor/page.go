package main

import (
	"sync"
	"time"

	"github.com/devadoot/devadoot/monitor"
)

// eventPage accumulates observed page data for a tab and exposes it as a
// monitor.Page for the collectors. A headless feed cannot capture
// screenshots or heap stats, so those collectors fail and are skipped.
type eventPage struct {
	mu      sync.Mutex
	url     string
	title   string
	html    string
	console []monitor.ConsoleEntry
	cookies []monitor.Cookie
	timings []monitor.ResourceTiming
}

func newEventPage(url string) *eventPage {
	return &eventPage{url: url}
}

func (p *eventPage) setTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

func (p *eventPage) setHTML(html string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
}

func (p *eventPage) addConsole(level, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.console = append(p.console, monitor.ConsoleEntry{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func (p *eventPage) setCookies(cookies []monitor.Cookie) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cookies = cookies
}

func (p *eventPage) addTiming(t monitor.ResourceTiming) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timings = append(p.timings, t)
}

func (p *eventPage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *eventPage) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

func (p *eventPage) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html
}

func (p *eventPage) ConsoleEntries() []monitor.ConsoleEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]monitor.ConsoleEntry{}, p.console...)
}

func (p *eventPage) Cookies() []monitor.Cookie {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]monitor.Cookie{}, p.cookies...)
}

func (p *eventPage) ResourceTimings() []monitor.ResourceTiming {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]monitor.ResourceTiming{}, p.timings...)
}

func (p *eventPage) MemoryStats() (monitor.MemoryStats, error) {
	return monitor.MemoryStats{}, monitor.ErrCollectorUnsupported
}

func (p *eventPage) PerformanceMetrics() (monitor.PerformanceMetrics, error) {
	return monitor.PerformanceMetrics{}, monitor.ErrCollectorUnsupported
}

func (p *eventPage) Screenshot() ([]byte, error) {
	return nil, monitor.ErrCollectorUnsupported
}
