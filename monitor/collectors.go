package monitor

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/devadoot/devadoot/agent"
	"github.com/devadoot/devadoot/artifact"
	"github.com/devadoot/devadoot/logger"
)

// ConsoleEntry is one captured console message.
type ConsoleEntry struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Cookie is one cookie visible to the page.
type Cookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
	Secure bool   `json:"secure"`
}

// ResourceTiming is one entry from the page's resource timing log.
type ResourceTiming struct {
	URL       string        `json:"url"`
	Initiator string        `json:"initiator"`
	Method    string        `json:"method"`
	Status    int           `json:"status"`
	Duration  time.Duration `json:"duration"`
	Size      int64         `json:"size"`
}

// MemoryStats is a snapshot of the page's JS heap usage.
type MemoryStats struct {
	UsedHeapBytes  int64 `json:"usedHeapBytes"`
	TotalHeapBytes int64 `json:"totalHeapBytes"`
	HeapLimitBytes int64 `json:"heapLimitBytes"`
}

// PerformanceMetrics are the page's navigation timing figures.
type PerformanceMetrics struct {
	DOMContentLoadedMs float64 `json:"domContentLoadedMs"`
	LoadMs             float64 `json:"loadMs"`
	FirstPaintMs       float64 `json:"firstPaintMs"`
	TransferBytes      int64   `json:"transferBytes"`
}

// Page exposes the diagnostic surfaces of a monitored page to the
// collectors.
type Page interface {
	URL() string
	Title() string
	HTML() string
	ConsoleEntries() []ConsoleEntry
	Cookies() []Cookie
	ResourceTimings() []ResourceTiming
	MemoryStats() (MemoryStats, error)
	PerformanceMetrics() (PerformanceMetrics, error)
	Screenshot() ([]byte, error)
}

// Collected is one collector's output, ready for upload.
type Collected struct {
	Kind        artifact.Kind
	Data        []byte
	ContentType string
}

// CollectorFunc gathers one kind of diagnostic data from a page.
type CollectorFunc func(ctx context.Context, page Page) (*Collected, error)

// ErrCollectorUnsupported marks a collector whose capture mechanism is
// not available in this runtime.
var ErrCollectorUnsupported = errors.New("collector not supported")

// redactedCookieMarkers are name substrings whose cookie values are
// scrubbed before upload.
var redactedCookieMarkers = []string{"session", "token", "auth"}

// collectHAR builds an HTTP archive from the page's resource timings.
func collectHAR(ctx context.Context, page Page) (*Collected, error) {
	timings := page.ResourceTimings()

	entries := make([]map[string]interface{}, 0, len(timings))
	for _, t := range timings {
		entries = append(entries, map[string]interface{}{
			"request": map[string]interface{}{
				"method": t.Method,
				"url":    t.URL,
			},
			"response": map[string]interface{}{
				"status":   t.Status,
				"bodySize": t.Size,
			},
			"time":      t.Duration.Milliseconds(),
			"initiator": t.Initiator,
		})
	}

	har := map[string]interface{}{
		"log": map[string]interface{}{
			"version": "1.2",
			"creator": map[string]string{"name": "devadoot-monitor"},
			"pages": []map[string]string{
				{"title": page.Title(), "id": page.URL()},
			},
			"entries": entries,
		},
	}

	data, err := json.Marshal(har)
	if err != nil {
		return nil, err
	}
	return &Collected{Kind: artifact.KindHAR, Data: data, ContentType: "application/json"}, nil
}

// collectConsole serializes captured console entries as JSON lines.
func collectConsole(ctx context.Context, page Page) (*Collected, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, entry := range page.ConsoleEntries() {
		if err := enc.Encode(entry); err != nil {
			return nil, err
		}
	}
	return &Collected{Kind: artifact.KindConsole, Data: buf.Bytes(), ContentType: "application/x-ndjson"}, nil
}

// collectCookies serializes the page's cookies, scrubbing values of
// credential-bearing cookies.
func collectCookies(ctx context.Context, page Page) (*Collected, error) {
	cookies := page.Cookies()
	redacted := make([]Cookie, len(cookies))
	for i, c := range cookies {
		redacted[i] = c
		nameLower := strings.ToLower(c.Name)
		for _, marker := range redactedCookieMarkers {
			if strings.Contains(nameLower, marker) {
				redacted[i].Value = "[REDACTED]"
				break
			}
		}
	}

	data, err := json.Marshal(redacted)
	if err != nil {
		return nil, err
	}
	return &Collected{Kind: artifact.KindCookies, Data: data, ContentType: "application/json"}, nil
}

// collectDOM captures the page HTML, gzip-compressed.
func collectDOM(ctx context.Context, page Page) (*Collected, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(page.HTML())); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return &Collected{Kind: artifact.KindDOM, Data: buf.Bytes(), ContentType: "application/gzip"}, nil
}

// collectMemory snapshots JS heap usage.
func collectMemory(ctx context.Context, page Page) (*Collected, error) {
	stats, err := page.MemoryStats()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	return &Collected{Kind: artifact.KindMemory, Data: data, ContentType: "application/json"}, nil
}

// collectPerformance snapshots navigation timing metrics.
func collectPerformance(ctx context.Context, page Page) (*Collected, error) {
	metrics, err := page.PerformanceMetrics()
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(metrics)
	if err != nil {
		return nil, err
	}
	return &Collected{Kind: artifact.KindPerformance, Data: data, ContentType: "application/json"}, nil
}

// collectScreenshot captures the visible viewport.
func collectScreenshot(ctx context.Context, page Page) (*Collected, error) {
	img, err := page.Screenshot()
	if err != nil {
		return nil, err
	}
	return &Collected{Kind: artifact.KindScreenshot, Data: img, ContentType: "image/png"}, nil
}

// collectRecording is declared for configuration completeness; screen
// recording capture has no headless implementation.
func collectRecording(ctx context.Context, page Page) (*Collected, error) {
	return nil, fmt.Errorf("%w: screen recording", ErrCollectorUnsupported)
}

// Orchestrator fans out enabled collectors over a page.
type Orchestrator struct {
	logger logger.Logger
}

// NewOrchestrator creates a collector orchestrator.
func NewOrchestrator(log logger.Logger) *Orchestrator {
	return &Orchestrator{
		logger: log,
	}
}

// enabled returns the collectors selected by an agent's configuration.
func enabled(cfg agent.CollectorConfig) map[artifact.Kind]CollectorFunc {
	selected := make(map[artifact.Kind]CollectorFunc)
	if cfg.HAR {
		selected[artifact.KindHAR] = collectHAR
	}
	if cfg.Console {
		selected[artifact.KindConsole] = collectConsole
	}
	if cfg.Cookies {
		selected[artifact.KindCookies] = collectCookies
	}
	if cfg.DOM {
		selected[artifact.KindDOM] = collectDOM
	}
	if cfg.Memory {
		selected[artifact.KindMemory] = collectMemory
	}
	if cfg.Performance {
		selected[artifact.KindPerformance] = collectPerformance
	}
	if cfg.Screenshot {
		selected[artifact.KindScreenshot] = collectScreenshot
	}
	if cfg.ScreenRecording {
		selected[artifact.KindRecording] = collectRecording
	}
	return selected
}

// Run executes the enabled collectors concurrently and returns whatever
// succeeded. A failing collector is logged and skipped, it never aborts
// the batch.
func (o *Orchestrator) Run(ctx context.Context, page Page, cfg agent.CollectorConfig) []Collected {
	selected := enabled(cfg)
	if len(selected) == 0 {
		return nil
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []Collected
	)

	for kind, collect := range selected {
		wg.Add(1)
		go func(kind artifact.Kind, collect CollectorFunc) {
			defer wg.Done()

			result, err := collect(ctx, page)
			if err != nil {
				o.logger.Warn(ctx, "collector failed", map[string]interface{}{
					"error": err.Error(),
					"kind":  string(kind),
				})
				return
			}

			mu.Lock()
			results = append(results, *result)
			mu.Unlock()
		}(kind, collect)
	}

	wg.Wait()
	return results
}
