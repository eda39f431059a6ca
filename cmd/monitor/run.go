package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/devadoot/devadoot/agent"
	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/monitor"
)

var configFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor against an observation event stream on stdin",
	RunE:  runMonitor,
}

func init() {
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(runCmd)
}

// Event is one observation from the monitored browser, JSON-encoded one
// per line on stdin.
type Event struct {
	Type  string `json:"type"`
	TabID int    `json:"tabId"`

	// navigation
	URL string `json:"url,omitempty"`

	// mutation
	Text string `json:"text,omitempty"`
	Tag  string `json:"tag,omitempty"`

	// apiCall
	Method     string `json:"method,omitempty"`
	Status     int    `json:"status,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`

	// console
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`

	// page snapshots
	Title   string           `json:"title,omitempty"`
	HTML    string           `json:"html,omitempty"`
	Cookies []monitor.Cookie `json:"cookies,omitempty"`
}

// tabSensors holds the per-tab sensor pair and accumulated page data.
type tabSensors struct {
	ui   *monitor.UISensor
	api  *monitor.APISensor
	page *eventPage
}

// feed dispatches stdin observation events into the monitoring pipeline.
type feed struct {
	mu     sync.Mutex
	tabs   map[int]*tabSensors
	runner *monitor.Runner
	logger logger.Logger
}

func newFeed(runner *monitor.Runner, log logger.Logger) *feed {
	return &feed{
		tabs:   make(map[int]*tabSensors),
		runner: runner,
		logger: log,
	}
}

// page returns the observed page data for a tab, for the collectors.
func (f *feed) page(tabID int) monitor.Page {
	f.mu.Lock()
	defer f.mu.Unlock()

	sensors, ok := f.tabs[tabID]
	if !ok {
		return nil
	}
	return sensors.page
}

// sensorsFor returns the sensor pair for a tab, creating and arming it on
// first use.
func (f *feed) sensorsFor(ctx context.Context, tabID int, url string) *tabSensors {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sensors, ok := f.tabs[tabID]; ok {
		if url != "" {
			sensors.page = newEventPage(url)
		}
		return sensors
	}

	sensors := &tabSensors{
		ui:   monitor.NewUISensor(),
		api:  monitor.NewAPISensor(),
		page: newEventPage(url),
	}
	sensors.ui.Install(func(sample string) {
		f.runner.HandleUISample(ctx, tabID, sample)
	})
	sensors.api.Install(func(call monitor.APICall) {
		f.runner.HandleAPISample(ctx, tabID, call)
	})
	f.tabs[tabID] = sensors
	return sensors
}

func (f *feed) evict(tabID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tabs, tabID)
}

// dispatch routes one event.
func (f *feed) dispatch(ctx context.Context, ev Event) {
	switch ev.Type {
	case "navigation":
		sensors := f.sensorsFor(ctx, ev.TabID, ev.URL)
		sensors.page.setTitle(ev.Title)
		if err := f.runner.HandleNavigation(ctx, ev.TabID, ev.URL); err != nil {
			f.logger.Warn(ctx, "navigation handling failed", map[string]interface{}{
				"error":  err.Error(),
				"tab_id": ev.TabID,
			})
		}

	case "mutation":
		sensors := f.sensorsFor(ctx, ev.TabID, "")
		sensors.ui.Observe(monitor.Mutation{Text: ev.Text, Tag: ev.Tag})

	case "apiCall":
		sensors := f.sensorsFor(ctx, ev.TabID, "")
		sensors.page.addTiming(monitor.ResourceTiming{
			URL:      ev.URL,
			Method:   ev.Method,
			Status:   ev.Status,
			Duration: time.Duration(ev.DurationMs) * time.Millisecond,
		})
		sensors.api.Observe(monitor.APICall{
			Method:   ev.Method,
			URL:      ev.URL,
			Status:   ev.Status,
			Duration: time.Duration(ev.DurationMs) * time.Millisecond,
		})

	case "console":
		sensors := f.sensorsFor(ctx, ev.TabID, "")
		sensors.page.addConsole(ev.Level, ev.Message)

	case "dom":
		sensors := f.sensorsFor(ctx, ev.TabID, "")
		sensors.page.setHTML(ev.HTML)

	case "cookies":
		sensors := f.sensorsFor(ctx, ev.TabID, "")
		sensors.page.setCookies(ev.Cookies)

	case "popupClose":
		f.runner.HandlePopupClose(ev.TabID)

	case "endSupport":
		f.runner.HandleEndSupport(ctx, ev.TabID)

	case "tabRemoved":
		f.runner.HandleTabRemoved(ev.TabID)
		f.evict(ev.TabID)

	default:
		f.logger.Warn(ctx, "unknown event type", map[string]interface{}{
			"type": ev.Type,
		})
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewLogrusLogger(cfg.Log.Level)
	log.Info(ctx, "starting monitor", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    BuildDate,
		"backend": cfg.Backend.URL,
	})

	client := monitor.NewClient(cfg.Backend.URL, cfg.Backend.Token)

	tracker := monitor.NewTracker(func(tabID int, state monitor.IconState) {
		log.Info(ctx, "icon changed", map[string]interface{}{
			"tab_id": tabID,
			"state":  string(state),
		})
	})

	notify := func(tabID int, match agent.Match, caseID uuid.UUID) {
		log.Info(ctx, "support popup requested", map[string]interface{}{
			"tab_id":   tabID,
			"agent":    match.Name,
			"case_id":  caseID,
			"welcome":  match.WelcomeMessage,
			"chatType": match.ChatMeta.Type,
		})
	}

	var f *feed
	runner := monitor.NewRunner(
		tracker,
		client,
		monitor.NewOrchestrator(log),
		func(tabID int) monitor.Page { return f.page(tabID) },
		notify,
		log,
	)
	f = newFeed(runner, log)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Warn(ctx, "skipping malformed event", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		f.dispatch(ctx, ev)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("event stream read failed: %w", err)
	}

	log.Info(ctx, "event stream ended", nil)
	return nil
}
