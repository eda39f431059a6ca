package monitor

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/devadoot/devadoot/agent"
	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/rules"
)

// internalSchemes are URL schemes the monitor never arms on.
var internalSchemes = map[string]struct{}{
	"chrome":           {},
	"chrome-extension": {},
	"about":            {},
	"devtools":         {},
}

// PopupNotifier is invoked when a case opens and the support popup should
// appear for a tab.
type PopupNotifier func(tabID int, match agent.Match, caseID uuid.UUID)

// PageProvider returns the diagnostic surface for a tab, or nil when the
// tab is gone.
type PageProvider func(tabID int) Page

// Runner drives the monitoring pipeline: navigation events arm tabs,
// sensor samples are evaluated against armed rules, and a firing rule
// opens a case and kicks off collection and upload.
type Runner struct {
	tracker    *Tracker
	backend    Backend
	collectors *Orchestrator
	pages      PageProvider
	notify     PopupNotifier
	logger     logger.Logger
}

// NewRunner creates a runner. The notifier and page provider may be nil.
func NewRunner(tracker *Tracker, backend Backend, collectors *Orchestrator, pages PageProvider, notify PopupNotifier, log logger.Logger) *Runner {
	if notify == nil {
		notify = func(int, agent.Match, uuid.UUID) {}
	}
	if pages == nil {
		pages = func(int) Page { return nil }
	}
	return &Runner{
		tracker:    tracker,
		backend:    backend,
		collectors: collectors,
		pages:      pages,
		notify:     notify,
		logger:     log,
	}
}

// HandleNavigation processes a tab navigating to a new URL. Internal
// browser pages are ignored. Pages with no matching agents clear any
// previous state for the tab.
func (r *Runner) HandleNavigation(ctx context.Context, tabID int, pageURL string) error {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return err
	}
	if _, internal := internalSchemes[strings.ToLower(parsed.Scheme)]; internal {
		return nil
	}

	matches, err := r.backend.PostVisit(ctx, pageURL)
	if err != nil {
		r.logger.Error(ctx, "visit resolution failed", map[string]interface{}{
			"error": err.Error(),
			"url":   pageURL,
		})
		return err
	}

	if len(matches) == 0 {
		r.tracker.Remove(tabID)
		return nil
	}

	r.tracker.StartMonitoring(tabID, pageURL, parsed.Hostname(), matches)

	r.logger.Info(ctx, "tab armed", map[string]interface{}{
		"tab_id":  tabID,
		"site":    parsed.Hostname(),
		"matches": len(matches),
	})
	return nil
}

// HandleUISample evaluates a delivered UI text sample against every armed
// UI-watching agent on the tab.
func (r *Runner) HandleUISample(ctx context.Context, tabID int, sample string) {
	state, ok := r.tracker.Get(tabID)
	if !ok {
		return
	}

	for _, match := range state.Matches {
		if !match.Monitoring.WatchesUI() {
			continue
		}
		if _, open := r.tracker.CaseForAgent(tabID, match.AgentID); open {
			continue
		}

		result, err := r.backend.EvaluateUI(ctx, sample, match.Rule.NL, match.Rule.Structured)
		if err != nil {
			r.logger.Warn(ctx, "UI evaluation failed", map[string]interface{}{
				"error":    err.Error(),
				"agent_id": match.AgentID,
			})
			continue
		}

		if result.Match {
			r.activate(ctx, tabID, state, match, result)
		}
	}
}

// HandleAPISample evaluates a delivered API observation against every
// armed API-watching agent on the tab.
func (r *Runner) HandleAPISample(ctx context.Context, tabID int, call APICall) {
	state, ok := r.tracker.Get(tabID)
	if !ok {
		return
	}

	req := rules.APIRequest{
		Method:      call.Method,
		URL:         call.URL,
		BodySnippet: call.ReqSnippet,
	}
	resp := rules.APIResponse{
		Status:      call.Status,
		BodySnippet: call.RespSnippet,
	}

	for _, match := range state.Matches {
		if !match.Monitoring.WatchesAPI() {
			continue
		}
		if _, open := r.tracker.CaseForAgent(tabID, match.AgentID); open {
			continue
		}

		result, err := r.backend.EvaluateAPI(ctx, req, resp, match.Rule.NL, match.Rule.Structured)
		if err != nil {
			r.logger.Warn(ctx, "API evaluation failed", map[string]interface{}{
				"error":    err.Error(),
				"agent_id": match.AgentID,
			})
			continue
		}

		if result.Match {
			r.activate(ctx, tabID, state, match, result)
		}
	}
}

// activate opens a case for a fired rule, notifies the popup and runs the
// agent's collectors. At most one case opens per tab/agent pair.
func (r *Runner) activate(ctx context.Context, tabID int, state TabState, match agent.Match, result rules.Result) {
	caseID, err := r.backend.CreateCase(ctx, match.AgentID, state.URL, state.Site, match.Rule)
	if err != nil {
		r.logger.Error(ctx, "failed to open case", map[string]interface{}{
			"error":    err.Error(),
			"agent_id": match.AgentID,
		})
		return
	}

	if !r.tracker.OpenCase(tabID, match.AgentID, caseID) {
		// The tab navigated away or another sample won the race.
		if err := r.backend.CloseCase(ctx, caseID); err != nil {
			r.logger.Warn(ctx, "failed to close orphaned case", map[string]interface{}{
				"error":   err.Error(),
				"case_id": caseID,
			})
		}
		return
	}

	r.logger.Info(ctx, "rule fired, case opened", map[string]interface{}{
		"tab_id":   tabID,
		"agent_id": match.AgentID,
		"case_id":  caseID,
		"score":    result.Score,
		"reason":   result.Reason,
	})

	r.notify(tabID, match, caseID)

	if page := r.pages(tabID); page != nil {
		r.collectAndUpload(ctx, page, match, caseID)
	}
}

// collectAndUpload runs the agent's collectors and uploads each result.
// A failed upload skips that artifact only.
func (r *Runner) collectAndUpload(ctx context.Context, page Page, match agent.Match, caseID uuid.UUID) {
	for _, collected := range r.collectors.Run(ctx, page, match.Collectors) {
		err := r.backend.UploadArtifact(ctx, caseID, collected.Kind, collected.Data, collected.ContentType)
		if err != nil {
			r.logger.Warn(ctx, "artifact upload failed", map[string]interface{}{
				"error":   err.Error(),
				"case_id": caseID,
				"kind":    string(collected.Kind),
			})
			continue
		}
		r.logger.Debug(ctx, "artifact uploaded", map[string]interface{}{
			"case_id": caseID,
			"kind":    string(collected.Kind),
		})
	}
}

// HandlePopupClose processes the user dismissing the popup. Local state
// clears but the backend case stays open for later follow-up.
func (r *Runner) HandlePopupClose(tabID int) {
	r.tracker.ClearCases(tabID)
}

// HandleEndSupport processes the user ending the support session: every
// open case on the tab is drained from the tracker and closed on the
// backend.
func (r *Runner) HandleEndSupport(ctx context.Context, tabID int) {
	for _, caseID := range r.tracker.DrainCases(tabID) {
		if err := r.backend.CloseCase(ctx, caseID); err != nil {
			r.logger.Warn(ctx, "failed to close case", map[string]interface{}{
				"error":   err.Error(),
				"case_id": caseID,
			})
		}
	}
}

// HandleTabRemoved evicts all state for a closed tab.
func (r *Runner) HandleTabRemoved(tabID int) {
	r.tracker.Remove(tabID)
}
