package handlers

import (
	"net/http"
	"net/url"

	"github.com/devadoot/devadoot/agent"
	"github.com/devadoot/devadoot/logger"
)

// EventHandler handles page visit events reported by the extension.
type EventHandler struct {
	resolver *agent.Resolver
	logger   logger.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(resolver *agent.Resolver, log logger.Logger) *EventHandler {
	return &EventHandler{
		resolver: resolver,
		logger:   log,
	}
}

// VisitRequest represents a page visit event.
type VisitRequest struct {
	URL  string `json:"url"`
	Site string `json:"site,omitempty"`
}

// VisitResponse carries the agents matched for the visited page.
type VisitResponse struct {
	Matches []agent.Match `json:"matches"`
}

// Visit handles a page visit and returns the matching agents.
func (h *EventHandler) Visit(w http.ResponseWriter, r *http.Request) {
	var req VisitRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	hostname := req.Site
	if hostname == "" {
		parsed, err := url.Parse(req.URL)
		if err != nil || parsed.Hostname() == "" {
			respondError(w, http.StatusBadRequest, "url must be a valid absolute URL")
			return
		}
		hostname = parsed.Hostname()
	}

	matches, err := h.resolver.FindMatches(r.Context(), hostname, req.URL)
	if err != nil {
		h.logger.Error(r.Context(), "failed to resolve visit", map[string]interface{}{
			"error": err.Error(),
			"site":  hostname,
		})
		respondError(w, http.StatusInternalServerError, "failed to resolve visit")
		return
	}

	respondJSON(w, http.StatusOK, VisitResponse{Matches: matches})
}
