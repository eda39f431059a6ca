package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/devadoot/devadoot/agent"
	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/marketplace"
	"github.com/devadoot/devadoot/rules"
)

// AgentHandler handles agent configuration requests.
type AgentHandler struct {
	agentStore       agent.Store
	marketplaceStore marketplace.Store
	resolver         *agent.Resolver
	devMode          bool
	logger           logger.Logger
}

// NewAgentHandler creates a new agent handler.
func NewAgentHandler(agentStore agent.Store, marketplaceStore marketplace.Store, resolver *agent.Resolver, devMode bool, log logger.Logger) *AgentHandler {
	return &AgentHandler{
		agentStore:       agentStore,
		marketplaceStore: marketplaceStore,
		resolver:         resolver,
		devMode:          devMode,
		logger:           log,
	}
}

// CreateAgentRequest represents an agent creation request.
type CreateAgentRequest struct {
	Name           string                `json:"name"`
	Sites          []string              `json:"sites"`
	URLPatterns    []string              `json:"urlPatterns"`
	Source         agent.Source          `json:"source"`
	MarketplaceID  string                `json:"marketplaceId"`
	CustomEndpoint string                `json:"customEndpoint"`
	Monitoring     agent.Monitoring      `json:"monitoring"`
	RuleNL         string                `json:"ruleNL"`
	RuleStructured *rules.Structured     `json:"ruleStructured"`
	WelcomeMessage string                `json:"welcomeMessage"`
	Collectors     agent.CollectorConfig `json:"collectors"`
	Priority       *int                  `json:"priority"`
}

// UpdateAgentRequest represents an agent update request.
type UpdateAgentRequest struct {
	Name           *string                `json:"name,omitempty"`
	Sites          []string               `json:"sites,omitempty"`
	URLPatterns    []string               `json:"urlPatterns,omitempty"`
	Source         *agent.Source          `json:"source,omitempty"`
	MarketplaceID  *string                `json:"marketplaceId,omitempty"`
	CustomEndpoint *string                `json:"customEndpoint,omitempty"`
	Monitoring     *agent.Monitoring      `json:"monitoring,omitempty"`
	RuleNL         *string                `json:"ruleNL,omitempty"`
	RuleStructured *rules.Structured      `json:"ruleStructured,omitempty"`
	WelcomeMessage *string                `json:"welcomeMessage,omitempty"`
	Collectors     *agent.CollectorConfig `json:"collectors,omitempty"`
	Priority       *int                   `json:"priority,omitempty"`
}

// Create handles creating a new agent.
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a := &agent.Agent{
		Name:           req.Name,
		Sites:          req.Sites,
		URLPatterns:    req.URLPatterns,
		Source:         req.Source,
		MarketplaceID:  req.MarketplaceID,
		CustomEndpoint: req.CustomEndpoint,
		Monitoring:     req.Monitoring,
		RuleNL:         req.RuleNL,
		RuleStructured: req.RuleStructured,
		WelcomeMessage: req.WelcomeMessage,
		Collectors:     req.Collectors,
	}
	if req.Priority != nil {
		a.Priority = *req.Priority
	}

	if err := h.agentStore.Create(r.Context(), a); err != nil {
		if isAgentValidationError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to create agent", map[string]interface{}{
			"error": err.Error(),
			"name":  req.Name,
		})
		respondError(w, http.StatusInternalServerError, "failed to create agent")
		return
	}

	respondJSON(w, http.StatusCreated, a)
}

// List handles listing all agents.
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agentStore.List(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "failed to list agents", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list agents")
		return
	}

	respondJSON(w, http.StatusOK, agents)
}

// GetByID handles getting a single agent by ID.
func (h *AgentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "agent")
	if !ok {
		return
	}

	a, err := h.agentStore.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			respondError(w, http.StatusNotFound, "agent not found")
			return
		}
		h.logger.Error(r.Context(), "failed to get agent", map[string]interface{}{
			"error":    err.Error(),
			"agent_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to get agent")
		return
	}

	respondJSON(w, http.StatusOK, a)
}

// Update handles updating an agent.
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "agent")
	if !ok {
		return
	}

	var req UpdateAgentRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var setters []agent.UpdateSetter
	if req.Name != nil {
		setters = append(setters, agent.SetName(*req.Name))
	}
	if req.Sites != nil {
		setters = append(setters, agent.SetSites(req.Sites))
	}
	if req.URLPatterns != nil {
		setters = append(setters, agent.SetURLPatterns(req.URLPatterns))
	}
	if req.Source != nil {
		marketplaceID := ""
		if req.MarketplaceID != nil {
			marketplaceID = *req.MarketplaceID
		}
		customEndpoint := ""
		if req.CustomEndpoint != nil {
			customEndpoint = *req.CustomEndpoint
		}
		setters = append(setters, agent.SetSource(*req.Source, marketplaceID, customEndpoint))
	}
	if req.Monitoring != nil {
		setters = append(setters, agent.SetMonitoring(*req.Monitoring))
	}
	if req.RuleNL != nil {
		setters = append(setters, agent.SetRule(*req.RuleNL, req.RuleStructured))
	}
	if req.WelcomeMessage != nil {
		setters = append(setters, agent.SetWelcomeMessage(*req.WelcomeMessage))
	}
	if req.Collectors != nil {
		setters = append(setters, agent.SetCollectors(*req.Collectors))
	}
	if req.Priority != nil {
		setters = append(setters, agent.SetPriority(*req.Priority))
	}

	if len(setters) == 0 {
		respondError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	if err := h.agentStore.Update(r.Context(), id, setters...); err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			respondError(w, http.StatusNotFound, "agent not found")
			return
		}
		if isAgentValidationError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error(r.Context(), "failed to update agent", map[string]interface{}{
			"error":    err.Error(),
			"agent_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to update agent")
		return
	}

	a, err := h.agentStore.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get updated agent")
		return
	}

	respondJSON(w, http.StatusOK, a)
}

// Delete handles deleting an agent.
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDOrRespond(w, r, "id", "agent")
	if !ok {
		return
	}

	if err := h.agentStore.Delete(r.Context(), id); err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			respondError(w, http.StatusNotFound, "agent not found")
			return
		}
		h.logger.Error(r.Context(), "failed to delete agent", map[string]interface{}{
			"error":    err.Error(),
			"agent_id": id,
		})
		respondError(w, http.StatusInternalServerError, "failed to delete agent")
		return
	}

	respondOK(w)
}

// MatchAgentsResponse carries the agents resolved for a page.
type MatchAgentsResponse struct {
	Matches []agent.Match `json:"matches"`
}

// Match handles resolving which agents apply to a page.
func (h *AgentHandler) Match(w http.ResponseWriter, r *http.Request) {
	pageURL := r.URL.Query().Get("url")
	site := r.URL.Query().Get("site")

	if pageURL == "" && site == "" {
		respondError(w, http.StatusBadRequest, "url or site query parameter is required")
		return
	}

	if site == "" {
		parsed, err := url.Parse(pageURL)
		if err != nil || parsed.Hostname() == "" {
			respondError(w, http.StatusBadRequest, "url must be a valid absolute URL")
			return
		}
		site = parsed.Hostname()
	}

	matches, err := h.resolver.FindMatches(r.Context(), site, pageURL)
	if err != nil {
		h.logger.Error(r.Context(), "failed to match agents", map[string]interface{}{
			"error": err.Error(),
			"site":  site,
		})
		respondError(w, http.StatusInternalServerError, "failed to match agents")
		return
	}

	respondJSON(w, http.StatusOK, MatchAgentsResponse{Matches: matches})
}

// ListMarketplace handles listing the marketplace catalog.
func (h *AgentHandler) ListMarketplace(w http.ResponseWriter, r *http.Request) {
	agents, err := h.marketplaceStore.List(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "failed to list marketplace agents", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "failed to list marketplace agents")
		return
	}

	respondJSON(w, http.StatusOK, agents)
}

// SeedMarketplace handles installing the default marketplace catalog.
// Available only in development mode.
func (h *AgentHandler) SeedMarketplace(w http.ResponseWriter, r *http.Request) {
	if !h.devMode {
		respondError(w, http.StatusForbidden, "seeding is only available in development mode")
		return
	}

	if err := marketplace.Seed(r.Context(), h.marketplaceStore, h.logger); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to seed marketplace")
		return
	}

	respondOK(w)
}

// isAgentValidationError reports whether the error is one of the agent
// validation sentinels.
func isAgentValidationError(err error) bool {
	return errors.Is(err, agent.ErrInvalidName) ||
		errors.Is(err, agent.ErrNoSites) ||
		errors.Is(err, agent.ErrInvalidMonitoring) ||
		errors.Is(err, agent.ErrInvalidRule) ||
		errors.Is(err, agent.ErrInvalidSource) ||
		errors.Is(err, agent.ErrMissingMarketplaceID) ||
		errors.Is(err, agent.ErrMissingCustomEndpoint) ||
		errors.Is(err, agent.ErrInvalidCustomEndpoint)
}
