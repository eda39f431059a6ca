package handlers

import (
	"net/http"

	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/rules"
)

// RuleHandler handles rule evaluation requests.
type RuleHandler struct {
	logger logger.Logger
}

// NewRuleHandler creates a new rule handler.
func NewRuleHandler(log logger.Logger) *RuleHandler {
	return &RuleHandler{
		logger: log,
	}
}

// EvaluateUIRequest represents a UI sample evaluation request.
type EvaluateUIRequest struct {
	TextSample     string            `json:"textSample"`
	RuleNL         string            `json:"ruleNL"`
	RuleStructured *rules.Structured `json:"ruleStructured,omitempty"`
}

// EvaluateAPIRequest represents an API activity evaluation request.
type EvaluateAPIRequest struct {
	Request        rules.APIRequest  `json:"request"`
	Response       rules.APIResponse `json:"response"`
	RuleNL         string            `json:"ruleNL"`
	RuleStructured *rules.Structured `json:"ruleStructured,omitempty"`
}

// EvaluateUI handles evaluating a UI text sample against a rule.
func (h *RuleHandler) EvaluateUI(w http.ResponseWriter, r *http.Request) {
	var req EvaluateUIRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RuleNL == "" {
		respondError(w, http.StatusBadRequest, "ruleNL is required")
		return
	}

	result := rules.EvaluateUI(req.TextSample, req.RuleNL, req.RuleStructured)

	h.logger.Debug(r.Context(), "evaluated UI sample", map[string]interface{}{
		"match": result.Match,
		"score": result.Score,
	})

	respondJSON(w, http.StatusOK, result)
}

// EvaluateAPI handles evaluating observed API activity against a rule.
func (h *RuleHandler) EvaluateAPI(w http.ResponseWriter, r *http.Request) {
	var req EvaluateAPIRequest
	if err := parseJSON(r, &req, h.logger); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RuleNL == "" {
		respondError(w, http.StatusBadRequest, "ruleNL is required")
		return
	}

	result := rules.EvaluateAPI(req.Request, req.Response, req.RuleNL, req.RuleStructured)

	h.logger.Debug(r.Context(), "evaluated API activity", map[string]interface{}{
		"match":  result.Match,
		"score":  result.Score,
		"status": req.Response.Status,
	})

	respondJSON(w, http.StatusOK, result)
}
