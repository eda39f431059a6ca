package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/rules"
)

func TestEvaluateUIHandler(t *testing.T) {
	handler := NewRuleHandler(logger.NewTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/rules/evaluate/ui", jsonBody(t, EvaluateUIRequest{
		TextSample: "your payment was declined, checkout failed",
		RuleNL:     "invoke when checkout fails with payment declined",
	}))
	w := httptest.NewRecorder()
	handler.EvaluateUI(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result rules.Result
	decodeJSON(t, w.Body.Bytes(), &result)
	assert.True(t, result.Match)
	assert.Greater(t, result.Score, 0.5)
}

func TestEvaluateUIHandlerRequiresRule(t *testing.T) {
	handler := NewRuleHandler(logger.NewTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/rules/evaluate/ui", jsonBody(t, EvaluateUIRequest{
		TextSample: "some page text",
	}))
	w := httptest.NewRecorder()
	handler.EvaluateUI(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEvaluateAPIHandler(t *testing.T) {
	handler := NewRuleHandler(logger.NewTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/rules/evaluate/api", jsonBody(t, EvaluateAPIRequest{
		Request:  rules.APIRequest{Method: "POST", URL: "https://api.amazon.com/checkout"},
		Response: rules.APIResponse{Status: 500},
		RuleNL:   "invoke on checkout error responses",
	}))
	w := httptest.NewRecorder()
	handler.EvaluateAPI(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result rules.Result
	decodeJSON(t, w.Body.Bytes(), &result)
	// "checkout" keyword hits the URL and "error" + 500 adds the status boost.
	assert.True(t, result.Match)
}

func TestEvaluateAPIHandlerInvalidBody(t *testing.T) {
	handler := NewRuleHandler(logger.NewTestLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/rules/evaluate/api", nil)
	w := httptest.NewRecorder()
	handler.EvaluateAPI(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
