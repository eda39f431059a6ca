package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devadoot/devadoot/agent"
)

func eventRouter(env *testEnv) http.Handler {
	handler := NewEventHandler(env.resolver, env.log)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/events/visit", handler.Visit)
	return mux
}

func TestVisitHandler(t *testing.T) {
	env := setupEnv(t)
	router := eventRouter(env)

	checkoutAgent := &agent.Agent{
		Name:           "Checkout Helper",
		Sites:          agent.StringList{"amazon.com"},
		URLPatterns:    agent.StringList{"/checkout"},
		Source:         agent.SourceCustom,
		CustomEndpoint: "wss://agents.example.com/checkout",
		Monitoring:     agent.MonitoringBoth,
		RuleNL:         "invoke when checkout fails",
	}
	require.NoError(t, env.agentStore.Create(context.Background(), checkoutAgent))

	req := httptest.NewRequest(http.MethodPost, "/api/events/visit",
		jsonBody(t, VisitRequest{URL: "https://www.amazon.com/checkout/payment"}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp VisitResponse
	decodeJSON(t, w.Body.Bytes(), &resp)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, checkoutAgent.ID, resp.Matches[0].AgentID)
	assert.Equal(t, "chat", resp.Matches[0].ChatMeta.Type)
	assert.Equal(t, "wss://agents.example.com/checkout", resp.Matches[0].ChatMeta.Endpoint)
}

func TestVisitHandlerExplicitSite(t *testing.T) {
	env := setupEnv(t)
	router := eventRouter(env)

	helpAgent := &agent.Agent{
		Name:           "Help Desk",
		Sites:          agent.StringList{"example.com"},
		Source:         agent.SourceCustom,
		CustomEndpoint: "wss://agents.example.com/help",
		Monitoring:     agent.MonitoringUI,
		RuleNL:         "invoke when user needs help",
	}
	require.NoError(t, env.agentStore.Create(context.Background(), helpAgent))

	req := httptest.NewRequest(http.MethodPost, "/api/events/visit",
		jsonBody(t, VisitRequest{URL: "https://example.com/docs", Site: "shop.example.com"}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp VisitResponse
	decodeJSON(t, w.Body.Bytes(), &resp)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, helpAgent.ID, resp.Matches[0].AgentID)
}

func TestVisitHandlerNoMatches(t *testing.T) {
	env := setupEnv(t)
	router := eventRouter(env)

	req := httptest.NewRequest(http.MethodPost, "/api/events/visit",
		jsonBody(t, VisitRequest{URL: "https://unrelated.org/page"}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp VisitResponse
	decodeJSON(t, w.Body.Bytes(), &resp)
	assert.Empty(t, resp.Matches)
}

func TestVisitHandlerValidation(t *testing.T) {
	env := setupEnv(t)
	router := eventRouter(env)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing url", body: `{}`},
		{name: "relative url", body: `{"url": "/checkout"}`},
		{name: "invalid body", body: `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/events/visit",
				strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	HealthHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	decodeJSON(t, w.Body.Bytes(), &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
}
