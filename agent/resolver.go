package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/marketplace"
	"github.com/devadoot/devadoot/rules"
)

// ChatMeta tells the popup chat where and how to connect once an agent
// activates.
type ChatMeta struct {
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
}

// RuleSnapshot carries the rule material an agent was matched with, frozen
// at match time so later edits do not shift an active session.
type RuleSnapshot struct {
	NL         string            `json:"nl"`
	Structured *rules.Structured `json:"structured,omitempty"`
}

// Match is the projection of a matched agent handed to the page monitor.
type Match struct {
	AgentID        uuid.UUID       `json:"agentId"`
	Name           string          `json:"name"`
	Monitoring     Monitoring      `json:"monitoring"`
	Rule           RuleSnapshot    `json:"rule"`
	WelcomeMessage string          `json:"welcomeMessage"`
	Collectors     CollectorConfig `json:"collectors"`
	AgentSource    Source          `json:"agentSource"`
	ChatMeta       ChatMeta        `json:"agentChatMeta"`
}

// Resolver finds the agents that apply to a visited page and resolves
// their chat connection metadata against the marketplace catalog.
type Resolver struct {
	agents      Store
	marketplace marketplace.Store
	logger      logger.Logger
}

// NewResolver creates a resolver over the given stores.
func NewResolver(agents Store, mkt marketplace.Store, log logger.Logger) *Resolver {
	return &Resolver{
		agents:      agents,
		marketplace: mkt,
		logger:      log,
	}
}

// FindMatches returns every agent whose site and URL pattern configuration
// covers the visited page, ordered by priority. Each agent appears at most
// once even when multiple patterns match.
func (r *Resolver) FindMatches(ctx context.Context, hostname, pageURL string) ([]Match, error) {
	agents, err := r.agents.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{})
	matches := []Match{}
	for _, a := range agents {
		if !a.MatchesURL(hostname, pageURL) {
			continue
		}
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		matches = append(matches, Match{
			AgentID:        a.ID,
			Name:           a.Name,
			Monitoring:     a.Monitoring,
			Rule:           RuleSnapshot{NL: a.RuleNL, Structured: a.RuleStructured},
			WelcomeMessage: a.WelcomeMessage,
			Collectors:     a.Collectors,
			AgentSource:    a.Source,
			ChatMeta:       r.resolveChatMeta(ctx, a),
		})
	}

	r.logger.Debug(ctx, "resolved page visit", map[string]interface{}{
		"hostname": hostname,
		"matches":  len(matches),
	})
	return matches, nil
}

// resolveChatMeta looks up the chat connection details for an agent. A
// marketplace agent inherits the catalog entry's type and endpoint; a
// custom agent chats over its own endpoint. Lookup failures degrade to a
// plain chat with no endpoint rather than dropping the match.
func (r *Resolver) resolveChatMeta(ctx context.Context, a *Agent) ChatMeta {
	switch a.Source {
	case SourceMarketplace:
		entry, err := r.marketplace.GetByID(ctx, a.MarketplaceID)
		if err != nil {
			if !errors.Is(err, marketplace.ErrAgentNotFound) {
				r.logger.Warn(ctx, "marketplace lookup failed", map[string]interface{}{
					"error":          err.Error(),
					"marketplace_id": a.MarketplaceID,
				})
			}
			return ChatMeta{Type: "chat"}
		}
		meta := ChatMeta{Type: entry.Type, Endpoint: entry.ChatEndpoint}
		if meta.Type == "" {
			meta.Type = "chat"
		}
		return meta
	case SourceCustom:
		return ChatMeta{Type: "chat", Endpoint: a.CustomEndpoint}
	default:
		return ChatMeta{Type: "chat"}
	}
}
