package marketplace

import (
	"context"

	"github.com/devadoot/devadoot/logger"
)

// DefaultAgents is the built-in catalog installed on first run.
var DefaultAgents = []Agent{
	{
		ID:           "chat-support-ai",
		Name:         "Chat Support AI",
		Type:         "chat",
		Description:  "Conversational support agent for end-user assistance",
		ChatEndpoint: "wss://example.com/chat",
	},
	{
		ID:           "error-analyzer",
		Name:         "Error Analyzer",
		Type:         "analysis",
		Description:  "Analyzes page and network errors and suggests fixes",
		ChatEndpoint: "wss://example.com/analyze",
	},
	{
		ID:           "performance-monitor",
		Name:         "Performance Monitor",
		Type:         "monitoring",
		Description:  "Tracks page performance metrics and surfaces regressions",
		ChatEndpoint: "wss://example.com/perf",
	},
	{
		ID:           "ecovacs-support",
		Name:         "Ecovacs Vacuum Cleaner Support",
		Type:         "chat",
		Description:  "Expert support for Ecovacs vacuum cleaners on Amazon",
		ChatEndpoint: "wss://demo.devadoot.com/ecovacs-support",
	},
}

// Seed installs the default marketplace catalog. Existing entries with
// the same ID are overwritten so that catalog updates take effect.
func Seed(ctx context.Context, store Store, log logger.Logger) error {
	for i := range DefaultAgents {
		agent := DefaultAgents[i]
		if err := store.Upsert(ctx, &agent); err != nil {
			log.Error(ctx, "failed to seed marketplace agent", map[string]interface{}{
				"error":          err.Error(),
				"marketplace_id": agent.ID,
			})
			return err
		}
	}
	log.Info(ctx, "marketplace catalog seeded", map[string]interface{}{
		"count": len(DefaultAgents),
	})
	return nil
}
