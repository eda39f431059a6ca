package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/marketplace"
	"github.com/devadoot/devadoot/testutil"
)

func setupResolver(t *testing.T) (*Resolver, Store, marketplace.Store) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &Agent{}, &marketplace.Agent{})

	log := logger.NewTestLogger()
	agents := NewMySQLStore(db, log)
	mkt := marketplace.NewMySQLStore(db, log)
	return NewResolver(agents, mkt, log), agents, mkt
}

func TestFindMatchesOrdering(t *testing.T) {
	resolver, agents, _ := setupResolver(t)
	ctx := context.Background()

	second := validTestAgent()
	second.Name = "Second"
	second.Priority = 50
	require.NoError(t, agents.Create(ctx, second))

	first := validTestAgent()
	first.Name = "First"
	first.Priority = 1
	require.NoError(t, agents.Create(ctx, first))

	unrelated := validTestAgent()
	unrelated.Name = "Other Site"
	unrelated.Sites = StringList{"example.org"}
	require.NoError(t, agents.Create(ctx, unrelated))

	matches, err := resolver.FindMatches(ctx, "www.amazon.com", "https://www.amazon.com/checkout")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "First", matches[0].Name)
	assert.Equal(t, "Second", matches[1].Name)
	assert.Equal(t, first.ID, matches[0].AgentID)
}

func TestFindMatchesCustomChatMeta(t *testing.T) {
	resolver, agents, _ := setupResolver(t)
	ctx := context.Background()

	a := validTestAgent()
	require.NoError(t, agents.Create(ctx, a))

	matches, err := resolver.FindMatches(ctx, "amazon.com", "https://amazon.com/")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	meta := matches[0].ChatMeta
	assert.Equal(t, "chat", meta.Type)
	assert.Equal(t, "wss://agents.example.com/checkout", meta.Endpoint)
	assert.Equal(t, SourceCustom, matches[0].AgentSource)
}

func TestFindMatchesMarketplaceChatMeta(t *testing.T) {
	resolver, agents, mkt := setupResolver(t)
	ctx := context.Background()

	require.NoError(t, mkt.Upsert(ctx, &marketplace.Agent{
		ID:           "error-analyzer",
		Name:         "Error Analyzer",
		Type:         "analysis",
		ChatEndpoint: "wss://example.com/analyze",
	}))

	a := validTestAgent()
	a.Source = SourceMarketplace
	a.MarketplaceID = "error-analyzer"
	a.CustomEndpoint = ""
	require.NoError(t, agents.Create(ctx, a))

	matches, err := resolver.FindMatches(ctx, "amazon.com", "https://amazon.com/")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	meta := matches[0].ChatMeta
	assert.Equal(t, "analysis", meta.Type)
	assert.Equal(t, "wss://example.com/analyze", meta.Endpoint)
}

func TestFindMatchesMarketplaceLookupMissing(t *testing.T) {
	resolver, agents, _ := setupResolver(t)
	ctx := context.Background()

	a := validTestAgent()
	a.Source = SourceMarketplace
	a.MarketplaceID = "retired-agent"
	a.CustomEndpoint = ""
	require.NoError(t, agents.Create(ctx, a))

	matches, err := resolver.FindMatches(ctx, "amazon.com", "https://amazon.com/")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// Missing catalog entries degrade to a plain chat, the match survives.
	assert.Equal(t, ChatMeta{Type: "chat"}, matches[0].ChatMeta)
}

func TestFindMatchesRuleSnapshot(t *testing.T) {
	resolver, agents, _ := setupResolver(t)
	ctx := context.Background()

	a := validTestAgent()
	a.RuleNL = "invoke when payment declines"
	require.NoError(t, agents.Create(ctx, a))

	matches, err := resolver.FindMatches(ctx, "amazon.com", "https://amazon.com/")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "invoke when payment declines", matches[0].Rule.NL)
	assert.Nil(t, matches[0].Rule.Structured)
}

func TestFindMatchesSeededEcovacsScenario(t *testing.T) {
	resolver, agents, mkt := setupResolver(t)
	ctx := context.Background()

	require.NoError(t, marketplace.Seed(ctx, mkt, logger.NewTestLogger()))

	a := validTestAgent()
	a.Name = "Ecovacs Vacuum Cleaner Support Agent"
	a.Sites = StringList{"amazon.com", "www.amazon.com"}
	a.URLPatterns = StringList{".*ecovacs.*", ".*robot.*vacuum.*"}
	a.Source = SourceMarketplace
	a.MarketplaceID = "ecovacs-support"
	a.CustomEndpoint = ""
	require.NoError(t, agents.Create(ctx, a))

	matches, err := resolver.FindMatches(ctx, "www.amazon.com",
		"https://www.amazon.com/Ecovacs-DEEBOT-T10/dp/B0B9HXQ2TZ")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "chat", matches[0].ChatMeta.Type)
	assert.Equal(t, "wss://demo.devadoot.com/ecovacs-support", matches[0].ChatMeta.Endpoint)

	// Pattern miss on the same site yields no match.
	matches, err = resolver.FindMatches(ctx, "www.amazon.com",
		"https://www.amazon.com/gp/cart")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
