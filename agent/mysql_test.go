package agent

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/testutil"
)

func setupStore(t *testing.T) *MySQLStore {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &Agent{})
	return NewMySQLStore(db, logger.NewTestLogger())
}

func TestMySQLStoreCreateAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	a := validTestAgent()
	a.URLPatterns = StringList{"/checkout", "/cart"}
	a.Collectors = CollectorConfig{HAR: true, Console: true, Screenshot: true}
	require.NoError(t, store.Create(ctx, a))
	assert.NotEqual(t, uuid.Nil, a.ID)

	got, err := store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checkout Helper", got.Name)
	assert.Equal(t, StringList{"amazon.com"}, got.Sites)
	assert.Equal(t, StringList{"/checkout", "/cart"}, got.URLPatterns)
	assert.True(t, got.Collectors.HAR)
	assert.True(t, got.Collectors.Screenshot)
	assert.False(t, got.Collectors.DOM)
}

func TestMySQLStoreCreateInvalid(t *testing.T) {
	store := setupStore(t)

	a := validTestAgent()
	a.Sites = nil
	assert.ErrorIs(t, store.Create(context.Background(), a), ErrNoSites)
}

func TestMySQLStoreUpdate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	a := validTestAgent()
	require.NoError(t, store.Create(ctx, a))

	err := store.Update(ctx, a.ID,
		SetName("Cart Helper"),
		SetMonitoring(MonitoringUI),
		SetPriority(10),
	)
	require.NoError(t, err)

	got, err := store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cart Helper", got.Name)
	assert.Equal(t, MonitoringUI, got.Monitoring)
	assert.Equal(t, 10, got.Priority)
}

func TestMySQLStoreUpdateRejectsInvalidResult(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	a := validTestAgent()
	require.NoError(t, store.Create(ctx, a))

	// Stripping the endpoint from a custom agent leaves it unusable.
	err := store.Update(ctx, a.ID, SetSource(SourceCustom, "", ""))
	assert.ErrorIs(t, err, ErrMissingCustomEndpoint)

	got, err := store.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "wss://agents.example.com/checkout", got.CustomEndpoint)
}

func TestMySQLStoreDelete(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	a := validTestAgent()
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Delete(ctx, a.ID))

	_, err := store.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrAgentNotFound)

	assert.ErrorIs(t, store.Delete(ctx, a.ID), ErrAgentNotFound)
}

func TestMySQLStoreListOrdering(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	low := validTestAgent()
	low.Name = "Low Priority"
	low.Priority = 200
	require.NoError(t, store.Create(ctx, low))

	high := validTestAgent()
	high.Name = "High Priority"
	high.Priority = 1
	require.NoError(t, store.Create(ctx, high))

	agents, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "High Priority", agents[0].Name)
	assert.Equal(t, "Low Priority", agents[1].Name)
}
