package marketplace

import (
	"context"
	"testing"

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

func TestAgentValidate(t *testing.T) {
	tests := []struct {
		name    string
		agent   Agent
		wantErr error
	}{
		{
			name:  "valid agent",
			agent: Agent{ID: "chat-support-ai", Name: "Chat Support AI", Type: "chat"},
		},
		{
			name:    "missing id",
			agent:   Agent{Name: "Chat Support AI", Type: "chat"},
			wantErr: ErrInvalidID,
		},
		{
			name:    "missing name",
			agent:   Agent{ID: "chat-support-ai", Type: "chat"},
			wantErr: ErrInvalidName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.agent.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMySQLStoreUpsert(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	agent := &Agent{
		ID:           "error-analyzer",
		Name:         "Error Analyzer",
		Type:         "analysis",
		ChatEndpoint: "wss://example.com/analyze",
	}
	require.NoError(t, store.Upsert(ctx, agent))

	got, err := store.GetByID(ctx, "error-analyzer")
	require.NoError(t, err)
	assert.Equal(t, "Error Analyzer", got.Name)

	// Upsert with the same ID replaces the record.
	agent.Name = "Error Analyzer v2"
	require.NoError(t, store.Upsert(ctx, agent))

	got, err = store.GetByID(ctx, "error-analyzer")
	require.NoError(t, err)
	assert.Equal(t, "Error Analyzer v2", got.Name)

	agents, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, agents, 1)
}

func TestMySQLStoreGetByIDNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetByID(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestSeed(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, store, logger.NewTestLogger()))

	agents, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 4)

	// Ordered by name.
	assert.Equal(t, "Chat Support AI", agents[0].Name)
	assert.Equal(t, "Ecovacs Vacuum Cleaner Support", agents[1].Name)
	assert.Equal(t, "Error Analyzer", agents[2].Name)
	assert.Equal(t, "Performance Monitor", agents[3].Name)

	// Seeding twice is idempotent.
	require.NoError(t, Seed(ctx, store, logger.NewTestLogger()))
	agents, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, agents, 4)
}
