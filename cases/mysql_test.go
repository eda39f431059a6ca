package cases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/rules"
	"github.com/devadoot/devadoot/testutil"
)

func setupStore(t *testing.T) *MySQLStore {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &Case{})
	return NewMySQLStore(db, logger.NewTestLogger())
}

func newTestCase(agentID uuid.UUID) *Case {
	return &Case{
		AgentID: agentID,
		URL:     "https://www.amazon.com/checkout",
		Site:    "www.amazon.com",
		RuleNL:  "invoke when checkout fails",
	}
}

func TestCreateAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	agentID := uuid.New()

	c := newTestCase(agentID)
	c.RuleStructured = &rules.Structured{
		Triggers: &rules.Triggers{Keywords: []string{"checkout", "fails"}},
	}
	require.NoError(t, store.Create(ctx, c))
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, StatusOpen, c.Status)

	got, err := store.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, agentID, got.AgentID)
	assert.Equal(t, "https://www.amazon.com/checkout", got.URL)
	assert.Equal(t, StatusOpen, got.Status)
	assert.Nil(t, got.ClosedAt)
	require.NotNil(t, got.RuleStructured)
	require.NotNil(t, got.RuleStructured.Triggers)
	assert.Equal(t, []string{"checkout", "fails"}, got.RuleStructured.Triggers.Keywords)
}

func TestCreateInvalid(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	c := newTestCase(uuid.Nil)
	assert.ErrorIs(t, store.Create(ctx, c), ErrInvalidAgentID)

	c = newTestCase(uuid.New())
	c.URL = ""
	assert.ErrorIs(t, store.Create(ctx, c), ErrInvalidURL)
}

func TestClose(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	c := newTestCase(uuid.New())
	require.NoError(t, store.Create(ctx, c))

	closed, err := store.Close(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	assert.WithinDuration(t, time.Now(), *closed.ClosedAt, 5*time.Second)

	// Double close is rejected.
	_, err = store.Close(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCaseClosed)

	_, err = store.Close(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestListFiltering(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	agentA := uuid.New()
	agentB := uuid.New()

	first := newTestCase(agentA)
	require.NoError(t, store.Create(ctx, first))

	second := newTestCase(agentA)
	require.NoError(t, store.Create(ctx, second))
	_, err := store.Close(ctx, second.ID)
	require.NoError(t, err)

	other := newTestCase(agentB)
	require.NoError(t, store.Create(ctx, other))

	byAgent, err := store.List(ctx, Filter{AgentID: agentA})
	require.NoError(t, err)
	assert.Len(t, byAgent, 2)

	open, err := store.List(ctx, Filter{AgentID: agentA, Status: StatusOpen})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, first.ID, open[0].ID)

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := store.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
