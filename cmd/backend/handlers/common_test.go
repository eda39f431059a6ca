package handlers

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/devadoot/devadoot/agent"
	"github.com/devadoot/devadoot/artifact"
	"github.com/devadoot/devadoot/cases"
	"github.com/devadoot/devadoot/logger"
	"github.com/devadoot/devadoot/marketplace"
	"github.com/devadoot/devadoot/storage"
	"github.com/devadoot/devadoot/testutil"
)

// testEnv bundles the stores and handlers under test.
type testEnv struct {
	db               *gorm.DB
	log              *logger.TestLogger
	agentStore       *agent.MySQLStore
	marketplaceStore *marketplace.MySQLStore
	caseStore        *cases.MySQLStore
	artifactStore    *artifact.MySQLStore
	blobStorage      storage.BlobStorage
	resolver         *agent.Resolver
}

func setupEnv(t *testing.T) *testEnv {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db,
		&agent.Agent{}, &marketplace.Agent{}, &cases.Case{}, &artifact.Artifact{})

	log := logger.NewTestLogger()
	agentStore := agent.NewMySQLStore(db, log)
	marketplaceStore := marketplace.NewMySQLStore(db, log)

	blobStorage, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	return &testEnv{
		db:               db,
		log:              log,
		agentStore:       agentStore,
		marketplaceStore: marketplaceStore,
		caseStore:        cases.NewMySQLStore(db, log),
		artifactStore:    artifact.NewMySQLStore(db, log),
		blobStorage:      blobStorage,
		resolver:         agent.NewResolver(agentStore, marketplaceStore, log),
	}
}

func jsonBody(t *testing.T, payload interface{}) *bytes.Reader {
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeJSON(t *testing.T, data []byte, dest interface{}) {
	require.NoError(t, json.Unmarshal(data, dest))
}
