package stronghold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/napolitain/stronghold/internal/config"
	"github.com/napolitain/stronghold/internal/models"
)

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New(nil, config.Default())
	require.Error(t, err)

	cfg := config.Default()
	cfg.FloorPolicy = "ignore"
	_, err = New(testCatalog(t), cfg)
	require.Error(t, err)
}

func TestNew_DefaultsToSeededRoller(t *testing.T) {
	e, err := New(testCatalog(t), testConfig())
	require.NoError(t, err)
	require.NotNil(t, e.roller)
	assert.Len(t, e.newID(), 36)
}

func TestNewSession(t *testing.T) {
	e := newTestEngine(t, testConfig())

	s, err := e.NewSession("keep", models.Wallet{"pp": 2, "gp": 5})
	require.NoError(t, err)
	assert.Equal(t, int64(25), s.Treasury)
	assert.Equal(t, "keep", s.Name)

	_, err = e.NewSession("keep", models.Wallet{"sp": 1})
	require.ErrorIs(t, err, models.ErrUnknownDenomination)
	_, err = e.NewSession("keep", models.Wallet{"gp": -1})
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
}

func TestEngine_LogsOperations(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e, err := New(testCatalog(t), testConfig(), WithLogger(zap.New(core)), WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	s := models.NewSession("keep", 100)

	_, err = e.QueueBuild(s, "garden")
	require.NoError(t, err)

	entries := logs.FilterMessage("build queued").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "garden", entries[0].ContextMap()["facility"])
}
