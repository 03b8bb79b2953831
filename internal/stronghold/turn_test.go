package stronghold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/stronghold/internal/models"
)

func TestAdvanceTurn_AutoResolve(t *testing.T) {
	cfg := testConfig()
	cfg.AutoResolve = true
	e := newTestEngine(t, cfg, 5, 11, 14)
	s := models.NewSession("keep", 1000)
	garden := builtFacility(t, e, s, "garden")
	smithy := builtFacility(t, e, s, "smithy")
	hire(t, e, s, "Ivy", "Gardener", garden.ID)
	hire(t, e, s, "Brom", "Smith", smithy.ID)

	_, err := e.StartOrder(s, garden.ID, "harvest")
	require.NoError(t, err)
	_, err = e.StartOrder(s, smithy.ID, "commission")
	require.NoError(t, err)

	report := e.AdvanceTurn(s)
	require.True(t, report.OK(), "%v", report.Failures)
	require.Len(t, report.Resolved, 1)
	assert.Equal(t, "harvest", report.Resolved[0].OrderID)
	assert.True(t, report.Resolved[0].Recycled)
	assert.Equal(t, int64(5), s.Inventory["herbs"])

	// The recycled harvest does not advance again within the same turn
	assert.Equal(t, 0, garden.Order("harvest").Progress)

	// Orders waiting for inputs are left for the caller
	report = e.AdvanceTurn(s)
	require.Len(t, report.Ready, 2)
	assert.Equal(t, "harvest", report.Ready[0].OrderID)
	assert.Equal(t, "commission", report.Ready[1].OrderID)
	assert.Equal(t, []string{"level_bonus"}, report.Ready[1].Pending)
	require.True(t, report.OK(), "%v", report.Failures)
	require.Len(t, report.Resolved, 1)
	assert.Equal(t, "harvest", report.Resolved[0].OrderID)
	assert.Equal(t, models.OrderReady, smithy.Order("commission").Status)
}

func TestAdvanceTurn_ProcessesFacilitiesInStableOrder(t *testing.T) {
	e := newTestEngine(t, testConfig(), 2, 3)
	s := models.NewSession("keep", 1000)
	// Built in reverse order of their definition ids
	smithy := builtFacility(t, e, s, "smithy")
	garden := builtFacility(t, e, s, "garden")
	hire(t, e, s, "Brom", "Smith", smithy.ID)
	hire(t, e, s, "Ivy", "Gardener", garden.ID)

	_, err := e.StartOrder(s, smithy.ID, "forge_tools")
	require.NoError(t, err)
	_, err = e.StartOrder(s, garden.ID, "harvest")
	require.NoError(t, err)

	report := e.AdvanceTurn(s)
	require.True(t, report.OK())
	require.Len(t, report.Ready, 2)
	assert.Equal(t, ReadyOrder{InstanceID: garden.ID, OrderID: "harvest", Roll: 2, Bucket: models.BucketSuccess}, report.Ready[0])
	assert.Equal(t, ReadyOrder{InstanceID: smithy.ID, OrderID: "forge_tools", Roll: 3, Bucket: models.BucketFailure}, report.Ready[1])
}

func TestAdvanceTurn_BuildsAndOrdersInOneCommit(t *testing.T) {
	e := newTestEngine(t, testConfig(), 10)
	s := models.NewSession("keep", 1000)
	smithy := builtFacility(t, e, s, "smithy")
	hire(t, e, s, "Brom", "Smith", smithy.ID)
	garden, err := e.QueueBuild(s, "garden")
	require.NoError(t, err)
	_, err = e.StartOrder(s, smithy.ID, "forge_tools")
	require.NoError(t, err)

	report := e.AdvanceTurn(s)
	require.True(t, report.OK())
	assert.Equal(t, 1, report.Turn)
	assert.Equal(t, 1, s.Turn)
	require.Len(t, report.Completed, 1)
	assert.Equal(t, garden.ID, report.Completed[0].InstanceID)
	require.Len(t, report.Ready, 1)

	last := s.Log[len(s.Log)-1]
	assert.Equal(t, models.EventTurn, last.EventType)
	assert.Equal(t, 1, last.Turn)
}

func TestAdvanceTurn_Upkeep(t *testing.T) {
	e := newTestEngine(t, testConfig())
	s := models.NewSession("keep", 1000)
	_, err := e.Hire(s, HireRequest{Name: "Ash", Profession: "Guard", Level: 1, Upkeep: models.Wallet{"gp": 3}})
	require.NoError(t, err)
	_, err = e.Hire(s, HireRequest{Name: "Bo", Profession: "Guard", Level: 1, Upkeep: models.Wallet{"pp": 1}})
	require.NoError(t, err)

	report := e.AdvanceTurn(s)
	require.True(t, report.OK())
	assert.Equal(t, int64(13), report.Upkeep)
	assert.Equal(t, int64(987), s.Treasury)
}

func TestAdvanceTurn_UpkeepFailureKeepsEarlierSteps(t *testing.T) {
	e := newTestEngine(t, testConfig())
	s := models.NewSession("keep", 10)
	inst, err := e.QueueBuild(s, "garden")
	require.NoError(t, err)
	_, err = e.Hire(s, HireRequest{Name: "Ash", Profession: "Guard", Level: 1, Upkeep: models.Wallet{"gp": 3}})
	require.NoError(t, err)

	report := e.AdvanceTurn(s)
	require.False(t, report.OK())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "upkeep", report.Failures[0].Step)
	assert.ErrorIs(t, report.Failures[0], models.ErrInsufficientFunds)

	// The build completed before upkeep failed
	require.Len(t, report.Completed, 1)
	assert.Equal(t, models.BuildNone, inst.Build.State)
	assert.Equal(t, int64(0), s.Treasury)
	assert.Equal(t, int64(0), report.Upkeep)
}
