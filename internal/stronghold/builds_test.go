package stronghold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/stronghold/internal/models"
)

func TestQueueBuild_InsufficientFundsLeavesTreasury(t *testing.T) {
	e := newTestEngine(t, testConfig())
	s := models.NewSession("keep", 40)

	_, err := e.QueueBuild(s, "smithy")
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Equal(t, "InsufficientFunds", models.ErrorKind(err))
	assert.Equal(t, int64(40), s.Treasury)
	assert.Empty(t, s.Facilities)
	assert.Empty(t, s.Log)
}

func TestQueueBuild_DeductsAndCompletes(t *testing.T) {
	e := newTestEngine(t, testConfig())
	s := models.NewSession("keep", 100)

	inst, err := e.QueueBuild(s, "smithy")
	require.NoError(t, err)
	assert.Equal(t, int64(50), s.Treasury)
	assert.Equal(t, models.BuildBuilding, inst.Build.State)
	assert.Equal(t, 2, inst.Build.RemainingTurns)
	assert.False(t, inst.Operational())

	entry := s.Log[len(s.Log)-1]
	assert.Equal(t, models.EventBuild, entry.EventType)
	assert.Equal(t, []models.Change{{Kind: models.EffectCurrency, Target: "gp", Delta: -50, BaseDelta: -50}}, entry.Changes)

	assert.Equal(t, []models.BuildQueueEntry{{
		Type: models.BuildBuilding, InstanceID: inst.ID, FacilityID: "smithy", RemainingTurns: 2,
	}}, e.BuildQueue(s))

	report := e.AdvanceTurn(s)
	assert.Empty(t, report.Completed)
	assert.Equal(t, 1, inst.Build.RemainingTurns)

	report = e.AdvanceTurn(s)
	require.Len(t, report.Completed, 1)
	assert.Equal(t, Completion{InstanceID: inst.ID, Type: models.BuildBuilding, From: "smithy", FacilityID: "smithy"}, report.Completed[0])
	assert.Equal(t, models.BuildNone, inst.Build.State)
	assert.True(t, inst.Operational())
	assert.Empty(t, e.BuildQueue(s))
	assert.Same(t, inst, e.FindInstance(s, "smithy"))
}

func TestQueueBuild_AlreadyOwnedAcrossUpgradeChain(t *testing.T) {
	e := newTestEngine(t, testConfig())
	s := models.NewSession("keep", 1000)
	_, err := e.QueueBuild(s, "smithy")
	require.NoError(t, err)
	treasury := s.Treasury

	_, err = e.QueueBuild(s, "smithy")
	require.ErrorIs(t, err, models.ErrAlreadyOwned)
	_, err = e.QueueBuild(s, "forge_hall")
	require.ErrorIs(t, err, models.ErrAlreadyOwned)
	_, err = e.QueueBuild(s, "castle")
	require.ErrorIs(t, err, models.ErrUnknownFacility)
	assert.Equal(t, treasury, s.Treasury)
}

func TestQueueUpgrade(t *testing.T) {
	e := newTestEngine(t, testConfig())
	s := models.NewSession("keep", 1000)
	inst, err := e.QueueBuild(s, "smithy")
	require.NoError(t, err)

	_, err = e.QueueUpgrade(s, inst.ID)
	require.ErrorIs(t, err, models.ErrFacilityNotReady)

	e.AdvanceTurn(s)
	e.AdvanceTurn(s)
	target, err := e.QueueUpgrade(s, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, "forge_hall", target.ID)
	assert.Equal(t, int64(1000-50-120), s.Treasury)
	assert.Equal(t, models.BuildStatus{State: models.BuildUpgrading, TargetID: "forge_hall", RemainingTurns: 3}, inst.Build)
	assert.True(t, inst.Operational())

	_, err = e.QueueUpgrade(s, inst.ID)
	require.ErrorIs(t, err, models.ErrAlreadyUpgrading)

	var done []Completion
	for i := 0; i < 3; i++ {
		done = append(done, e.AdvanceTurn(s).Completed...)
	}
	require.Len(t, done, 1)
	assert.Equal(t, models.BuildUpgrading, done[0].Type)
	assert.Equal(t, "smithy", done[0].From)
	assert.Equal(t, "forge_hall", inst.FacilityID)
	assert.Equal(t, models.BuildNone, inst.Build.State)

	_, err = e.QueueUpgrade(s, inst.ID)
	require.ErrorIs(t, err, models.ErrNoUpgradeAvailable)
}

func TestQueueUpgrade_InsufficientFunds(t *testing.T) {
	e := newTestEngine(t, testConfig())
	s := models.NewSession("keep", 100)
	inst := builtFacility(t, e, s, "smithy")

	_, err := e.QueueUpgrade(s, inst.ID)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Equal(t, int64(50), s.Treasury)
	assert.Equal(t, models.BuildNone, inst.Build.State)
}

func TestDemolish(t *testing.T) {
	e := newTestEngine(t, testConfig())
	s := models.NewSession("keep", 1000)
	smithy := builtFacility(t, e, s, "smithy")
	npc := hire(t, e, s, "Brom", "Smith", smithy.ID)

	_, err := e.StartOrder(s, smithy.ID, "commission")
	require.NoError(t, err)
	require.ErrorIs(t, e.Demolish(s, smithy.ID), models.ErrFacilityHasActiveOrder)
	require.Contains(t, s.Facilities, smithy.ID)

	smithy.RemoveOrder("commission")
	treasury := s.Treasury
	require.NoError(t, e.Demolish(s, smithy.ID))
	assert.NotContains(t, s.Facilities, smithy.ID)
	assert.Equal(t, treasury, s.Treasury)
	assert.Contains(t, s.NPCs, npc.ID)
	assert.Equal(t, []*models.NPC{npc}, e.Reserve(s))

	require.ErrorIs(t, e.Demolish(s, smithy.ID), models.ErrUnknownFacility)
}
