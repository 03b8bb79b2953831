package stronghold

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/stronghold/internal/config"
	"github.com/napolitain/stronghold/internal/dice"
	"github.com/napolitain/stronghold/internal/models"
)

func intPtr(v int) *int { return &v }

// testCatalog is a small catalog where gold is the base unit
func testCatalog(t *testing.T) *models.Catalog {
	t.Helper()
	currency, err := models.NewCurrencyModel([]models.DenominationDef{
		{Code: "gp", Name: "Gold", Factor: decimal.NewFromInt(1)},
		{Code: "pp", Name: "Platinum", Factor: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)

	binary := models.OutcomeTable{
		{MinRoll: 1, Bucket: models.BucketFailure},
		{MinRoll: 10, Bucket: models.BucketSuccess},
	}

	defs := []*models.FacilityDefinition{
		{
			ID: "smithy", Tier: 1, Name: "Smithy", NpcSlots: 2,
			AllowedProfessions: []string{"Smith"},
			Build:              models.BuildSpec{Cost: models.Wallet{"gp": 50}, DurationTurns: 2},
			Orders: []*models.OrderDefinition{
				{
					ID: "commission", Name: "Commission", DurationTurns: 2, Roll: models.DefaultRoll,
					StaffRequired: 1, XP: 3, Outcomes: binary,
					Inputs: []models.InputSpec{{Name: "level_bonus", Source: models.InputNumeric}},
					Effects: map[models.Bucket][]models.EffectTemplate{
						models.BucketSuccess: {{Kind: models.EffectCurrency, Currency: "gp", Formula: "10 + level_bonus", Inputs: []string{"level_bonus"}}},
						models.BucketFailure: {{Kind: models.EffectLog, Text: "The client walks away."}},
					},
				},
				{
					ID: "forge_tools", Name: "Forge tools", DurationTurns: 1, Roll: models.DefaultRoll,
					StaffRequired: 1, XP: 1, Repeatable: true, Cost: models.Wallet{"gp": 5},
					Outcomes: append(models.OutcomeTable{}, binary...),
					Effects: map[models.Bucket][]models.EffectTemplate{
						models.BucketSuccess: {{Kind: models.EffectItem, Item: "tools", Formula: "2"}},
						models.BucketFailure: {{Kind: models.EffectItem, Item: "iron", Formula: "-1"}},
					},
				},
			},
		},
		{
			ID: "forge_hall", Tier: 2, Name: "Forge Hall", NpcSlots: 3, Parent: "smithy",
			AllowedProfessions: []string{"Smith"},
			Build:              models.BuildSpec{Cost: models.Wallet{"gp": 120}, DurationTurns: 3},
			Orders: []*models.OrderDefinition{
				{
					ID: "masterwork", Name: "Masterwork", DurationTurns: 1, Roll: models.DefaultRoll,
					StaffRequired: 2, Outcomes: append(models.OutcomeTable{}, binary...),
					Effects: map[models.Bucket][]models.EffectTemplate{
						models.BucketSuccess: {{Kind: models.EffectStat, Stat: "renown", Formula: "staff_count"}},
					},
				},
			},
		},
		{
			ID: "garden", Tier: 1, Name: "Garden", NpcSlots: 1,
			Build: models.BuildSpec{Cost: models.Wallet{"gp": 10}, DurationTurns: 1},
			Orders: []*models.OrderDefinition{
				{
					ID: "harvest", Name: "Harvest", DurationTurns: 1, Roll: models.DefaultRoll,
					StaffRequired: 1, Repeatable: true,
					Outcomes: models.OutcomeTable{
						{MinRoll: 1, Bucket: models.BucketCriticalFailure},
						{MinRoll: 2, Bucket: models.BucketSuccess},
						{MinRoll: 20, Bucket: models.BucketCriticalSuccess},
					},
					Effects: map[models.Bucket][]models.EffectTemplate{
						models.BucketSuccess: {{Kind: models.EffectItem, Item: "herbs", Formula: "roll"}},
					},
				},
				{
					ID: "tend", Name: "Tend", DurationTurns: 1, Roll: models.DefaultRoll,
					StaffRequired: 1,
					Inputs:        []models.InputSpec{{Name: "nature", Source: models.InputCheck, Min: intPtr(1), Max: intPtr(30)}},
					Outcomes:      append(models.OutcomeTable{}, binary...),
					Effects: map[models.Bucket][]models.EffectTemplate{
						models.BucketSuccess: {{Kind: models.EffectStat, Stat: "beauty", Formula: "math.floor(nature / 5)", Inputs: []string{"nature"}}},
					},
				},
				{
					ID: "sell", Name: "Sell flowers", DurationTurns: 2, Roll: models.DefaultRoll,
					StaffRequired: 1,
					Outcomes: models.OutcomeTable{
						{MinRoll: 1, Bucket: models.BucketFailure},
						{MinRoll: 11, Bucket: models.BucketSuccess},
					},
					Effects: map[models.Bucket][]models.EffectTemplate{
						models.BucketSuccess: {{Kind: models.EffectCurrency, Currency: "gp", Formula: "roll"}},
					},
				},
			},
		},
	}

	c, err := models.NewCatalog(currency, defs)
	require.NoError(t, err)
	return c
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Seed = 1
	return cfg
}

// sequentialIDs generates id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestEngine(t *testing.T, cfg config.Config, rolls ...int) *Engine {
	t.Helper()
	e, err := New(testCatalog(t), cfg,
		WithRoller(dice.NewSequence(rolls...)),
		WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	return e
}

// builtFacility queues a build and completes it immediately
func builtFacility(t *testing.T, e *Engine, s *models.Session, facilityID string) *models.FacilityInstance {
	t.Helper()
	inst, err := e.QueueBuild(s, facilityID)
	require.NoError(t, err)
	inst.Build = models.BuildStatus{State: models.BuildNone}
	return inst
}

func hire(t *testing.T, e *Engine, s *models.Session, name, profession, facility string) *models.NPC {
	t.Helper()
	npc, err := e.Hire(s, HireRequest{Name: name, Profession: profession, Level: models.Apprentice, FacilityID: facility})
	require.NoError(t, err)
	return npc
}

// checkInvariants asserts the slot and single-assignment invariants
func checkInvariants(t *testing.T, e *Engine, s *models.Session) {
	t.Helper()
	seen := make(map[string]string)
	for _, f := range s.Facilities {
		def := e.Catalog().Facility(f.FacilityID)
		require.NotNil(t, def)
		require.LessOrEqual(t, len(f.AssignedNPCs), def.NpcSlots, "facility %s over capacity", f.ID)
		for _, id := range f.AssignedNPCs {
			_, ok := s.NPCs[id]
			require.True(t, ok, "facility %s references unknown npc %s", f.ID, id)
			other, dup := seen[id]
			require.False(t, dup, "npc %s assigned to %s and %s", id, other, f.ID)
			seen[id] = f.ID
		}
	}
	require.GreaterOrEqual(t, s.Treasury, e.Config().TreasuryFloor)
}
