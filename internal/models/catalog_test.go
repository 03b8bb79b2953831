package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smithyChain() []*FacilityDefinition {
	return []*FacilityDefinition{
		{
			ID: "smithy", Tier: 1, Name: "Smithy", NpcSlots: 2,
			AllowedProfessions: []string{"Smith"},
			Build:              BuildSpec{Cost: Wallet{"gp": 50}, DurationTurns: 2},
			Orders: []*OrderDefinition{{
				ID: "forge", Name: "Forge", DurationTurns: 2, Roll: DefaultRoll, StaffRequired: 1,
				Outcomes: OutcomeTable{{MinRoll: 10, Bucket: BucketSuccess}, {MinRoll: 1, Bucket: BucketFailure}},
				Effects: map[Bucket][]EffectTemplate{
					BucketSuccess: {{Kind: EffectCurrency, Currency: "gp", Formula: "10"}},
				},
			}},
		},
		{
			ID: "forge_hall", Tier: 2, Name: "Forge Hall", NpcSlots: 3, Parent: "smithy",
			Build: BuildSpec{Cost: Wallet{"gp": 120}, DurationTurns: 3},
		},
		{
			ID: "garden", Tier: 1, Name: "Garden", NpcSlots: 1,
			Build: BuildSpec{DurationTurns: 1},
		},
	}
}

func TestNewCatalog_IndexesUpgrades(t *testing.T) {
	c, err := NewCatalog(coinModel(t), smithyChain())
	require.NoError(t, err)

	ids := make([]string, 0)
	for _, f := range c.Facilities() {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"garden", "smithy", "forge_hall"}, ids)

	require.NotNil(t, c.UpgradeOf("smithy"))
	assert.Equal(t, "forge_hall", c.UpgradeOf("smithy").ID)
	assert.Nil(t, c.UpgradeOf("forge_hall"))
	assert.Equal(t, "smithy", c.Root("forge_hall"))
	assert.Equal(t, "garden", c.Root("garden"))

	// Outcome tables are sorted during validation
	forge := c.Facility("smithy").Order("forge")
	assert.Equal(t, 1, forge.Outcomes[0].MinRoll)
}

func TestNewCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(defs []*FacilityDefinition) []*FacilityDefinition
	}{
		{"duplicate id", func(d []*FacilityDefinition) []*FacilityDefinition {
			return append(d, &FacilityDefinition{ID: "garden", Tier: 1, Name: "x", Build: BuildSpec{DurationTurns: 1}})
		}},
		{"zero build duration", func(d []*FacilityDefinition) []*FacilityDefinition {
			d[2].Build.DurationTurns = 0
			return d
		}},
		{"unknown cost denomination", func(d []*FacilityDefinition) []*FacilityDefinition {
			d[0].Build.Cost = Wallet{"zz": 1}
			return d
		}},
		{"missing parent", func(d []*FacilityDefinition) []*FacilityDefinition {
			d[1].Parent = "nowhere"
			return d
		}},
		{"tier not above parent", func(d []*FacilityDefinition) []*FacilityDefinition {
			d[1].Tier = 1
			return d
		}},
		{"two upgrades", func(d []*FacilityDefinition) []*FacilityDefinition {
			return append(d, &FacilityDefinition{ID: "anvil", Tier: 2, Name: "Anvil", NpcSlots: 2, Parent: "smithy", Build: BuildSpec{DurationTurns: 1}})
		}},
		{"upgrade loses slots", func(d []*FacilityDefinition) []*FacilityDefinition {
			d[1].NpcSlots = 1
			return d
		}},
		{"duplicate threshold", func(d []*FacilityDefinition) []*FacilityDefinition {
			d[0].Orders[0].Outcomes = OutcomeTable{{MinRoll: 1, Bucket: BucketFailure}, {MinRoll: 1, Bucket: BucketSuccess}}
			return d
		}},
		{"table does not cover minimum roll", func(d []*FacilityDefinition) []*FacilityDefinition {
			d[0].Orders[0].Outcomes = OutcomeTable{{MinRoll: 5, Bucket: BucketFailure}}
			return d
		}},
		{"undeclared input", func(d []*FacilityDefinition) []*FacilityDefinition {
			d[0].Orders[0].Effects[BucketSuccess][0].Inputs = []string{"bonus"}
			return d
		}},
		{"effect without formula", func(d []*FacilityDefinition) []*FacilityDefinition {
			d[0].Orders[0].Effects[BucketSuccess][0].Formula = ""
			return d
		}},
		{"zero staff", func(d []*FacilityDefinition) []*FacilityDefinition {
			d[0].Orders[0].StaffRequired = 0
			return d
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog(coinModel(t), tc.mutate(smithyChain()))
			require.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestOutcomeTable_BoundariesGoToHigherBucket(t *testing.T) {
	table := OutcomeTable{
		{MinRoll: 1, Bucket: BucketCriticalFailure},
		{MinRoll: 2, Bucket: BucketFailure},
		{MinRoll: 10, Bucket: BucketSuccess},
		{MinRoll: 20, Bucket: BucketCriticalSuccess},
	}

	tests := []struct {
		name string
		roll int
		want Bucket
	}{
		{"lowest roll", 1, BucketCriticalFailure},
		{"on failure threshold", 2, BucketFailure},
		{"below success", 9, BucketFailure},
		{"on success threshold", 10, BucketSuccess},
		{"below critical", 19, BucketSuccess},
		{"on critical threshold", 20, BucketCriticalSuccess},
		{"above table", 25, BucketCriticalSuccess},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, table.Bucket(tc.roll))
		})
	}
}

func TestOrderDefinition_SelectBucketFallback(t *testing.T) {
	order := &OrderDefinition{
		Outcomes: OutcomeTable{
			{MinRoll: 1, Bucket: BucketCriticalFailure},
			{MinRoll: 2, Bucket: BucketFailure},
			{MinRoll: 10, Bucket: BucketSuccess},
			{MinRoll: 20, Bucket: BucketCriticalSuccess},
		},
		Effects: map[Bucket][]EffectTemplate{
			BucketSuccess: {{Kind: EffectStat, Stat: "renown", Formula: "1"}},
		},
	}

	b, unknown := order.SelectBucket(14)
	assert.Equal(t, BucketSuccess, b)
	assert.False(t, unknown)

	b, unknown = order.SelectBucket(20)
	assert.Equal(t, BucketSuccess, b)
	assert.True(t, unknown)

	b, unknown = order.SelectBucket(1)
	assert.Equal(t, BucketFailure, b)
	assert.True(t, unknown)
}

func TestFacilityDefinition_AllowsProfession(t *testing.T) {
	def := &FacilityDefinition{AllowedProfessions: []string{" Smith ", "Armorer"}}
	assert.True(t, def.AllowsProfession("smith"))
	assert.True(t, def.AllowsProfession("  ARMORER"))
	assert.False(t, def.AllowsProfession("Cook"))

	open := &FacilityDefinition{}
	assert.True(t, open.AllowsProfession("Cook"))
}

func TestXPThresholds_Next(t *testing.T) {
	th := XPThresholds{ApprenticeToExperienced: 10, ExperiencedToMaster: 30}
	n, ok := th.Next(Apprentice)
	assert.True(t, ok)
	assert.Equal(t, 10, n)
	_, ok = th.Next(Master)
	assert.False(t, ok)
	assert.Equal(t, "experienced", Experienced.String())
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "InsufficientFunds", ErrorKind(ErrInsufficientFunds))
	assert.Equal(t, "", ErrorKind(nil))
}
