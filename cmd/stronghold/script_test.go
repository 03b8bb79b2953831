package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/stronghold/internal/config"
	"github.com/napolitain/stronghold/internal/dice"
	"github.com/napolitain/stronghold/internal/loader"
	"github.com/napolitain/stronghold/internal/models"
	"github.com/napolitain/stronghold/internal/stronghold"
)

const testDataDir = "../../data"

const testScript = `
name: Testkeep
treasury: {gp: 200}
steps:
  - build: smithy
  - build: garden
  - advance: 2
  - hire: {name: Brom, profession: Smith, level: 2, facility: smithy, upkeep: {sp: 2}}
  - hire: {name: Ivy, profession: Gardener, facility: garden}
  - start: {facility: smithy, order: commission}
  - start: {facility: garden, order: harvest}
  - advance: 2
  - resolve: {facility: garden, order: harvest}
  - inputs: {facility: smithy, order: commission, values: {level_bonus: "2"}}
  - resolve: {facility: smithy, order: commission}
  - fire: Nobody
`

func newTestEngine(t *testing.T, rolls ...int) *stronghold.Engine {
	t.Helper()
	catalog, err := loader.LoadCatalog(testDataDir)
	require.NoError(t, err)
	e, err := stronghold.New(catalog, config.Default(), stronghold.WithRoller(dice.NewSequence(rolls...)))
	require.NoError(t, err)
	return e
}

func TestRunner_Script(t *testing.T) {
	sc, err := ParseScript([]byte(testScript))
	require.NoError(t, err)
	require.Len(t, sc.Steps, 12)

	r, err := NewRunner(newTestEngine(t, 4, 14), sc)
	require.NoError(t, err)

	results, err := r.Run(sc.Steps, false)
	require.NoError(t, err)
	require.Len(t, results, 12)
	for _, res := range results[:11] {
		require.NoError(t, res.Err, "step %d (%s)", res.Index, res.Action)
	}
	assert.ErrorIs(t, results[11].Err, models.ErrUnknownNpc)

	s := r.Session()
	assert.Equal(t, 4, s.Turn)
	assert.Equal(t, int64(4), s.Inventory["herbs"])
	// 200 gp - 50 gp - 30 sp - 2 turns of 2 sp upkeep + 12 gp
	assert.Equal(t, int64(15860), s.Treasury)

	garden, err := r.facility("garden")
	require.NoError(t, err)
	assert.Equal(t, models.OrderInProgress, garden.Order("harvest").Status)
	smithy, err := r.facility("smithy")
	require.NoError(t, err)
	assert.Nil(t, smithy.Order("commission"))
}

func TestRunner_StrictStopsAtFirstFailure(t *testing.T) {
	sc, err := ParseScript([]byte(`
treasury: {gp: 10}
steps:
  - build: smithy
  - advance: 1
`))
	require.NoError(t, err)
	assert.Equal(t, "stronghold", sc.Name)

	r, err := NewRunner(newTestEngine(t), sc)
	require.NoError(t, err)
	results, err := r.Run(sc.Steps, true)
	require.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Len(t, results, 1)
	assert.Equal(t, 0, r.Session().Turn)
}

func TestRunner_FacilityResolvesAcrossUpgrades(t *testing.T) {
	e := newTestEngine(t)
	s, err := e.NewSession("keep", models.Wallet{"pp": 50})
	require.NoError(t, err)
	inst, err := e.QueueBuild(s, "smithy")
	require.NoError(t, err)
	inst.FacilityID = "forge_hall"

	r := ResumeRunner(e, s)
	got, err := r.facility("smithy")
	require.NoError(t, err)
	assert.Equal(t, inst.ID, got.ID)

	_, err = r.facility("tavern")
	assert.ErrorIs(t, err, models.ErrUnknownFacility)
	_, err = r.facility("moat")
	assert.ErrorIs(t, err, models.ErrUnknownFacility)
}

func TestParseScript_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"two actions in one step", "steps:\n  - {build: smithy, advance: 1}\n"},
		{"empty step", "steps:\n  - {}\n"},
		{"unknown key", "steps:\n  - raze: smithy\n"},
		{"not yaml", "steps: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tc.script))
			require.Error(t, err)
		})
	}
}

func TestLoadScript_Demo(t *testing.T) {
	sc, err := LoadScript(filepath.Join(testDataDir, "scenarios", "demo.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Highcrag", sc.Name)
	assert.Equal(t, int64(42), sc.Seed)

	r, err := NewRunner(newTestEngine(t), sc)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), r.Session().Treasury)
}

func TestParseWallet(t *testing.T) {
	w, err := parseWallet("gp=3, sp=2,gp=1")
	require.NoError(t, err)
	assert.Equal(t, models.Wallet{"gp": 4, "sp": 2}, w)

	_, err = parseWallet("gp3")
	assert.Error(t, err)
	_, err = parseWallet("gp=x")
	assert.Error(t, err)
}
