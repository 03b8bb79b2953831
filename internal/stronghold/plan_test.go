package stronghold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanOrders_RanksByNetYieldPerTurn(t *testing.T) {
	e := newTestEngine(t, testConfig())

	plan, err := e.PlanOrders()
	require.NoError(t, err)
	require.Len(t, plan, 6)

	// sell pays the roll on 11..20: 155 / 20 per run over two turns
	first := plan[0]
	assert.Equal(t, "sell", first.OrderID)
	assert.InDelta(t, 7.75, first.Metric.Gain, 1e-9)
	assert.InDelta(t, 3.875, first.Metric.PerTurn(), 1e-9)

	// forge_tools pays no currency and costs 5 gp a turn
	forge := plan[len(plan)-2]
	assert.Equal(t, "forge_tools", forge.OrderID)
	assert.InDelta(t, -5, forge.Metric.PerTurn(), 1e-9)

	last := plan[len(plan)-1]
	assert.Equal(t, "commission", last.OrderID)
	assert.True(t, last.NeedsInputs)
}

func TestYieldMetric_PerTurn(t *testing.T) {
	assert.Equal(t, 0.0, YieldMetric{Gain: 10}.PerTurn())
	assert.InDelta(t, 2.5, YieldMetric{Gain: 10, Cost: 5, DurationTurns: 2}.PerTurn(), 1e-9)
}
