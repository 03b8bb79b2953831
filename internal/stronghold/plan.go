package stronghold

import (
	"sort"

	"github.com/napolitain/stronghold/internal/formula"
	"github.com/napolitain/stronghold/internal/models"
)

// YieldMetric is the expected currency return of one order run
type YieldMetric struct {
	Gain          float64 // expected base units paid out per run
	Cost          float64 // base units charged per run
	DurationTurns int
}

// PerTurn returns the expected net base units per turn
func (m YieldMetric) PerTurn() float64 {
	if m.DurationTurns <= 0 {
		return 0
	}
	return (m.Gain - m.Cost) / float64(m.DurationTurns)
}

// OrderYield ranks one catalog order by expected currency return
type OrderYield struct {
	FacilityID  string
	OrderID     string
	Name        string
	Metric      YieldMetric
	NeedsInputs bool // some currency formula depends on submitted inputs
}

// PlanOrders estimates every order's expected currency yield over a uniform
// roll, assuming the minimum staff at apprentice level. Orders whose currency
// formulas need inputs cannot be estimated; they are listed last with only
// their cost.
func (e *Engine) PlanOrders() ([]OrderYield, error) {
	var out []OrderYield
	for _, def := range e.catalog.Facilities() {
		for _, order := range def.Orders {
			y, err := e.orderYield(def, order)
			if err != nil {
				return nil, err
			}
			out = append(out, y)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NeedsInputs != out[j].NeedsInputs {
			return !out[i].NeedsInputs
		}
		if pi, pj := out[i].Metric.PerTurn(), out[j].Metric.PerTurn(); pi != pj {
			return pi > pj
		}
		if out[i].FacilityID != out[j].FacilityID {
			return out[i].FacilityID < out[j].FacilityID
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out, nil
}

func (e *Engine) orderYield(def *models.FacilityDefinition, order *models.OrderDefinition) (OrderYield, error) {
	y := OrderYield{
		FacilityID: def.ID,
		OrderID:    order.ID,
		Name:       order.Name,
		Metric:     YieldMetric{DurationTurns: order.DurationTurns},
	}
	cost, err := e.catalog.Currency.ToBase(order.Cost)
	if err != nil {
		return y, err
	}
	y.Metric.Cost = float64(cost)

	vars := map[string]float64{
		formula.VarStaffCount: float64(order.StaffRequired),
		formula.VarStaffLevel: float64(models.Apprentice),
		formula.VarTurn:       0,
	}
	var total float64
	for roll := order.Roll.Min; roll <= order.Roll.Max; roll++ {
		bucket, _ := order.SelectBucket(roll)
		vars[formula.VarRoll] = float64(roll)
		for _, tpl := range order.Effects[bucket] {
			if tpl.Kind != models.EffectCurrency {
				continue
			}
			if len(tpl.Inputs) > 0 {
				y.NeedsInputs = true
				continue
			}
			delta, err := e.eval.EvalInt(tpl.Formula, vars)
			if err != nil {
				return y, err
			}
			base, err := e.catalog.Currency.AmountToBase(tpl.Currency, delta)
			if err != nil {
				return y, err
			}
			total += float64(base)
		}
	}
	if y.NeedsInputs {
		return y, nil
	}
	y.Metric.Gain = total / float64(order.Roll.Sides())
	return y, nil
}
