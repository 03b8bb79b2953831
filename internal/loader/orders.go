package loader

import (
	"fmt"
	"strings"

	"github.com/napolitain/stronghold/internal/formula"
	"github.com/napolitain/stronghold/internal/models"
)

// orderJSON represents the JSON structure for an order
type orderJSON struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	Description   string                  `json:"description"`
	DurationTurns int                     `json:"duration_turns"`
	Roll          *rollJSON               `json:"roll"`
	Outcomes      []thresholdJSON         `json:"outcomes"`
	Effects       map[string][]effectJSON `json:"effects"`
	Inputs        []inputJSON             `json:"inputs"`
	Repeatable    bool                    `json:"repeatable"`
	StaffRequired int                     `json:"staff_required"`
	XP            int                     `json:"xp"`
	Cost          map[string]int64        `json:"cost"`
}

type rollJSON struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type thresholdJSON struct {
	MinRoll int    `json:"min_roll"`
	Bucket  string `json:"bucket"`
}

type effectJSON struct {
	Type     string   `json:"type"`
	Currency string   `json:"currency"`
	Item     string   `json:"item"`
	Stat     string   `json:"stat"`
	Formula  string   `json:"formula"`
	Text     string   `json:"text"`
	Inputs   []string `json:"inputs"`
}

type inputJSON struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Values []int  `json:"values"`
	Min    *int   `json:"min"`
	Max    *int   `json:"max"`
}

// convertOrder builds an order definition, applying defaults (d20 roll, one
// staff member) and resolving which inputs each effect template needs
func convertOrder(oj orderJSON, eval *formula.Evaluator) (*models.OrderDefinition, error) {
	order := &models.OrderDefinition{
		ID:            strings.TrimSpace(oj.ID),
		Name:          oj.Name,
		Description:   oj.Description,
		DurationTurns: oj.DurationTurns,
		Roll:          models.DefaultRoll,
		Repeatable:    oj.Repeatable,
		StaffRequired: oj.StaffRequired,
		XP:            oj.XP,
		Cost:          toWallet(oj.Cost),
		Effects:       make(map[models.Bucket][]models.EffectTemplate),
	}
	if order.Name == "" {
		order.Name = order.ID
	}
	if oj.Roll != nil {
		order.Roll = models.RollSpec{Min: oj.Roll.Min, Max: oj.Roll.Max}
	}
	if order.StaffRequired == 0 {
		order.StaffRequired = 1
	}

	for _, th := range oj.Outcomes {
		order.Outcomes = append(order.Outcomes, models.Threshold{
			MinRoll: th.MinRoll,
			Bucket:  models.Bucket(th.Bucket),
		})
	}

	declared := make(map[string]bool)
	for _, ij := range oj.Inputs {
		order.Inputs = append(order.Inputs, models.InputSpec{
			Name:   ij.Name,
			Source: models.InputSource(ij.Source),
			Values: ij.Values,
			Min:    ij.Min,
			Max:    ij.Max,
		})
		declared[ij.Name] = true
	}

	builtins := make(map[string]bool, len(formula.Builtins))
	for _, name := range formula.Builtins {
		builtins[name] = true
		if declared[name] {
			return nil, fmt.Errorf("input %q shadows a built-in variable", name)
		}
	}

	for bucket, effects := range oj.Effects {
		for _, ej := range effects {
			tpl := models.EffectTemplate{
				Kind:     models.EffectKind(ej.Type),
				Currency: models.Denomination(ej.Currency),
				Item:     ej.Item,
				Stat:     ej.Stat,
				Formula:  strings.TrimSpace(ej.Formula),
				Text:     ej.Text,
			}
			inputs, err := templateInputs(tpl, ej.Inputs, declared, builtins, eval)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", bucket, err)
			}
			tpl.Inputs = inputs
			b := models.Bucket(bucket)
			order.Effects[b] = append(order.Effects[b], tpl)
		}
	}
	return order, nil
}

// templateInputs returns the explicit inputs plus any declared input the
// formula references. Every formula variable must be an input or a built-in.
func templateInputs(tpl models.EffectTemplate, explicit []string, declared, builtins map[string]bool, eval *formula.Evaluator) ([]string, error) {
	seen := make(map[string]bool)
	var inputs []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			inputs = append(inputs, name)
		}
	}
	for _, name := range explicit {
		add(name)
	}

	if tpl.Formula == "" {
		return inputs, nil
	}
	if err := eval.Check(tpl.Formula); err != nil {
		return nil, err
	}
	for _, name := range formula.Variables(tpl.Formula) {
		switch {
		case declared[name]:
			add(name)
		case builtins[name]:
		default:
			return nil, fmt.Errorf("formula %q uses unknown variable %q", tpl.Formula, name)
		}
	}
	return inputs, nil
}
