package stronghold

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/napolitain/stronghold/internal/config"
	"github.com/napolitain/stronghold/internal/models"
)

// ApplyContext describes who applies an effect batch. It becomes the audit
// entry written for the batch.
type ApplyContext struct {
	EventType  models.EventType
	SourceType models.SourceType
	SourceID   string
	Action     string
	Roll       *int
	Result     string
}

// ApplyEffects applies a batch of resolved effects to the session as one unit.
// The whole batch is validated before anything changes: unknown
// denominations, item stocks that would go negative and the treasury floor.
// With the clamp floor policy, a net debit that would cross the floor stops
// the treasury at the floor and the rest of the batch still applies.
//
// Exactly one audit entry is appended on success.
func (e *Engine) ApplyEffects(s *models.Session, effects []models.Effect, ctx ApplyContext) ([]models.Change, error) {
	if ctx.EventType == "" {
		ctx.EventType = models.EventEffects
	}
	if ctx.SourceType == "" {
		ctx.SourceType = models.SourceManual
	}
	if ctx.Action == "" {
		ctx.Action = "apply effects"
	}

	var (
		net     = decimal.Zero
		changes = make([]models.Change, 0, len(effects))
		items   = make(map[string]int64)
		stats   = make(map[string]int64)
		texts   []string
	)
	for _, eff := range effects {
		switch eff := eff.(type) {
		case models.CurrencyEffect:
			base, err := e.catalog.Currency.AmountToBase(eff.Currency, eff.Delta)
			if err != nil {
				return nil, err
			}
			net = net.Add(decimal.NewFromInt(base))
			changes = append(changes, models.Change{
				Kind:      models.EffectCurrency,
				Target:    string(eff.Currency),
				Delta:     eff.Delta,
				BaseDelta: base,
			})
		case models.ItemEffect:
			if _, seen := items[eff.Item]; !seen {
				items[eff.Item] = s.Inventory[eff.Item]
			}
			qty, ok := addInt64(items[eff.Item], eff.Delta)
			if !ok {
				return nil, fmt.Errorf("%w: %s %+d", models.ErrAmountOverflow, eff.Item, eff.Delta)
			}
			if qty < 0 {
				return nil, fmt.Errorf("%w: %s would drop to %d", models.ErrInsufficientItems, eff.Item, qty)
			}
			items[eff.Item] = qty
			changes = append(changes, models.Change{Kind: models.EffectItem, Target: eff.Item, Delta: eff.Delta})
		case models.StatEffect:
			if _, seen := stats[eff.Stat]; !seen {
				stats[eff.Stat] = s.Stats[eff.Stat]
			}
			v, ok := addInt64(stats[eff.Stat], eff.Delta)
			if !ok {
				return nil, fmt.Errorf("%w: %s %+d", models.ErrAmountOverflow, eff.Stat, eff.Delta)
			}
			stats[eff.Stat] = v
			changes = append(changes, models.Change{Kind: models.EffectStat, Target: eff.Stat, Delta: eff.Delta})
		case models.LogEffect:
			texts = append(texts, eff.Text)
			changes = append(changes, models.Change{Kind: models.EffectLog, Text: eff.Text})
		default:
			return nil, fmt.Errorf("unsupported effect %T", eff)
		}
	}

	total := decimal.NewFromInt(s.Treasury).Add(net)
	floor := decimal.NewFromInt(e.cfg.TreasuryFloor)
	if net.IsNegative() && total.LessThan(floor) {
		if e.cfg.FloorPolicy != config.FloorClamp {
			return nil, fmt.Errorf("%w: batch debits %s, treasury holds %s",
				models.ErrInsufficientFunds, e.formatBase(net.Neg()), e.catalog.Currency.Format(s.Treasury))
		}
		clamped := floor
		if s.Treasury < e.cfg.TreasuryFloor {
			clamped = decimal.NewFromInt(s.Treasury)
		}
		shortfall := clamped.Sub(total)
		changes = append(changes, models.Change{
			Kind: models.EffectLog,
			Text: fmt.Sprintf("treasury clamped at floor, %s not collected", e.formatBase(shortfall)),
		})
		e.log.Warn("treasury clamped at floor",
			zap.String("source", ctx.SourceID),
			zap.String("shortfall", shortfall.String()))
		total = clamped
	}
	treasury, err := models.BaseAmount(total)
	if err != nil {
		return nil, fmt.Errorf("treasury: %w", err)
	}

	s.Treasury = treasury
	for item, qty := range items {
		if qty == 0 {
			delete(s.Inventory, item)
			continue
		}
		s.Inventory[item] = qty
	}
	for stat, v := range stats {
		s.Stats[stat] = v
	}

	e.record(s, models.AuditEntry{
		EventType:  ctx.EventType,
		SourceType: ctx.SourceType,
		SourceID:   ctx.SourceID,
		Action:     ctx.Action,
		Roll:       ctx.Roll,
		Result:     ctx.Result,
		Changes:    changes,
		LogText:    strings.Join(texts, "\n"),
	})
	e.log.Debug("effects applied",
		zap.String("event", string(ctx.EventType)),
		zap.String("source", ctx.SourceID),
		zap.Int("effects", len(effects)),
		zap.Int64("treasury", s.Treasury))
	return changes, nil
}

// formatBase renders a base amount for messages, falling back to the raw
// number when it does not fit in the treasury
func (e *Engine) formatBase(d decimal.Decimal) string {
	if v, err := models.BaseAmount(d); err == nil {
		return e.catalog.Currency.Format(v)
	}
	return d.String() + " base"
}

// addInt64 adds b to a, reporting false on overflow
func addInt64(a, b int64) (int64, bool) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, false
	}
	return c, true
}
