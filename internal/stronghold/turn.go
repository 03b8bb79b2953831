package stronghold

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/napolitain/stronghold/internal/models"
)

// Completion reports a finished build or upgrade
type Completion struct {
	InstanceID string
	Type       models.BuildState // building or upgrading
	From       string            // definition before completion
	FacilityID string            // definition after completion
}

// ReadyOrder reports an order that rolled its outcome this turn
type ReadyOrder struct {
	InstanceID string
	OrderID    string
	Roll       int
	Bucket     models.Bucket
	Pending    []string
}

// Failure is a turn step that could not complete. Steps that ran before it
// stay committed.
type Failure struct {
	Step       string
	InstanceID string
	OrderID    string
	Err        error
}

func (f Failure) Error() string {
	if f.OrderID != "" {
		return fmt.Sprintf("%s %s: %v", f.Step, orderSource(f.InstanceID, f.OrderID), f.Err)
	}
	if f.InstanceID != "" {
		return fmt.Sprintf("%s %s: %v", f.Step, f.InstanceID, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Step, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// TurnReport summarises one AdvanceTurn
type TurnReport struct {
	Turn      int
	Completed []Completion
	Ready     []ReadyOrder
	Resolved  []*Resolution
	Upkeep    int64 // base units charged
	Failures  []Failure
}

// OK reports whether every step succeeded
func (r *TurnReport) OK() bool {
	return len(r.Failures) == 0
}

// AdvanceTurn commits one turn: builds and upgrades count down, in-progress
// orders advance and roll when due, ready orders needing no inputs resolve
// when auto_resolve is set, and staff upkeep is charged.
//
// Facilities are processed by definition id then instance id, and orders by
// order id, so a replay with the same rolls produces the same session. A step
// that fails is reported in the returned report and does not undo earlier
// steps.
func (e *Engine) AdvanceTurn(s *models.Session) *TurnReport {
	s.Turn++
	report := &TurnReport{Turn: s.Turn}

	q := newEventQueue()
	for _, inst := range s.FacilityList() {
		if inst.Build.State != models.BuildNone {
			q.push(event{Type: eventBuild, InstanceID: inst.ID})
		}
		for _, oi := range sortedOrders(inst) {
			if oi.Status == models.OrderInProgress {
				q.push(event{Type: eventOrder, InstanceID: inst.ID, OrderID: oi.OrderID})
			}
		}
	}
	q.push(event{Type: eventUpkeep})

	for {
		ev, ok := q.pop()
		if !ok {
			break
		}
		switch ev.Type {
		case eventBuild:
			e.turnBuild(s, ev, report)
		case eventOrder:
			if e.turnOrder(s, ev, report) && e.cfg.AutoResolve {
				q.push(event{Type: eventResolve, InstanceID: ev.InstanceID, OrderID: ev.OrderID})
			}
		case eventResolve:
			e.turnResolve(s, ev, report)
		case eventUpkeep:
			e.turnUpkeep(s, report)
		}
	}

	e.record(s, models.AuditEntry{
		EventType:  models.EventTurn,
		SourceType: models.SourceSession,
		SourceID:   s.Name,
		Action:     fmt.Sprintf("advance to turn %d", s.Turn),
		Result: fmt.Sprintf("%d completed, %d ready, %d resolved, %d failed",
			len(report.Completed), len(report.Ready), len(report.Resolved), len(report.Failures)),
	})
	e.log.Info("turn advanced",
		zap.Int("turn", s.Turn),
		zap.Int("completed", len(report.Completed)),
		zap.Int("ready", len(report.Ready)),
		zap.Int("resolved", len(report.Resolved)),
		zap.Int("failures", len(report.Failures)))
	return report
}

func (e *Engine) turnBuild(s *models.Session, ev event, report *TurnReport) {
	inst, ok := s.Facilities[ev.InstanceID]
	if !ok {
		return
	}
	done, err := e.advanceBuild(s, inst)
	if err != nil {
		report.Failures = append(report.Failures, Failure{Step: ev.Type.String(), InstanceID: ev.InstanceID, Err: err})
		return
	}
	if done != nil {
		report.Completed = append(report.Completed, *done)
	}
}

// turnOrder advances one order and reports whether it became ready
func (e *Engine) turnOrder(s *models.Session, ev event, report *TurnReport) bool {
	inst, ok := s.Facilities[ev.InstanceID]
	if !ok {
		return false
	}
	oi := inst.Order(ev.OrderID)
	if oi == nil {
		return false
	}
	ready, err := e.advanceOrder(s, inst, oi)
	if err != nil {
		report.Failures = append(report.Failures, Failure{Step: ev.Type.String(), InstanceID: inst.ID, OrderID: oi.OrderID, Err: err})
		return false
	}
	if !ready {
		return false
	}
	report.Ready = append(report.Ready, ReadyOrder{
		InstanceID: inst.ID,
		OrderID:    oi.OrderID,
		Roll:       *oi.Roll,
		Bucket:     oi.Bucket,
		Pending:    oi.Pending,
	})
	return true
}

func (e *Engine) turnResolve(s *models.Session, ev event, report *TurnReport) {
	inst, ok := s.Facilities[ev.InstanceID]
	if !ok {
		return
	}
	if oi := inst.Order(ev.OrderID); oi == nil || oi.HasPending() {
		return
	}
	res, err := e.ResolveOrder(s, ev.InstanceID, ev.OrderID)
	if err != nil {
		report.Failures = append(report.Failures, Failure{Step: ev.Type.String(), InstanceID: ev.InstanceID, OrderID: ev.OrderID, Err: err})
		return
	}
	report.Resolved = append(report.Resolved, res)
}

// turnUpkeep charges every NPC's upkeep as one effect batch
func (e *Engine) turnUpkeep(s *models.Session, report *TurnReport) {
	var effects []models.Effect
	for _, npc := range s.NPCList() {
		for _, d := range npc.Upkeep.Denominations() {
			if amount := npc.Upkeep[d]; amount != 0 {
				effects = append(effects, models.CurrencyEffect{Currency: d, Delta: -amount})
			}
		}
	}
	if len(effects) == 0 {
		return
	}

	before := s.Treasury
	_, err := e.ApplyEffects(s, effects, ApplyContext{
		EventType:  models.EventUpkeep,
		SourceType: models.SourceSession,
		SourceID:   s.Name,
		Action:     "pay staff upkeep",
	})
	if err != nil {
		report.Failures = append(report.Failures, Failure{Step: eventUpkeep.String(), Err: err})
		return
	}
	report.Upkeep = before - s.Treasury
}
