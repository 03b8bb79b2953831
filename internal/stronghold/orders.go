package stronghold

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/napolitain/stronghold/internal/formula"
	"github.com/napolitain/stronghold/internal/models"
)

// PendingInput is a ready order waiting for formula inputs
type PendingInput struct {
	InstanceID string
	FacilityID string
	OrderID    string
	Roll       int
	Bucket     models.Bucket
	Inputs     []models.InputSpec // still missing, in declaration order
}

// Resolution is the outcome of resolving one order
type Resolution struct {
	InstanceID    string
	OrderID       string
	Roll          int
	Bucket        models.Bucket
	BucketUnknown bool
	Effects       []models.Effect
	Changes       []models.Change
	LevelChanges  []LevelChange
	Recycled      bool   // a repeatable order started its next run
	Stopped       string // why a repeatable order did not recycle
}

// StartOrder commits free staff to an order and charges its cost. The first
// StaffRequired assigned NPCs that are not busy and whose profession the
// facility allows are committed, in assignment order.
func (e *Engine) StartOrder(s *models.Session, instanceID, orderID string) (*models.OrderInstance, error) {
	inst, def, err := e.instance(s, instanceID)
	if err != nil {
		return nil, err
	}
	order := def.Order(orderID)
	if order == nil {
		return nil, fmt.Errorf("%w: %q at %s", models.ErrUnknownOrder, orderID, def.Name)
	}
	if !inst.Operational() {
		return nil, fmt.Errorf("%w: %s", models.ErrFacilityNotReady, def.Name)
	}
	if existing := inst.Order(orderID); existing != nil && existing.Status.Active() {
		return nil, fmt.Errorf("%w: %s is %s", models.ErrOrderAlreadyActive, order.Name, existing.Status)
	}

	staff := e.eligibleStaff(s, inst, def)
	if len(staff) < order.StaffRequired {
		return nil, fmt.Errorf("%w: %s needs %d, %d available", models.ErrNoEligibleStaff, order.Name, order.StaffRequired, len(staff))
	}
	staff = staff[:order.StaffRequired]

	changes, err := e.charge(s, order.Cost)
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", order.Name, err)
	}
	inst.RemoveOrder(orderID)
	oi := models.NewOrderInstance(def.ID, orderID, staff, s.Turn)
	inst.Orders = append(inst.Orders, oi)

	e.record(s, models.AuditEntry{
		EventType:  models.EventOrderStart,
		SourceType: models.SourceOrder,
		SourceID:   orderSource(inst.ID, orderID),
		Action:     fmt.Sprintf("start %s", order.Name),
		Result:     fmt.Sprintf("staffed by %s, %d turns", strings.Join(staff, ", "), order.DurationTurns),
		Changes:    changes,
	})
	e.log.Info("order started",
		zap.String("instance", inst.ID),
		zap.String("order", orderID),
		zap.Strings("staff", staff))
	return oi, nil
}

func (e *Engine) eligibleStaff(s *models.Session, inst *models.FacilityInstance, def *models.FacilityDefinition) []string {
	var staff []string
	for _, id := range inst.AssignedNPCs {
		npc, ok := s.NPCs[id]
		if !ok || !def.AllowsProfession(npc.Profession) || committed(s, id) {
			continue
		}
		staff = append(staff, id)
	}
	return staff
}

// orderDefinition returns the definition an order instance was started from
func (e *Engine) orderDefinition(oi *models.OrderInstance) (*models.OrderDefinition, error) {
	owner := e.catalog.Facility(oi.DefinitionID)
	if owner == nil {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownFacility, oi.DefinitionID)
	}
	order := owner.Order(oi.OrderID)
	if order == nil {
		return nil, fmt.Errorf("%w: %q at %s", models.ErrUnknownOrder, oi.OrderID, owner.Name)
	}
	return order, nil
}

// readyOrder looks up an order instance that must be ready
func (e *Engine) readyOrder(s *models.Session, instanceID, orderID string) (*models.FacilityInstance, *models.OrderInstance, *models.OrderDefinition, error) {
	inst, ok := s.Facilities[instanceID]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: instance %q", models.ErrUnknownFacility, instanceID)
	}
	oi := inst.Order(orderID)
	if oi == nil {
		return nil, nil, nil, fmt.Errorf("%w: %q is not running on %s", models.ErrUnknownOrder, orderID, instanceID)
	}
	if oi.Status != models.OrderReady {
		return nil, nil, nil, fmt.Errorf("%w: %s is %s", models.ErrOrderNotReady, orderID, oi.Status)
	}
	if oi.Roll == nil || !oi.Bucket.Valid() {
		return nil, nil, nil, fmt.Errorf("%w: %s has no rolled outcome", models.ErrOrderNotReady, orderID)
	}
	order, err := e.orderDefinition(oi)
	if err != nil {
		return nil, nil, nil, err
	}
	return inst, oi, order, nil
}

// advanceOrder counts one turn of progress. When the order reaches its
// duration the outcome is rolled and the order becomes ready. Ready orders
// are left alone.
func (e *Engine) advanceOrder(s *models.Session, inst *models.FacilityInstance, oi *models.OrderInstance) (bool, error) {
	if oi.Status != models.OrderInProgress {
		return false, nil
	}
	order, err := e.orderDefinition(oi)
	if err != nil {
		return false, err
	}
	if oi.Progress+1 < order.DurationTurns {
		oi.Progress++
		return false, nil
	}

	roll, err := e.roller.Roll(order.Roll.Min, order.Roll.Max)
	if err != nil {
		return false, fmt.Errorf("roll %s: %w", order.Name, err)
	}
	bucket, unknown := order.SelectBucket(roll)
	oi.Progress = order.DurationTurns
	oi.Status = models.OrderReady
	oi.Roll = &roll
	oi.Bucket = bucket
	oi.BucketUnknown = unknown
	oi.Pending = missingInputs(order.RequiredInputs(bucket), oi.Inputs)

	e.record(s, models.AuditEntry{
		EventType:  models.EventOrderReady,
		SourceType: models.SourceOrder,
		SourceID:   orderSource(inst.ID, oi.OrderID),
		Action:     fmt.Sprintf("%s ready", order.Name),
		Roll:       oi.Roll,
		Result:     string(bucket),
	})
	e.log.Info("order ready",
		zap.String("instance", inst.ID),
		zap.String("order", oi.OrderID),
		zap.Int("roll", roll),
		zap.String("bucket", string(bucket)),
		zap.Bool("bucket_unknown", unknown),
		zap.Strings("pending", oi.Pending))
	return true, nil
}

func missingInputs(required []string, have map[string]float64) []string {
	var missing []string
	for _, name := range required {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// ListPendingInputs returns every ready order still waiting for inputs,
// ordered by facility then order
func (e *Engine) ListPendingInputs(s *models.Session) []PendingInput {
	var out []PendingInput
	for _, inst := range s.FacilityList() {
		for _, oi := range sortedOrders(inst) {
			if oi.Status != models.OrderReady || !oi.HasPending() {
				continue
			}
			order, err := e.orderDefinition(oi)
			if err != nil {
				continue
			}
			p := PendingInput{
				InstanceID: inst.ID,
				FacilityID: inst.FacilityID,
				OrderID:    oi.OrderID,
				Bucket:     oi.Bucket,
			}
			if oi.Roll != nil {
				p.Roll = *oi.Roll
			}
			for _, name := range oi.Pending {
				if spec, ok := order.Input(name); ok {
					p.Inputs = append(p.Inputs, spec)
				}
			}
			out = append(out, p)
		}
	}
	return out
}

// SubmitInputs validates and stores formula inputs for a ready order. Check
// inputs must be integers the input accepts; numeric inputs must be finite
// numbers. Nothing is stored unless every value is valid.
func (e *Engine) SubmitInputs(s *models.Session, instanceID, orderID string, values map[string]string) error {
	inst, oi, order, err := e.readyOrder(s, instanceID, orderID)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parsed := make(map[string]float64, len(values))
	for _, name := range names {
		spec, ok := order.Input(name)
		if !ok {
			return fmt.Errorf("%w: %s has no input %q", models.ErrInvalidNumericInput, order.Name, name)
		}
		v, err := parseInput(spec, values[name])
		if err != nil {
			return err
		}
		parsed[name] = v
	}

	if oi.Inputs == nil {
		oi.Inputs = make(map[string]float64, len(parsed))
	}
	for name, v := range parsed {
		oi.Inputs[name] = v
	}
	oi.Pending = missingInputs(order.RequiredInputs(oi.Bucket), oi.Inputs)

	e.record(s, models.AuditEntry{
		EventType:  models.EventOrderInputs,
		SourceType: models.SourceOrder,
		SourceID:   orderSource(inst.ID, orderID),
		Action:     fmt.Sprintf("inputs for %s", order.Name),
		Result:     formatInputs(names, parsed),
	})
	return nil
}

func parseInput(spec models.InputSpec, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	switch spec.Source {
	case models.InputCheck:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %s=%q is not an integer", models.ErrInvalidCheckValue, spec.Name, raw)
		}
		if !spec.AcceptsCheck(v) {
			return 0, fmt.Errorf("%w: %s=%d is outside the allowed results", models.ErrInvalidCheckValue, spec.Name, v)
		}
		return float64(v), nil
	default:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %s=%q", models.ErrInvalidNumericInput, spec.Name, raw)
		}
		return v, nil
	}
}

func formatInputs(names []string, values map[string]float64) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+strconv.FormatFloat(values[name], 'g', -1, 64))
	}
	return strings.Join(parts, ", ")
}

// ResolveOrder evaluates the rolled bucket's effects and applies them as one
// batch, then credits XP to the committed staff. Repeatable orders start their
// next run at once; others are removed from the facility. If the batch cannot
// apply, the order stays ready and nothing changes.
func (e *Engine) ResolveOrder(s *models.Session, instanceID, orderID string) (*Resolution, error) {
	inst, oi, order, err := e.readyOrder(s, instanceID, orderID)
	if err != nil {
		return nil, err
	}
	if oi.HasPending() {
		return nil, fmt.Errorf("%w: %s needs %s", models.ErrFormulaInputsMissing, order.Name, strings.Join(oi.Pending, ", "))
	}

	effects, err := e.evaluate(s, order, oi)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", order.Name, err)
	}
	result := string(oi.Bucket)
	if oi.BucketUnknown {
		result += " (fallback)"
	}
	changes, err := e.ApplyEffects(s, effects, ApplyContext{
		EventType:  models.EventOrderResolve,
		SourceType: models.SourceOrder,
		SourceID:   orderSource(inst.ID, orderID),
		Action:     fmt.Sprintf("resolve %s", order.Name),
		Roll:       oi.Roll,
		Result:     result,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", order.Name, err)
	}

	res := &Resolution{
		InstanceID:    inst.ID,
		OrderID:       orderID,
		Roll:          *oi.Roll,
		Bucket:        oi.Bucket,
		BucketUnknown: oi.BucketUnknown,
		Effects:       effects,
		Changes:       changes,
	}
	if order.XP > 0 {
		for _, id := range oi.Staff {
			npc, ok := s.NPCs[id]
			if !ok {
				continue
			}
			change := e.grantXP(npc, order.XP)
			res.LevelChanges = append(res.LevelChanges, change)
			if change.Leveled() {
				e.record(s, xpEntry(npc, change, order.XP))
			}
		}
	}
	oi.Status = models.OrderResolved
	e.log.Info("order resolved",
		zap.String("instance", inst.ID),
		zap.String("order", orderID),
		zap.String("bucket", string(oi.Bucket)),
		zap.Int("changes", len(changes)))

	if !order.Repeatable {
		inst.RemoveOrder(orderID)
		return res, nil
	}
	e.recycle(s, inst, oi, order, res)
	return res, nil
}

// recycle restarts a repeatable order with the same staff, charging its cost
// again. After an upgrade the next run follows the facility's current
// definition of the order. An order that can no longer run is removed and the
// reason recorded.
func (e *Engine) recycle(s *models.Session, inst *models.FacilityInstance, oi *models.OrderInstance, order *models.OrderDefinition, res *Resolution) {
	var reason string
	next := order
	def := e.catalog.Facility(inst.FacilityID)
	if def == nil || def.Order(oi.OrderID) == nil {
		reason = fmt.Sprintf("%s no longer offers %s", inst.FacilityID, order.Name)
	} else {
		next = def.Order(oi.OrderID)
		reason = staffMismatch(s, inst, def, next, oi.Staff)
	}
	var changes []models.Change
	if reason == "" {
		var err error
		if changes, err = e.charge(s, next.Cost); err != nil {
			reason = err.Error()
		}
	}

	source := orderSource(inst.ID, oi.OrderID)
	if reason != "" {
		inst.RemoveOrder(oi.OrderID)
		res.Stopped = reason
		e.record(s, models.AuditEntry{
			EventType:  models.EventOrderStopped,
			SourceType: models.SourceOrder,
			SourceID:   source,
			Action:     fmt.Sprintf("stop %s", order.Name),
			Result:     reason,
		})
		e.log.Warn("repeatable order stopped", zap.String("order", source), zap.String("reason", reason))
		return
	}

	oi.DefinitionID = def.ID
	oi.Recycle(s.Turn)
	res.Recycled = true
	e.record(s, models.AuditEntry{
		EventType:  models.EventOrderStart,
		SourceType: models.SourceOrder,
		SourceID:   source,
		Action:     fmt.Sprintf("restart %s", next.Name),
		Result:     fmt.Sprintf("staffed by %s, %d turns", strings.Join(oi.Staff, ", "), next.DurationTurns),
		Changes:    changes,
	})
}

// staffMismatch explains why the committed staff cannot run order at def,
// or returns ""
func staffMismatch(s *models.Session, inst *models.FacilityInstance, def *models.FacilityDefinition, order *models.OrderDefinition, staff []string) string {
	if len(staff) < order.StaffRequired {
		return fmt.Sprintf("%s needs %d staff, %d committed", order.Name, order.StaffRequired, len(staff))
	}
	for _, id := range staff {
		npc, ok := s.NPCs[id]
		if !ok || !inst.HasNPC(id) {
			return fmt.Sprintf("%s is no longer assigned to %s", id, def.Name)
		}
		if !def.AllowsProfession(npc.Profession) {
			return fmt.Sprintf("%s (%s) cannot work at %s", npc.Name, npc.Profession, def.Name)
		}
	}
	return ""
}

// evaluate turns the selected bucket's templates into concrete effects
func (e *Engine) evaluate(s *models.Session, order *models.OrderDefinition, oi *models.OrderInstance) ([]models.Effect, error) {
	vars := make(map[string]float64, len(oi.Inputs)+len(formula.Builtins))
	for name, v := range oi.Inputs {
		vars[name] = v
	}
	vars[formula.VarRoll] = float64(*oi.Roll)
	vars[formula.VarStaffCount] = float64(len(oi.Staff))
	vars[formula.VarStaffLevel] = float64(staffLevel(s, oi.Staff))
	vars[formula.VarTurn] = float64(s.Turn)

	templates := order.Effects[oi.Bucket]
	effects := make([]models.Effect, 0, len(templates))
	for _, tpl := range templates {
		if tpl.Kind == models.EffectLog {
			effects = append(effects, models.LogEffect{Text: tpl.Text})
			continue
		}
		delta, err := e.eval.EvalInt(tpl.Formula, vars)
		if err != nil {
			return nil, err
		}
		switch tpl.Kind {
		case models.EffectCurrency:
			effects = append(effects, models.CurrencyEffect{Currency: tpl.Currency, Delta: delta})
		case models.EffectItem:
			effects = append(effects, models.ItemEffect{Item: tpl.Item, Delta: delta})
		case models.EffectStat:
			effects = append(effects, models.StatEffect{Stat: tpl.Stat, Delta: delta})
		default:
			return nil, fmt.Errorf("unsupported effect kind %q", tpl.Kind)
		}
	}
	return effects, nil
}

// staffLevel is the highest level among the committed staff
func staffLevel(s *models.Session, staff []string) models.Level {
	var best models.Level
	for _, id := range staff {
		if npc, ok := s.NPCs[id]; ok && npc.Level > best {
			best = npc.Level
		}
	}
	return best
}
