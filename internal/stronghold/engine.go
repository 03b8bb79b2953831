// Package stronghold is the rules engine. It hires and moves staff, queues
// builds and upgrades, runs facility orders and commits turns against a
// caller-owned *models.Session.
//
// The engine holds no session state of its own: every operation reads the
// session at call time, validates, then mutates. Operations are synchronous
// and meant to be called from one goroutine per session.
package stronghold

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/napolitain/stronghold/internal/config"
	"github.com/napolitain/stronghold/internal/dice"
	"github.com/napolitain/stronghold/internal/formula"
	"github.com/napolitain/stronghold/internal/models"
)

// Engine applies stronghold rules to sessions built from one catalog
type Engine struct {
	catalog *models.Catalog
	cfg     config.Config
	roller  dice.Roller
	eval    *formula.Evaluator
	log     *zap.Logger
	newID   func() string
}

// Option customises an Engine
type Option func(*Engine)

// WithRoller sets the source of order rolls
func WithRoller(r dice.Roller) Option {
	return func(e *Engine) { e.roller = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithIDGenerator sets how NPC and facility instance ids are generated
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// New creates an engine. Without WithRoller, rolls come from a seeded roller
// using cfg.Seed, or a random seed when it is zero.
func New(catalog *models.Catalog, cfg config.Config, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("stronghold: nil catalog")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("stronghold: %w", err)
	}
	e := &Engine{
		catalog: catalog,
		cfg:     cfg,
		eval:    formula.New(),
		log:     zap.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.roller == nil {
		seed := cfg.Seed
		if seed == 0 {
			var err error
			if seed, err = dice.NewSeed(); err != nil {
				return nil, err
			}
		}
		e.roller = dice.NewSeeded(seed)
		e.log.Debug("seeded roller", zap.Int64("seed", seed))
	}
	return e, nil
}

// Catalog returns the catalog the engine was built with
func (e *Engine) Catalog() *models.Catalog {
	return e.catalog
}

// Config returns the engine configuration
func (e *Engine) Config() config.Config {
	return e.cfg
}

// NewSession creates an empty session whose treasury holds the given wallet
func (e *Engine) NewSession(name string, treasury models.Wallet) (*models.Session, error) {
	base, err := e.catalog.Currency.ToBase(treasury)
	if err != nil {
		return nil, err
	}
	if base < e.cfg.TreasuryFloor {
		return nil, fmt.Errorf("%w: opening treasury %s is below the floor", models.ErrInsufficientFunds, e.catalog.Currency.Format(base))
	}
	return models.NewSession(name, base), nil
}

// instance looks up a facility instance and its current definition
func (e *Engine) instance(s *models.Session, instanceID string) (*models.FacilityInstance, *models.FacilityDefinition, error) {
	inst, ok := s.Facilities[instanceID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: instance %q", models.ErrUnknownFacility, instanceID)
	}
	def := e.catalog.Facility(inst.FacilityID)
	if def == nil {
		return nil, nil, fmt.Errorf("%w: %q (instance %q)", models.ErrUnknownFacility, inst.FacilityID, instanceID)
	}
	return inst, def, nil
}

// committed reports whether npcID staffs any active order in the session
func committed(s *models.Session, npcID string) bool {
	for _, f := range s.Facilities {
		if f.Committed(npcID) {
			return true
		}
	}
	return false
}

// charge deducts cost from the treasury if the floor allows it
func (e *Engine) charge(s *models.Session, cost models.Wallet) ([]models.Change, error) {
	base, err := e.catalog.Currency.ToBase(cost)
	if err != nil {
		return nil, err
	}
	if remaining, ok := addInt64(s.Treasury, -base); !ok || base == math.MinInt64 || remaining < e.cfg.TreasuryFloor {
		return nil, fmt.Errorf("%w: costs %s, treasury holds %s",
			models.ErrInsufficientFunds, e.catalog.Currency.Format(base), e.catalog.Currency.Format(s.Treasury))
	}
	s.Treasury -= base
	return e.costChanges(cost), nil
}

// costChanges renders a paid cost as negative currency changes, most valuable
// denomination first
func (e *Engine) costChanges(cost models.Wallet) []models.Change {
	var changes []models.Change
	for _, d := range e.catalog.Currency.Types() {
		amount := cost[d]
		if amount == 0 {
			continue
		}
		base, _ := e.catalog.Currency.AmountToBase(d, amount)
		changes = append(changes, models.Change{
			Kind:      models.EffectCurrency,
			Target:    string(d),
			Delta:     -amount,
			BaseDelta: -base,
		})
	}
	return changes
}

// record appends an audit entry stamped with the current turn
func (e *Engine) record(s *models.Session, entry models.AuditEntry) {
	entry.Turn = s.Turn
	s.Log = append(s.Log, entry)
}

// sortedOrders returns the facility's orders ordered by order id
func sortedOrders(inst *models.FacilityInstance) []*models.OrderInstance {
	out := make([]*models.OrderInstance, len(inst.Orders))
	copy(out, inst.Orders)
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

func orderSource(instanceID, orderID string) string {
	return instanceID + "/" + orderID
}
