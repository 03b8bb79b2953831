package stronghold

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/napolitain/stronghold/internal/models"
)

// HireRequest describes a new NPC. An empty FacilityID hires into reserve.
type HireRequest struct {
	Name       string
	Profession string
	Level      models.Level
	Upkeep     models.Wallet
	FacilityID string // facility instance id
}

// Compatibility is the advisory outcome of a move
type Compatibility string

const (
	CompatibilityOK   Compatibility = "ok"
	CompatibilityWarn Compatibility = "warn"
)

// MoveResult reports where an NPC went and whether its profession fits there
type MoveResult struct {
	NPCID         string
	From          string // instance id, "" for reserve
	To            string
	Compatibility Compatibility
	Warning       string
}

// LevelChange is the result of an XP grant
type LevelChange struct {
	NPCID string
	XP    int
	From  models.Level
	To    models.Level
}

// Leveled reports whether the grant raised the NPC's level
func (c LevelChange) Leveled() bool {
	return c.To > c.From
}

// Hire adds an NPC to the roster, optionally assigning it to a facility.
// Nothing is mutated unless every check passes.
func (e *Engine) Hire(s *models.Session, req HireRequest) (*models.NPC, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.New("npc name is required")
	}
	if !req.Level.Valid() {
		return nil, fmt.Errorf("%w: %d", models.ErrInvalidLevel, req.Level)
	}
	if _, err := e.catalog.Currency.ToBase(req.Upkeep); err != nil {
		return nil, fmt.Errorf("upkeep: %w", err)
	}

	var target *models.FacilityInstance
	if req.FacilityID != "" {
		inst, def, err := e.instance(s, req.FacilityID)
		if err != nil {
			return nil, err
		}
		if inst.FreeSlots(def) == 0 {
			return nil, fmt.Errorf("%w: %s has %d slots", models.ErrFacilitySlotsFull, def.Name, def.NpcSlots)
		}
		if !def.AllowsProfession(req.Profession) {
			return nil, fmt.Errorf("%w: %q at %s", models.ErrProfessionNotAllowed, req.Profession, def.Name)
		}
		target = inst
	}

	npc := &models.NPC{
		ID:         e.newID(),
		Name:       name,
		Profession: strings.TrimSpace(req.Profession),
		Level:      req.Level,
		Upkeep:     req.Upkeep,
	}
	s.NPCs[npc.ID] = npc
	placed := "reserve"
	if target != nil {
		target.AssignedNPCs = append(target.AssignedNPCs, npc.ID)
		placed = target.ID
	}

	e.record(s, models.AuditEntry{
		EventType:  models.EventHire,
		SourceType: models.SourceNPC,
		SourceID:   npc.ID,
		Action:     fmt.Sprintf("hire %s", npc.Name),
		Result:     fmt.Sprintf("%s %s assigned to %s", npc.Level, npc.Profession, placed),
	})
	e.log.Info("npc hired",
		zap.String("npc", npc.ID),
		zap.String("name", npc.Name),
		zap.String("profession", npc.Profession),
		zap.String("facility", placed))
	return npc, nil
}

// Fire removes an NPC from the roster and from its facility
func (e *Engine) Fire(s *models.Session, npcID string) error {
	npc, ok := s.NPCs[npcID]
	if !ok {
		return fmt.Errorf("%w: %q", models.ErrUnknownNpc, npcID)
	}
	if committed(s, npcID) {
		return fmt.Errorf("%w: %s", models.ErrNpcHasActiveOrder, npc.Name)
	}

	if f := s.FacilityOf(npcID); f != nil {
		f.RemoveNPC(npcID)
	}
	delete(s.NPCs, npcID)

	e.record(s, models.AuditEntry{
		EventType:  models.EventFire,
		SourceType: models.SourceNPC,
		SourceID:   npcID,
		Action:     fmt.Sprintf("fire %s", npc.Name),
	})
	e.log.Info("npc fired", zap.String("npc", npcID))
	return nil
}

// Move reassigns an NPC. An empty facilityID moves it to reserve. A
// profession the target does not list is allowed and reported as a warning.
func (e *Engine) Move(s *models.Session, npcID, facilityID string) (MoveResult, error) {
	npc, ok := s.NPCs[npcID]
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: %q", models.ErrUnknownNpc, npcID)
	}
	res := MoveResult{NPCID: npcID, To: facilityID, Compatibility: CompatibilityOK}
	from := s.FacilityOf(npcID)
	if from != nil {
		res.From = from.ID
	}
	if res.From == facilityID {
		return res, nil
	}
	if committed(s, npcID) {
		return MoveResult{}, fmt.Errorf("%w: %s", models.ErrNpcHasActiveOrder, npc.Name)
	}

	var target *models.FacilityInstance
	if facilityID != "" {
		inst, def, err := e.instance(s, facilityID)
		if err != nil {
			return MoveResult{}, err
		}
		if inst.FreeSlots(def) == 0 {
			return MoveResult{}, fmt.Errorf("%w: %s has %d slots", models.ErrFacilitySlotsFull, def.Name, def.NpcSlots)
		}
		if !def.AllowsProfession(npc.Profession) {
			res.Compatibility = CompatibilityWarn
			res.Warning = fmt.Sprintf("%v: %q at %s", models.ErrProfessionNotAllowed, npc.Profession, def.Name)
		}
		target = inst
	}

	if from != nil {
		from.RemoveNPC(npcID)
	}
	if target != nil {
		target.AssignedNPCs = append(target.AssignedNPCs, npcID)
	}

	e.record(s, models.AuditEntry{
		EventType:  models.EventMove,
		SourceType: models.SourceNPC,
		SourceID:   npcID,
		Action:     fmt.Sprintf("move %s", npc.Name),
		Result:     fmt.Sprintf("%s -> %s (%s)", placement(res.From), placement(res.To), res.Compatibility),
	})
	if res.Compatibility == CompatibilityWarn {
		e.log.Warn("npc moved to incompatible facility", zap.String("npc", npcID), zap.String("facility", facilityID))
	}
	return res, nil
}

// GrantXP adds XP to an NPC. XP is retained across levels, and a single grant
// raises the level by at most one.
func (e *Engine) GrantXP(s *models.Session, npcID string, amount int) (LevelChange, error) {
	npc, ok := s.NPCs[npcID]
	if !ok {
		return LevelChange{}, fmt.Errorf("%w: %q", models.ErrUnknownNpc, npcID)
	}
	if amount < 0 {
		return LevelChange{}, fmt.Errorf("xp grant must not be negative, got %d", amount)
	}
	change := e.grantXP(npc, amount)
	e.record(s, xpEntry(npc, change, amount))
	return change, nil
}

func (e *Engine) grantXP(npc *models.NPC, amount int) LevelChange {
	change := LevelChange{NPCID: npc.ID, From: npc.Level}
	npc.XP += amount
	if next, ok := e.cfg.XP.Next(npc.Level); ok && npc.XP >= next && npc.Level < models.MaxLevel {
		npc.Level++
		e.log.Info("npc leveled up",
			zap.String("npc", npc.ID),
			zap.Stringer("level", npc.Level),
			zap.Int("xp", npc.XP))
	}
	change.XP = npc.XP
	change.To = npc.Level
	return change
}

func xpEntry(npc *models.NPC, change LevelChange, amount int) models.AuditEntry {
	result := fmt.Sprintf("xp %d", change.XP)
	if change.Leveled() {
		result = fmt.Sprintf("%s -> %s, xp %d", change.From, change.To, change.XP)
	}
	return models.AuditEntry{
		EventType:  models.EventXP,
		SourceType: models.SourceNPC,
		SourceID:   npc.ID,
		Action:     fmt.Sprintf("grant %d xp to %s", amount, npc.Name),
		Result:     result,
	}
}

// Roster returns every NPC ordered by name, then id
func (e *Engine) Roster(s *models.Session) []*models.NPC {
	return s.NPCList()
}

// Reserve returns the NPCs not assigned to any facility
func (e *Engine) Reserve(s *models.Session) []*models.NPC {
	var out []*models.NPC
	for _, npc := range s.NPCList() {
		if s.FacilityOf(npc.ID) == nil {
			out = append(out, npc)
		}
	}
	return out
}

// UpkeepPerTurn returns the roster's combined upkeep in base units
func (e *Engine) UpkeepPerTurn(s *models.Session) (int64, error) {
	var total int64
	for _, npc := range s.NPCList() {
		base, err := e.catalog.Currency.ToBase(npc.Upkeep)
		if err != nil {
			return 0, fmt.Errorf("npc %s upkeep: %w", npc.ID, err)
		}
		var ok bool
		if total, ok = addInt64(total, base); !ok {
			return 0, fmt.Errorf("%w: combined upkeep", models.ErrAmountOverflow)
		}
	}
	return total, nil
}

func placement(instanceID string) string {
	if instanceID == "" {
		return "reserve"
	}
	return instanceID
}
