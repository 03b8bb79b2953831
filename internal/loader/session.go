package loader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/napolitain/stronghold/internal/models"
)

// LoadSession reads a session payload and checks it against the catalog
func LoadSession(path string, catalog *models.Catalog) (*models.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return ParseSession(data, catalog)
}

// ParseSession decodes a session payload and checks it against the catalog
func ParseSession(data []byte, catalog *models.Catalog) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	s.Normalize()
	if err := ValidateSession(&s, catalog); err != nil {
		return nil, err
	}
	return &s, nil
}

// ValidateSession checks the structural invariants a session must satisfy
// before the engine mutates it. The bucket and pending inputs of ready
// orders are derived again from the roll.
func ValidateSession(s *models.Session, catalog *models.Catalog) error {
	for id, npc := range s.NPCs {
		if npc.ID != id {
			return fmt.Errorf("npc key %q does not match id %q", id, npc.ID)
		}
		if !npc.Level.Valid() {
			return fmt.Errorf("npc %q: %w", id, models.ErrInvalidLevel)
		}
		if npc.XP < 0 {
			return fmt.Errorf("npc %q has negative xp", id)
		}
	}

	assigned := make(map[string]string)
	for id, f := range s.Facilities {
		if f.ID != id {
			return fmt.Errorf("facility key %q does not match id %q", id, f.ID)
		}
		def := catalog.Facility(f.FacilityID)
		if def == nil {
			return fmt.Errorf("facility %q: %w %q", id, models.ErrUnknownFacility, f.FacilityID)
		}
		if len(f.AssignedNPCs) > def.NpcSlots {
			return fmt.Errorf("facility %q: %w (%d assigned, %d slots)", id, models.ErrFacilitySlotsFull, len(f.AssignedNPCs), def.NpcSlots)
		}
		for _, npcID := range f.AssignedNPCs {
			if _, ok := s.NPCs[npcID]; !ok {
				return fmt.Errorf("facility %q: %w %q", id, models.ErrUnknownNpc, npcID)
			}
			if other, dup := assigned[npcID]; dup {
				return fmt.Errorf("npc %q assigned to both %q and %q", npcID, other, id)
			}
			assigned[npcID] = id
		}

		switch f.Build.State {
		case models.BuildNone:
		case models.BuildBuilding:
		case models.BuildUpgrading:
			if catalog.Facility(f.Build.TargetID) == nil {
				return fmt.Errorf("facility %q upgrades to %w %q", id, models.ErrUnknownFacility, f.Build.TargetID)
			}
		default:
			return fmt.Errorf("facility %q has unknown build status %q", id, f.Build.State)
		}
		if f.Build.RemainingTurns < 0 {
			return fmt.Errorf("facility %q has negative remaining turns", id)
		}

		for _, oi := range f.Orders {
			owner := catalog.Facility(oi.DefinitionID)
			if owner == nil {
				return fmt.Errorf("facility %q order %q: %w %q", id, oi.OrderID, models.ErrUnknownFacility, oi.DefinitionID)
			}
			order := owner.Order(oi.OrderID)
			if order == nil {
				return fmt.Errorf("facility %q: %w %q", id, models.ErrUnknownOrder, oi.OrderID)
			}
			if oi.Progress < 0 || oi.Progress > order.DurationTurns {
				return fmt.Errorf("facility %q order %q progress %d outside 0..%d", id, oi.OrderID, oi.Progress, order.DurationTurns)
			}
			if err := validateOutcome(oi, order); err != nil {
				return fmt.Errorf("facility %q order %q: %w", id, oi.OrderID, err)
			}
			for _, npcID := range oi.Staff {
				if oi.Status.Active() && !f.HasNPC(npcID) {
					return fmt.Errorf("facility %q order %q staffed by unassigned npc %q", id, oi.OrderID, npcID)
				}
			}
		}
	}
	return nil
}

// validateOutcome checks the order status and, for ready orders, rebuilds
// the bucket and pending input list from the stored roll
func validateOutcome(oi *models.OrderInstance, order *models.OrderDefinition) error {
	switch oi.Status {
	case models.OrderInProgress, models.OrderResolved:
		return nil
	case models.OrderReady:
	default:
		return fmt.Errorf("unknown order status %q", oi.Status)
	}

	if oi.Roll == nil {
		return fmt.Errorf("%w: ready without a roll", models.ErrOrderNotReady)
	}
	if *oi.Roll < order.Roll.Min || *oi.Roll > order.Roll.Max {
		return fmt.Errorf("roll %d outside %d..%d", *oi.Roll, order.Roll.Min, order.Roll.Max)
	}
	if oi.Progress != order.DurationTurns {
		return fmt.Errorf("ready at progress %d of %d", oi.Progress, order.DurationTurns)
	}
	oi.Bucket, oi.BucketUnknown = order.SelectBucket(*oi.Roll)

	for name := range oi.Inputs {
		if _, ok := order.Input(name); !ok {
			return fmt.Errorf("%w: no input %q", models.ErrInvalidNumericInput, name)
		}
	}
	oi.Pending = nil
	for _, name := range order.RequiredInputs(oi.Bucket) {
		if _, ok := oi.Inputs[name]; !ok {
			oi.Pending = append(oi.Pending, name)
		}
	}
	return nil
}
