package stronghold

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/napolitain/stronghold/internal/models"
)

// QueueBuild pays for a facility and starts building it. A stronghold owns at
// most one facility per upgrade chain.
func (e *Engine) QueueBuild(s *models.Session, facilityID string) (*models.FacilityInstance, error) {
	def := e.catalog.Facility(facilityID)
	if def == nil {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownFacility, facilityID)
	}
	root := e.catalog.Root(def.ID)
	for _, f := range s.FacilityList() {
		if e.catalog.Root(f.FacilityID) == root {
			return nil, fmt.Errorf("%w: %s (instance %s)", models.ErrAlreadyOwned, def.Name, f.ID)
		}
	}

	changes, err := e.charge(s, def.Build.Cost)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", def.Name, err)
	}
	inst := &models.FacilityInstance{
		ID:         e.newID(),
		FacilityID: def.ID,
		Build: models.BuildStatus{
			State:          models.BuildBuilding,
			RemainingTurns: def.Build.DurationTurns,
		},
	}
	s.Facilities[inst.ID] = inst

	e.record(s, models.AuditEntry{
		EventType:  models.EventBuild,
		SourceType: models.SourceFacility,
		SourceID:   inst.ID,
		Action:     fmt.Sprintf("build %s", def.Name),
		Result:     fmt.Sprintf("ready in %d turns", def.Build.DurationTurns),
		Changes:    changes,
	})
	e.log.Info("build queued",
		zap.String("instance", inst.ID),
		zap.String("facility", def.ID),
		zap.Int("turns", def.Build.DurationTurns))
	return inst, nil
}

// QueueUpgrade pays for the facility's upgrade and starts it. The facility
// keeps operating while it upgrades.
func (e *Engine) QueueUpgrade(s *models.Session, instanceID string) (*models.FacilityDefinition, error) {
	inst, def, err := e.instance(s, instanceID)
	if err != nil {
		return nil, err
	}
	switch inst.Build.State {
	case models.BuildUpgrading:
		return nil, fmt.Errorf("%w: %s", models.ErrAlreadyUpgrading, def.Name)
	case models.BuildBuilding:
		return nil, fmt.Errorf("%w: %s", models.ErrFacilityNotReady, def.Name)
	}
	target := e.catalog.UpgradeOf(def.ID)
	if target == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrNoUpgradeAvailable, def.Name)
	}

	changes, err := e.charge(s, target.Build.Cost)
	if err != nil {
		return nil, fmt.Errorf("upgrade %s: %w", def.Name, err)
	}
	inst.Build = models.BuildStatus{
		State:          models.BuildUpgrading,
		TargetID:       target.ID,
		RemainingTurns: target.Build.DurationTurns,
	}

	e.record(s, models.AuditEntry{
		EventType:  models.EventUpgrade,
		SourceType: models.SourceFacility,
		SourceID:   inst.ID,
		Action:     fmt.Sprintf("upgrade %s to %s", def.Name, target.Name),
		Result:     fmt.Sprintf("ready in %d turns", target.Build.DurationTurns),
		Changes:    changes,
	})
	e.log.Info("upgrade queued",
		zap.String("instance", inst.ID),
		zap.String("from", def.ID),
		zap.String("to", target.ID))
	return target, nil
}

// Demolish removes a facility and returns its staff to reserve. Nothing is
// refunded.
func (e *Engine) Demolish(s *models.Session, instanceID string) error {
	inst, def, err := e.instance(s, instanceID)
	if err != nil {
		return err
	}
	if inst.HasActiveOrders() {
		return fmt.Errorf("%w: %s", models.ErrFacilityHasActiveOrder, def.Name)
	}
	released := len(inst.AssignedNPCs)
	delete(s.Facilities, instanceID)

	e.record(s, models.AuditEntry{
		EventType:  models.EventDemolish,
		SourceType: models.SourceFacility,
		SourceID:   instanceID,
		Action:     fmt.Sprintf("demolish %s", def.Name),
		Result:     fmt.Sprintf("%d npcs returned to reserve", released),
	})
	e.log.Info("facility demolished", zap.String("instance", instanceID), zap.Int("released", released))
	return nil
}

// BuildQueue lists in-flight builds and upgrades in turn-processing order
func (e *Engine) BuildQueue(s *models.Session) []models.BuildQueueEntry {
	var out []models.BuildQueueEntry
	for _, f := range s.FacilityList() {
		if f.Build.State == models.BuildNone {
			continue
		}
		out = append(out, models.BuildQueueEntry{
			Type:           f.Build.State,
			InstanceID:     f.ID,
			FacilityID:     f.FacilityID,
			TargetID:       f.Build.TargetID,
			RemainingTurns: f.Build.RemainingTurns,
		})
	}
	return out
}

// FindInstance returns the session's instance of the given definition, or nil
func (e *Engine) FindInstance(s *models.Session, facilityID string) *models.FacilityInstance {
	for _, f := range s.FacilityList() {
		if f.FacilityID == facilityID {
			return f
		}
	}
	return nil
}

// advanceBuild counts one turn off an in-flight build and applies the
// completion transition when it reaches zero
func (e *Engine) advanceBuild(s *models.Session, inst *models.FacilityInstance) (*Completion, error) {
	if inst.Build.State == models.BuildNone {
		return nil, nil
	}
	if inst.Build.RemainingTurns > 0 {
		inst.Build.RemainingTurns--
	}
	if inst.Build.RemainingTurns > 0 {
		return nil, nil
	}

	done := &Completion{InstanceID: inst.ID, Type: inst.Build.State, From: inst.FacilityID}
	if inst.Build.State == models.BuildUpgrading {
		if e.catalog.Facility(inst.Build.TargetID) == nil {
			return nil, fmt.Errorf("%w: upgrade target %q", models.ErrUnknownFacility, inst.Build.TargetID)
		}
		inst.FacilityID = inst.Build.TargetID
	}
	inst.Build = models.BuildStatus{State: models.BuildNone}
	done.FacilityID = inst.FacilityID

	name := inst.FacilityID
	if def := e.catalog.Facility(inst.FacilityID); def != nil {
		name = def.Name
	}
	e.record(s, models.AuditEntry{
		EventType:  models.EventBuildComplete,
		SourceType: models.SourceFacility,
		SourceID:   inst.ID,
		Action:     fmt.Sprintf("%s complete", done.Type),
		Result:     name,
	})
	e.log.Info("build complete",
		zap.String("instance", inst.ID),
		zap.String("facility", inst.FacilityID),
		zap.String("type", string(done.Type)))
	return done, nil
}
