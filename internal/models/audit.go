package models

// EventType classifies audit entries
type EventType string

const (
	EventBuild         EventType = "build"
	EventBuildComplete EventType = "build_complete"
	EventUpgrade       EventType = "upgrade"
	EventDemolish      EventType = "demolish"
	EventHire          EventType = "hire"
	EventFire          EventType = "fire"
	EventMove          EventType = "move"
	EventXP            EventType = "xp"
	EventOrderStart    EventType = "order_start"
	EventOrderReady    EventType = "order_ready"
	EventOrderInputs   EventType = "order_inputs"
	EventOrderResolve  EventType = "order_resolve"
	EventOrderStopped  EventType = "order_stopped"
	EventEffects       EventType = "effects"
	EventUpkeep        EventType = "upkeep"
	EventTurn          EventType = "turn"
)

// SourceType identifies what kind of entity produced an audit entry
type SourceType string

const (
	SourceFacility SourceType = "facility"
	SourceNPC      SourceType = "npc"
	SourceOrder    SourceType = "order"
	SourceSession  SourceType = "session"
	SourceManual   SourceType = "manual"
)

// AuditEntry is one append-only record of a mutating operation
type AuditEntry struct {
	Turn       int        `json:"turn"`
	EventType  EventType  `json:"event_type"`
	SourceType SourceType `json:"source_type"`
	SourceID   string     `json:"source_id"`
	Action     string     `json:"action"`
	Roll       *int       `json:"roll,omitempty"`
	Result     string     `json:"result,omitempty"`
	Changes    []Change   `json:"changes,omitempty"`
	LogText    string     `json:"log_text,omitempty"`
}

// BuildQueueEntry is a read-only projection of an in-flight build or upgrade
type BuildQueueEntry struct {
	Type           BuildState `json:"type"`
	InstanceID     string     `json:"instance_id"`
	FacilityID     string     `json:"facility_id"`
	TargetID       string     `json:"target_id,omitempty"`
	RemainingTurns int        `json:"remaining_turns"`
}
