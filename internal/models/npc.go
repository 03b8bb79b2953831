package models

// Level is an NPC's rank
type Level int

const (
	Apprentice  Level = 1
	Experienced Level = 2
	Master      Level = 3
)

// MaxLevel is the highest rank an NPC can reach
const MaxLevel = Master

// Valid reports whether l is within 1..3
func (l Level) Valid() bool {
	return l >= Apprentice && l <= Master
}

// String returns the rank name
func (l Level) String() string {
	switch l {
	case Apprentice:
		return "apprentice"
	case Experienced:
		return "experienced"
	case Master:
		return "master"
	default:
		return "unknown"
	}
}

// NPC is a member of the stronghold staff roster
type NPC struct {
	ID         string `json:"npc_id"`
	Name       string `json:"name"`
	Profession string `json:"profession"`
	Level      Level  `json:"level"`
	XP         int    `json:"xp"`
	Upkeep     Wallet `json:"upkeep,omitempty"`
}

// XPThresholds are the cumulative XP totals needed to leave a level
type XPThresholds struct {
	ApprenticeToExperienced int `yaml:"apprentice_to_experienced" env:"APPRENTICE_TO_EXPERIENCED"`
	ExperiencedToMaster     int `yaml:"experienced_to_master" env:"EXPERIENCED_TO_MASTER"`
}

// Next returns the XP needed to leave level l, or false at the top level
func (t XPThresholds) Next(l Level) (int, bool) {
	switch l {
	case Apprentice:
		return t.ApprenticeToExperienced, true
	case Experienced:
		return t.ExperiencedToMaster, true
	}
	return 0, false
}
