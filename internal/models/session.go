package models

import "sort"

// Session is the complete mutable state of one stronghold
type Session struct {
	Name       string                       `json:"name"`
	Turn       int                          `json:"turn"`
	Treasury   int64                        `json:"treasury"` // base units
	Inventory  map[string]int64             `json:"inventory"`
	Stats      map[string]int64             `json:"stats"`
	NPCs       map[string]*NPC              `json:"npcs"`
	Facilities map[string]*FacilityInstance `json:"facilities"`
	Log        []AuditEntry                 `json:"log,omitempty"`
}

// NewSession creates an empty session holding treasury base units
func NewSession(name string, treasury int64) *Session {
	s := &Session{Name: name, Treasury: treasury}
	s.ensureMaps()
	return s
}

// Normalize makes a decoded session safe to mutate
func (s *Session) Normalize() {
	s.ensureMaps()
	for _, f := range s.Facilities {
		if f.Build.State == "" {
			f.Build.State = BuildNone
		}
	}
}

func (s *Session) ensureMaps() {
	if s.Inventory == nil {
		s.Inventory = make(map[string]int64)
	}
	if s.Stats == nil {
		s.Stats = make(map[string]int64)
	}
	if s.NPCs == nil {
		s.NPCs = make(map[string]*NPC)
	}
	if s.Facilities == nil {
		s.Facilities = make(map[string]*FacilityInstance)
	}
}

// FacilityList returns facility instances ordered by definition id, then
// instance id. Turn processing relies on this order.
func (s *Session) FacilityList() []*FacilityInstance {
	list := make([]*FacilityInstance, 0, len(s.Facilities))
	for _, f := range s.Facilities {
		list = append(list, f)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].FacilityID != list[j].FacilityID {
			return list[i].FacilityID < list[j].FacilityID
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// NPCList returns the roster ordered by name, then id
func (s *Session) NPCList() []*NPC {
	list := make([]*NPC, 0, len(s.NPCs))
	for _, n := range s.NPCs {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// FacilityOf returns the facility npcID is assigned to, or nil for reserve
func (s *Session) FacilityOf(npcID string) *FacilityInstance {
	for _, f := range s.Facilities {
		if f.HasNPC(npcID) {
			return f
		}
	}
	return nil
}

// ItemNames returns inventory item names in lexical order
func (s *Session) ItemNames() []string {
	return sortedKeys(s.Inventory)
}

// StatNames returns stat names in lexical order
func (s *Session) StatNames() []string {
	return sortedKeys(s.Stats)
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
