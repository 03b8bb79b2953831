package models

import (
	"sort"
	"strings"
)

// Bucket is the outcome category an order roll falls into
type Bucket string

const (
	BucketCriticalFailure Bucket = "on_critical_failure"
	BucketFailure         Bucket = "on_failure"
	BucketSuccess         Bucket = "on_success"
	BucketCriticalSuccess Bucket = "on_critical_success"
)

// AllBuckets returns all buckets from worst to best outcome
func AllBuckets() []Bucket {
	return []Bucket{BucketCriticalFailure, BucketFailure, BucketSuccess, BucketCriticalSuccess}
}

// Valid reports whether b is one of the four known buckets
func (b Bucket) Valid() bool {
	switch b {
	case BucketCriticalFailure, BucketFailure, BucketSuccess, BucketCriticalSuccess:
		return true
	}
	return false
}

// IsCritical reports whether b is a critical bucket
func (b Bucket) IsCritical() bool {
	return b == BucketCriticalFailure || b == BucketCriticalSuccess
}

// Binary returns the plain success/failure bucket b falls back to
func (b Bucket) Binary() Bucket {
	switch b {
	case BucketCriticalFailure:
		return BucketFailure
	case BucketCriticalSuccess:
		return BucketSuccess
	}
	return b
}

// RollSpec is the inclusive range an order roll is drawn from
type RollSpec struct {
	Min int
	Max int
}

// DefaultRoll is a single d20
var DefaultRoll = RollSpec{Min: 1, Max: 20}

// Sides returns how many distinct results the roll can produce
func (r RollSpec) Sides() int {
	return r.Max - r.Min + 1
}

// Threshold maps every roll >= MinRoll (up to the next threshold) to Bucket
type Threshold struct {
	MinRoll int
	Bucket  Bucket
}

// OutcomeTable is a roll-to-bucket threshold table sorted by MinRoll.
// A roll equal to a threshold belongs to the bucket starting there.
type OutcomeTable []Threshold

// Sort orders thresholds ascending by MinRoll
func (t OutcomeTable) Sort() {
	sort.SliceStable(t, func(i, j int) bool { return t[i].MinRoll < t[j].MinRoll })
}

// Bucket returns the bucket for roll. Rolls below the first threshold map to
// the first bucket; loaders reject tables that leave part of the roll range
// uncovered.
func (t OutcomeTable) Bucket(roll int) Bucket {
	if len(t) == 0 {
		return ""
	}
	selected := t[0].Bucket
	for _, th := range t {
		if roll >= th.MinRoll {
			selected = th.Bucket
		}
	}
	return selected
}

// InputSource tells where a formula input value comes from
type InputSource string

const (
	InputCheck   InputSource = "check"   // result of a prior skill check, integer
	InputNumeric InputSource = "numeric" // free numeric entry
)

// InputSpec declares a named formula input
type InputSpec struct {
	Name   string
	Source InputSource
	Values []int // allowed check results; empty means use Min/Max
	Min    *int
	Max    *int
}

// AcceptsCheck reports whether v is a valid check result for this input
func (s InputSpec) AcceptsCheck(v int) bool {
	if len(s.Values) > 0 {
		for _, allowed := range s.Values {
			if allowed == v {
				return true
			}
		}
		return false
	}
	if s.Min != nil && v < *s.Min {
		return false
	}
	if s.Max != nil && v > *s.Max {
		return false
	}
	return true
}

// OrderDefinition is an immutable order a facility can run
type OrderDefinition struct {
	ID            string
	Name          string
	Description   string
	DurationTurns int
	Roll          RollSpec
	Outcomes      OutcomeTable
	Effects       map[Bucket][]EffectTemplate
	Inputs        []InputSpec
	Repeatable    bool
	StaffRequired int    // free eligible NPCs needed to start; at least 1
	XP            int    // granted to each committed NPC on resolution
	Cost          Wallet // charged when the order starts or recycles
}

// Input returns the declared input with the given name
func (o *OrderDefinition) Input(name string) (InputSpec, bool) {
	for _, in := range o.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return InputSpec{}, false
}

// SelectBucket maps a roll to the bucket whose effects apply. A critical
// bucket without effects falls back to its binary counterpart; unknown is
// true whenever the rolled bucket had no effects of its own.
func (o *OrderDefinition) SelectBucket(roll int) (bucket Bucket, unknown bool) {
	rolled := o.Outcomes.Bucket(roll)
	if _, ok := o.Effects[rolled]; ok {
		return rolled, false
	}
	return rolled.Binary(), true
}

// RequiredInputs returns the input names the bucket's templates need, in
// declaration order without duplicates
func (o *OrderDefinition) RequiredInputs(b Bucket) []string {
	seen := make(map[string]bool)
	var names []string
	for _, tpl := range o.Effects[b] {
		for _, name := range tpl.Inputs {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// BuildSpec is the cost and duration to build a facility
type BuildSpec struct {
	Cost          Wallet
	DurationTurns int
}

// FacilityDefinition is an immutable catalog entry
type FacilityDefinition struct {
	ID                 string
	Tier               int
	Name               string
	Description        string
	NpcSlots           int
	AllowedProfessions []string // empty means any profession
	Build              BuildSpec
	Parent             string // facility this one upgrades from, "" for tier roots
	Orders             []*OrderDefinition
}

// Order returns the order with the given id, or nil
func (f *FacilityDefinition) Order(id string) *OrderDefinition {
	for _, o := range f.Orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// AllowsProfession reports whether profession may staff this facility
func (f *FacilityDefinition) AllowsProfession(profession string) bool {
	if len(f.AllowedProfessions) == 0 {
		return true
	}
	p := NormalizeProfession(profession)
	for _, allowed := range f.AllowedProfessions {
		if NormalizeProfession(allowed) == p {
			return true
		}
	}
	return false
}

// NormalizeProfession trims and lower-cases a profession for comparison
func NormalizeProfession(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
