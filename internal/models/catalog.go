package models

import (
	"fmt"
	"sort"
)

// Catalog is the immutable set of facility definitions plus the currency
// model their costs are expressed in
type Catalog struct {
	Currency   *CurrencyModel
	facilities map[string]*FacilityDefinition
	children   map[string]*FacilityDefinition // parent id -> upgrade
	ordered    []*FacilityDefinition
}

// NewCatalog validates definitions and indexes them. Any structural problem
// is reported as ErrInvalidCatalog.
func NewCatalog(currency *CurrencyModel, defs []*FacilityDefinition) (*Catalog, error) {
	if currency == nil {
		return nil, fmt.Errorf("%w: missing currency model", ErrInvalidCatalog)
	}
	c := &Catalog{
		Currency:   currency,
		facilities: make(map[string]*FacilityDefinition, len(defs)),
		children:   make(map[string]*FacilityDefinition),
	}

	for _, def := range defs {
		if def == nil || def.ID == "" {
			return nil, fmt.Errorf("%w: facility without id", ErrInvalidCatalog)
		}
		if _, dup := c.facilities[def.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate facility %q", ErrInvalidCatalog, def.ID)
		}
		if err := validateFacility(currency, def); err != nil {
			return nil, err
		}
		c.facilities[def.ID] = def
		c.ordered = append(c.ordered, def)
	}

	// Upgrade links: parent must exist, sit on a lower tier, and have one upgrade
	for _, def := range c.ordered {
		if def.Parent == "" {
			continue
		}
		parent, ok := c.facilities[def.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: facility %q upgrades unknown parent %q", ErrInvalidCatalog, def.ID, def.Parent)
		}
		if def.Tier <= parent.Tier {
			return nil, fmt.Errorf("%w: facility %q tier %d must exceed parent tier %d", ErrInvalidCatalog, def.ID, def.Tier, parent.Tier)
		}
		if def.NpcSlots < parent.NpcSlots {
			return nil, fmt.Errorf("%w: facility %q has fewer npc slots than parent %q", ErrInvalidCatalog, def.ID, parent.ID)
		}
		if other, dup := c.children[parent.ID]; dup {
			return nil, fmt.Errorf("%w: facility %q has two upgrades (%q, %q)", ErrInvalidCatalog, parent.ID, other.ID, def.ID)
		}
		c.children[parent.ID] = def
	}

	sort.SliceStable(c.ordered, func(i, j int) bool {
		if c.ordered[i].Tier != c.ordered[j].Tier {
			return c.ordered[i].Tier < c.ordered[j].Tier
		}
		return c.ordered[i].ID < c.ordered[j].ID
	})
	return c, nil
}

// Facility returns the definition with the given id, or nil
func (c *Catalog) Facility(id string) *FacilityDefinition {
	return c.facilities[id]
}

// Facilities returns all definitions ordered by tier, then id
func (c *Catalog) Facilities() []*FacilityDefinition {
	out := make([]*FacilityDefinition, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// UpgradeOf returns the unique definition whose parent is id, or nil
func (c *Catalog) UpgradeOf(id string) *FacilityDefinition {
	return c.children[id]
}

// Root returns the tier root of id's upgrade chain
func (c *Catalog) Root(id string) string {
	def := c.facilities[id]
	for def != nil && def.Parent != "" {
		parent := c.facilities[def.Parent]
		if parent == nil {
			break
		}
		def = parent
	}
	if def == nil {
		return id
	}
	return def.ID
}

func validateFacility(currency *CurrencyModel, def *FacilityDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("%w: facility %q has no name", ErrInvalidCatalog, def.ID)
	}
	if def.Tier < 1 {
		return fmt.Errorf("%w: facility %q tier must be >= 1", ErrInvalidCatalog, def.ID)
	}
	if def.NpcSlots < 0 {
		return fmt.Errorf("%w: facility %q has negative npc slots", ErrInvalidCatalog, def.ID)
	}
	if def.Build.DurationTurns <= 0 {
		return fmt.Errorf("%w: facility %q build duration must be > 0", ErrInvalidCatalog, def.ID)
	}
	if err := validateCost(currency, def.Build.Cost); err != nil {
		return fmt.Errorf("%w: facility %q build cost: %v", ErrInvalidCatalog, def.ID, err)
	}

	seen := make(map[string]bool)
	for _, o := range def.Orders {
		if o == nil || o.ID == "" {
			return fmt.Errorf("%w: facility %q has an order without id", ErrInvalidCatalog, def.ID)
		}
		if seen[o.ID] {
			return fmt.Errorf("%w: facility %q has duplicate order %q", ErrInvalidCatalog, def.ID, o.ID)
		}
		seen[o.ID] = true
		if err := validateOrder(currency, o); err != nil {
			return fmt.Errorf("%w: facility %q order %q: %v", ErrInvalidCatalog, def.ID, o.ID, err)
		}
	}
	return nil
}

func validateCost(currency *CurrencyModel, cost Wallet) error {
	for _, d := range cost.Denominations() {
		if !currency.Has(d) {
			return fmt.Errorf("%w: %q", ErrUnknownDenomination, d)
		}
		if cost[d] < 0 {
			return fmt.Errorf("negative amount for %q", d)
		}
	}
	return nil
}

func validateOrder(currency *CurrencyModel, o *OrderDefinition) error {
	if o.DurationTurns <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	if o.Roll.Min > o.Roll.Max {
		return fmt.Errorf("roll range %d..%d is empty", o.Roll.Min, o.Roll.Max)
	}
	if o.StaffRequired < 1 {
		return fmt.Errorf("staff_required must be >= 1")
	}
	if o.XP < 0 {
		return fmt.Errorf("xp must be >= 0")
	}
	if err := validateCost(currency, o.Cost); err != nil {
		return fmt.Errorf("cost: %v", err)
	}

	if len(o.Outcomes) == 0 {
		return fmt.Errorf("outcome table is empty")
	}
	o.Outcomes.Sort()
	if o.Outcomes[0].MinRoll > o.Roll.Min {
		return fmt.Errorf("outcome table starts at %d, above roll minimum %d", o.Outcomes[0].MinRoll, o.Roll.Min)
	}
	for i, th := range o.Outcomes {
		if !th.Bucket.Valid() {
			return fmt.Errorf("unknown bucket %q", th.Bucket)
		}
		if i > 0 && th.MinRoll == o.Outcomes[i-1].MinRoll {
			return fmt.Errorf("duplicate threshold %d", th.MinRoll)
		}
	}

	inputs := make(map[string]bool)
	for _, in := range o.Inputs {
		if in.Name == "" {
			return fmt.Errorf("input without name")
		}
		if inputs[in.Name] {
			return fmt.Errorf("duplicate input %q", in.Name)
		}
		inputs[in.Name] = true
		if in.Source != InputCheck && in.Source != InputNumeric {
			return fmt.Errorf("input %q has unknown source %q", in.Name, in.Source)
		}
	}

	for bucket, templates := range o.Effects {
		if !bucket.Valid() {
			return fmt.Errorf("effects for unknown bucket %q", bucket)
		}
		for _, tpl := range templates {
			if err := validateTemplate(currency, tpl, inputs); err != nil {
				return fmt.Errorf("%s: %v", bucket, err)
			}
		}
	}
	return nil
}

func validateTemplate(currency *CurrencyModel, tpl EffectTemplate, inputs map[string]bool) error {
	switch tpl.Kind {
	case EffectCurrency:
		if !currency.Has(tpl.Currency) {
			return fmt.Errorf("%w: %q", ErrUnknownDenomination, tpl.Currency)
		}
	case EffectItem:
		if tpl.Item == "" {
			return fmt.Errorf("item effect without item")
		}
	case EffectStat:
		if tpl.Stat == "" {
			return fmt.Errorf("stat effect without stat")
		}
	case EffectLog:
		if tpl.Text == "" {
			return fmt.Errorf("log effect without text")
		}
	default:
		return fmt.Errorf("unknown effect type %q", tpl.Kind)
	}
	if tpl.Kind != EffectLog && tpl.Formula == "" {
		return fmt.Errorf("%s effect without formula", tpl.Kind)
	}
	for _, name := range tpl.Inputs {
		if !inputs[name] {
			return fmt.Errorf("effect uses undeclared input %q", name)
		}
	}
	return nil
}
