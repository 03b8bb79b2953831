package models

import "fmt"

// EffectKind names an effect variant
type EffectKind string

const (
	EffectCurrency EffectKind = "currency"
	EffectItem     EffectKind = "item"
	EffectStat     EffectKind = "stat"
	EffectLog      EffectKind = "log"
)

// Valid reports whether k is a known effect kind
func (k EffectKind) Valid() bool {
	switch k {
	case EffectCurrency, EffectItem, EffectStat, EffectLog:
		return true
	}
	return false
}

// EffectTemplate is an unresolved effect from the catalog. Formula is an
// arithmetic expression over the order's inputs and built-in variables.
type EffectTemplate struct {
	Kind     EffectKind
	Currency Denomination
	Item     string
	Stat     string
	Formula  string
	Text     string
	Inputs   []string
}

// Target returns the currency, item or stat the template changes
func (t EffectTemplate) Target() string {
	switch t.Kind {
	case EffectCurrency:
		return string(t.Currency)
	case EffectItem:
		return t.Item
	case EffectStat:
		return t.Stat
	}
	return ""
}

// Effect is a resolved state change. The set of variants is closed:
// CurrencyEffect, ItemEffect, StatEffect and LogEffect.
type Effect interface {
	Kind() EffectKind
	String() string
	sealed()
}

// CurrencyEffect adds Delta units of Currency to the treasury
type CurrencyEffect struct {
	Currency Denomination
	Delta    int64
}

// ItemEffect adds Delta of Item to the inventory
type ItemEffect struct {
	Item  string
	Delta int64
}

// StatEffect adds Delta to a stronghold stat
type StatEffect struct {
	Stat  string
	Delta int64
}

// LogEffect appends Text to the audit trail verbatim
type LogEffect struct {
	Text string
}

func (CurrencyEffect) Kind() EffectKind { return EffectCurrency }
func (ItemEffect) Kind() EffectKind     { return EffectItem }
func (StatEffect) Kind() EffectKind     { return EffectStat }
func (LogEffect) Kind() EffectKind      { return EffectLog }

func (CurrencyEffect) sealed() {}
func (ItemEffect) sealed()     {}
func (StatEffect) sealed()     {}
func (LogEffect) sealed()      {}

func (e CurrencyEffect) String() string { return fmt.Sprintf("%+d %s", e.Delta, e.Currency) }
func (e ItemEffect) String() string     { return fmt.Sprintf("%+d %s", e.Delta, e.Item) }
func (e StatEffect) String() string     { return fmt.Sprintf("%s %+d", e.Stat, e.Delta) }
func (e LogEffect) String() string      { return e.Text }

// Change is the audit echo of one applied effect with its resolved delta.
// BaseDelta is set for currency changes only.
type Change struct {
	Kind      EffectKind `json:"kind"`
	Target    string     `json:"target,omitempty"`
	Delta     int64      `json:"delta,omitempty"`
	BaseDelta int64      `json:"base_delta,omitempty"`
	Text      string     `json:"text,omitempty"`
}

// String renders the change for log views
func (c Change) String() string {
	switch c.Kind {
	case EffectCurrency, EffectItem:
		return fmt.Sprintf("%+d %s", c.Delta, c.Target)
	case EffectStat:
		return fmt.Sprintf("%s %+d", c.Target, c.Delta)
	}
	return c.Text
}
