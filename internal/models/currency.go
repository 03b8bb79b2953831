package models

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Denomination is a currency code such as "gp" or "sp"
type Denomination string

// Wallet holds per-denomination amounts
type Wallet map[Denomination]int64

// Denominations returns the wallet keys in lexical order
func (w Wallet) Denominations() []Denomination {
	keys := make([]Denomination, 0, len(w))
	for d := range w {
		keys = append(keys, d)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// IsZero reports whether every amount in the wallet is zero
func (w Wallet) IsZero() bool {
	for _, v := range w {
		if v != 0 {
			return false
		}
	}
	return true
}

// DenominationDef declares one denomination and how many base units it is worth
type DenominationDef struct {
	Code   Denomination    `json:"code" yaml:"code"`
	Name   string          `json:"name,omitempty" yaml:"name,omitempty"`
	Factor decimal.Decimal `json:"factor_to_base" yaml:"factor_to_base"`
}

// CurrencyModel converts wallets to and from a single base-unit integer.
// Factors are decimals so real-valued conversion rates stay exact.
type CurrencyModel struct {
	types   []Denomination
	factors map[Denomination]decimal.Decimal
	names   map[Denomination]string
}

// NewCurrencyModel builds a model from denomination definitions. Codes must be
// unique and factors strictly positive.
func NewCurrencyModel(defs []DenominationDef) (*CurrencyModel, error) {
	m := &CurrencyModel{
		types:   make([]Denomination, 0, len(defs)),
		factors: make(map[Denomination]decimal.Decimal, len(defs)),
		names:   make(map[Denomination]string, len(defs)),
	}
	for _, def := range defs {
		code := Denomination(strings.TrimSpace(string(def.Code)))
		if code == "" {
			return nil, fmt.Errorf("%w: empty denomination code", ErrInvalidFactor)
		}
		if _, dup := m.factors[code]; dup {
			return nil, fmt.Errorf("%w: duplicate denomination %q", ErrInvalidFactor, code)
		}
		if !def.Factor.IsPositive() {
			return nil, fmt.Errorf("%w: %q has factor %s", ErrInvalidFactor, code, def.Factor)
		}
		m.types = append(m.types, code)
		m.factors[code] = def.Factor
		m.names[code] = def.Name
	}

	// Most valuable first; declaration order breaks ties
	sort.SliceStable(m.types, func(i, j int) bool {
		return m.factors[m.types[i]].GreaterThan(m.factors[m.types[j]])
	})
	return m, nil
}

// Types returns the denomination codes in display order (factor descending)
func (m *CurrencyModel) Types() []Denomination {
	out := make([]Denomination, len(m.types))
	copy(out, m.types)
	return out
}

// Has reports whether the denomination belongs to the model
func (m *CurrencyModel) Has(d Denomination) bool {
	_, ok := m.factors[d]
	return ok
}

// Factor returns the base-unit value of one unit of d
func (m *CurrencyModel) Factor(d Denomination) (decimal.Decimal, bool) {
	f, ok := m.factors[d]
	return f, ok
}

// Name returns the display name of d, falling back to the code
func (m *CurrencyModel) Name(d Denomination) string {
	if n := m.names[d]; n != "" {
		return n
	}
	return string(d)
}

// ToBase converts a wallet into base units
func (m *CurrencyModel) ToBase(w Wallet) (int64, error) {
	total := decimal.Zero
	for _, d := range w.Denominations() {
		f, ok := m.factors[d]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownDenomination, d)
		}
		total = total.Add(f.Mul(decimal.NewFromInt(w[d])))
	}
	if !total.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrFractionalBase, total.String())
	}
	return BaseAmount(total)
}

var (
	minBase = decimal.NewFromInt(math.MinInt64)
	maxBase = decimal.NewFromInt(math.MaxInt64)
)

// BaseAmount converts a whole number of base units to int64, rejecting
// values that do not fit
func BaseAmount(d decimal.Decimal) (int64, error) {
	if d.LessThan(minBase) || d.GreaterThan(maxBase) {
		return 0, fmt.Errorf("%w: %s base units", ErrAmountOverflow, d.String())
	}
	return d.IntPart(), nil
}

// AmountToBase converts a single signed amount of d into base units
func (m *CurrencyModel) AmountToBase(d Denomination, amount int64) (int64, error) {
	return m.ToBase(Wallet{d: amount})
}

// FromBase expresses base using the given denominations, largest factor first.
// It returns the wallet and the base units that could not be distributed
// (truncated toward zero). When the remainder is non-zero the wallet is a
// lossy display projection and must never be used to deduct funds.
func (m *CurrencyModel) FromBase(base int64, order []Denomination) (Wallet, int64, error) {
	ds := make([]Denomination, 0, len(order))
	for _, d := range order {
		if !m.Has(d) {
			return nil, 0, fmt.Errorf("%w: %q", ErrUnknownDenomination, d)
		}
		ds = append(ds, d)
	}
	sort.SliceStable(ds, func(i, j int) bool {
		return m.factors[ds[i]].GreaterThan(m.factors[ds[j]])
	})

	sign := int64(1)
	if base < 0 {
		sign = -1
		base = -base
	}

	w := Wallet{}
	remaining := decimal.NewFromInt(base)
	for _, d := range ds {
		q, r := remaining.QuoRem(m.factors[d], 0)
		if q.IsZero() {
			continue
		}
		w[d] = sign * q.IntPart()
		remaining = r
	}
	return w, sign * remaining.IntPart(), nil
}

// Format renders base as a display string using every denomination
func (m *CurrencyModel) Format(base int64) string {
	w, rem, err := m.FromBase(base, m.types)
	if err != nil {
		return fmt.Sprintf("%d", base)
	}
	return m.FormatWallet(w) + formatRemainder(rem)
}

// FormatWallet renders a wallet in display order, e.g. "3 gp 4 sp"
func (m *CurrencyModel) FormatWallet(w Wallet) string {
	var parts []string
	for _, d := range m.types {
		if v := w[d]; v != 0 {
			parts = append(parts, fmt.Sprintf("%d %s", v, d))
		}
	}
	// Unknown codes last, so nothing is silently dropped from display
	for _, d := range w.Denominations() {
		if !m.Has(d) && w[d] != 0 {
			parts = append(parts, fmt.Sprintf("%d %s", w[d], d))
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " ")
}

func formatRemainder(rem int64) string {
	if rem == 0 {
		return ""
	}
	return fmt.Sprintf(" (%+d base)", rem)
}
