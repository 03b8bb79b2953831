package models

import "errors"

// Rule violations returned by the engine. Match them with errors.Is; callers
// get extra context through wrapping.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInsufficientItems      = errors.New("insufficient items")
	ErrFacilitySlotsFull      = errors.New("facility has no free npc slot")
	ErrProfessionNotAllowed   = errors.New("profession not allowed at facility")
	ErrAlreadyOwned           = errors.New("facility already owned")
	ErrAlreadyUpgrading       = errors.New("facility is already upgrading")
	ErrNoUpgradeAvailable     = errors.New("no upgrade available")
	ErrOrderAlreadyActive     = errors.New("order already active")
	ErrNoEligibleStaff        = errors.New("no eligible staff")
	ErrNpcHasActiveOrder      = errors.New("npc is committed to an active order")
	ErrFacilityHasActiveOrder = errors.New("facility has an active order")
	ErrFormulaInputsMissing   = errors.New("formula inputs missing")
	ErrInvalidCheckValue      = errors.New("invalid check value")
	ErrInvalidNumericInput    = errors.New("invalid numeric input")
	ErrUnknownDenomination    = errors.New("unknown denomination")
	ErrInvalidLevel           = errors.New("invalid npc level")
)

// Lookup and lifecycle errors
var (
	ErrUnknownFacility  = errors.New("unknown facility")
	ErrUnknownNpc       = errors.New("unknown npc")
	ErrUnknownOrder     = errors.New("unknown order")
	ErrFacilityNotReady = errors.New("facility is still being built")
	ErrOrderNotReady    = errors.New("order is not ready")
	ErrFractionalBase   = errors.New("amount does not convert to a whole number of base units")
	ErrInvalidFactor    = errors.New("denomination factor must be positive")
	ErrInvalidCatalog   = errors.New("invalid catalog")
	ErrAmountOverflow   = errors.New("amount out of range")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInsufficientFunds, "InsufficientFunds"},
	{ErrInsufficientItems, "InsufficientItems"},
	{ErrFacilitySlotsFull, "FacilitySlotsFull"},
	{ErrProfessionNotAllowed, "ProfessionNotAllowed"},
	{ErrAlreadyOwned, "AlreadyOwned"},
	{ErrAlreadyUpgrading, "AlreadyUpgrading"},
	{ErrNoUpgradeAvailable, "NoUpgradeAvailable"},
	{ErrOrderAlreadyActive, "OrderAlreadyActive"},
	{ErrNoEligibleStaff, "NoEligibleStaff"},
	{ErrNpcHasActiveOrder, "NpcHasActiveOrder"},
	{ErrFacilityHasActiveOrder, "FacilityHasActiveOrder"},
	{ErrFormulaInputsMissing, "FormulaInputsMissing"},
	{ErrInvalidCheckValue, "InvalidCheckValue"},
	{ErrInvalidNumericInput, "InvalidNumericInput"},
	{ErrUnknownDenomination, "UnknownDenomination"},
	{ErrInvalidLevel, "InvalidLevel"},
	{ErrUnknownFacility, "UnknownFacility"},
	{ErrUnknownNpc, "UnknownNpc"},
	{ErrUnknownOrder, "UnknownOrder"},
	{ErrFacilityNotReady, "FacilityNotReady"},
	{ErrOrderNotReady, "OrderNotReady"},
	{ErrFractionalBase, "FractionalBase"},
	{ErrInvalidFactor, "InvalidFactor"},
	{ErrInvalidCatalog, "InvalidCatalog"},
	{ErrAmountOverflow, "AmountOverflow"},
}

// ErrorKind returns the stable taxonomy name of err, or "" if err is not an
// engine error.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}
