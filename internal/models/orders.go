package models

// OrderStatus is the lifecycle state of an order instance
type OrderStatus string

const (
	OrderInProgress OrderStatus = "in_progress"
	OrderReady      OrderStatus = "ready"
	OrderResolved   OrderStatus = "resolved"
)

// Active reports whether the order still holds its staff
func (s OrderStatus) Active() bool {
	return s == OrderInProgress || s == OrderReady
}

// OrderInstance tracks one running order on a facility
type OrderInstance struct {
	OrderID       string             `json:"order_id"`
	DefinitionID  string             `json:"definition_id"` // facility definition the order was started from
	Status        OrderStatus        `json:"status"`
	Progress      int                `json:"progress"`
	Staff         []string           `json:"staff,omitempty"` // committed NPC ids
	StartedTurn   int                `json:"started_turn"`
	Roll          *int               `json:"roll,omitempty"`
	Bucket        Bucket             `json:"bucket,omitempty"`
	BucketUnknown bool               `json:"bucket_unknown,omitempty"`
	Inputs        map[string]float64 `json:"inputs,omitempty"`
	Pending       []string           `json:"pending,omitempty"` // input names still required
}

// NewOrderInstance creates a fresh in-progress order
func NewOrderInstance(definitionID, orderID string, staff []string, turn int) *OrderInstance {
	return &OrderInstance{
		OrderID:      orderID,
		DefinitionID: definitionID,
		Status:       OrderInProgress,
		Staff:        staff,
		StartedTurn:  turn,
	}
}

// Commits reports whether npcID is staffing this order
func (oi *OrderInstance) Commits(npcID string) bool {
	if !oi.Status.Active() {
		return false
	}
	for _, id := range oi.Staff {
		if id == npcID {
			return true
		}
	}
	return false
}

// HasPending reports whether inputs are still required before resolution
func (oi *OrderInstance) HasPending() bool {
	return len(oi.Pending) > 0
}

// Recycle resets a resolved repeatable order to a fresh run with the same staff
func (oi *OrderInstance) Recycle(turn int) {
	oi.Status = OrderInProgress
	oi.Progress = 0
	oi.StartedTurn = turn
	oi.Roll = nil
	oi.Bucket = ""
	oi.BucketUnknown = false
	oi.Inputs = nil
	oi.Pending = nil
}

// BuildState tells whether a facility is idle, being built or upgrading
type BuildState string

const (
	BuildNone      BuildState = "none"
	BuildBuilding  BuildState = "building"
	BuildUpgrading BuildState = "upgrading"
)

// BuildStatus is the construction state of a facility instance
type BuildStatus struct {
	State          BuildState `json:"status"`
	TargetID       string     `json:"target_id,omitempty"`
	RemainingTurns int        `json:"remaining_turns,omitempty"`
}

// FacilityInstance is a built (or building) facility in a session
type FacilityInstance struct {
	ID           string           `json:"id"`
	FacilityID   string           `json:"facility_id"`
	AssignedNPCs []string         `json:"assigned_npcs"`
	Build        BuildStatus      `json:"build_status"`
	Orders       []*OrderInstance `json:"current_orders,omitempty"`
}

// Operational reports whether construction has finished. Upgrading
// facilities keep operating.
func (f *FacilityInstance) Operational() bool {
	return f.Build.State != BuildBuilding
}

// HasNPC reports whether npcID is assigned here
func (f *FacilityInstance) HasNPC(npcID string) bool {
	for _, id := range f.AssignedNPCs {
		if id == npcID {
			return true
		}
	}
	return false
}

// RemoveNPC drops npcID from the assignment list
func (f *FacilityInstance) RemoveNPC(npcID string) {
	out := f.AssignedNPCs[:0]
	for _, id := range f.AssignedNPCs {
		if id != npcID {
			out = append(out, id)
		}
	}
	f.AssignedNPCs = out
}

// FreeSlots returns the number of unassigned slots given the definition
func (f *FacilityInstance) FreeSlots(def *FacilityDefinition) int {
	free := def.NpcSlots - len(f.AssignedNPCs)
	if free < 0 {
		return 0
	}
	return free
}

// Order returns the instance of orderID on this facility, or nil
func (f *FacilityInstance) Order(orderID string) *OrderInstance {
	for _, oi := range f.Orders {
		if oi.OrderID == orderID {
			return oi
		}
	}
	return nil
}

// RemoveOrder drops the instance of orderID
func (f *FacilityInstance) RemoveOrder(orderID string) {
	out := f.Orders[:0]
	for _, oi := range f.Orders {
		if oi.OrderID != orderID {
			out = append(out, oi)
		}
	}
	f.Orders = out
}

// HasActiveOrders reports whether any order is in progress or ready
func (f *FacilityInstance) HasActiveOrders() bool {
	for _, oi := range f.Orders {
		if oi.Status.Active() {
			return true
		}
	}
	return false
}

// Committed reports whether npcID staffs an active order here
func (f *FacilityInstance) Committed(npcID string) bool {
	for _, oi := range f.Orders {
		if oi.Commits(npcID) {
			return true
		}
	}
	return false
}
