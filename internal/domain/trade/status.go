package trade

// SaleStatus represents the lifecycle state of a sale
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusOnHold    SaleStatus = "on_hold"
	SaleStatusCancelled SaleStatus = "cancelled"
	SaleStatusRefunded  SaleStatus = "refunded"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusPending, SaleStatusCompleted, SaleStatusOnHold, SaleStatusCancelled, SaleStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	switch s {
	case SaleStatusPending:
		return target == SaleStatusCompleted || target == SaleStatusOnHold || target == SaleStatusCancelled
	case SaleStatusOnHold:
		return target == SaleStatusPending || target == SaleStatusCancelled
	case SaleStatusCompleted:
		return target == SaleStatusRefunded
	case SaleStatusCancelled, SaleStatusRefunded:
		return false // Terminal states
	}
	return false
}

// ReturnStatus represents the approval state of a sale return
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusApproved ReturnStatus = "approved"
	ReturnStatusRejected ReturnStatus = "rejected"
)

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	return s == ReturnStatusPending || s == ReturnStatusApproved || s == ReturnStatusRejected
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	return s == ReturnStatusPending && (target == ReturnStatusApproved || target == ReturnStatusRejected)
}
