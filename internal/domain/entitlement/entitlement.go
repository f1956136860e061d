package entitlement

import (
	"fmt"
	"time"
)

// UnlimitedTraffic is the sentinel for entitlements without a traffic cap.
const UnlimitedTraffic int64 = -1

// Status represents the lifecycle state of an entitlement.
// Transitions are forward-only: active -> expired/exhausted/cancelled.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusExhausted Status = "exhausted"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusExhausted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// Entitlement is the ledger row recording what a user paid for: the service
// window, the traffic allowance, and the cumulative amount contributed by
// orders. There is at most one active row per (user, group, plan).
type Entitlement struct {
	id                uint
	userID            uint
	groupID           uint
	planID            uint
	status            Status
	originalStartAt   time.Time
	originalExpireAt  time.Time
	serviceStartAt    time.Time
	serviceExpireAt   time.Time
	trafficTotalBytes int64
	trafficUsedBytes  int64
	totalAmount       int64
	cancelReason      string
	cancelledAt       *time.Time
	lastOrderID       uint
	createdAt         time.Time
	updatedAt         time.Time
}

// NewEntitlement creates a fresh active entitlement for a paid order.
// trafficTotalBytes < 0 means unlimited and is normalized to UnlimitedTraffic.
func NewEntitlement(userID, groupID, planID uint, start, expire time.Time, trafficTotalBytes, amount int64, orderID uint) (*Entitlement, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if groupID == 0 {
		return nil, fmt.Errorf("group ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !expire.After(start) {
		return nil, fmt.Errorf("expire time must be after start time")
	}
	if amount < 0 {
		return nil, fmt.Errorf("amount cannot be negative")
	}
	if trafficTotalBytes < 0 {
		trafficTotalBytes = UnlimitedTraffic
	}

	now := time.Now().UTC()
	return &Entitlement{
		userID:            userID,
		groupID:           groupID,
		planID:            planID,
		status:            StatusActive,
		originalStartAt:   start,
		originalExpireAt:  expire,
		serviceStartAt:    start,
		serviceExpireAt:   expire,
		trafficTotalBytes: trafficTotalBytes,
		trafficUsedBytes:  0,
		totalAmount:       amount,
		lastOrderID:       orderID,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructEntitlement reconstructs an entitlement from persistence.
func ReconstructEntitlement(
	id, userID, groupID, planID uint,
	status string,
	originalStartAt, originalExpireAt, serviceStartAt, serviceExpireAt time.Time,
	trafficTotalBytes, trafficUsedBytes, totalAmount int64,
	cancelReason string,
	cancelledAt *time.Time,
	lastOrderID uint,
	createdAt, updatedAt time.Time,
) (*Entitlement, error) {
	if id == 0 {
		return nil, fmt.Errorf("entitlement ID cannot be zero")
	}
	st := Status(status)
	if !st.IsValid() {
		return nil, fmt.Errorf("invalid entitlement status: %s", status)
	}

	return &Entitlement{
		id:                id,
		userID:            userID,
		groupID:           groupID,
		planID:            planID,
		status:            st,
		originalStartAt:   originalStartAt,
		originalExpireAt:  originalExpireAt,
		serviceStartAt:    serviceStartAt,
		serviceExpireAt:   serviceExpireAt,
		trafficTotalBytes: trafficTotalBytes,
		trafficUsedBytes:  trafficUsedBytes,
		totalAmount:       totalAmount,
		cancelReason:      cancelReason,
		cancelledAt:       cancelledAt,
		lastOrderID:       lastOrderID,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}, nil
}

func (e *Entitlement) ID() uint                    { return e.id }
func (e *Entitlement) UserID() uint                { return e.userID }
func (e *Entitlement) GroupID() uint               { return e.groupID }
func (e *Entitlement) PlanID() uint                { return e.planID }
func (e *Entitlement) Status() Status              { return e.status }
func (e *Entitlement) OriginalStartAt() time.Time  { return e.originalStartAt }
func (e *Entitlement) OriginalExpireAt() time.Time { return e.originalExpireAt }
func (e *Entitlement) ServiceStartAt() time.Time   { return e.serviceStartAt }
func (e *Entitlement) ServiceExpireAt() time.Time  { return e.serviceExpireAt }
func (e *Entitlement) TrafficTotalBytes() int64    { return e.trafficTotalBytes }
func (e *Entitlement) TrafficUsedBytes() int64     { return e.trafficUsedBytes }
func (e *Entitlement) TotalAmount() int64          { return e.totalAmount }
func (e *Entitlement) CancelReason() string        { return e.cancelReason }
func (e *Entitlement) CancelledAt() *time.Time     { return e.cancelledAt }
func (e *Entitlement) LastOrderID() uint           { return e.lastOrderID }
func (e *Entitlement) CreatedAt() time.Time        { return e.createdAt }
func (e *Entitlement) UpdatedAt() time.Time        { return e.updatedAt }

// SetID sets the entitlement ID (for persistence layer)
func (e *Entitlement) SetID(id uint) error {
	if e.id != 0 {
		return fmt.Errorf("entitlement ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("entitlement ID cannot be zero")
	}
	e.id = id
	return nil
}

// IsUnlimited reports whether the entitlement has no traffic cap.
func (e *Entitlement) IsUnlimited() bool {
	return e.trafficTotalBytes < 0
}

// IsUsable reports whether the entitlement can carry traffic right now:
// active, within the service window, with headroom left.
func (e *Entitlement) IsUsable(now time.Time) bool {
	if e.status != StatusActive {
		return false
	}
	if !e.serviceExpireAt.After(now) {
		return false
	}
	if e.IsUnlimited() {
		return true
	}
	return e.trafficUsedBytes < e.trafficTotalBytes
}

// Stack applies another purchase of the same plan to an active entitlement.
// The new expiry is the later of the current expiry and paidAt+duration, so a
// renewal before the window ends does not compound: traffic accumulates, time
// does not. Only active rows stack; expired and exhausted are forward-only.
func (e *Entitlement) Stack(duration time.Duration, trafficBytes, amount int64, orderID uint, now time.Time) error {
	if e.status == StatusCancelled {
		return ErrEntitlementCancelled
	}
	if e.status != StatusActive {
		return ErrEntitlementNotActive
	}
	if duration <= 0 {
		return fmt.Errorf("stack duration must be positive")
	}
	if amount < 0 {
		return fmt.Errorf("amount cannot be negative")
	}

	if candidate := now.Add(duration); candidate.After(e.serviceExpireAt) {
		e.serviceExpireAt = candidate
	}
	if e.originalExpireAt.Before(e.serviceExpireAt) {
		e.originalExpireAt = e.serviceExpireAt
	}

	if trafficBytes < 0 {
		e.trafficTotalBytes = UnlimitedTraffic
	} else if !e.IsUnlimited() {
		e.trafficTotalBytes += trafficBytes
	}

	e.totalAmount += amount
	e.lastOrderID = orderID
	e.recomputeStatus(now)
	e.updatedAt = now
	return nil
}

// Extend pushes the service expiry forward by duration without touching the
// traffic allowance. Used for signin rewards.
func (e *Entitlement) Extend(duration time.Duration, now time.Time) error {
	if e.status != StatusActive {
		return ErrEntitlementNotActive
	}
	if duration <= 0 {
		return fmt.Errorf("extend duration must be positive")
	}
	base := e.serviceExpireAt
	if base.Before(now) {
		base = now
	}
	e.serviceExpireAt = base.Add(duration)
	if e.originalExpireAt.Before(e.serviceExpireAt) {
		e.originalExpireAt = e.serviceExpireAt
	}
	e.updatedAt = now
	return nil
}

// Cancel terminates the entitlement immediately. deductBytes is withdrawn
// from the allowance, flooring at the bytes already used; deductAmount is
// subtracted from the cumulative amount, flooring at zero.
func (e *Entitlement) Cancel(reason string, deductBytes, deductAmount int64, now time.Time) error {
	if e.status == StatusCancelled {
		return ErrEntitlementCancelled
	}
	e.status = StatusCancelled
	e.serviceExpireAt = now
	if deductBytes > 0 && !e.IsUnlimited() {
		remaining := e.trafficTotalBytes - deductBytes
		if remaining < e.trafficUsedBytes {
			remaining = e.trafficUsedBytes
		}
		e.trafficTotalBytes = remaining
	}
	if deductAmount > 0 {
		remaining := e.totalAmount - deductAmount
		if remaining < 0 {
			remaining = 0
		}
		e.totalAmount = remaining
	}
	e.cancelReason = reason
	cancelled := now
	e.cancelledAt = &cancelled
	e.updatedAt = now
	return nil
}

// Deduct removes service days and traffic allowance for a partial
// unsubscribe. The allowance floors at the bytes already used; the status is
// recomputed afterwards, so a deduction that empties the window cancels the
// entitlement and one that removes all headroom exhausts it. Callers validate
// the deduction against the remaining balance beforehand; Deduct does not
// clamp.
func (e *Entitlement) Deduct(days int, trafficBytes, deductAmount int64, reason string, now time.Time) error {
	if e.status == StatusCancelled {
		return ErrEntitlementCancelled
	}
	if days < 0 || trafficBytes < 0 {
		return fmt.Errorf("deduction cannot be negative")
	}

	if days > 0 {
		e.serviceExpireAt = e.serviceExpireAt.Add(-time.Duration(days) * 24 * time.Hour)
	}
	if trafficBytes > 0 && !e.IsUnlimited() {
		remaining := e.trafficTotalBytes - trafficBytes
		if remaining < e.trafficUsedBytes {
			remaining = e.trafficUsedBytes
		}
		e.trafficTotalBytes = remaining
	}
	if deductAmount > 0 {
		remaining := e.totalAmount - deductAmount
		if remaining < 0 {
			remaining = 0
		}
		e.totalAmount = remaining
	}

	if !e.serviceExpireAt.After(now) {
		e.status = StatusCancelled
		e.serviceExpireAt = now
		e.cancelReason = reason
		cancelled := now
		e.cancelledAt = &cancelled
	} else {
		e.recomputeStatus(now)
	}
	e.updatedAt = now
	return nil
}

// Consume charges up to bytes against the remaining headroom and returns how
// much was actually consumed. A finite entitlement flips to exhausted the
// moment its headroom reaches zero.
func (e *Entitlement) Consume(bytes int64, now time.Time) int64 {
	if bytes <= 0 || e.status != StatusActive {
		return 0
	}
	if e.IsUnlimited() {
		e.trafficUsedBytes += bytes
		e.updatedAt = now
		return bytes
	}
	headroom := e.trafficTotalBytes - e.trafficUsedBytes
	if headroom <= 0 {
		e.status = StatusExhausted
		return 0
	}
	take := bytes
	if take > headroom {
		take = headroom
	}
	e.trafficUsedBytes += take
	if e.trafficUsedBytes >= e.trafficTotalBytes {
		e.status = StatusExhausted
	}
	e.updatedAt = now
	return take
}

// RemainingBytes returns the unused allowance, or UnlimitedTraffic for
// uncapped entitlements.
func (e *Entitlement) RemainingBytes() int64 {
	if e.IsUnlimited() {
		return UnlimitedTraffic
	}
	remaining := e.trafficTotalBytes - e.trafficUsedBytes
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingDays returns whole days left in the service window, clamped at zero.
func (e *Entitlement) RemainingDays(now time.Time) int {
	if !e.serviceExpireAt.After(now) {
		return 0
	}
	return int(e.serviceExpireAt.Sub(now) / (24 * time.Hour))
}

// recomputeStatus settles the active/expired/exhausted distinction after a
// mutation. Cancelled is terminal and never revisited here.
func (e *Entitlement) recomputeStatus(now time.Time) {
	if e.status == StatusCancelled {
		return
	}
	switch {
	case !e.serviceExpireAt.After(now):
		e.status = StatusExpired
	case !e.IsUnlimited() && e.trafficUsedBytes >= e.trafficTotalBytes:
		e.status = StatusExhausted
	default:
		e.status = StatusActive
	}
}
