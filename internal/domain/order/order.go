package order

import (
	"fmt"
	"math/rand"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	default:
		return false
	}
}

type Type string

const (
	TypePurchase    Type = "purchase"
	TypeUnsubscribe Type = "unsubscribe"
	TypeUpgrade     Type = "upgrade"
	TypeSignin      Type = "signin"
)

func (t Type) IsValid() bool {
	switch t {
	case TypePurchase, TypeUnsubscribe, TypeUpgrade, TypeSignin:
		return true
	default:
		return false
	}
}

// PayWindow is how long a pending purchase order stays payable before it is
// treated as expired for display.
const PayWindow = 30 * time.Minute

const maxRemarkLength = 255

// Order is an immutable-once-paid record of a billing event. Unsubscribe
// orders carry negative duration and traffic deltas.
type Order struct {
	id           uint
	userID       uint
	planID       uint
	orderNo      string
	amount       int64
	payMethod    string
	status       Status
	orderType    Type
	durationDays int
	trafficBytes int64
	remark       string
	createdAt    time.Time
	paidAt       *time.Time
}

// NewOrder creates a pending order. Negative amounts are only meaningful for
// unsubscribe records, which are created already paid by ReconstructOrder
// callers or marked paid immediately.
func NewOrder(userID, planID uint, orderType Type, amount int64, durationDays int, trafficBytes int64, remark string) (*Order, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if planID == 0 {
		return nil, fmt.Errorf("plan ID is required")
	}
	if !orderType.IsValid() {
		return nil, fmt.Errorf("invalid order type: %s", orderType)
	}
	if len(remark) > maxRemarkLength {
		return nil, fmt.Errorf("remark too long (max %d characters)", maxRemarkLength)
	}

	return &Order{
		userID:       userID,
		planID:       planID,
		orderNo:      GenerateOrderNo(orderType),
		amount:       amount,
		status:       StatusPending,
		orderType:    orderType,
		durationDays: durationDays,
		trafficBytes: trafficBytes,
		remark:       remark,
		createdAt:    time.Now().UTC(),
	}, nil
}

func ReconstructOrder(id, userID, planID uint, orderNo string, amount int64,
	payMethod, status, orderType string, durationDays int, trafficBytes int64,
	remark string, createdAt time.Time, paidAt *time.Time) (*Order, error) {

	if id == 0 {
		return nil, fmt.Errorf("order ID cannot be zero")
	}
	st := Status(status)
	if !st.IsValid() {
		return nil, fmt.Errorf("invalid order status: %s", status)
	}
	ot := Type(orderType)
	if !ot.IsValid() {
		return nil, fmt.Errorf("invalid order type: %s", orderType)
	}

	return &Order{
		id:           id,
		userID:       userID,
		planID:       planID,
		orderNo:      orderNo,
		amount:       amount,
		payMethod:    payMethod,
		status:       st,
		orderType:    ot,
		durationDays: durationDays,
		trafficBytes: trafficBytes,
		remark:       remark,
		createdAt:    createdAt,
		paidAt:       paidAt,
	}, nil
}

func (o *Order) ID() uint             { return o.id }
func (o *Order) UserID() uint         { return o.userID }
func (o *Order) PlanID() uint         { return o.planID }
func (o *Order) OrderNo() string      { return o.orderNo }
func (o *Order) Amount() int64        { return o.amount }
func (o *Order) PayMethod() string    { return o.payMethod }
func (o *Order) Status() Status       { return o.status }
func (o *Order) OrderType() Type      { return o.orderType }
func (o *Order) DurationDays() int    { return o.durationDays }
func (o *Order) TrafficBytes() int64  { return o.trafficBytes }
func (o *Order) Remark() string       { return o.remark }
func (o *Order) CreatedAt() time.Time { return o.createdAt }
func (o *Order) PaidAt() *time.Time   { return o.paidAt }

func (o *Order) SetID(id uint) error {
	if o.id != 0 {
		return fmt.Errorf("order ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("order ID cannot be zero")
	}
	o.id = id
	return nil
}

// PayExpireAt returns when a pending purchase order stops being payable.
func (o *Order) PayExpireAt() time.Time {
	return o.createdAt.Add(PayWindow)
}

// IsPayExpired reports whether a pending purchase order has outlived its
// payment window.
func (o *Order) IsPayExpired(now time.Time) bool {
	return o.status == StatusPending && now.After(o.PayExpireAt())
}

// MarkPaid transitions pending -> paid. Paid and cancelled are terminal.
func (o *Order) MarkPaid(payMethod string, now time.Time) error {
	if o.status == StatusPaid {
		return ErrOrderAlreadyPaid
	}
	if o.status == StatusCancelled {
		return ErrOrderCancelled
	}
	o.status = StatusPaid
	o.payMethod = payMethod
	paid := now
	o.paidAt = &paid
	return nil
}

// Cancel transitions pending -> cancelled.
func (o *Order) Cancel() error {
	if o.status == StatusPaid {
		return ErrOrderAlreadyPaid
	}
	if o.status == StatusCancelled {
		return ErrOrderCancelled
	}
	o.status = StatusCancelled
	return nil
}

// ForceCancel cancels regardless of pending state; only already-cancelled
// orders are rejected. Admin use.
func (o *Order) ForceCancel() error {
	if o.status == StatusCancelled {
		return ErrOrderCancelled
	}
	o.status = StatusCancelled
	return nil
}

// GenerateOrderNo builds a unique-enough order number: type prefix, epoch
// milliseconds, and a random 4-digit suffix.
func GenerateOrderNo(orderType Type) string {
	prefix := "ORD"
	switch orderType {
	case TypeUnsubscribe:
		prefix = "UNSUB"
	case TypeSignin:
		prefix = "SIGNIN"
	case TypeUpgrade:
		prefix = "UPG"
	}
	return fmt.Sprintf("%s%d%04d", prefix, time.Now().UnixMilli(), rand.Intn(10000))
}
