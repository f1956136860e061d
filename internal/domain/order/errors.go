package order

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderAlreadyPaid = errors.New("order already paid")
	ErrOrderCancelled   = errors.New("order cancelled")
	ErrPendingExists    = errors.New("pending order exists")
)
