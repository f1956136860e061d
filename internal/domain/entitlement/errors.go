package entitlement

import "errors"

var (
	ErrEntitlementNotFound  = errors.New("entitlement not found")
	ErrEntitlementCancelled = errors.New("entitlement cancelled")
	ErrEntitlementNotActive = errors.New("entitlement not active")
)
