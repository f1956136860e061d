package catalog

import "errors"

var (
	ErrPlanGroupNotFound  = errors.New("plan group not found")
	ErrPlanGroupDisabled  = errors.New("plan group disabled")
	ErrGroupKeyExists     = errors.New("group key already exists")
	ErrGroupHasPlans      = errors.New("plan group still has plans")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrPlanDisabled       = errors.New("plan disabled")
	ErrPlanNotPurchasable = errors.New("plan not purchasable")
)
