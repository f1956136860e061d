package catalog

import (
	"fmt"
	"time"
)

// UnlimitedTraffic marks plans without a traffic cap.
const UnlimitedTraffic int64 = -1

type PlanStatus string

const (
	PlanStatusEnabled  PlanStatus = "enabled"
	PlanStatusDisabled PlanStatus = "disabled"
)

func (s PlanStatus) IsValid() bool {
	return s == PlanStatusEnabled || s == PlanStatusDisabled
}

// Plan is a purchasable package under a group: a price, a duration, and a
// traffic allowance. Connection and speed limits are inherited from the group.
type Plan struct {
	id                uint
	groupID           uint
	name              string
	description       string
	price             int64
	durationDays      int
	trafficLimitBytes int64
	status            PlanStatus
	isPublic          bool
	sortOrder         int
	createdAt         time.Time
	updatedAt         time.Time
}

// NewPlan creates a plan. price is in cents; trafficLimitBytes < 0 means
// unlimited.
func NewPlan(groupID uint, name, description string, price int64, durationDays int, trafficLimitBytes int64) (*Plan, error) {
	if groupID == 0 {
		return nil, fmt.Errorf("group ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("plan name is required")
	}
	if len(name) > 100 {
		return nil, fmt.Errorf("plan name too long (max 100 characters)")
	}
	if price < 0 {
		return nil, fmt.Errorf("plan price cannot be negative")
	}
	if durationDays <= 0 {
		return nil, fmt.Errorf("plan duration must be positive")
	}
	if trafficLimitBytes < 0 {
		trafficLimitBytes = UnlimitedTraffic
	}

	now := time.Now().UTC()
	return &Plan{
		groupID:           groupID,
		name:              name,
		description:       description,
		price:             price,
		durationDays:      durationDays,
		trafficLimitBytes: trafficLimitBytes,
		status:            PlanStatusEnabled,
		isPublic:          true,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

func ReconstructPlan(id, groupID uint, name, description string, price int64,
	durationDays int, trafficLimitBytes int64, status string, isPublic bool,
	sortOrder int, createdAt, updatedAt time.Time) (*Plan, error) {

	if id == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero")
	}
	st := PlanStatus(status)
	if !st.IsValid() {
		return nil, fmt.Errorf("invalid plan status: %s", status)
	}

	return &Plan{
		id:                id,
		groupID:           groupID,
		name:              name,
		description:       description,
		price:             price,
		durationDays:      durationDays,
		trafficLimitBytes: trafficLimitBytes,
		status:            st,
		isPublic:          isPublic,
		sortOrder:         sortOrder,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}, nil
}

func (p *Plan) ID() uint                 { return p.id }
func (p *Plan) GroupID() uint            { return p.groupID }
func (p *Plan) Name() string             { return p.name }
func (p *Plan) Description() string      { return p.description }
func (p *Plan) Price() int64             { return p.price }
func (p *Plan) DurationDays() int        { return p.durationDays }
func (p *Plan) TrafficLimitBytes() int64 { return p.trafficLimitBytes }
func (p *Plan) Status() PlanStatus       { return p.status }
func (p *Plan) IsPublic() bool           { return p.isPublic }
func (p *Plan) SortOrder() int           { return p.sortOrder }
func (p *Plan) CreatedAt() time.Time     { return p.createdAt }
func (p *Plan) UpdatedAt() time.Time     { return p.updatedAt }

func (p *Plan) SetID(id uint) error {
	if p.id != 0 {
		return fmt.Errorf("plan ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("plan ID cannot be zero")
	}
	p.id = id
	return nil
}

func (p *Plan) IsEnabled() bool {
	return p.status == PlanStatusEnabled
}

func (p *Plan) IsUnlimited() bool {
	return p.trafficLimitBytes < 0
}

// Duration returns the service window a single purchase grants.
func (p *Plan) Duration() time.Duration {
	return time.Duration(p.durationDays) * 24 * time.Hour
}

// PlanUpdate carries optional field changes for a plan.
type PlanUpdate struct {
	Name              *string
	Description       *string
	Price             *int64
	DurationDays      *int
	TrafficLimitBytes *int64
	Status            *string
	IsPublic          *bool
	SortOrder         *int
}

// Apply merges non-nil fields into the plan.
func (p *Plan) Apply(u PlanUpdate) error {
	if u.Name != nil {
		if *u.Name == "" {
			return fmt.Errorf("plan name is required")
		}
		p.name = *u.Name
	}
	if u.Description != nil {
		p.description = *u.Description
	}
	if u.Price != nil {
		if *u.Price < 0 {
			return fmt.Errorf("plan price cannot be negative")
		}
		p.price = *u.Price
	}
	if u.DurationDays != nil {
		if *u.DurationDays <= 0 {
			return fmt.Errorf("plan duration must be positive")
		}
		p.durationDays = *u.DurationDays
	}
	if u.TrafficLimitBytes != nil {
		limit := *u.TrafficLimitBytes
		if limit < 0 {
			limit = UnlimitedTraffic
		}
		p.trafficLimitBytes = limit
	}
	if u.Status != nil {
		st := PlanStatus(*u.Status)
		if !st.IsValid() {
			return fmt.Errorf("invalid plan status: %s", *u.Status)
		}
		p.status = st
	}
	if u.IsPublic != nil {
		p.isPublic = *u.IsPublic
	}
	if u.SortOrder != nil {
		p.sortOrder = *u.SortOrder
	}
	p.updatedAt = time.Now().UTC()
	return nil
}
