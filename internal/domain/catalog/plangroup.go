package catalog

import (
	"fmt"
	"time"
)

// GroupStatus represents whether a plan group is open for business.
type GroupStatus string

const (
	GroupStatusEnabled  GroupStatus = "enabled"
	GroupStatusDisabled GroupStatus = "disabled"
)

func (s GroupStatus) IsValid() bool {
	return s == GroupStatusEnabled || s == GroupStatusDisabled
}

// PlanGroup is a tier of service. Level orders groups for upgrade and
// downgrade decisions; exclusive groups do not coexist with entitlements in
// other exclusive groups.
type PlanGroup struct {
	id             uint
	groupKey       string
	name           string
	level          int
	isExclusive    bool
	status         GroupStatus
	isPublic       bool
	sortOrder      int
	connections    int
	speedLimitMbps int
	createdAt      time.Time
	updatedAt      time.Time
}

func NewPlanGroup(groupKey, name string, level int, isExclusive bool, connections, speedLimitMbps int) (*PlanGroup, error) {
	if groupKey == "" {
		return nil, fmt.Errorf("group key is required")
	}
	if len(groupKey) > 64 {
		return nil, fmt.Errorf("group key too long (max 64 characters)")
	}
	if name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if level < 0 {
		return nil, fmt.Errorf("group level cannot be negative")
	}
	if connections < 0 || speedLimitMbps < 0 {
		return nil, fmt.Errorf("connection and speed limits cannot be negative")
	}

	now := time.Now().UTC()
	return &PlanGroup{
		groupKey:       groupKey,
		name:           name,
		level:          level,
		isExclusive:    isExclusive,
		status:         GroupStatusEnabled,
		isPublic:       true,
		connections:    connections,
		speedLimitMbps: speedLimitMbps,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func ReconstructPlanGroup(id uint, groupKey, name string, level int, isExclusive bool,
	status string, isPublic bool, sortOrder, connections, speedLimitMbps int,
	createdAt, updatedAt time.Time) (*PlanGroup, error) {

	if id == 0 {
		return nil, fmt.Errorf("plan group ID cannot be zero")
	}
	st := GroupStatus(status)
	if !st.IsValid() {
		return nil, fmt.Errorf("invalid plan group status: %s", status)
	}

	return &PlanGroup{
		id:             id,
		groupKey:       groupKey,
		name:           name,
		level:          level,
		isExclusive:    isExclusive,
		status:         st,
		isPublic:       isPublic,
		sortOrder:      sortOrder,
		connections:    connections,
		speedLimitMbps: speedLimitMbps,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

func (g *PlanGroup) ID() uint             { return g.id }
func (g *PlanGroup) GroupKey() string     { return g.groupKey }
func (g *PlanGroup) Name() string         { return g.name }
func (g *PlanGroup) Level() int           { return g.level }
func (g *PlanGroup) IsExclusive() bool    { return g.isExclusive }
func (g *PlanGroup) Status() GroupStatus  { return g.status }
func (g *PlanGroup) IsPublic() bool       { return g.isPublic }
func (g *PlanGroup) SortOrder() int       { return g.sortOrder }
func (g *PlanGroup) Connections() int     { return g.connections }
func (g *PlanGroup) SpeedLimitMbps() int  { return g.speedLimitMbps }
func (g *PlanGroup) CreatedAt() time.Time { return g.createdAt }
func (g *PlanGroup) UpdatedAt() time.Time { return g.updatedAt }

func (g *PlanGroup) SetID(id uint) error {
	if g.id != 0 {
		return fmt.Errorf("plan group ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("plan group ID cannot be zero")
	}
	g.id = id
	return nil
}

func (g *PlanGroup) IsEnabled() bool {
	return g.status == GroupStatusEnabled
}

// GroupUpdate carries optional field changes for a plan group.
type GroupUpdate struct {
	Name           *string
	Level          *int
	IsExclusive    *bool
	Status         *string
	IsPublic       *bool
	SortOrder      *int
	Connections    *int
	SpeedLimitMbps *int
}

// Apply merges non-nil fields into the group.
func (g *PlanGroup) Apply(u GroupUpdate) error {
	if u.Name != nil {
		if *u.Name == "" {
			return fmt.Errorf("group name is required")
		}
		g.name = *u.Name
	}
	if u.Level != nil {
		if *u.Level < 0 {
			return fmt.Errorf("group level cannot be negative")
		}
		g.level = *u.Level
	}
	if u.IsExclusive != nil {
		g.isExclusive = *u.IsExclusive
	}
	if u.Status != nil {
		st := GroupStatus(*u.Status)
		if !st.IsValid() {
			return fmt.Errorf("invalid plan group status: %s", *u.Status)
		}
		g.status = st
	}
	if u.IsPublic != nil {
		g.isPublic = *u.IsPublic
	}
	if u.SortOrder != nil {
		g.sortOrder = *u.SortOrder
	}
	if u.Connections != nil {
		if *u.Connections < 0 {
			return fmt.Errorf("connection limit cannot be negative")
		}
		g.connections = *u.Connections
	}
	if u.SpeedLimitMbps != nil {
		if *u.SpeedLimitMbps < 0 {
			return fmt.Errorf("speed limit cannot be negative")
		}
		g.speedLimitMbps = *u.SpeedLimitMbps
	}
	g.updatedAt = time.Now().UTC()
	return nil
}
