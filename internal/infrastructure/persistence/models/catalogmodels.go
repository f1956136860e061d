package models

import (
	"time"

	"meridian/internal/shared/constants"
)

// PlanGroupModel is the persistence model for plan groups.
type PlanGroupModel struct {
	ID             uint   `gorm:"primarykey"`
	GroupKey       string `gorm:"not null;size:64;uniqueIndex"`
	Name           string `gorm:"not null;size:100"`
	Level          int    `gorm:"not null;default:0;index"`
	IsExclusive    bool   `gorm:"not null;default:false"`
	Status         string `gorm:"not null;size:20;default:enabled"`
	IsPublic       bool   `gorm:"not null;default:true"`
	SortOrder      int    `gorm:"not null;default:0"`
	Connections    int    `gorm:"not null;default:0"`
	SpeedLimitMbps int    `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (PlanGroupModel) TableName() string {
	return constants.TablePlanGroups
}

// PlanModel is the persistence model for plans. Price is in cents; a negative
// traffic limit means unlimited.
type PlanModel struct {
	ID                uint   `gorm:"primarykey"`
	GroupID           uint   `gorm:"not null;index"`
	Name              string `gorm:"not null;size:100"`
	Description       string `gorm:"size:500"`
	Price             int64  `gorm:"not null;default:0"`
	DurationDays      int    `gorm:"not null"`
	TrafficLimitBytes int64  `gorm:"not null;default:0"`
	Status            string `gorm:"not null;size:20;default:enabled"`
	IsPublic          bool   `gorm:"not null;default:true"`
	SortOrder         int    `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (PlanModel) TableName() string {
	return constants.TablePlans
}

// PlanNodeModel binds plans to the nodes their entitlements may use.
type PlanNodeModel struct {
	ID        uint `gorm:"primarykey"`
	PlanID    uint `gorm:"not null;uniqueIndex:idx_plan_node,priority:1"`
	NodeID    uint `gorm:"not null;uniqueIndex:idx_plan_node,priority:2;index"`
	Priority  int  `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (PlanNodeModel) TableName() string {
	return constants.TablePlanNodes
}
