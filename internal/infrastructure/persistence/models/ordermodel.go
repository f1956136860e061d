package models

import (
	"time"

	"meridian/internal/shared/constants"
)

// OrderModel is the persistence model for orders.
type OrderModel struct {
	ID           uint   `gorm:"primarykey"`
	UserID       uint   `gorm:"not null;index:idx_user_status,priority:1"`
	PlanID       uint   `gorm:"not null;index"`
	OrderNo      string `gorm:"not null;size:40;uniqueIndex"`
	Amount       int64  `gorm:"not null;default:0"`
	PayMethod    string `gorm:"size:30"`
	Status       string `gorm:"not null;size:20;default:pending;index:idx_user_status,priority:2"`
	OrderType    string `gorm:"not null;size:20;default:purchase"`
	DurationDays int    `gorm:"not null;default:0"`
	TrafficBytes int64  `gorm:"not null;default:0"`
	Remark       string `gorm:"size:255"`
	CreatedAt    time.Time
	PaidAt       *time.Time
}

func (OrderModel) TableName() string {
	return constants.TableOrders
}
