package models

import (
	"time"

	"meridian/internal/shared/constants"
)

// EntitlementModel is the persistence model for the entitlement ledger.
// The partial unique index cannot express "one active row per tuple" in
// MySQL, so the grant usecase enforces it inside the transaction; the plain
// composite index keeps the lookup cheap.
type EntitlementModel struct {
	ID                uint   `gorm:"primarykey"`
	UserID            uint   `gorm:"not null;index:idx_user_group_plan,priority:1;index:idx_ent_user_status,priority:1"`
	GroupID           uint   `gorm:"not null;index:idx_user_group_plan,priority:2"`
	PlanID            uint   `gorm:"not null;index:idx_user_group_plan,priority:3"`
	Status            string `gorm:"not null;size:20;default:active;index:idx_ent_user_status,priority:2;index:idx_status_expire,priority:1"`
	OriginalStartAt   time.Time
	OriginalExpireAt  time.Time
	ServiceStartAt    time.Time
	ServiceExpireAt   time.Time `gorm:"index:idx_status_expire,priority:2"`
	TrafficTotalBytes int64     `gorm:"not null;default:0"`
	TrafficUsedBytes  int64     `gorm:"not null;default:0"`
	TotalAmount       int64     `gorm:"not null;default:0"`
	CancelReason      string    `gorm:"size:255"`
	CancelledAt       *time.Time
	LastOrderID       uint `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (EntitlementModel) TableName() string {
	return constants.TableEntitlements
}
