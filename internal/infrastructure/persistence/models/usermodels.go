package models

import (
	"time"

	"meridian/internal/shared/constants"
)

// UserModel is the persistence model for accounts. Traffic and expiry fields
// are denormalized mirrors of the entitlement ledger for legacy clients.
type UserModel struct {
	ID           uint   `gorm:"primarykey"`
	Username     string `gorm:"not null;size:50;uniqueIndex"`
	Email        string `gorm:"not null;size:255;uniqueIndex"`
	PasswordHash string `gorm:"not null;size:255"`
	Role         string `gorm:"not null;size:20;default:user"`
	Status       string `gorm:"not null;size:20;default:active;index"`
	TrafficTotal int64  `gorm:"not null;default:0"`
	TrafficUsed  int64  `gorm:"not null;default:0"`
	ExpiredAt    *time.Time
	Balance      int64 `gorm:"not null;default:0"`
	LastSigninAt *time.Time
	SigninStreak int `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string {
	return constants.TableUsers
}

// UserClientModel holds proxy identities (UUIDs) owned by users.
type UserClientModel struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"not null;index"`
	UUID      string `gorm:"column:uuid;not null;size:36;uniqueIndex"`
	Remark    string `gorm:"size:100"`
	Enabled   bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserClientModel) TableName() string {
	return constants.TableUserClients
}

// SigninRecordModel keys daily check-ins on the business-calendar date. The
// unique index is what makes signin idempotent under concurrency.
type SigninRecordModel struct {
	ID         uint   `gorm:"primarykey"`
	UserID     uint   `gorm:"not null;uniqueIndex:idx_user_date,priority:1"`
	Date       string `gorm:"not null;size:10;uniqueIndex:idx_user_date,priority:2"`
	BonusBytes int64  `gorm:"not null;default:0"`
	CreatedAt  time.Time
}

func (SigninRecordModel) TableName() string {
	return constants.TableSigninRecords
}

// SettingModel is a small KV store for panel settings.
type SettingModel struct {
	ID        uint   `gorm:"primarykey"`
	Key       string `gorm:"column:setting_key;not null;size:64;uniqueIndex"`
	Value     string `gorm:"column:setting_value;type:text"`
	UpdatedAt time.Time
}

func (SettingModel) TableName() string {
	return constants.TableSettings
}
