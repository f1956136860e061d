package user

import (
	"fmt"
	"time"
)

// SigninRecord is the per-business-day check-in marker. The (userID, date)
// pair is unique; the database constraint is what makes signin idempotent
// under concurrent requests.
type SigninRecord struct {
	id         uint
	userID     uint
	date       string
	bonusBytes int64
	createdAt  time.Time
}

func NewSigninRecord(userID uint, date string, bonusBytes int64) (*SigninRecord, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}
	if date == "" {
		return nil, fmt.Errorf("signin date is required")
	}
	if bonusBytes < 0 {
		return nil, fmt.Errorf("bonus bytes cannot be negative")
	}

	return &SigninRecord{
		userID:     userID,
		date:       date,
		bonusBytes: bonusBytes,
		createdAt:  time.Now().UTC(),
	}, nil
}

func ReconstructSigninRecord(id, userID uint, date string, bonusBytes int64, createdAt time.Time) (*SigninRecord, error) {
	if id == 0 {
		return nil, fmt.Errorf("signin record ID cannot be zero")
	}
	return &SigninRecord{
		id:         id,
		userID:     userID,
		date:       date,
		bonusBytes: bonusBytes,
		createdAt:  createdAt,
	}, nil
}

func (r *SigninRecord) ID() uint             { return r.id }
func (r *SigninRecord) UserID() uint         { return r.userID }
func (r *SigninRecord) Date() string         { return r.date }
func (r *SigninRecord) BonusBytes() int64    { return r.bonusBytes }
func (r *SigninRecord) CreatedAt() time.Time { return r.createdAt }

func (r *SigninRecord) SetID(id uint) error {
	if r.id != 0 {
		return fmt.Errorf("signin record ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("signin record ID cannot be zero")
	}
	r.id = id
	return nil
}
