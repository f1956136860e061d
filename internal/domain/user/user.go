package user

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Status string

const (
	StatusActive Status = "active"
	StatusBanned Status = "banned"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusBanned
}

// User is a minimal account collaborator for the billing flows. The traffic
// and expiry fields are denormalized counters kept in sync with the
// entitlement ledger for legacy clients; the ledger stays canonical.
type User struct {
	id           uint
	username     string
	email        string
	passwordHash string
	role         Role
	status       Status
	trafficTotal int64
	trafficUsed  int64
	expiredAt    *time.Time
	balance      int64
	lastSigninAt *time.Time
	signinStreak int
	createdAt    time.Time
	updatedAt    time.Time
}

func NewUser(username, email, passwordHash string) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("password hash is required")
	}

	now := time.Now().UTC()
	return &User{
		username:     username,
		email:        email,
		passwordHash: passwordHash,
		role:         RoleUser,
		status:       StatusActive,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

func ReconstructUser(id uint, username, email, passwordHash, role, status string,
	trafficTotal, trafficUsed int64, expiredAt *time.Time, balance int64,
	lastSigninAt *time.Time, signinStreak int, createdAt, updatedAt time.Time) (*User, error) {

	if id == 0 {
		return nil, fmt.Errorf("user ID cannot be zero")
	}
	r := Role(role)
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid user role: %s", role)
	}
	st := Status(status)
	if !st.IsValid() {
		return nil, fmt.Errorf("invalid user status: %s", status)
	}

	return &User{
		id:           id,
		username:     username,
		email:        email,
		passwordHash: passwordHash,
		role:         r,
		status:       st,
		trafficTotal: trafficTotal,
		trafficUsed:  trafficUsed,
		expiredAt:    expiredAt,
		balance:      balance,
		lastSigninAt: lastSigninAt,
		signinStreak: signinStreak,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (u *User) ID() uint                 { return u.id }
func (u *User) Username() string         { return u.username }
func (u *User) Email() string            { return u.email }
func (u *User) PasswordHash() string     { return u.passwordHash }
func (u *User) Role() Role               { return u.role }
func (u *User) Status() Status           { return u.status }
func (u *User) TrafficTotal() int64      { return u.trafficTotal }
func (u *User) TrafficUsed() int64       { return u.trafficUsed }
func (u *User) ExpiredAt() *time.Time    { return u.expiredAt }
func (u *User) Balance() int64           { return u.balance }
func (u *User) LastSigninAt() *time.Time { return u.lastSigninAt }
func (u *User) SigninStreak() int        { return u.signinStreak }
func (u *User) CreatedAt() time.Time     { return u.createdAt }
func (u *User) UpdatedAt() time.Time     { return u.updatedAt }

func (u *User) SetID(id uint) error {
	if u.id != 0 {
		return fmt.Errorf("user ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("user ID cannot be zero")
	}
	u.id = id
	return nil
}

func (u *User) IsAdmin() bool {
	return u.role == RoleAdmin
}

func (u *User) IsBanned() bool {
	return u.status == StatusBanned
}

// AddCompatTraffic adjusts the denormalized total allowance. Negative deltas
// floor at the used counter the same way the ledger floors at used bytes.
func (u *User) AddCompatTraffic(delta int64) {
	total := u.trafficTotal + delta
	if total < u.trafficUsed {
		total = u.trafficUsed
	}
	if total < 0 {
		total = 0
	}
	u.trafficTotal = total
	u.updatedAt = time.Now().UTC()
}

// ConsumeCompatTraffic accumulates into the denormalized used counter.
func (u *User) ConsumeCompatTraffic(bytes int64) {
	if bytes <= 0 {
		return
	}
	u.trafficUsed += bytes
	u.updatedAt = time.Now().UTC()
}

// ExtendCompatExpiry pushes the denormalized expiry to at least t.
func (u *User) ExtendCompatExpiry(t time.Time) {
	if u.expiredAt == nil || u.expiredAt.Before(t) {
		expiry := t
		u.expiredAt = &expiry
	}
	u.updatedAt = time.Now().UTC()
}

// RecordSignin updates the signin streak: consecutive business days increment
// it, a gap resets it to one. prevSigninDate and today are business-calendar
// dates (YYYY-MM-DD); yesterday is the day before today.
func (u *User) RecordSignin(now time.Time, yesterday, prevSigninDate string) {
	if prevSigninDate == yesterday && prevSigninDate != "" {
		u.signinStreak++
	} else {
		u.signinStreak = 1
	}
	signin := now
	u.lastSigninAt = &signin
	u.updatedAt = now
}

func (u *User) Ban() {
	u.status = StatusBanned
	u.updatedAt = time.Now().UTC()
}

func (u *User) Unban() {
	u.status = StatusActive
	u.updatedAt = time.Now().UTC()
}
