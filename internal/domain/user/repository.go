package user

import "context"

type Filter struct {
	Status   *string
	Role     *string
	Page     int
	PageSize int
}

type Repository interface {
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uint) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, filter Filter) ([]*User, int64, error)
}

type ClientRepository interface {
	Create(ctx context.Context, c *Client) error
	Update(ctx context.Context, c *Client) error
	GetByUUID(ctx context.Context, uuid string) (*Client, error)
	ListByUser(ctx context.Context, userID uint) ([]*Client, error)

	// GetCanonicalByUser returns the user's first enabled client, or
	// ErrClientNotFound when none exists.
	GetCanonicalByUser(ctx context.Context, userID uint) (*Client, error)
}

type SigninRepository interface {
	// Create inserts the record; the unique (user, date) index makes repeat
	// attempts for the same day fail as duplicates.
	Create(ctx context.Context, r *SigninRecord) error
	GetByUserAndDate(ctx context.Context, userID uint, date string) (*SigninRecord, error)
	GetLatestByUser(ctx context.Context, userID uint) (*SigninRecord, error)
}
