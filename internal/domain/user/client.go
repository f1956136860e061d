package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Client is a proxy identity (UUID) owned by a user. The first enabled client
// is the canonical identity pushed to node agents.
type Client struct {
	id        uint
	userID    uint
	uuid      string
	remark    string
	enabled   bool
	createdAt time.Time
	updatedAt time.Time
}

// NewClient mints a client with a fresh UUID.
func NewClient(userID uint, remark string) (*Client, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}

	now := time.Now().UTC()
	return &Client{
		userID:    userID,
		uuid:      uuid.NewString(),
		remark:    remark,
		enabled:   true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructClient(id, userID uint, clientUUID, remark string, enabled bool, createdAt, updatedAt time.Time) (*Client, error) {
	if id == 0 {
		return nil, fmt.Errorf("client ID cannot be zero")
	}
	if _, err := uuid.Parse(clientUUID); err != nil {
		return nil, fmt.Errorf("invalid client UUID: %w", err)
	}

	return &Client{
		id:        id,
		userID:    userID,
		uuid:      clientUUID,
		remark:    remark,
		enabled:   enabled,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (c *Client) ID() uint             { return c.id }
func (c *Client) UserID() uint         { return c.userID }
func (c *Client) UUID() string         { return c.uuid }
func (c *Client) Remark() string       { return c.remark }
func (c *Client) Enabled() bool        { return c.enabled }
func (c *Client) CreatedAt() time.Time { return c.createdAt }
func (c *Client) UpdatedAt() time.Time { return c.updatedAt }

func (c *Client) SetID(id uint) error {
	if c.id != 0 {
		return fmt.Errorf("client ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("client ID cannot be zero")
	}
	c.id = id
	return nil
}

func (c *Client) Enable() {
	c.enabled = true
	c.updatedAt = time.Now().UTC()
}

func (c *Client) Disable() {
	c.enabled = false
	c.updatedAt = time.Now().UTC()
}

func (c *Client) SetRemark(remark string) {
	c.remark = remark
	c.updatedAt = time.Now().UTC()
}
