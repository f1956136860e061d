package usecases

import (
	"context"

	"meridian/internal/domain/user"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// ClientView is the read model for a proxy identity.
type ClientView struct {
	ID        uint   `json:"id"`
	UUID      string `json:"uuid"`
	Remark    string `json:"remark,omitempty"`
	Enabled   bool   `json:"enabled"`
	CreatedAt int64  `json:"created_at"`
}

// CreateClientCommand mints a new UUID for the user.
type CreateClientCommand struct {
	UserID uint
	Remark string
}

// SetClientEnabledCommand toggles a client the user owns.
type SetClientEnabledCommand struct {
	UserID   uint
	ClientID uint
	Enabled  bool
}

// ManageClientsUseCase covers the self-service client surface.
type ManageClientsUseCase struct {
	clientRepo user.ClientRepository
	logger     logger.Interface
}

// NewManageClientsUseCase creates a new instance of ManageClientsUseCase
func NewManageClientsUseCase(clientRepo user.ClientRepository, logger logger.Interface) *ManageClientsUseCase {
	return &ManageClientsUseCase{clientRepo: clientRepo, logger: logger}
}

// List returns the user's clients.
func (uc *ManageClientsUseCase) List(ctx context.Context, userID uint) ([]ClientView, error) {
	clients, err := uc.clientRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]ClientView, 0, len(clients))
	for _, c := range clients {
		views = append(views, toClientView(c))
	}
	return views, nil
}

// Create mints a client.
func (uc *ManageClientsUseCase) Create(ctx context.Context, cmd CreateClientCommand) (*ClientView, error) {
	client, err := user.NewClient(cmd.UserID, cmd.Remark)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.clientRepo.Create(ctx, client); err != nil {
		return nil, err
	}

	uc.logger.Infow("client created", "user_id", cmd.UserID, "client_id", client.ID(), "uuid", client.UUID())
	view := toClientView(client)
	return &view, nil
}

// SetEnabled toggles a client the user owns.
func (uc *ManageClientsUseCase) SetEnabled(ctx context.Context, cmd SetClientEnabledCommand) (*ClientView, error) {
	clients, err := uc.clientRepo.ListByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	var target *user.Client
	for _, c := range clients {
		if c.ID() == cmd.ClientID {
			target = c
			break
		}
	}
	if target == nil {
		return nil, apperrors.NewNotFoundError("client not found")
	}

	if cmd.Enabled {
		target.Enable()
	} else {
		target.Disable()
	}
	if err := uc.clientRepo.Update(ctx, target); err != nil {
		return nil, err
	}

	uc.logger.Infow("client toggled", "user_id", cmd.UserID, "client_id", cmd.ClientID, "enabled", cmd.Enabled)
	view := toClientView(target)
	return &view, nil
}

func toClientView(c *user.Client) ClientView {
	return ClientView{
		ID:        c.ID(),
		UUID:      c.UUID(),
		Remark:    c.Remark(),
		Enabled:   c.Enabled(),
		CreatedAt: c.CreatedAt().Unix(),
	}
}
