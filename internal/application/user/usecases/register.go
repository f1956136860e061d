package usecases

import (
	"context"
	"strings"

	"meridian/internal/domain/user"
	"meridian/internal/infrastructure/auth"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// RegisterCommand creates an account.
type RegisterCommand struct {
	Username string
	Email    string
	Password string
}

// RegisterResult contains the created account
type RegisterResult struct {
	UserID   uint
	Username string
	Email    string
}

// RegisterUseCase creates a user account with a hashed password and a first
// client UUID so the account is proxy-ready immediately.
type RegisterUseCase struct {
	userRepo   user.Repository
	clientRepo user.ClientRepository
	hasher     *auth.PasswordHasher
	logger     logger.Interface
}

// NewRegisterUseCase creates a new instance of RegisterUseCase
func NewRegisterUseCase(
	userRepo user.Repository,
	clientRepo user.ClientRepository,
	hasher *auth.PasswordHasher,
	logger logger.Interface,
) *RegisterUseCase {
	return &RegisterUseCase{
		userRepo:   userRepo,
		clientRepo: clientRepo,
		hasher:     hasher,
		logger:     logger,
	}
}

// Execute registers the account.
func (uc *RegisterUseCase) Execute(ctx context.Context, cmd RegisterCommand) (*RegisterResult, error) {
	cmd.Username = strings.TrimSpace(cmd.Username)
	cmd.Email = strings.TrimSpace(strings.ToLower(cmd.Email))
	if cmd.Username == "" {
		return nil, apperrors.NewValidationError("username is required")
	}
	if cmd.Email == "" || !strings.Contains(cmd.Email, "@") {
		return nil, apperrors.NewValidationError("a valid email is required")
	}
	if len(cmd.Password) < 8 {
		return nil, apperrors.NewValidationError("password must be at least 8 characters")
	}

	hash, err := uc.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password")
	}

	u, err := user.NewUser(cmd.Username, cmd.Email, hash)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	client, err := user.NewClient(u.ID(), "default")
	if err == nil {
		if cerr := uc.clientRepo.Create(ctx, client); cerr != nil {
			uc.logger.Warnw("failed to mint first client", "user_id", u.ID(), "error", cerr)
		}
	}

	uc.logger.Infow("user registered", "user_id", u.ID(), "email", u.Email())
	return &RegisterResult{UserID: u.ID(), Username: u.Username(), Email: u.Email()}, nil
}
