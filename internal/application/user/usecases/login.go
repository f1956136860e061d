package usecases

import (
	"context"
	"errors"

	"meridian/internal/domain/user"
	"meridian/internal/infrastructure/auth"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// LoginCommand authenticates by email and password.
type LoginCommand struct {
	Email    string
	Password string
}

// LoginResult contains the issued tokens
type LoginResult struct {
	UserID       uint
	Username     string
	Role         string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// LoginUseCase authenticates a user and issues a JWT pair. Wrong email and
// wrong password return the same error.
type LoginUseCase struct {
	userRepo   user.Repository
	hasher     *auth.PasswordHasher
	jwtService *auth.JWTService
	logger     logger.Interface
}

// NewLoginUseCase creates a new instance of LoginUseCase
func NewLoginUseCase(
	userRepo user.Repository,
	hasher *auth.PasswordHasher,
	jwtService *auth.JWTService,
	logger logger.Interface,
) *LoginUseCase {
	return &LoginUseCase{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Execute performs the login.
func (uc *LoginUseCase) Execute(ctx context.Context, cmd LoginCommand) (*LoginResult, error) {
	if cmd.Email == "" || cmd.Password == "" {
		return nil, apperrors.NewValidationError("email and password are required")
	}

	u, err := uc.userRepo.GetByEmail(ctx, cmd.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, apperrors.NewUnauthorizedError("invalid email or password")
		}
		return nil, err
	}
	if !uc.hasher.Verify(u.PasswordHash(), cmd.Password) {
		return nil, apperrors.NewUnauthorizedError("invalid email or password")
	}
	if u.IsBanned() {
		return nil, apperrors.NewForbiddenError("account is banned")
	}

	pair, err := uc.jwtService.Generate(u.ID(), string(u.Role()))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue tokens", err.Error())
	}

	uc.logger.Infow("user logged in", "user_id", u.ID(), "email", u.Email())
	return &LoginResult{
		UserID:       u.ID(),
		Username:     u.Username(),
		Role:         string(u.Role()),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}
