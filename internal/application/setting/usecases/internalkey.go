package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"meridian/internal/infrastructure/auth"
	"meridian/internal/infrastructure/repository"
	apperrors "meridian/internal/shared/errors"
	"meridian/internal/shared/logger"
)

// SettingKeyInternalAPIKey is where the node gateway shared secret persists.
const SettingKeyInternalAPIKey = "internal_api_key"

// InternalKeyResult carries the current key.
type InternalKeyResult struct {
	Key string
}

// UpdateInternalKeyCommand rotates the key. An empty key with Generate set
// mints a random one.
type UpdateInternalKeyCommand struct {
	Key      string
	Generate bool
}

// InternalKeyUseCase reads and rotates the internal API key. The persisted
// value survives restarts; the holder is what request middleware checks, so
// rotation takes effect without a restart.
type InternalKeyUseCase struct {
	settingRepo *repository.SettingRepository
	holder      *auth.InternalKeyHolder
	logger      logger.Interface
}

// NewInternalKeyUseCase creates a new instance of InternalKeyUseCase
func NewInternalKeyUseCase(
	settingRepo *repository.SettingRepository,
	holder *auth.InternalKeyHolder,
	logger logger.Interface,
) *InternalKeyUseCase {
	return &InternalKeyUseCase{settingRepo: settingRepo, holder: holder, logger: logger}
}

// Load primes the holder from storage, keeping the configured key when no
// stored value exists.
func (uc *InternalKeyUseCase) Load(ctx context.Context) error {
	stored, err := uc.settingRepo.Get(ctx, SettingKeyInternalAPIKey)
	if err != nil {
		return err
	}
	if stored != "" {
		uc.holder.Set(stored)
	}
	return nil
}

// Get returns the current key.
func (uc *InternalKeyUseCase) Get(ctx context.Context) (*InternalKeyResult, error) {
	return &InternalKeyResult{Key: uc.holder.Get()}, nil
}

// Update rotates the key.
func (uc *InternalKeyUseCase) Update(ctx context.Context, cmd UpdateInternalKeyCommand) (*InternalKeyResult, error) {
	key := cmd.Key
	if cmd.Generate {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return nil, apperrors.NewInternalError("failed to generate key")
		}
		key = hex.EncodeToString(raw)
	}
	if key == "" {
		return nil, apperrors.NewValidationError("key is required")
	}

	if err := uc.settingRepo.Set(ctx, SettingKeyInternalAPIKey, key); err != nil {
		return nil, err
	}
	uc.holder.Set(key)

	uc.logger.Warnw("internal API key rotated")
	return &InternalKeyResult{Key: key}, nil
}
