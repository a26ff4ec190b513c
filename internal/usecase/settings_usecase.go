package usecase

import (
	"context"

	"shopassist/internal/domain/repository"
	"shopassist/pkg/errors"
)

// SettingsUseCase reads and writes the widget's key-value settings.
type SettingsUseCase struct {
	settings repository.SettingsRepository
}

func NewSettingsUseCase(settings repository.SettingsRepository) *SettingsUseCase {
	return &SettingsUseCase{
		settings: settings,
	}
}

func (uc *SettingsUseCase) Get(ctx context.Context, shopID string) (map[string]interface{}, error) {
	return uc.settings.Get(ctx, shopID)
}

func (uc *SettingsUseCase) Update(ctx context.Context, shopID string, values map[string]interface{}) (map[string]interface{}, error) {
	if len(values) == 0 {
		return nil, errors.BadRequest("No settings provided", nil)
	}

	if err := uc.settings.Set(ctx, shopID, values); err != nil {
		return nil, err
	}

	return uc.settings.Get(ctx, shopID)
}
