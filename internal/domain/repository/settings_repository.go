package repository

import "context"

// SettingsRepository is the widget's key-value settings store: flat values,
// merged on write.
type SettingsRepository interface {
	Get(ctx context.Context, shopID string) (map[string]interface{}, error)
	Set(ctx context.Context, shopID string, values map[string]interface{}) error
}
