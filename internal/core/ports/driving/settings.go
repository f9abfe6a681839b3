package driving

import "github.com/custodia-labs/partsearch/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, defaults applied.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set validates and persists a single dotted key.
	Set(key, value string) error

	// Keys lists the settable keys in display order.
	Keys() []string

	// Validate checks the current settings are coherent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
