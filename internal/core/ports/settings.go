package ports

import (
	"github.com/spf13/pflag"
	"go.trai.ch/devshell/internal/core/domain"
)

// SettingsLoader loads the layered tool settings.
//
//go:generate go run go.uber.org/mock/mockgen -source=settings.go -destination=mocks/mock_settings.go -package=mocks
type SettingsLoader interface {
	// Load merges defaults, the user config file, environment variables and
	// the explicitly set flags. flags may be nil.
	Load(flags *pflag.FlagSet) (*domain.Settings, error)
}
