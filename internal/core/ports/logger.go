package ports

import "go.trai.ch/devshell/internal/core/domain"

// Logger defines the interface for logging.
//
//go:generate go run go.uber.org/mock/mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Log(level domain.LogLevel, msg string)
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(err error)
	SetLevel(level domain.LogLevel)
}
