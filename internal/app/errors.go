package service

import (
	"errors"

	repository "github.com/okian/scoreboard/internal/adapters/repository"
)

// Error kinds returned by Service. Match with errors.Is.
var (
	// ErrValidation marks caller input rejected before any storage access.
	ErrValidation = errors.New("validation error")
	// ErrPoolExhausted is transient: no store connection freed up in time.
	ErrPoolExhausted = repository.ErrPoolExhausted
	// ErrStorage wraps engine failures. Not retried internally.
	ErrStorage = repository.ErrStorage
)

func errorKind(err error) string {
	if errors.Is(err, ErrValidation) {
		return "validation"
	}
	return repository.Kind(err)
}
