package highscore

import (
	"errors"
	"fmt"
)

// ErrGameNotRegistered is wrapped by a DomainError when an operation names an
// unknown game.
var ErrGameNotRegistered = errors.New("game not registered")

// DomainError reports a business rule violation. Callers always receive it.
type DomainError struct {
	Op   string
	Game string
	Err  error
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Game, e.Err)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// IsGameNotRegistered reports whether err was caused by an unknown game.
func IsGameNotRegistered(err error) bool {
	return errors.Is(err, ErrGameNotRegistered)
}
