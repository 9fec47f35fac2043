package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStreamNotFound    = errors.New("stream not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrAlreadyRegistered = errors.New("connection already registered")
	ErrSelfJoin          = errors.New("creator cannot join own stream")
	ErrNotStreamOwner    = errors.New("not the stream owner")
	ErrGenreNotFound     = errors.New("genre not found")
)

// InsufficientFundsError carries the balances so the caller can tell the
// viewer what they have and what the stream costs.
type InsufficientFundsError struct {
	Have int
	Need int
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient coins: have %d, need %d", e.Have, e.Need)
}

// IsInsufficientFunds reports whether err is an InsufficientFundsError.
func IsInsufficientFunds(err error) bool {
	var ife *InsufficientFundsError
	return errors.As(err, &ife)
}
