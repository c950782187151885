package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/bookstore/internal/tokens"
	"github.com/Skotchmaster/bookstore/pkg/hash"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrStoreFailure       = errors.New("store failure")

	ErrInvalidToken    = tokens.ErrInvalidToken
	ErrConfiguration   = tokens.ErrConfiguration
	ErrPasswordTooLong = hash.ErrPasswordTooLong
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}
