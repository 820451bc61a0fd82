package domain

import "errors"

var (
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrMissingAccountID   = errors.New("account id is required")
	ErrNotLoggedIn        = errors.New("session is logged out")
	ErrUnknownAccountKind = errors.New("unknown account kind")
	ErrTokenNotFound      = errors.New("token not found")
	ErrInvalidTokenKey    = errors.New("invalid token key")
	ErrEmptyToken         = errors.New("token is empty")
)
