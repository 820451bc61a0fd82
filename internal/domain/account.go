package domain

import (
	"fmt"
	"strings"
)

// AccountKind selects which session store, persistence key and login route apply.
type AccountKind string

const (
	AccountKindUser  AccountKind = "user"
	AccountKindAgent AccountKind = "agent"
	AccountKindAdmin AccountKind = "admin"
)

// AccountID is the backend identifier carried as the snapshot discriminator.
type AccountID int64

func AllAccountKinds() []AccountKind {
	return []AccountKind{AccountKindUser, AccountKindAgent, AccountKindAdmin}
}

func (k AccountKind) Valid() bool {
	switch k {
	case AccountKindUser, AccountKindAgent, AccountKindAdmin:
		return true
	default:
		return false
	}
}

func (k AccountKind) Label() string {
	switch k {
	case AccountKindUser:
		return "User"
	case AccountKindAgent:
		return "Agent"
	case AccountKindAdmin:
		return "Admin"
	default:
		return string(k)
	}
}

func ParseAccountKind(raw string) (AccountKind, error) {
	kind := AccountKind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAccountKind, raw)
	}

	return kind, nil
}
