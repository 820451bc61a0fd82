package application

import (
	"errors"

	"github.com/bnema/leasehold/internal/domain"
)

const tokenRefScheme = "vault:"

var ErrNoTokenVault = errors.New("no token vault configured")

// TokenKey is where the authorization token of an account lives in the vault.
func TokenKey(kind domain.AccountKind, id domain.AccountID) string {
	return domain.TokenKey{Kind: kind, ID: id}.String()
}

func TokenRef(key string) string {
	return tokenRefScheme + key
}

// ownedTokenKey returns the vault key of snapshot's token when the reference
// is the one the service wrote for this kind and account. References supplied
// by callers, including other vault: references, are never owned.
func ownedTokenKey(kind domain.AccountKind, snapshot domain.Snapshot) (string, bool) {
	if snapshot.AccountID == nil || snapshot.TokenRef == "" {
		return "", false
	}

	key := TokenKey(kind, *snapshot.AccountID)
	if snapshot.TokenRef != TokenRef(key) {
		return "", false
	}
	return key, true
}
