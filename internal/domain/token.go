package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const tokenKeyPrefix = "leasehold"

// TokenKey names the vault entry holding the authorization token of one
// account of one kind.
type TokenKey struct {
	Kind AccountKind
	ID   AccountID
}

func (k TokenKey) String() string {
	return fmt.Sprintf("%s/%s/%d", tokenKeyPrefix, k.Kind, int64(k.ID))
}

// ParseTokenKey accepts only keys of the form leasehold/<kind>/<id>.
func ParseTokenKey(raw string) (TokenKey, error) {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 || parts[0] != tokenKeyPrefix {
		return TokenKey{}, fmt.Errorf("%w %q", ErrInvalidTokenKey, raw)
	}

	kind := AccountKind(parts[1])
	if !kind.Valid() {
		return TokenKey{}, fmt.Errorf("%w %q: unknown kind", ErrInvalidTokenKey, raw)
	}

	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || strconv.FormatInt(id, 10) != parts[2] {
		return TokenKey{}, fmt.Errorf("%w %q: account id is not an integer", ErrInvalidTokenKey, raw)
	}

	return TokenKey{Kind: kind, ID: AccountID(id)}, nil
}
