package application

import "github.com/bnema/leasehold/internal/domain"

type LoginCommand struct {
	Kind   domain.AccountKind
	Fields domain.Fields
	// Token, when set, is stored in the token vault and replaces Fields.TokenRef.
	Token string
}

type LogoutCommand struct {
	Kind domain.AccountKind
}

type UpdateCommand struct {
	Kind  domain.AccountKind
	Patch domain.Patch
}
