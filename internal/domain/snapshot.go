package domain

// Snapshot is the serializable authentication/profile state of one account kind.
type Snapshot struct {
	IsLoggedIn   bool        `json:"isLoggedIn"`
	AccountID    *AccountID  `json:"accountId"`
	Kind         AccountKind `json:"accountKind,omitempty"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Email        string      `json:"email"`
	PhoneNumber  string      `json:"phoneNumber"`
	IsSubscribed bool        `json:"isSubscribed"`
	// TokenRef points at the kind's authorization token, never the token itself.
	TokenRef string `json:"tokenRef,omitempty"`
}

// Fields is the already-validated field set handed to a login action.
type Fields struct {
	AccountID    *AccountID
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	IsSubscribed bool
	TokenRef     string
}

// Patch carries the fields of an out-of-band update. Nil fields are left untouched.
type Patch struct {
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	Email        *string `json:"email,omitempty"`
	PhoneNumber  *string `json:"phoneNumber,omitempty"`
	IsSubscribed *bool   `json:"isSubscribed,omitempty"`
}

// DefaultSnapshot is the only valid representation of a logged-out session.
func DefaultSnapshot() Snapshot {
	return Snapshot{}
}

func NewAccountID(v int64) *AccountID {
	id := AccountID(v)
	return &id
}

func (s Snapshot) HasDiscriminator() bool {
	return s.AccountID != nil
}

func (s Snapshot) IsDefault() bool {
	return s == DefaultSnapshot()
}

// Matches reports whether s is a logged-in session of the given kind.
func (s Snapshot) Matches(kind AccountKind) bool {
	return s.IsLoggedIn && s.HasDiscriminator() && s.Kind == kind
}

func (s Snapshot) Fields() Fields {
	return Fields{
		AccountID:    cloneAccountID(s.AccountID),
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		Email:        s.Email,
		PhoneNumber:  s.PhoneNumber,
		IsSubscribed: s.IsSubscribed,
		TokenRef:     s.TokenRef,
	}
}

// LoggedIn builds the snapshot a login action installs for kind.
func (f Fields) LoggedIn(kind AccountKind) Snapshot {
	return Snapshot{
		IsLoggedIn:   true,
		AccountID:    cloneAccountID(f.AccountID),
		Kind:         kind,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		Email:        f.Email,
		PhoneNumber:  f.PhoneNumber,
		IsSubscribed: f.IsSubscribed,
		TokenRef:     f.TokenRef,
	}
}

// Apply shallow-merges p into s.
func (p Patch) Apply(s Snapshot) Snapshot {
	if p.FirstName != nil {
		s.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		s.LastName = *p.LastName
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		s.PhoneNumber = *p.PhoneNumber
	}
	if p.IsSubscribed != nil {
		s.IsSubscribed = *p.IsSubscribed
	}
	return s
}

func (p Patch) Empty() bool {
	return p == Patch{}
}

func cloneAccountID(id *AccountID) *AccountID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
