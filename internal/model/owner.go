// internal/model/owner.go
package model

import (
	"encoding/json"
	"fmt"
)

// OwnerKind discriminates the Owner union.
type OwnerKind string

const (
	OwnerUser         OwnerKind = "user"
	OwnerOrganization OwnerKind = "organization"
)

// Owner is either a *User or an *Organization. The set is closed: only
// types in this package implement it.
type Owner interface {
	Kind() OwnerKind
	Header() Account
	owner()
}

func (*User) Kind() OwnerKind   { return OwnerUser }
func (u *User) Header() Account { return u.Account }
func (*User) owner()            {}

func (*Organization) Kind() OwnerKind   { return OwnerOrganization }
func (o *Organization) Header() Account { return o.Account }
func (*Organization) owner()            {}

// ParseOwnerKind maps a GitHub __typename or a stored kind to an OwnerKind.
func ParseOwnerKind(s string) (OwnerKind, error) {
	switch s {
	case "User", "user":
		return OwnerUser, nil
	case "Organization", "organization":
		return OwnerOrganization, nil
	default:
		return "", fmt.Errorf("unknown owner kind %q", s)
	}
}

// NewOwner builds an owner carrying only the shared header.
func NewOwner(kind OwnerKind, header Account) (Owner, error) {
	switch kind {
	case OwnerUser:
		return &User{Account: header}, nil
	case OwnerOrganization:
		return &Organization{Account: header}, nil
	default:
		return nil, fmt.Errorf("unknown owner kind %q", kind)
	}
}

// OwnerRef wraps an Owner so it can travel through JSON.
type OwnerRef struct {
	Owner
}

type ownerEnvelope struct {
	Kind         OwnerKind     `json:"kind"`
	User         *User         `json:"user,omitempty"`
	Organization *Organization `json:"organization,omitempty"`
}

func (r OwnerRef) MarshalJSON() ([]byte, error) {
	switch o := r.Owner.(type) {
	case nil:
		return []byte("null"), nil
	case *User:
		return json.Marshal(ownerEnvelope{Kind: OwnerUser, User: o})
	case *Organization:
		return json.Marshal(ownerEnvelope{Kind: OwnerOrganization, Organization: o})
	default:
		return nil, fmt.Errorf("unsupported owner type %T", o)
	}
}

func (r *OwnerRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		r.Owner = nil
		return nil
	}
	var env ownerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Kind {
	case OwnerUser:
		if env.User == nil {
			return fmt.Errorf("owner envelope: missing user payload")
		}
		r.Owner = env.User
	case OwnerOrganization:
		if env.Organization == nil {
			return fmt.Errorf("owner envelope: missing organization payload")
		}
		r.Owner = env.Organization
	default:
		return fmt.Errorf("owner envelope: unknown kind %q", env.Kind)
	}
	return nil
}
