package docstore

import (
	"encoding/json"
	"fmt"
)

// Permission is the effective access level a user has on a document,
// modeled as an ordered enumeration so authorization reduces to a single
// comparison: OWNER > EDIT > VIEW > NONE.
type Permission int

const (
	PermissionNone Permission = iota
	PermissionView
	PermissionEdit
	PermissionOwner
)

// AtLeast reports whether p grants everything required grants.
func (p Permission) AtLeast(required Permission) bool {
	return p >= required
}

func (p Permission) String() string {
	switch p {
	case PermissionOwner:
		return "OWNER"
	case PermissionEdit:
		return "EDIT"
	case PermissionView:
		return "VIEW"
	default:
		return "NONE"
	}
}

// ParsePermission converts the wire/storage representation ("VIEW", "EDIT")
// into a Permission. OWNER and NONE are never stored: ownership is implied
// by the document row and absence of a share means NONE.
func ParsePermission(s string) (Permission, error) {
	switch s {
	case "VIEW":
		return PermissionView, nil
	case "EDIT":
		return PermissionEdit, nil
	default:
		return PermissionNone, fmt.Errorf("unknown permission %q", s)
	}
}

// Shareable reports whether p is a level that can be granted to another
// user. Only VIEW and EDIT are grantable.
func (p Permission) Shareable() bool {
	return p == PermissionView || p == PermissionEdit
}

func (p Permission) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Permission) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePermission(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
