package storyhub

// Role is an optional elevated role an administrator can grant to an account.
// The zero value means "no elevated role"; role-scoped route policies are a
// narrower variant of the admin gate and only the set below is accepted.
type Role string

const (
	// RoleNone is the default: no elevated role.
	RoleNone Role = ""
	// RoleSubAdmin can be delegated a subset of admin duties.
	RoleSubAdmin Role = "sub-admin"
	// RoleEditor curates submitted stories.
	RoleEditor Role = "editor"
	// RoleCoEditor assists an editor.
	RoleCoEditor Role = "co-editor"
)

// ParseRole validates a raw role value. The empty string parses to RoleNone.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleNone, RoleSubAdmin, RoleEditor, RoleCoEditor:
		return Role(s), true
	default:
		return RoleNone, false
	}
}

// Valid reports whether the role is one of the accepted values.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) String() string {
	return string(r)
}
