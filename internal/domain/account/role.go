package account

import "strings"

type Role string

const (
	RolePatient  Role = "PATIENT"
	RoleHospital Role = "HOSPITAL"
	RoleLab      Role = "LAB"
	RoleAdmin    Role = "ADMIN"
)

// role names used by the first version of the platform, still accepted on input.
var legacyRoles = map[string]Role{
	"HOPITAL": RoleHospital,
	"LABO":    RoleLab,
}

func (r Role) IsValid() bool {
	switch r {
	case RolePatient, RoleHospital, RoleLab, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// AllRoles returns every role in a stable order.
func AllRoles() []Role {
	return []Role{RolePatient, RoleHospital, RoleLab, RoleAdmin}
}

// ParseRole accepts the canonical names and the legacy aliases, case-insensitively.
func ParseRole(s string) (Role, bool) {
	up := strings.ToUpper(strings.TrimSpace(s))

	if r, ok := legacyRoles[up]; ok {
		return r, true
	}

	r := Role(up)
	if !r.IsValid() {
		return "", false
	}

	return r, true
}

// UnmarshalText lets roles arrive through JSON bodies and query strings in either spelling.
// Unknown names are kept verbatim so validation can report them.
func (r *Role) UnmarshalText(b []byte) error {
	if parsed, ok := ParseRole(string(b)); ok {
		*r = parsed
		return nil
	}

	*r = Role(strings.TrimSpace(string(b)))
	return nil
}
