package account

import (
	"fmt"
	"strings"
	"time"
)

// Field names a role-scoped attribute, spelled as in request and response bodies.
type Field string

const (
	FieldDateOfBirth     Field = "dateOfBirth"
	FieldAddress         Field = "address"
	FieldHospitalName    Field = "hospitalName"
	FieldHospitalAddress Field = "hospitalAddress"
	FieldLicenseNumber   Field = "licenseNumber"
	FieldLabName         Field = "labName"
	FieldLabAddress      Field = "labAddress"
	FieldLabLicense      Field = "labLicense"
)

type roleSchema struct {
	required []Field
	optional []Field
}

type fieldRule struct {
	min  int
	max  int
	date bool
}

var schemas = map[Role]roleSchema{
	RolePatient: {
		optional: []Field{FieldDateOfBirth, FieldAddress},
	},
	RoleHospital: {
		required: []Field{FieldHospitalName, FieldHospitalAddress, FieldLicenseNumber},
	},
	RoleLab: {
		required: []Field{FieldLabName, FieldLabAddress, FieldLabLicense},
	},
	RoleAdmin: {},
}

var fieldRules = map[Field]fieldRule{
	FieldDateOfBirth:     {date: true},
	FieldAddress:         {max: MaxAddressLength},
	FieldHospitalName:    {min: MinOrgNameLength, max: MaxOrgNameLength},
	FieldHospitalAddress: {max: MaxAddressLength},
	FieldLicenseNumber:   {},
	FieldLabName:         {min: MinOrgNameLength, max: MaxOrgNameLength},
	FieldLabAddress:      {max: MaxAddressLength},
	FieldLabLicense:      {},
}

// RoleScopedFields lists every role-scoped attribute across all roles.
func RoleScopedFields() []Field {
	return []Field{
		FieldDateOfBirth, FieldAddress,
		FieldHospitalName, FieldHospitalAddress, FieldLicenseNumber,
		FieldLabName, FieldLabAddress, FieldLabLicense,
	}
}

func RequiredFields(r Role) []Field {
	return append([]Field(nil), schemas[r].required...)
}

func OptionalFields(r Role) []Field {
	return append([]Field(nil), schemas[r].optional...)
}

// ApplicableFields is required ∪ optional for the role.
func ApplicableFields(r Role) []Field {
	s := schemas[r]
	out := make([]Field, 0, len(s.required)+len(s.optional))
	out = append(out, s.required...)
	return append(out, s.optional...)
}

// ResetFields lists the attributes that must be null for an account of role r:
// every role-scoped field except r's own.
func ResetFields(r Role) []Field {
	own := make(map[Field]bool)
	for _, f := range ApplicableFields(r) {
		own[f] = true
	}

	out := make([]Field, 0, len(RoleScopedFields()))
	for _, f := range RoleScopedFields() {
		if !own[f] {
			out = append(out, f)
		}
	}
	return out
}

func IsRequired(r Role, f Field) bool {
	for _, req := range schemas[r].required {
		if req == f {
			return true
		}
	}
	return false
}

// BuildProfile validates the create-time attributes for a role and assembles its variant.
// Attributes that do not apply to the role are dropped.
func BuildProfile(r Role, attrs RoleAttributes) (Profile, error) {
	if !r.IsValid() {
		v := &ValidationError{}
		checkRole(v, r)
		return nil, v
	}

	v := &ValidationError{}
	given := attrs.values()
	values := make(map[Field]string)

	for _, f := range ApplicableFields(r) {
		raw := given[f]
		if raw == nil || strings.TrimSpace(*raw) == "" {
			if IsRequired(r, f) {
				v.Add(string(f), "required", "", "is required")
			}
			continue
		}

		val := strings.TrimSpace(*raw)
		checkField(v, f, val)
		values[f] = val
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	return assemble(r, values)
}

// ApplyAttributes applies a partial update to a profile. Fields absent from the patch keep
// their value; fields that do not apply to the profile's role are ignored.
// Optional fields accept an explicit null or empty string to clear them.
func ApplyAttributes(current Profile, patch AttributePatch) (Profile, error) {
	r := current.Role()
	v := &ValidationError{}
	values := profileValues(current)
	given := patch.values()

	for _, f := range ApplicableFields(r) {
		o := given[f]
		if !o.Set {
			continue
		}

		val := strings.TrimSpace(o.Value)
		if o.Null || val == "" {
			if IsRequired(r, f) {
				v.Add(string(f), "required", "", "cannot be cleared")
				continue
			}
			delete(values, f)
			continue
		}

		checkField(v, f, val)
		values[f] = val
	}

	for _, f := range RequiredFields(r) {
		if _, ok := values[f]; !ok && !hasField(v, f) {
			v.Add(string(f), "required", "", "is required")
		}
	}

	if err := v.Err(); err != nil {
		return nil, err
	}

	return assemble(r, values)
}

// CheckColumns reports stored columns that belong to another role and required
// columns of the account's own role that are missing or blank.
func CheckColumns(c Columns) error {
	if !c.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, c.Role)
	}

	set := c.present()
	for _, f := range ResetFields(c.Role) {
		if set[f] {
			return fmt.Errorf("%w: %s is not allowed for role %s", ErrValidation, f, c.Role)
		}
	}

	text := c.text()
	for _, f := range RequiredFields(c.Role) {
		if s := text[f]; s == nil || strings.TrimSpace(*s) == "" {
			return fmt.Errorf("%w: %s is required for role %s", ErrValidation, f, c.Role)
		}
	}
	return nil
}

func checkField(v *ValidationError, f Field, val string) {
	rule := fieldRules[f]

	if rule.date {
		if _, err := ParseDate(val); err != nil {
			v.Add(string(f), "iso8601", "", "must be an ISO 8601 date")
		}
		return
	}

	checkLength(v, string(f), val, rule.min, rule.max)
}

func hasField(v *ValidationError, f Field) bool {
	for _, fe := range v.Fields {
		if fe.Field == string(f) {
			return true
		}
	}
	return false
}

// assemble expects values that already passed checkField.
func assemble(r Role, values map[Field]string) (Profile, error) {
	switch r {
	case RolePatient:
		p := PatientProfile{}
		if s, ok := values[FieldDateOfBirth]; ok {
			t, err := ParseDate(s)
			if err != nil {
				return nil, err
			}
			t = CalendarDate(t)
			p.DateOfBirth = &t
		}
		if s, ok := values[FieldAddress]; ok {
			p.Address = strPtr(s)
		}
		return p, nil
	case RoleHospital:
		return HospitalProfile{
			Name:          values[FieldHospitalName],
			Address:       values[FieldHospitalAddress],
			LicenseNumber: values[FieldLicenseNumber],
		}, nil
	case RoleLab:
		return LabProfile{
			Name:    values[FieldLabName],
			Address: values[FieldLabAddress],
			License: values[FieldLabLicense],
		}, nil
	case RoleAdmin:
		return AdminProfile{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, r)
	}
}

// profileValues lists the attributes a profile actually carries; empty strings count as absent.
func profileValues(p Profile) map[Field]string {
	c := Account{Profile: p}.Columns()
	out := make(map[Field]string)

	if c.DateOfBirth != nil {
		out[FieldDateOfBirth] = c.DateOfBirth.Format(time.RFC3339Nano)
	}

	for f, s := range c.text() {
		if s != nil && strings.TrimSpace(*s) != "" {
			out[f] = *s
		}
	}

	return out
}

func (c Columns) text() map[Field]*string {
	return map[Field]*string{
		FieldAddress:         c.Address,
		FieldHospitalName:    c.HospitalName,
		FieldHospitalAddress: c.HospitalAddress,
		FieldLicenseNumber:   c.LicenseNumber,
		FieldLabName:         c.LabName,
		FieldLabAddress:      c.LabAddress,
		FieldLabLicense:      c.LabLicense,
	}
}

func (c Columns) present() map[Field]bool {
	out := map[Field]bool{FieldDateOfBirth: c.DateOfBirth != nil}
	for f, s := range c.text() {
		out[f] = s != nil
	}
	return out
}
