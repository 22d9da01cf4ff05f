package account

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Optional distinguishes a field that was left out of a request from one that was sent,
// and a sent null from a sent value.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

// Present reports a non-null value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// RoleAttributes carries the role-scoped attributes of a create request.
type RoleAttributes struct {
	DateOfBirth     *string `json:"dateOfBirth"`
	Address         *string `json:"address"`
	HospitalName    *string `json:"hospitalName"`
	HospitalAddress *string `json:"hospitalAddress"`
	LicenseNumber   *string `json:"licenseNumber"`
	LabName         *string `json:"labName"`
	LabAddress      *string `json:"labAddress"`
	LabLicense      *string `json:"labLicense"`
}

func (a RoleAttributes) values() map[Field]*string {
	return map[Field]*string{
		FieldDateOfBirth:     a.DateOfBirth,
		FieldAddress:         a.Address,
		FieldHospitalName:    a.HospitalName,
		FieldHospitalAddress: a.HospitalAddress,
		FieldLicenseNumber:   a.LicenseNumber,
		FieldLabName:         a.LabName,
		FieldLabAddress:      a.LabAddress,
		FieldLabLicense:      a.LabLicense,
	}
}

// AttributePatch carries the role-scoped attributes of an update request.
type AttributePatch struct {
	DateOfBirth     Optional[string] `json:"dateOfBirth"`
	Address         Optional[string] `json:"address"`
	HospitalName    Optional[string] `json:"hospitalName"`
	HospitalAddress Optional[string] `json:"hospitalAddress"`
	LicenseNumber   Optional[string] `json:"licenseNumber"`
	LabName         Optional[string] `json:"labName"`
	LabAddress      Optional[string] `json:"labAddress"`
	LabLicense      Optional[string] `json:"labLicense"`
}

func (p AttributePatch) values() map[Field]Optional[string] {
	return map[Field]Optional[string]{
		FieldDateOfBirth:     p.DateOfBirth,
		FieldAddress:         p.Address,
		FieldHospitalName:    p.HospitalName,
		FieldHospitalAddress: p.HospitalAddress,
		FieldLicenseNumber:   p.LicenseNumber,
		FieldLabName:         p.LabName,
		FieldLabAddress:      p.LabAddress,
		FieldLabLicense:      p.LabLicense,
	}
}

// NewAccount is the input of self-registration and administrative creation.
type NewAccount struct {
	Email      string
	Password   string
	Role       Role
	FirstName  string
	LastName   string
	Phone      *string
	IsActive   *bool
	Attributes RoleAttributes
}

// Prepare validates the input and returns the account to persist, without id,
// timestamps or password hash.
func (n NewAccount) Prepare() (Account, error) {
	v := &ValidationError{}

	email := NormalizeEmail(n.Email)
	checkEmail(v, email)
	checkPassword(v, n.Password)
	checkRole(v, n.Role)
	first := checkName(v, "firstName", n.FirstName)
	last := checkName(v, "lastName", n.LastName)

	var phone *string
	if n.Phone != nil && strings.TrimSpace(*n.Phone) != "" {
		p := strings.TrimSpace(*n.Phone)
		checkPhone(v, p)
		phone = &p
	}

	var profile Profile
	if n.Role.IsValid() {
		p, err := BuildProfile(n.Role, n.Attributes)
		if err != nil {
			v.merge(err)
		}
		profile = p
	}

	if err := v.Err(); err != nil {
		return Account{}, err
	}

	active := true
	if n.IsActive != nil {
		active = *n.IsActive
	}

	return Account{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Phone:     phone,
		IsActive:  active,
		Profile:   profile,
	}, nil
}

// Patch is an administrative partial update.
type Patch struct {
	Email     Optional[string] `json:"email"`
	Password  Optional[string] `json:"password"`
	Role      Optional[Role]   `json:"role"`
	FirstName Optional[string] `json:"firstName"`
	LastName  Optional[string] `json:"lastName"`
	Phone     Optional[string] `json:"phone"`
	IsActive  Optional[bool]   `json:"isActive"`
	AttributePatch
}

// Changes is a validated patch, ready to be applied to a stored account.
type Changes struct {
	Email     *string
	Password  *string
	Role      *Role
	FirstName *string
	LastName  *string
	// ClearPhone and Phone are exclusive.
	ClearPhone bool
	Phone      *string
	IsActive   *bool
}

// Check validates the role-independent part of the patch. Empty or null values for email,
// password, role and names are treated as absent.
func (p Patch) Check() (Changes, error) {
	v := &ValidationError{}
	var c Changes

	if p.Email.Present() && strings.TrimSpace(p.Email.Value) != "" {
		email := NormalizeEmail(p.Email.Value)
		checkEmail(v, email)
		c.Email = &email
	}

	if p.Password.Present() && p.Password.Value != "" {
		checkPassword(v, p.Password.Value)
		pw := p.Password.Value
		c.Password = &pw
	}

	if p.Role.Present() && p.Role.Value != "" {
		checkRole(v, p.Role.Value)
		r := p.Role.Value
		c.Role = &r
	}

	if p.FirstName.Present() && strings.TrimSpace(p.FirstName.Value) != "" {
		first := checkName(v, "firstName", p.FirstName.Value)
		c.FirstName = &first
	}

	if p.LastName.Present() && strings.TrimSpace(p.LastName.Value) != "" {
		last := checkName(v, "lastName", p.LastName.Value)
		c.LastName = &last
	}

	if p.Phone.Set {
		phone := strings.TrimSpace(p.Phone.Value)
		if p.Phone.Null || phone == "" {
			c.ClearPhone = true
		} else {
			checkPhone(v, phone)
			c.Phone = &phone
		}
	}

	if p.IsActive.Set {
		if p.IsActive.Null {
			v.Add("isActive", "boolean", "", "must be a boolean")
		} else {
			active := p.IsActive.Value
			c.IsActive = &active
		}
	}

	if err := v.Err(); err != nil {
		return Changes{}, err
	}
	return c, nil
}
