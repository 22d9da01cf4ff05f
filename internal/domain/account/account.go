package account

import (
	"encoding/json"
	"time"
)

// Profile holds the attributes that only exist for one role.
// The concrete type decides the account's role, so an account can never
// carry another role's fields.
type Profile interface {
	Role() Role
	isProfile()
}

type PatientProfile struct {
	DateOfBirth *time.Time
	Address     *string
}

type HospitalProfile struct {
	Name          string
	Address       string
	LicenseNumber string
}

type LabProfile struct {
	Name    string
	Address string
	License string
}

type AdminProfile struct{}

func (PatientProfile) Role() Role  { return RolePatient }
func (HospitalProfile) Role() Role { return RoleHospital }
func (LabProfile) Role() Role      { return RoleLab }
func (AdminProfile) Role() Role    { return RoleAdmin }

func (PatientProfile) isProfile()  {}
func (HospitalProfile) isProfile() {}
func (LabProfile) isProfile()      {}
func (AdminProfile) isProfile()    {}

// EmptyProfile returns the zero variant for a role.
func EmptyProfile(r Role) (Profile, bool) {
	switch r {
	case RolePatient:
		return PatientProfile{}, true
	case RoleHospital:
		return HospitalProfile{}, true
	case RoleLab:
		return LabProfile{}, true
	case RoleAdmin:
		return AdminProfile{}, true
	default:
		return nil, false
	}
}

type Account struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	IsActive     bool
	Profile      Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a Account) Role() Role {
	if a.Profile == nil {
		return ""
	}
	return a.Profile.Role()
}

// View is the client-facing shape of an account. The password hash is never part of it
// and attributes of other roles are omitted.
type View struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Role            Role       `json:"role"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Phone           *string    `json:"phone"`
	DateOfBirth     *time.Time `json:"dateOfBirth,omitempty"`
	Address         *string    `json:"address,omitempty"`
	HospitalName    *string    `json:"hospitalName,omitempty"`
	HospitalAddress *string    `json:"hospitalAddress,omitempty"`
	LicenseNumber   *string    `json:"licenseNumber,omitempty"`
	LabName         *string    `json:"labName,omitempty"`
	LabAddress      *string    `json:"labAddress,omitempty"`
	LabLicense      *string    `json:"labLicense,omitempty"`
	IsActive        bool       `json:"isActive"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Summary is the reduced shape used by listings and reactivation.
type Summary struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Phone        *string   `json:"phone"`
	HospitalName *string   `json:"hospitalName,omitempty"`
	LabName      *string   `json:"labName,omitempty"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (a Account) View() View {
	c := a.Columns()

	return View{
		ID:              a.ID,
		Email:           a.Email,
		Role:            a.Role(),
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Phone:           a.Phone,
		DateOfBirth:     c.DateOfBirth,
		Address:         c.Address,
		HospitalName:    c.HospitalName,
		HospitalAddress: c.HospitalAddress,
		LicenseNumber:   c.LicenseNumber,
		LabName:         c.LabName,
		LabAddress:      c.LabAddress,
		LabLicense:      c.LabLicense,
		IsActive:        a.IsActive,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (a Account) Summary() Summary {
	c := a.Columns()

	return Summary{
		ID:           a.ID,
		Email:        a.Email,
		Role:         a.Role(),
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Phone:        a.Phone,
		HospitalName: c.HospitalName,
		LabName:      c.LabName,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// MarshalJSON always goes through View so the hash cannot leak.
func (a Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.View())
}
