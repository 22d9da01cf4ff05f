package account

import (
	"fmt"
	"time"
)

// Columns is the flat, nullable storage shape of the role-scoped attributes.
// Only the columns of the account's own role are ever non-nil.
type Columns struct {
	Role            Role
	DateOfBirth     *time.Time
	Address         *string
	HospitalName    *string
	HospitalAddress *string
	LicenseNumber   *string
	LabName         *string
	LabAddress      *string
	LabLicense      *string
}

func (a Account) Columns() Columns {
	c := Columns{Role: a.Role()}

	switch p := a.Profile.(type) {
	case PatientProfile:
		c.DateOfBirth = p.DateOfBirth
		c.Address = p.Address
	case HospitalProfile:
		c.HospitalName = strPtr(p.Name)
		c.HospitalAddress = strPtr(p.Address)
		c.LicenseNumber = strPtr(p.LicenseNumber)
	case LabProfile:
		c.LabName = strPtr(p.Name)
		c.LabAddress = strPtr(p.Address)
		c.LabLicense = strPtr(p.License)
	}

	return c
}

// Profile rebuilds the variant from stored columns, ignoring columns of other roles.
func (c Columns) Profile() (Profile, error) {
	switch c.Role {
	case RolePatient:
		return PatientProfile{DateOfBirth: c.DateOfBirth, Address: c.Address}, nil
	case RoleHospital:
		return HospitalProfile{
			Name:          deref(c.HospitalName),
			Address:       deref(c.HospitalAddress),
			LicenseNumber: deref(c.LicenseNumber),
		}, nil
	case RoleLab:
		return LabProfile{
			Name:    deref(c.LabName),
			Address: deref(c.LabAddress),
			License: deref(c.LabLicense),
		}, nil
	case RoleAdmin:
		return AdminProfile{}, nil
	default:
		return nil, fmt.Errorf("unknown stored role %q", c.Role)
	}
}

func strPtr(s string) *string {
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
