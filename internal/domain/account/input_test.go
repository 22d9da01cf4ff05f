package account

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func validNewAccount() NewAccount {
	return NewAccount{
		Email:     "  Jean.Dupont@Example.com ",
		Password:  "Secret123",
		Role:      RolePatient,
		FirstName: " Jean ",
		LastName:  "Dupont",
	}
}

func TestNewAccountPrepare_Normalizes(t *testing.T) {
	a, err := validNewAccount().Prepare()
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}

	if a.Email != "jean.dupont@example.com" {
		t.Fatalf("email not normalized: %q", a.Email)
	}
	if a.FirstName != "Jean" {
		t.Fatalf("first name not trimmed: %q", a.FirstName)
	}
	if !a.IsActive {
		t.Fatalf("new accounts should default to active")
	}
	if a.Role() != RolePatient {
		t.Fatalf("expected PATIENT, got %s", a.Role())
	}
	if a.PasswordHash != "" {
		t.Fatalf("Prepare must not hash")
	}
}

func TestNewAccountPrepare_PasswordPolicy(t *testing.T) {
	tests := []struct {
		password string
		rule     string
	}{
		{"Ab1", "min"},
		{"alllower1", "complexity"},
		{"ALLUPPER1", "complexity"},
		{"NoDigitsHere", "complexity"},
		{"Passwordé١", "complexity"},
		{"ÉÇÀÈabc12", "complexity"},
		{"passwordÉ12", "complexity"},
		{"Secret123", ""},
	}

	for _, tt := range tests {
		n := validNewAccount()
		n.Password = tt.password

		_, err := n.Prepare()
		if got := fieldsOf(err)["password"]; got != tt.rule {
			t.Fatalf("%q: got rule %q want %q", tt.password, got, tt.rule)
		}
	}
}

func TestNewAccountPrepare_CollectsEveryField(t *testing.T) {
	n := NewAccount{
		Email:     "not-an-email",
		Password:  "short",
		Role:      "NURSE",
		FirstName: "J",
		LastName:  strings.Repeat("x", MaxNameLength+1),
		Phone:     str("12"),
	}

	_, err := n.Prepare()
	got := fieldsOf(err)

	want := map[string]string{
		"email":     "email",
		"password":  "min",
		"role":      "oneof",
		"firstName": "min",
		"lastName":  "max",
		"phone":     "phone",
	}
	for field, rule := range want {
		if got[field] != rule {
			t.Fatalf("field %q: got %q want %q (all=%v)", field, got[field], rule, got)
		}
	}
}

func TestNewAccountPrepare_Phone(t *testing.T) {
	for _, phone := range []string{"+331-234-56789", "(555) 123-4567", "555.123.4567", "5551234567"} {
		n := validNewAccount()
		n.Phone = str(phone)
		if _, err := n.Prepare(); err != nil {
			t.Fatalf("%q should be accepted: %v", phone, err)
		}
	}

	n := validNewAccount()
	n.Phone = str("   ")
	a, err := n.Prepare()
	if err != nil {
		t.Fatalf("blank phone should be ignored: %v", err)
	}
	if a.Phone != nil {
		t.Fatalf("blank phone should be stored as absent")
	}
}

func TestNewAccountPrepare_ExplicitInactive(t *testing.T) {
	n := validNewAccount()
	inactive := false
	n.IsActive = &inactive

	a, err := n.Prepare()
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	if a.IsActive {
		t.Fatalf("expected inactive account")
	}
}

func TestOptional_UnmarshalTriState(t *testing.T) {
	var p Patch
	if err := json.Unmarshal([]byte(`{"phone":null,"firstName":"Ana","role":"labo"}`), &p); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if !p.Phone.Set || !p.Phone.Null {
		t.Fatalf("phone should be set to null: %+v", p.Phone)
	}
	if !p.FirstName.Present() || p.FirstName.Value != "Ana" {
		t.Fatalf("firstName not decoded: %+v", p.FirstName)
	}
	if p.LastName.Set {
		t.Fatalf("lastName was absent")
	}
	if p.Role.Value != RoleLab {
		t.Fatalf("legacy role not mapped: %q", p.Role.Value)
	}
}

func TestPatchCheck(t *testing.T) {
	p := Patch{
		Email:     Some(" New@Example.com"),
		Password:  Some(""),
		FirstName: Null[string](),
		Phone:     Some(""),
		IsActive:  Some(false),
	}

	c, err := p.Check()
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}

	if c.Email == nil || *c.Email != "new@example.com" {
		t.Fatalf("email not normalized: %v", c.Email)
	}
	if c.Password != nil || c.FirstName != nil {
		t.Fatalf("empty and null values should be treated as absent")
	}
	if !c.ClearPhone || c.Phone != nil {
		t.Fatalf("empty phone should clear it: %+v", c)
	}
	if c.IsActive == nil || *c.IsActive {
		t.Fatalf("isActive not carried")
	}
}

func TestPatchCheck_Invalid(t *testing.T) {
	p := Patch{
		Password: Some("weak"),
		Role:     Some(Role("NURSE")),
		IsActive: Null[bool](),
	}

	_, err := p.Check()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	got := fieldsOf(err)
	for _, f := range []string{"password", "role", "isActive"} {
		if _, ok := got[f]; !ok {
			t.Fatalf("missing %s in %v", f, got)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := map[string]Role{
		"patient":   RolePatient,
		" HOSPITAL": RoleHospital,
		"hopital":   RoleHospital,
		"LABO":      RoleLab,
		"admin":     RoleAdmin,
	}
	for in, want := range tests {
		got, ok := ParseRole(in)
		if !ok || got != want {
			t.Fatalf("ParseRole(%q) = %q,%v want %q", in, got, ok, want)
		}
	}

	if _, ok := ParseRole("doctor"); ok {
		t.Fatalf("unknown role should not parse")
	}
}

func TestAccountJSONNeverLeaksHash(t *testing.T) {
	a := Account{
		ID:           "id-1",
		Email:        "a@b.co",
		PasswordHash: "$2a$12$secret",
		Profile:      LabProfile{Name: "Bio", Address: "1 rue", License: "L"},
	}

	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	body := string(b)
	if strings.Contains(body, "secret") || strings.Contains(strings.ToLower(body), "password") {
		t.Fatalf("hash leaked: %s", body)
	}
	if strings.Contains(body, "hospitalName") || strings.Contains(body, "dateOfBirth") {
		t.Fatalf("foreign attributes present: %s", body)
	}
	if !strings.Contains(body, `"labName":"Bio"`) {
		t.Fatalf("lab attributes missing: %s", body)
	}
}
