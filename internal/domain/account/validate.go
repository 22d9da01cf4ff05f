package account

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MinPasswordLength = 8
	MinNameLength     = 2
	MaxNameLength     = 50
	MinOrgNameLength  = 2
	MaxOrgNameLength  = 100
	MaxAddressLength  = 200
)

var (
	validate     = validator.New()
	phonePattern = regexp.MustCompile(`^\+?\(?[0-9]{3}\)?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
)

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(v *ValidationError, email string) {
	if email == "" {
		v.Add("email", "required", "", "is required")
		return
	}
	if err := validate.Var(email, "email"); err != nil {
		v.Add("email", "email", "", "must be a valid email address")
	}
}

// checkPassword enforces the password policy: minimum length plus at least one
// ASCII uppercase letter, one ASCII lowercase letter and one ASCII digit.
func checkPassword(v *ValidationError, password string) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		v.Add("password", "min", strconv.Itoa(MinPasswordLength), "must be at least "+strconv.Itoa(MinPasswordLength)+" characters")
		return
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case '0' <= r && r <= '9':
			digit = true
		}
	}

	if !upper || !lower || !digit {
		v.Add("password", "complexity", "", "must contain an uppercase letter, a lowercase letter and a digit")
	}
}

// checkName trims the value and returns it when it fits the bounds.
func checkName(v *ValidationError, field, value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		v.Add(field, "required", "", "is required")
		return trimmed
	}
	checkLength(v, field, trimmed, MinNameLength, MaxNameLength)
	return trimmed
}

func checkPhone(v *ValidationError, phone string) {
	if !phonePattern.MatchString(phone) {
		v.Add("phone", "phone", "", "must be a valid phone number")
	}
}

func checkRole(v *ValidationError, r Role) {
	if r == "" {
		v.Add("role", "required", "", "is required")
		return
	}
	if !r.IsValid() {
		v.Add("role", "oneof", "PATIENT HOSPITAL LAB ADMIN", "must be one of PATIENT, HOSPITAL, LAB, ADMIN")
	}
}

func checkLength(v *ValidationError, field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case min > 0 && n < min:
		v.Add(field, "min", strconv.Itoa(min), "must be at least "+strconv.Itoa(min)+" characters")
	case max > 0 && n > max:
		v.Add(field, "max", strconv.Itoa(max), "must be at most "+strconv.Itoa(max)+" characters")
	}
}

// extended ISO 8601 forms; fractional seconds are accepted by the seconds layouts
var isoLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
}

// ParseDate accepts a calendar date or an ISO 8601 date-time with optional seconds,
// fraction and zone.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	var firstErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// CalendarDate keeps the date as written and drops the time of day, so every store holds
// the same value a postgres DATE column would.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidatePassword reports whether a plaintext password satisfies the policy.
func ValidatePassword(password string) error {
	v := &ValidationError{}
	checkPassword(v, password)
	return v.Err()
}
