package account

import (
	"errors"
	"strings"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("email already in use")
	ErrValidation     = errors.New("invalid account data")
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// ValidationError collects every rule an input broke.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Add(field, rule, param, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Rule: rule, Param: param, Message: message})
}

// Err returns nil when nothing was collected.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) merge(other error) {
	var ve *ValidationError
	if errors.As(other, &ve) {
		e.Fields = append(e.Fields, ve.Fields...)
	}
}
