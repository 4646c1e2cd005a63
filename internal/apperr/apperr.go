// Package apperr holds the error kinds shared by the account, visit and token
// services. Handlers map them onto HTTP status codes.
package apperr

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrConflict       = errors.New("an active account already exists for this email")
	ErrAuthentication = errors.New("invalid credentials")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrUnauthorized   = errors.New("unauthorized")
)

const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
	MsgTooLong  = "Ensure this field has no more than %d characters."
	MsgTooBig   = "Ensure this field has no more than %d bytes."
	MsgType     = "A valid %s is required."
	MsgEmail    = "Enter a valid email address."
	MsgPhone    = "Enter a valid phone number of 10 or 11 digits."
	MsgPositive = "Ensure this value is a positive integer."
	MsgChoice   = "\"%s\" is not a valid choice."
	MsgDateTime = "Datetime has wrong format. Use RFC 3339."
	MsgPostal   = "Enter a valid postal code."
	MsgInactive = "This account is not active."
	MsgUnknown  = "Unexpected field."
)

// ValidationError reports one or more invalid request fields.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, msg string) error {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Required builds a ValidationError marking every named field as required.
func Required(fields ...string) error {
	v := &Validator{}
	for _, f := range fields {
		v.Add(f, MsgRequired)
	}
	return v.Err()
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validator collects field errors.
type Validator struct {
	fields map[string][]string
}

// Add records msg against field.
func (v *Validator) Add(field, msg string) {
	if v.fields == nil {
		v.fields = make(map[string][]string)
	}
	v.fields[field] = append(v.fields[field], msg)
}

// Check records msg against field when ok is false.
func (v *Validator) Check(ok bool, field, msg string) {
	if !ok {
		v.Add(field, msg)
	}
}

// Has reports whether field already has an error.
func (v *Validator) Has(field string) bool {
	_, ok := v.fields[field]
	return ok
}

// Err returns nil when nothing was recorded.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}
