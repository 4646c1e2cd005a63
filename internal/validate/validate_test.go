package validate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
	"github.com/MyraLuetke/CISC498-Backend/internal/validate"
)

func fieldErrors(t *testing.T, v *apperr.Validator) map[string][]string {
	t.Helper()
	err := v.Err()
	if err == nil {
		return nil
	}
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	return ve.Fields
}

func TestEmail(t *testing.T) {
	cases := map[string]bool{
		"a@x.com":             true,
		"first.last@mail.ca":  true,
		"":                    false,
		"not-an-email":        false,
		"bob@localhost":       false,
		"Bob <bob@x.com>":     false,
		strings.Repeat("a", 250) + "@x.com": false,
	}
	for in, ok := range cases {
		v := &apperr.Validator{}
		validate.Email(v, "email", in)
		require.Equal(t, ok, v.Err() == nil, "email %q", in)
	}
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "a@x.com", validate.NormalizeEmail("  A@X.Com "))
}

func TestPhone(t *testing.T) {
	require.Equal(t, "6135550100", validate.NormalizePhone("(613) 555-0100"))

	for in, ok := range map[string]bool{
		"1234567890":   true,
		"16135550100":  true,
		"123456789":    false,
		"123456789012": false,
		"12345abcde":   false,
		"":             false,
	} {
		v := &apperr.Validator{}
		validate.Phone(v, "phone_num", in)
		require.Equal(t, ok, v.Err() == nil, "phone %q", in)
	}
}

func TestPostalCodeAndProvince(t *testing.T) {
	require.Equal(t, "K7L 3N6", validate.NormalizePostalCode("k7l3n6"))

	v := &apperr.Validator{}
	validate.PostalCode(v, "postal_code", "K7L 3N6")
	validate.Province(v, "province", "ON")
	require.NoError(t, v.Err())

	v = &apperr.Validator{}
	validate.PostalCode(v, "postal_code", "12345")
	validate.Province(v, "province", "XX")
	fields := fieldErrors(t, v)
	require.Equal(t, []string{apperr.MsgPostal}, fields["postal_code"])
	require.Equal(t, []string{`"XX" is not a valid choice.`}, fields["province"])
}

func TestNameAndPositive(t *testing.T) {
	v := &apperr.Validator{}
	validate.Name(v, "first_name", "  ")
	validate.Name(v, "last_name", strings.Repeat("x", 101))
	validate.Positive(v, "capacity", 0)
	validate.OneOf(v, "contact_preference", "fax", "phone", "email")
	fields := fieldErrors(t, v)
	require.Equal(t, []string{apperr.MsgBlank}, fields["first_name"])
	require.Equal(t, []string{"Ensure this field has no more than 100 characters."}, fields["last_name"])
	require.Equal(t, []string{apperr.MsgPositive}, fields["capacity"])
	require.Contains(t, fields, "contact_preference")
}

func TestPasswordByteLimit(t *testing.T) {
	v := &apperr.Validator{}
	validate.Password(v, "password", strings.Repeat("a", validate.MaxPasswordBytes))
	require.NoError(t, v.Err())

	v = &apperr.Validator{}
	// 40 runes, 80 bytes
	validate.Password(v, "password", strings.Repeat("é", 40))
	validate.Password(v, "blank", "")
	fields := fieldErrors(t, v)
	require.Equal(t, []string{"Ensure this field has no more than 72 bytes."}, fields["password"])
	require.Equal(t, []string{apperr.MsgBlank}, fields["blank"])
}
