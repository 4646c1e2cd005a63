// Package validate implements the per-field rules shared by registration,
// profile updates and visit submissions.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
)

const (
	MaxNameLen  = 100
	MaxEmailLen = 254
	// bcrypt refuses longer input
	MaxPasswordBytes = 72
)

var (
	postalCodeRe = regexp.MustCompile(`^[ABCEGHJ-NPRSTVXY][0-9][ABCEGHJ-NPRSTV-Z] ?[0-9][ABCEGHJ-NPRSTV-Z][0-9]$`)
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "+", "")
)

var provinces = map[string]struct{}{
	"AB": {}, "BC": {}, "MB": {}, "NB": {}, "NL": {}, "NS": {}, "NT": {},
	"NU": {}, "ON": {}, "PE": {}, "QC": {}, "SK": {}, "YT": {},
}

// NormalizeEmail returns the canonical form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Email checks a normalised email address.
func Email(v *apperr.Validator, field, email string) {
	if email == "" {
		v.Add(field, apperr.MsgBlank)
		return
	}
	if len(email) > MaxEmailLen {
		v.Add(field, fmt.Sprintf(apperr.MsgTooLong, MaxEmailLen))
		return
	}
	addr, err := mail.ParseAddress(email)
	// reject display-name forms like "Bob <bob@x.com>"
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		v.Add(field, apperr.MsgEmail)
	}
}

// Password requires a non-empty value that fits the hasher's input limit.
func Password(v *apperr.Validator, field, pw string) {
	if pw == "" {
		v.Add(field, apperr.MsgBlank)
		return
	}
	PasswordLength(v, field, pw)
}

// PasswordLength checks only the byte limit.
func PasswordLength(v *apperr.Validator, field, pw string) {
	v.Check(len(pw) <= MaxPasswordBytes, field, fmt.Sprintf(apperr.MsgTooBig, MaxPasswordBytes))
}

// Name checks a required short text field.
func Name(v *apperr.Validator, field, s string) {
	if strings.TrimSpace(s) == "" {
		v.Add(field, apperr.MsgBlank)
		return
	}
	if utf8.RuneCountInString(s) > MaxNameLen {
		v.Add(field, fmt.Sprintf(apperr.MsgTooLong, MaxNameLen))
	}
}

// Text checks a required free-form field.
func Text(v *apperr.Validator, field, s string) {
	v.Check(strings.TrimSpace(s) != "", field, apperr.MsgBlank)
}

// NormalizePhone strips common separators from a phone number.
func NormalizePhone(phone string) string {
	return phoneStrip.Replace(strings.TrimSpace(phone))
}

// Phone checks a normalised phone number: 10 or 11 digits.
func Phone(v *apperr.Validator, field, phone string) {
	if phone == "" {
		v.Add(field, apperr.MsgBlank)
		return
	}
	if len(phone) < 10 || len(phone) > 11 {
		v.Add(field, apperr.MsgPhone)
		return
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			v.Add(field, apperr.MsgPhone)
			return
		}
	}
}

// NormalizePostalCode upper-cases and formats as "A1A 1A1".
func NormalizePostalCode(pc string) string {
	pc = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(pc), " ", ""))
	if len(pc) == 6 {
		return pc[:3] + " " + pc[3:]
	}
	return pc
}

// PostalCode checks a normalised Canadian postal code.
func PostalCode(v *apperr.Validator, field, pc string) {
	if pc == "" {
		v.Add(field, apperr.MsgBlank)
		return
	}
	v.Check(postalCodeRe.MatchString(pc), field, apperr.MsgPostal)
}

// NormalizeProvince upper-cases a province code.
func NormalizeProvince(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

// Province checks a two-letter Canadian province or territory code.
func Province(v *apperr.Validator, field, p string) {
	if p == "" {
		v.Add(field, apperr.MsgBlank)
		return
	}
	_, ok := provinces[p]
	v.Check(ok, field, fmt.Sprintf(apperr.MsgChoice, p))
}

// Positive checks n > 0.
func Positive(v *apperr.Validator, field string, n int) {
	v.Check(n > 0, field, apperr.MsgPositive)
}

// OneOf checks s against a fixed set of choices.
func OneOf(v *apperr.Validator, field, s string, choices ...string) {
	for _, c := range choices {
		if s == c {
			return
		}
	}
	v.Add(field, fmt.Sprintf(apperr.MsgChoice, s))
}
