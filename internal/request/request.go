// Package request decodes JSON request bodies.
package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
)

const maxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dst. A missing or malformed body
// is reported as a validation error naming every required field, so clients
// learn the full shape of the payload in one round trip. A well-formed body
// with a member of the wrong type reports only that member.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any, required ...string) error {
	if r.Body == nil {
		return malformed(required)
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperr.Invalid(typeErr.Field, fmt.Sprintf(apperr.MsgType, kindName(typeErr.Type)))
		}
		return malformed(required)
	}
	// trailing garbage after the first value is malformed input too
	if _, err := dec.Token(); err != io.EOF {
		return malformed(required)
	}
	return nil
}

// DecodeFields decodes a JSON object body into its raw members so callers
// can reject keys they do not accept.
func DecodeFields(w http.ResponseWriter, r *http.Request, required ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := DecodeJSON(w, r, &fields, required...); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, malformed(required)
	}
	return fields, nil
}

func malformed(required []string) error {
	if len(required) == 0 {
		return apperr.Invalid("non_field_errors", "Invalid JSON body.")
	}
	return apperr.Required(required...)
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	}
	return "value"
}
