package httpio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
)

// MaxBodyBytes bounds request bodies; every payload in the API is a small object.
const MaxBodyBytes = 64 << 10

// DecodeStrict decodes a single JSON object into v, rejecting unknown fields,
// trailing data and oversized bodies with a validation error.
func DecodeStrict(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return apperrors.Invalid("body", "request body is required")
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return apperrors.Invalid("body", "request body must contain a single JSON object")
	}
	return nil
}

func decodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError

	switch {
	case errors.Is(err, io.EOF):
		return apperrors.Invalid("body", "request body is required")
	case errors.As(err, &syntaxErr):
		return apperrors.Invalid("body", fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset))
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperrors.Invalid(field, "must be a "+typeErr.Type.String())
	case errors.As(err, &maxErr):
		return apperrors.Invalid("body", "request body is too large")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return apperrors.Invalid(name, "unknown field")
	default:
		return apperrors.Invalid("body", "request body is invalid")
	}
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
