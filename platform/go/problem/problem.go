package problem

import (
	"encoding/json"
	"net/http"

	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
)

const (
	TypeValidation  = "https://mealvote.app/problems/validation-error"
	TypeForbidden   = "https://mealvote.app/problems/forbidden"
	TypeClosed      = "https://mealvote.app/problems/voting-closed"
	TypeNotFound    = "https://mealvote.app/problems/not-found"
	TypeUnavailable = "https://mealvote.app/problems/unavailable"
	TypeInternal    = "https://mealvote.app/problems/internal-error"
)

// Details is an RFC 9457 problem document.
type Details struct {
	Type   *string              `json:"type,omitempty"`
	Title  string               `json:"title"`
	Status int                  `json:"status"`
	Detail *string              `json:"detail,omitempty"`
	Kind   string               `json:"kind,omitempty"`
	Errors *map[string][]string `json:"errors,omitempty"`
}

// New builds a problem document.
func New(title, detail, problemType string, status int) Details {
	p := Details{Title: title, Status: status}
	if detail != "" {
		p.Detail = &detail
	}
	if problemType != "" {
		p.Type = &problemType
	}
	return p
}

// FromError classifies err into an HTTP status and a problem document.
// Unclassified errors become a generic 500 that does not leak the cause.
func FromError(err error) (int, Details) {
	appErr, ok := apperrors.As(err)
	if !ok {
		return http.StatusInternalServerError, New("Internal server error", "an unexpected error occurred", TypeInternal, http.StatusInternalServerError)
	}

	var p Details
	switch appErr.Kind {
	case apperrors.KindValidation:
		p = New("Validation failed", appErr.Reason, TypeValidation, http.StatusBadRequest)
		if len(appErr.Fields) > 0 {
			copied := make(map[string][]string, len(appErr.Fields))
			for field, messages := range appErr.Fields {
				copied[field] = append([]string(nil), messages...)
			}
			p.Errors = &copied
		}
	case apperrors.KindForbidden:
		p = New("Forbidden", appErr.Reason, TypeForbidden, http.StatusForbidden)
	case apperrors.KindClosed:
		p = New("Voting closed", appErr.Reason, TypeClosed, http.StatusConflict)
	case apperrors.KindNotFound:
		p = New("Resource not found", appErr.Reason, TypeNotFound, http.StatusNotFound)
	case apperrors.KindUnavailable:
		p = New("Service unavailable", appErr.Reason, TypeUnavailable, http.StatusServiceUnavailable)
	default:
		p = New("Internal server error", "an unexpected error occurred", TypeInternal, http.StatusInternalServerError)
	}
	p.Kind = string(appErr.Kind)

	return p.Status, p
}

// Write renders p as application/problem+json.
func Write(w http.ResponseWriter, p Details) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
