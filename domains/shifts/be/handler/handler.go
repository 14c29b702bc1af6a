package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zenGate-Global/mealvote/domains/shifts/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/httpio"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/problem"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type operation string

const (
	listOperation   operation = "shiftsList"
	getOperation    operation = "shiftsGet"
	upsertOperation operation = "shiftsUpsert"
)

// Shift is the wire representation of a shift.
type Shift struct {
	ShiftID    string    `json:"shiftId"`
	Name       string    `json:"name"`
	CutoffTime string    `json:"cutoffTime"`
	Timezone   string    `json:"timezone"`
	Schedule   string    `json:"schedule,omitempty"`
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ShiftList wraps the tenant's shifts.
type ShiftList struct {
	Items []Shift `json:"items"`
}

// Handler exposes the shifts service over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("shifts service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	shifts, err := h.svc.List(r.Context(), tc.TenantID)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	items := make([]Shift, 0, len(shifts))
	for _, s := range shifts {
		items = append(items, toAPIShift(s))
	}
	httpio.WriteJSON(w, http.StatusOK, ShiftList{Items: items})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}

	shift, err := h.svc.Get(r.Context(), tc.TenantID, chi.URLParam(r, "shiftId"))
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	httpio.WriteJSON(w, http.StatusOK, toAPIShift(shift))
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, upsertOperation)
		return
	}

	var input service.UpsertInput
	if err := httpio.DecodeStrict(w, r, &input); err != nil {
		h.writeError(w, r, err, upsertOperation)
		return
	}

	shift, err := h.svc.Upsert(r.Context(), tc.TenantID, input)
	if err != nil {
		h.writeError(w, r, err, upsertOperation)
		return
	}
	httpio.WriteJSON(w, http.StatusOK, toAPIShift(shift))
}

func toAPIShift(s service.Shift) Shift {
	return Shift{
		ShiftID:    s.ID,
		Name:       s.Name,
		CutoffTime: s.CutoffTime,
		Timezone:   s.Timezone,
		Schedule:   s.Schedule,
		Order:      s.Order,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	_, p := h.problemForError(r.Context(), err, op)
	problem.Write(w, p)
}

func (h *Handler) problemForError(ctx context.Context, err error, op operation) (int, problem.Details) {
	status, p := problem.FromError(err)

	logger := platformlogging.FromContextOr(ctx, h.logger)
	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", status),
		zap.Error(err),
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("shifts operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("shift not found", fields...)
	default:
		logger.Warn("shifts request rejected", fields...)
	}

	return status, p
}
