package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/mealvote/domains/adjustments/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	"github.com/zenGate-Global/mealvote/platform/go/httpio"
	"github.com/zenGate-Global/mealvote/platform/go/isoweek"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/problem"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type operation string

const (
	addOperation  operation = "adjustmentsAdd"
	listOperation operation = "adjustmentsList"
)

// AddRequest is the POST /adjustments body.
type AddRequest struct {
	Date        string            `json:"date"`
	ShiftID     string            `json:"shiftId"`
	AddAbsolute *service.Counts   `json:"addAbsolute,omitempty"`
	AddPercent  *service.Percents `json:"addPercent,omitempty"`
	Note        string            `json:"note,omitempty"`
}

// Adjustment is the wire representation of an external adjustment.
type Adjustment struct {
	AdjustmentID uuid.UUID         `json:"adjustmentId"`
	Date         string            `json:"date"`
	ShiftID      string            `json:"shiftId"`
	AddAbsolute  *service.Counts   `json:"addAbsolute,omitempty"`
	AddPercent   *service.Percents `json:"addPercent,omitempty"`
	Note         string            `json:"note,omitempty"`
	CreatedBy    string            `json:"createdBy"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// AdjustmentList answers GET /adjustments.
type AdjustmentList struct {
	Items []Adjustment `json:"items"`
}

// Handler exposes the adjustment store over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("adjustments service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Add implements POST /adjustments.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, addOperation)
		return
	}
	identity, ok := platformauth.IdentityFromContext(r.Context())
	if !ok || identity.UserID == "" {
		h.writeError(w, r, apperrors.Forbidden("authenticated user required"), addOperation)
		return
	}

	var body AddRequest
	if err := httpio.DecodeStrict(w, r, &body); err != nil {
		h.writeError(w, r, err, addOperation)
		return
	}

	created, err := h.svc.Add(r.Context(), tc, service.AddInput{
		Date:        body.Date,
		ShiftID:     body.ShiftID,
		AddAbsolute: body.AddAbsolute,
		AddPercent:  body.AddPercent,
		Note:        body.Note,
		CreatedBy:   identity.UserID,
	})
	if err != nil {
		h.writeError(w, r, err, addOperation)
		return
	}

	httpio.WriteJSON(w, http.StatusCreated, toAPIAdjustment(created))
}

// List implements GET /adjustments?date&shiftId in insertion order.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	q := r.URL.Query()
	items, err := h.svc.List(r.Context(), tc.TenantID, service.SlotInput{Date: q.Get("date"), ShiftID: q.Get("shiftId")})
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	out := AdjustmentList{Items: make([]Adjustment, 0, len(items))}
	for _, a := range items {
		out.Items = append(out.Items, toAPIAdjustment(a))
	}
	httpio.WriteJSON(w, http.StatusOK, out)
}

func toAPIAdjustment(a service.Adjustment) Adjustment {
	return Adjustment{
		AdjustmentID: a.ID,
		Date:         isoweek.FormatDate(a.Date),
		ShiftID:      a.ShiftID,
		AddAbsolute:  a.AddAbsolute,
		AddPercent:   a.AddPercent,
		Note:         a.Note,
		CreatedBy:    a.CreatedBy,
		CreatedAt:    a.CreatedAt,
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
		logger.Error("adjustments operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("adjustment target not found", fields...)
	default:
		logger.Warn("adjustments request rejected", fields...)
	}

	return status, p
}
