package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/mealvote/domains/tenants/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/httpio"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/problem"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type operation string

const (
	currentOperation     operation = "tenantCurrent"
	maintenanceOperation operation = "tenantMaintenance"
)

// Maintenance is the wire form of a maintenance window.
type Maintenance struct {
	Active  bool       `json:"active"`
	Message string     `json:"message,omitempty"`
	Until   *time.Time `json:"until,omitempty"`
}

// Tenant is the wire representation of the resolved tenant.
type Tenant struct {
	TenantID      uuid.UUID   `json:"tenantId"`
	Slug          string      `json:"slug"`
	Name          string      `json:"name"`
	Status        string      `json:"status"`
	AcceptsWrites bool        `json:"acceptsWrites"`
	Maintenance   Maintenance `json:"maintenance"`
}

// Handler wires the tenants service to HTTP.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tenants service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Current implements GET /tenant: the context the resolver attached to this request.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, currentOperation)
		return
	}
	httpio.WriteJSON(w, http.StatusOK, toAPITenant(tc))
}

// SetMaintenance implements PUT /tenant/maintenance for the resolved tenant.
func (h *Handler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, maintenanceOperation)
		return
	}

	var input service.MaintenanceInput
	if err := httpio.DecodeStrict(w, r, &input); err != nil {
		h.writeError(w, r, err, maintenanceOperation)
		return
	}

	updated, err := h.svc.SetMaintenance(r.Context(), tc.TenantID, input)
	if err != nil {
		h.writeError(w, r, err, maintenanceOperation)
		return
	}
	httpio.WriteJSON(w, http.StatusOK, toAPITenant(updated.Context()))
}

func toAPITenant(tc tenant.Context) Tenant {
	return Tenant{
		TenantID:      tc.TenantID,
		Slug:          tc.Slug,
		Name:          tc.Name,
		Status:        string(tc.Status),
		AcceptsWrites: tc.AcceptsWrites(),
		Maintenance: Maintenance{
			Active:  tc.Maintenance.Active,
			Message: tc.Maintenance.Message,
			Until:   tc.Maintenance.Until,
		},
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
		logger.Error("tenant operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("tenant not found", fields...)
	default:
		logger.Warn("tenant request rejected", fields...)
	}

	return status, p
}
