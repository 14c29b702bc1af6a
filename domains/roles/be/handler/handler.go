package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/mealvote/domains/roles/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	"github.com/zenGate-Global/mealvote/platform/go/authz"
	"github.com/zenGate-Global/mealvote/platform/go/httpio"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/problem"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type operation string

const (
	listOperation        operation = "rolesList"
	getOperation         operation = "rolesGet"
	createOperation      operation = "rolesCreate"
	updateOperation      operation = "rolesUpdate"
	permissionsOperation operation = "mePermissions"
)

// PermissionResolver resolves the caller's capability set.
type PermissionResolver interface {
	ResolvePermissions(ctx context.Context, tc tenant.Context, identity platformauth.Identity) authz.CapabilitySet
}

// Role is the wire representation of a role.
type Role struct {
	RoleID      uuid.UUID           `json:"roleId"`
	Name        string              `json:"name"`
	Code        string              `json:"code"`
	Order       int                 `json:"order"`
	Permissions authz.CapabilitySet `json:"permissions"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// RoleList wraps the tenant's roles.
type RoleList struct {
	Items []Role `json:"items"`
}

// Permissions answers GET /me/permissions.
type Permissions struct {
	UserID      string              `json:"userId,omitempty"`
	Role        string              `json:"role,omitempty"`
	TenantSlug  string              `json:"tenantSlug"`
	Permissions authz.CapabilitySet `json:"permissions"`
}

// Handler exposes role administration over HTTP.
type Handler struct {
	svc      service.Service
	resolver PermissionResolver
	logger   *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, resolver PermissionResolver, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("roles service is required")
	}
	if resolver == nil {
		panic("permission resolver is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, resolver: resolver, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	roles, err := h.svc.List(r.Context(), tc.TenantID)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	items := make([]Role, 0, len(roles))
	for _, role := range roles {
		items = append(items, toAPIRole(role))
	}
	httpio.WriteJSON(w, http.StatusOK, RoleList{Items: items})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	roleID, err := roleIDParam(r)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}

	role, err := h.svc.Get(r.Context(), tc.TenantID, roleID)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	httpio.WriteJSON(w, http.StatusOK, toAPIRole(role))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	var input service.CreateInput
	if err := httpio.DecodeStrict(w, r, &input); err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	role, err := h.svc.Create(r.Context(), tc.TenantID, input)
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", "/api/v1/roles/"+role.ID.String())
	httpio.WriteJSON(w, http.StatusCreated, toAPIRole(role))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}
	roleID, err := roleIDParam(r)
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	var input service.UpdateInput
	if err := httpio.DecodeStrict(w, r, &input); err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	role, err := h.svc.Update(r.Context(), tc.TenantID, roleID, input)
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}
	httpio.WriteJSON(w, http.StatusOK, toAPIRole(role))
}

// MyPermissions reports the capability set the caller holds in the resolved tenant.
// Anonymous callers receive the empty set.
func (h *Handler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, permissionsOperation)
		return
	}

	identity, _ := platformauth.IdentityFromContext(r.Context())
	httpio.WriteJSON(w, http.StatusOK, Permissions{
		UserID:      identity.UserID,
		Role:        identity.Role,
		TenantSlug:  tc.Slug,
		Permissions: h.resolver.ResolvePermissions(r.Context(), tc, identity),
	})
}

func roleIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "roleId"))
	if err != nil {
		return uuid.Nil, apperrors.Invalid("roleId", "must be a UUID")
	}
	return id, nil
}

func toAPIRole(role service.Role) Role {
	return Role{
		RoleID:      role.ID,
		Name:        role.Name,
		Code:        role.Code,
		Order:       role.Order,
		Permissions: role.Permissions,
		CreatedAt:   role.CreatedAt,
		UpdatedAt:   role.UpdatedAt,
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
		logger.Error("roles operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("role not found", fields...)
	default:
		logger.Warn("roles request rejected", fields...)
	}

	return status, p
}
