package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/mealvote/domains/suggestions/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	"github.com/zenGate-Global/mealvote/platform/go/httpio"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/problem"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type operation string

const (
	createOperation operation = "suggestionsCreate"
	listOperation   operation = "suggestionsList"
	voteOperation   operation = "suggestionsVote"
)

// CreateRequest is the POST /suggestions body.
type CreateRequest struct {
	Title string `json:"title"`
}

// Suggestion is the wire representation of a suggestion. Voter ids are not exposed;
// VotedByMe tells the caller whether they already upvoted it.
type Suggestion struct {
	SuggestionID uuid.UUID `json:"suggestionId"`
	Title        string    `json:"title"`
	VotesCount   int       `json:"votesCount"`
	VotedByMe    bool      `json:"votedByMe"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SuggestionList answers GET /suggestions.
type SuggestionList struct {
	Items []Suggestion `json:"items"`
}

// VoteResponse answers POST /suggestions/{suggestionId}/votes.
type VoteResponse struct {
	Success      bool `json:"success"`
	AlreadyVoted bool `json:"alreadyVoted"`
	VotesCount   int  `json:"votesCount"`
}

// Handler exposes suggestions over HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("suggestions service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Create implements POST /suggestions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tc, identity, err := callerFrom(r)
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	var body CreateRequest
	if err := httpio.DecodeStrict(w, r, &body); err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	created, err := h.svc.Create(r.Context(), tc, service.CreateInput{Title: body.Title, CreatedBy: identity.UserID})
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", "/api/v1/suggestions/"+created.ID.String())
	httpio.WriteJSON(w, http.StatusCreated, toAPISuggestion(created, identity.UserID))
}

// List implements GET /suggestions, most voted first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tc, identity, err := callerFrom(r)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	items, err := h.svc.List(r.Context(), tc.TenantID)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	out := SuggestionList{Items: make([]Suggestion, 0, len(items))}
	for _, s := range items {
		out.Items = append(out.Items, toAPISuggestion(s, identity.UserID))
	}
	httpio.WriteJSON(w, http.StatusOK, out)
}

// Vote implements POST /suggestions/{suggestionId}/votes. A repeated vote
// answers 200 with alreadyVoted set.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	tc, identity, err := callerFrom(r)
	if err != nil {
		h.writeError(w, r, err, voteOperation)
		return
	}

	suggestionID, err := uuid.Parse(chi.URLParam(r, "suggestionId"))
	if err != nil {
		h.writeError(w, r, apperrors.Invalid("suggestionId", "must be a UUID"), voteOperation)
		return
	}

	result, err := h.svc.Vote(r.Context(), tc.TenantID, suggestionID, identity.UserID)
	if err != nil {
		h.writeError(w, r, err, voteOperation)
		return
	}

	httpio.WriteJSON(w, http.StatusOK, VoteResponse{
		Success:      result.Success,
		AlreadyVoted: result.AlreadyVoted,
		VotesCount:   result.VotesCount,
	})
}

func callerFrom(r *http.Request) (tenant.Context, platformauth.Identity, error) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		return tenant.Context{}, platformauth.Identity{}, err
	}
	identity, ok := platformauth.IdentityFromContext(r.Context())
	if !ok || identity.UserID == "" {
		return tenant.Context{}, platformauth.Identity{}, apperrors.Forbidden("authenticated user required")
	}
	return tc, identity, nil
}

func toAPISuggestion(s service.Suggestion, viewer string) Suggestion {
	return Suggestion{
		SuggestionID: s.ID,
		Title:        s.Title,
		VotesCount:   s.VotesCount,
		VotedByMe:    s.VotedBy(viewer),
		CreatedBy:    s.CreatedBy,
		CreatedAt:    s.CreatedAt,
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
		logger.Error("suggestions operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("suggestion not found", fields...)
	default:
		logger.Warn("suggestions request rejected", fields...)
	}

	return status, p
}
