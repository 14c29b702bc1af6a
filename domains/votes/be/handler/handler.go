package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/mealvote/domains/votes/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	platformauth "github.com/zenGate-Global/mealvote/platform/go/auth"
	"github.com/zenGate-Global/mealvote/platform/go/httpio"
	"github.com/zenGate-Global/mealvote/platform/go/isoweek"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/metrics"
	"github.com/zenGate-Global/mealvote/platform/go/problem"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type operation string

const (
	castOperation  operation = "votesCast"
	mineOperation  operation = "votesMine"
	tallyOperation operation = "votesTally"
)

// CastVoteRequest is the POST /votes body.
type CastVoteRequest struct {
	Date    string `json:"date"`
	ShiftID string `json:"shiftId"`
	Choice  string `json:"choice"`
}

// Vote is the wire representation of a ledger entry.
type Vote struct {
	VoteID    uuid.UUID `json:"voteId"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	WeekOfISO string    `json:"weekOfISO"`
	ShiftID   string    `json:"shiftId"`
	Choice    string    `json:"choice"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CastVoteResponse answers POST /votes.
type CastVoteResponse struct {
	Outcome string `json:"outcome"`
	Vote    Vote   `json:"vote"`
}

// Tally answers GET /votes/tally. Degraded is set when storage could not be
// read and the counts are placeholders.
type Tally struct {
	Date        string `json:"date"`
	ShiftID     string `json:"shiftId"`
	Traditional int    `json:"traditional"`
	Alternative int    `json:"alternative"`
	Total       int    `json:"total"`
	Degraded    bool   `json:"degraded"`
}

// Handler exposes the vote ledger over HTTP.
type Handler struct {
	svc     service.Service
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// New constructs a Handler instance. recorder may be nil.
func New(svc service.Service, recorder *metrics.Recorder, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("votes service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, metrics: recorder, logger: logger}
}

// Cast implements POST /votes for the authenticated caller.
func (h *Handler) Cast(w http.ResponseWriter, r *http.Request) {
	tc, identity, err := callerFrom(r)
	if err != nil {
		h.writeError(w, r, err, castOperation)
		return
	}

	var body CastVoteRequest
	if err := httpio.DecodeStrict(w, r, &body); err != nil {
		h.writeError(w, r, err, castOperation)
		return
	}

	result, err := h.svc.CastVote(r.Context(), tc, service.CastVoteInput{
		UserID:  identity.UserID,
		Date:    body.Date,
		ShiftID: body.ShiftID,
		Choice:  body.Choice,
	})
	if err != nil {
		h.writeError(w, r, err, castOperation)
		return
	}

	status := http.StatusOK
	if result.Outcome == service.OutcomeCreated {
		status = http.StatusCreated
	}
	httpio.WriteJSON(w, status, CastVoteResponse{Outcome: string(result.Outcome), Vote: toAPIVote(result.Vote)})
}

// Mine implements GET /votes/mine?date&shiftId.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	tc, identity, err := callerFrom(r)
	if err != nil {
		h.writeError(w, r, err, mineOperation)
		return
	}

	vote, err := h.svc.FindVote(r.Context(), tc.TenantID, identity.UserID, slotFrom(r))
	if err != nil {
		h.writeError(w, r, err, mineOperation)
		return
	}
	httpio.WriteJSON(w, http.StatusOK, toAPIVote(vote))
}

// Tally implements GET /votes/tally?date&shiftId. Storage failures answer 200
// with zero counts and degraded set, so kitchen screens keep rendering.
func (h *Handler) Tally(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, tallyOperation)
		return
	}

	slot := slotFrom(r)
	tally, err := h.svc.Tally(r.Context(), tc.TenantID, slot)
	if err != nil {
		if apperrors.KindOf(err) != "" {
			h.writeError(w, r, err, tallyOperation)
			return
		}
		platformlogging.FromContextOr(r.Context(), h.logger).Error("tally unavailable; serving degraded response",
			zap.String("operation", string(tallyOperation)), zap.Error(err))
		h.metrics.DegradedRead("tally")
		httpio.WriteJSON(w, http.StatusOK, Tally{Date: slot.Date, ShiftID: slot.ShiftID, Degraded: true})
		return
	}

	httpio.WriteJSON(w, http.StatusOK, Tally{
		Date:        slot.Date,
		ShiftID:     slot.ShiftID,
		Traditional: tally.Traditional,
		Alternative: tally.Alternative,
		Total:       tally.Total(),
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

func slotFrom(r *http.Request) service.SlotInput {
	q := r.URL.Query()
	return service.SlotInput{Date: q.Get("date"), ShiftID: q.Get("shiftId")}
}

func toAPIVote(v service.Vote) Vote {
	return Vote{
		VoteID:    v.ID,
		UserID:    v.UserID,
		Date:      isoweek.FormatDate(v.Date),
		WeekOfISO: v.WeekOfISO,
		ShiftID:   v.ShiftID,
		Choice:    string(v.Choice),
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
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
		logger.Error("votes operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("vote resource not found", fields...)
	default:
		logger.Warn("votes request rejected", fields...)
	}

	return status, p
}
