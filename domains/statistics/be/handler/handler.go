package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/zenGate-Global/mealvote/domains/statistics/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/httpio"
	"github.com/zenGate-Global/mealvote/platform/go/isoweek"
	platformlogging "github.com/zenGate-Global/mealvote/platform/go/logging"
	"github.com/zenGate-Global/mealvote/platform/go/metrics"
	"github.com/zenGate-Global/mealvote/platform/go/problem"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
)

type operation string

const (
	dayOperation  operation = "statisticsDay"
	weekOperation operation = "statisticsWeek"
)

// Option is one dish option's votes and share.
type Option struct {
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// Counts is a per-option pair.
type Counts struct {
	Traditional int `json:"traditional"`
	Alternative int `json:"alternative"`
}

// DayStatistics answers GET /statistics/day.
type DayStatistics struct {
	Date               string `json:"date"`
	WeekOfISO          string `json:"weekOfISO"`
	ShiftID            string `json:"shiftId"`
	Serving            bool   `json:"serving"`
	Traditional        Option `json:"traditional"`
	Alternative        Option `json:"alternative"`
	TotalVotes         int    `json:"totalVotes"`
	ExternalAdjustment Counts `json:"externalAdjustment"`
	FinalCount         Counts `json:"finalCount"`
	Degraded           bool   `json:"degraded"`
}

// WeekStatistics answers GET /statistics/week.
type WeekStatistics struct {
	WeekOfISO            string          `json:"weekOfISO"`
	ShiftID              string          `json:"shiftId"`
	Days                 []DayStatistics `json:"days"`
	TotalVotes           int             `json:"totalVotes"`
	ServingDays          int             `json:"servingDays"`
	AverageParticipation float64         `json:"averageParticipation"`
	FinalCount           Counts          `json:"finalCount"`
	Degraded             bool            `json:"degraded"`
}

// Handler exposes the statistics aggregator over HTTP.
type Handler struct {
	svc     service.Service
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// New constructs a Handler instance. recorder may be nil.
func New(svc service.Service, recorder *metrics.Recorder, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("statistics service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, metrics: recorder, logger: logger}
}

// Day implements GET /statistics/day?date&shiftId.
func (h *Handler) Day(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, dayOperation)
		return
	}

	q := r.URL.Query()
	input := service.DayInput{Date: q.Get("date"), ShiftID: q.Get("shiftId")}
	day, err := h.svc.ComputeDayStatistics(r.Context(), tc.TenantID, input)
	if err != nil {
		if apperrors.KindOf(err) != "" {
			h.writeError(w, r, err, dayOperation)
			return
		}
		h.degraded(r, err, dayOperation)
		out := DayStatistics{Date: input.Date, ShiftID: input.ShiftID, Degraded: true}
		if date, perr := isoweek.ParseDate(input.Date); perr == nil {
			out.WeekOfISO = isoweek.Label(date)
		}
		httpio.WriteJSON(w, http.StatusOK, out)
		return
	}

	httpio.WriteJSON(w, http.StatusOK, NewDayStatistics(day))
}

// Week implements GET /statistics/week?week&shiftId.
func (h *Handler) Week(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.Require(r.Context())
	if err != nil {
		h.writeError(w, r, err, weekOperation)
		return
	}

	q := r.URL.Query()
	input := service.WeekInput{Week: q.Get("week"), ShiftID: q.Get("shiftId")}
	week, err := h.svc.ComputeWeekStatistics(r.Context(), tc.TenantID, input)
	if err != nil {
		if apperrors.KindOf(err) != "" {
			h.writeError(w, r, err, weekOperation)
			return
		}
		h.degraded(r, err, weekOperation)
		httpio.WriteJSON(w, http.StatusOK, degradedWeek(input))
		return
	}

	httpio.WriteJSON(w, http.StatusOK, NewWeekStatistics(week))
}

func (h *Handler) degraded(r *http.Request, err error, op operation) {
	platformlogging.FromContextOr(r.Context(), h.logger).Error("statistics unavailable; serving degraded response",
		zap.String("operation", string(op)), zap.Error(err))
	h.metrics.DegradedRead(string(op))
}

// degradedWeek keeps the seven-day shape so clients render an empty week.
func degradedWeek(input service.WeekInput) WeekStatistics {
	out := WeekStatistics{WeekOfISO: input.Week, ShiftID: input.ShiftID, Days: []DayStatistics{}, Degraded: true}
	week, err := isoweek.Parse(input.Week)
	if err != nil {
		return out
	}
	for _, date := range week.Days() {
		out.Days = append(out.Days, DayStatistics{
			Date:      isoweek.FormatDate(date),
			WeekOfISO: input.Week,
			ShiftID:   input.ShiftID,
			Degraded:  true,
		})
	}
	return out
}

// NewWeekStatistics converts an aggregated week to its wire form.
func NewWeekStatistics(week service.WeekStatistics) WeekStatistics {
	out := WeekStatistics{
		WeekOfISO:            week.WeekOfISO,
		ShiftID:              week.ShiftID,
		Days:                 make([]DayStatistics, 0, len(week.Days)),
		TotalVotes:           week.TotalVotes,
		ServingDays:          week.ServingDays,
		AverageParticipation: week.AverageParticipation,
		FinalCount:           toAPICounts(week.FinalCount),
	}
	for _, day := range week.Days {
		out.Days = append(out.Days, NewDayStatistics(day))
	}
	return out
}

// NewDayStatistics converts an aggregated day to its wire form.
func NewDayStatistics(d service.DayStatistics) DayStatistics {
	return DayStatistics{
		Date:               isoweek.FormatDate(d.Date),
		WeekOfISO:          isoweek.Label(d.Date),
		ShiftID:            d.ShiftID,
		Serving:            d.Serving,
		Traditional:        Option{Votes: d.Traditional.Votes, Percentage: d.Traditional.Percentage},
		Alternative:        Option{Votes: d.Alternative.Votes, Percentage: d.Alternative.Percentage},
		TotalVotes:         d.TotalVotes,
		ExternalAdjustment: toAPICounts(d.ExternalAdjustment),
		FinalCount:         toAPICounts(d.FinalCount),
	}
}

func toAPICounts(c service.Counts) Counts {
	return Counts{Traditional: c.Traditional, Alternative: c.Alternative}
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
		logger.Error("statistics operation failed", fields...)
	case status == http.StatusNotFound:
		logger.Info("statistics target not found", fields...)
	default:
		logger.Warn("statistics request rejected", fields...)
	}

	return status, p
}
