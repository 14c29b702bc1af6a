package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	adjustmentsservice "github.com/zenGate-Global/mealvote/domains/adjustments/be/service"
	shiftsservice "github.com/zenGate-Global/mealvote/domains/shifts/be/service"
	votesservice "github.com/zenGate-Global/mealvote/domains/votes/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/isoweek"
	"github.com/zenGate-Global/mealvote/platform/go/validation"
)

// Counts is a per-option pair of integers.
type Counts = adjustmentsservice.Counts

// OptionStatistics is one option's raw votes and share of the raw total.
type OptionStatistics struct {
	Votes      int
	Percentage float64
}

// DayStatistics is derived on every query; nothing is stored.
type DayStatistics struct {
	Date               time.Time
	ShiftID            string
	Serving            bool
	Traditional        OptionStatistics
	Alternative        OptionStatistics
	TotalVotes         int
	ExternalAdjustment Counts
	FinalCount         Counts
}

// WeekStatistics folds the seven days of an ISO week.
type WeekStatistics struct {
	WeekOfISO            string
	ShiftID              string
	Days                 [7]DayStatistics
	TotalVotes           int
	ServingDays          int
	AverageParticipation float64
	FinalCount           Counts
}

// DayInput addresses one day of a shift.
type DayInput struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftID string `json:"shiftId" validate:"required,slug,max=64"`
}

// WeekInput addresses one ISO week of a shift.
type WeekInput struct {
	Week    string `json:"week" validate:"required,isoweek"`
	ShiftID string `json:"shiftId" validate:"required,slug,max=64"`
}

// TallySource is the vote ledger's read side.
type TallySource interface {
	Tally(ctx context.Context, tenantID uuid.UUID, slot votesservice.SlotInput) (votesservice.Tally, error)
}

// AdjustmentSource resolves adjustment deltas against a raw tally.
type AdjustmentSource interface {
	Sum(ctx context.Context, tenantID uuid.UUID, date time.Time, shiftID string, base adjustmentsservice.Counts) (adjustmentsservice.Counts, error)
}

// ShiftSource resolves a tenant's shift configuration.
type ShiftSource interface {
	Get(ctx context.Context, tenantID uuid.UUID, shiftID string) (shiftsservice.Shift, error)
}

// Service is the statistics aggregator.
type Service interface {
	ComputeDayStatistics(ctx context.Context, tenantID uuid.UUID, input DayInput) (DayStatistics, error)
	ComputeWeekStatistics(ctx context.Context, tenantID uuid.UUID, input WeekInput) (WeekStatistics, error)
}

type service struct {
	tallies     TallySource
	adjustments AdjustmentSource
	shifts      ShiftSource
}

// New constructs the statistics aggregator.
func New(tallies TallySource, adjustments AdjustmentSource, shifts ShiftSource) Service {
	if tallies == nil {
		panic("tally source is required")
	}
	if adjustments == nil {
		panic("adjustment source is required")
	}
	if shifts == nil {
		panic("shift source is required")
	}
	return &service{tallies: tallies, adjustments: adjustments, shifts: shifts}
}

func (s *service) ComputeDayStatistics(ctx context.Context, tenantID uuid.UUID, input DayInput) (DayStatistics, error) {
	input.ShiftID = strings.TrimSpace(input.ShiftID)
	if err := validation.Struct(input); err != nil {
		return DayStatistics{}, err
	}
	date, err := isoweek.ParseDate(input.Date)
	if err != nil {
		return DayStatistics{}, apperrors.Invalid("date", err.Error())
	}

	shift, err := s.shifts.Get(ctx, tenantID, input.ShiftID)
	if err != nil {
		return DayStatistics{}, err
	}
	return s.day(ctx, tenantID, shift, date)
}

// ComputeWeekStatistics evaluates the seven days concurrently; any day's
// failure fails the whole week.
func (s *service) ComputeWeekStatistics(ctx context.Context, tenantID uuid.UUID, input WeekInput) (WeekStatistics, error) {
	input.Week = strings.TrimSpace(input.Week)
	input.ShiftID = strings.TrimSpace(input.ShiftID)
	if err := validation.Struct(input); err != nil {
		return WeekStatistics{}, err
	}
	week, err := isoweek.Parse(input.Week)
	if err != nil {
		return WeekStatistics{}, apperrors.Invalid("week", err.Error())
	}

	shift, err := s.shifts.Get(ctx, tenantID, input.ShiftID)
	if err != nil {
		return WeekStatistics{}, err
	}

	out := WeekStatistics{WeekOfISO: week.String(), ShiftID: shift.ID}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, date := range week.Days() {
		g.Go(func() error {
			day, err := s.day(gctx, tenantID, shift, date)
			if err != nil {
				return err
			}
			out.Days[i] = day
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WeekStatistics{}, err
	}

	for _, day := range out.Days {
		out.TotalVotes += day.TotalVotes
		out.FinalCount = out.FinalCount.Add(day.FinalCount)
		if day.Serving {
			out.ServingDays++
		}
	}
	if out.ServingDays > 0 {
		out.AverageParticipation = round2(float64(out.TotalVotes) / float64(out.ServingDays))
	}
	return out, nil
}

func (s *service) day(ctx context.Context, tenantID uuid.UUID, shift shiftsservice.Shift, date time.Time) (DayStatistics, error) {
	tally, err := s.tallies.Tally(ctx, tenantID, votesservice.SlotInput{Date: isoweek.FormatDate(date), ShiftID: shift.ID})
	if err != nil {
		return DayStatistics{}, err
	}

	raw := Counts{Traditional: tally.Traditional, Alternative: tally.Alternative}
	delta, err := s.adjustments.Sum(ctx, tenantID, date, shift.ID, raw)
	if err != nil {
		return DayStatistics{}, err
	}

	total := tally.Total()
	return DayStatistics{
		Date:               date,
		ShiftID:            shift.ID,
		Serving:            shift.ServesOn(date),
		Traditional:        OptionStatistics{Votes: raw.Traditional, Percentage: percentage(raw.Traditional, total)},
		Alternative:        OptionStatistics{Votes: raw.Alternative, Percentage: percentage(raw.Alternative, total)},
		TotalVotes:         total,
		ExternalAdjustment: delta,
		FinalCount:         raw.Add(delta),
	}, nil
}

// percentage is count's share of total in percent, two decimals; zero when total is zero.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(count) * 100 / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
