package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/domains/adjustments/be/repo"
	shiftsservice "github.com/zenGate-Global/mealvote/domains/shifts/be/service"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/audit"
	"github.com/zenGate-Global/mealvote/platform/go/isoweek"
	"github.com/zenGate-Global/mealvote/platform/go/metrics"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
	"github.com/zenGate-Global/mealvote/platform/go/tenant"
	"github.com/zenGate-Global/mealvote/platform/go/validation"
)

// Counts is a per-option integer pair: a raw tally, an absolute correction or a delta.
type Counts struct {
	Traditional int `json:"traditional" validate:"gte=-100000,lte=100000"`
	Alternative int `json:"alternative" validate:"gte=-100000,lte=100000"`
}

// Add returns the elementwise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{Traditional: c.Traditional + o.Traditional, Alternative: c.Alternative + o.Alternative}
}

// Percents is a per-option percentage of the raw tally.
type Percents struct {
	Traditional float64 `json:"traditional" validate:"gte=-100,lte=1000"`
	Alternative float64 `json:"alternative" validate:"gte=-100,lte=1000"`
}

// Adjustment is a manual correction layered on a slot's tally at read time.
type Adjustment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Date        time.Time
	ShiftID     string
	AddAbsolute *Counts
	AddPercent  *Percents
	Note        string
	CreatedBy   string
	CreatedAt   time.Time
}

// Delta resolves the adjustment against base. Percentages always apply to the
// raw tally, never to a running adjusted total.
func (a Adjustment) Delta(base Counts) Counts {
	var d Counts
	if a.AddAbsolute != nil {
		d = d.Add(*a.AddAbsolute)
	}
	if a.AddPercent != nil {
		d = d.Add(Counts{
			Traditional: percentOf(base.Traditional, a.AddPercent.Traditional),
			Alternative: percentOf(base.Alternative, a.AddPercent.Alternative),
		})
	}
	return d
}

// AddInput is the payload accepted to record an adjustment.
type AddInput struct {
	Date        string    `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftID     string    `json:"shiftId" validate:"required,slug,max=64"`
	AddAbsolute *Counts   `json:"addAbsolute"`
	AddPercent  *Percents `json:"addPercent"`
	Note        string    `json:"note" validate:"max=500"`
	CreatedBy   string    `json:"createdBy" validate:"required,max=128"`
}

// SlotInput addresses a (date, shift) slot.
type SlotInput struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	ShiftID string `json:"shiftId" validate:"required,slug,max=64"`
}

// ShiftSource resolves a tenant's shift configuration.
type ShiftSource interface {
	Get(ctx context.Context, tenantID uuid.UUID, shiftID string) (shiftsservice.Shift, error)
}

// Service is the external adjustment store.
type Service interface {
	Add(ctx context.Context, tc tenant.Context, input AddInput) (Adjustment, error)
	List(ctx context.Context, tenantID uuid.UUID, slot SlotInput) ([]Adjustment, error)
	Sum(ctx context.Context, tenantID uuid.UUID, date time.Time, shiftID string, base Counts) (Counts, error)
}

type service struct {
	repo    repo.Repository
	shifts  ShiftSource
	metrics *metrics.Recorder
	audit   *audit.Recorder
}

// New constructs the adjustments Service. recorder and auditor may be nil.
func New(r repo.Repository, shifts ShiftSource, recorder *metrics.Recorder, auditor *audit.Recorder) Service {
	if r == nil {
		panic("adjustments repository is required")
	}
	if shifts == nil {
		panic("shift source is required")
	}
	return &service{repo: r, shifts: shifts, metrics: recorder, audit: auditor}
}

func (s *service) Add(ctx context.Context, tc tenant.Context, input AddInput) (Adjustment, error) {
	input.ShiftID = strings.TrimSpace(input.ShiftID)
	input.Note = strings.TrimSpace(input.Note)
	if err := validation.Struct(input); err != nil {
		return Adjustment{}, err
	}
	if !tc.AcceptsWrites() {
		return Adjustment{}, apperrors.Forbidden(fmt.Sprintf("tenant %s is %s and does not accept adjustments", tc.Slug, tc.Status))
	}
	tenantID := tc.TenantID
	if input.AddAbsolute == nil && input.AddPercent == nil {
		return Adjustment{}, apperrors.Invalid("addAbsolute", "addAbsolute or addPercent is required")
	}

	date, err := isoweek.ParseDate(input.Date)
	if err != nil {
		return Adjustment{}, apperrors.Invalid("date", err.Error())
	}
	if _, err := s.shifts.Get(ctx, tenantID, input.ShiftID); err != nil {
		return Adjustment{}, err
	}

	rec := persistence.AdjustmentRecord{
		TenantID:  tenantID,
		Date:      date,
		ShiftID:   input.ShiftID,
		Note:      input.Note,
		CreatedBy: input.CreatedBy,
	}
	if a := input.AddAbsolute; a != nil {
		rec.AddTraditional, rec.AddAlternative = &a.Traditional, &a.Alternative
	}
	if p := input.AddPercent; p != nil {
		rec.PctTraditional, rec.PctAlternative = &p.Traditional, &p.Alternative
	}

	stored, err := s.repo.Insert(ctx, rec)
	if err != nil {
		if errors.Is(err, persistence.ErrTenantRequired) {
			return Adjustment{}, apperrors.Unavailable("tenant context is not resolved", err)
		}
		return Adjustment{}, fmt.Errorf("insert adjustment: %w", err)
	}

	s.metrics.AdjustmentAdded()
	s.audit.Record(ctx, tenantID, "create", "adjustment", stored.AdjustmentID.String(), map[string]any{
		"date":    input.Date,
		"shiftId": input.ShiftID,
	})
	return fromRecord(stored), nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, slot SlotInput) ([]Adjustment, error) {
	slot.ShiftID = strings.TrimSpace(slot.ShiftID)
	if err := validation.Struct(slot); err != nil {
		return nil, err
	}
	date, err := isoweek.ParseDate(slot.Date)
	if err != nil {
		return nil, apperrors.Invalid("date", err.Error())
	}
	return s.list(ctx, tenantID, date, slot.ShiftID)
}

// Sum folds every adjustment of the slot into one delta against base.
// Addition is commutative, so the insertion order of adjustments is irrelevant.
func (s *service) Sum(ctx context.Context, tenantID uuid.UUID, date time.Time, shiftID string, base Counts) (Counts, error) {
	items, err := s.list(ctx, tenantID, date, shiftID)
	if err != nil {
		return Counts{}, err
	}
	var total Counts
	for _, a := range items {
		total = total.Add(a.Delta(base))
	}
	return total, nil
}

func (s *service) list(ctx context.Context, tenantID uuid.UUID, date time.Time, shiftID string) ([]Adjustment, error) {
	records, err := s.repo.ListForSlot(ctx, tenantID, date, shiftID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments for %s %s: %w", isoweek.FormatDate(date), shiftID, err)
	}
	out := make([]Adjustment, 0, len(records))
	for _, rec := range records {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

// percentOf is base*pct/100 rounded half up (towards +Inf): 2.5 -> 3, -2.5 -> -2.
func percentOf(base int, pct float64) int {
	return int(math.Floor(float64(base)*pct/100 + 0.5))
}

func fromRecord(rec persistence.AdjustmentRecord) Adjustment {
	a := Adjustment{
		ID:        rec.AdjustmentID,
		TenantID:  rec.TenantID,
		Date:      rec.Date,
		ShiftID:   rec.ShiftID,
		Note:      rec.Note,
		CreatedBy: rec.CreatedBy,
		CreatedAt: rec.CreatedAt,
	}
	if rec.AddTraditional != nil || rec.AddAlternative != nil {
		a.AddAbsolute = &Counts{Traditional: deref(rec.AddTraditional), Alternative: deref(rec.AddAlternative)}
	}
	if rec.PctTraditional != nil || rec.PctAlternative != nil {
		a.AddPercent = &Percents{Traditional: derefFloat(rec.PctTraditional), Alternative: derefFloat(rec.PctAlternative)}
	}
	return a
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
