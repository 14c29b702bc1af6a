package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/mealvote/domains/shifts/be/repo"
	"github.com/zenGate-Global/mealvote/platform/go/apperrors"
	"github.com/zenGate-Global/mealvote/platform/go/audit"
	"github.com/zenGate-Global/mealvote/platform/go/persistence"
	"github.com/zenGate-Global/mealvote/platform/go/validation"
)

// UpsertInput is the payload accepted to create or reconfigure a shift.
type UpsertInput struct {
	ShiftID    string `json:"shiftId" validate:"required,slug,max=64"`
	Name       string `json:"name" validate:"required,max=120"`
	CutoffTime string `json:"cutoffTime" validate:"required,hhmm"`
	Timezone   string `json:"timezone" validate:"required,timezone"`
	Schedule   string `json:"schedule,omitempty" validate:"omitempty,max=512"`
	Order      int    `json:"order" validate:"gte=0"`
}

// Service defines the shift configuration operations.
type Service interface {
	Get(ctx context.Context, tenantID uuid.UUID, shiftID string) (Shift, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]Shift, error)
	Upsert(ctx context.Context, tenantID uuid.UUID, input UpsertInput) (Shift, error)
}

type service struct {
	repo  repo.Repository
	audit *audit.Recorder
}

// New constructs a shifts Service. recorder may be nil.
func New(r repo.Repository, recorder *audit.Recorder) Service {
	if r == nil {
		panic("shifts repository is required")
	}
	return &service{repo: r, audit: recorder}
}

func (s *service) Get(ctx context.Context, tenantID uuid.UUID, shiftID string) (Shift, error) {
	shiftID = strings.TrimSpace(shiftID)
	if shiftID == "" {
		return Shift{}, apperrors.Invalid("shiftId", "is required")
	}

	rec, err := s.repo.Get(ctx, tenantID, shiftID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Shift{}, apperrors.NotFound(fmt.Sprintf("shift %q not found", shiftID))
		}
		return Shift{}, fmt.Errorf("load shift %s: %w", shiftID, err)
	}
	return fromRecord(rec)
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID) ([]Shift, error) {
	records, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}

	out := make([]Shift, 0, len(records))
	for _, rec := range records {
		shift, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, shift)
	}
	return out, nil
}

func (s *service) Upsert(ctx context.Context, tenantID uuid.UUID, input UpsertInput) (Shift, error) {
	input.ShiftID = strings.TrimSpace(input.ShiftID)
	input.Name = strings.TrimSpace(input.Name)
	input.Schedule = strings.TrimSpace(input.Schedule)

	if err := validation.Struct(input); err != nil {
		return Shift{}, err
	}
	if input.Schedule != "" {
		if _, err := compileSchedule(input.Schedule, time.UTC); err != nil {
			return Shift{}, apperrors.Invalid("schedule", "must be an RFC 5545 recurrence rule")
		}
	}

	rec := persistence.ShiftRecord{
		TenantID:   tenantID,
		ShiftID:    input.ShiftID,
		Name:       input.Name,
		CutoffTime: input.CutoffTime,
		Timezone:   input.Timezone,
		Order:      input.Order,
	}
	if input.Schedule != "" {
		schedule := input.Schedule
		rec.Schedule = &schedule
	}

	saved, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		return Shift{}, fmt.Errorf("save shift %s: %w", input.ShiftID, err)
	}

	s.audit.Record(ctx, tenantID, "upsert", "shift", saved.ShiftID, map[string]any{
		"cutoffTime": saved.CutoffTime,
		"timezone":   saved.Timezone,
	})
	return fromRecord(saved)
}

func fromRecord(rec persistence.ShiftRecord) (Shift, error) {
	shift := Shift{
		ID:         rec.ShiftID,
		TenantID:   rec.TenantID,
		Name:       rec.Name,
		CutoffTime: rec.CutoffTime,
		Timezone:   rec.Timezone,
		Order:      rec.Order,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
	if rec.Schedule != nil {
		shift.Schedule = *rec.Schedule
	}
	if err := compile(&shift); err != nil {
		return Shift{}, fmt.Errorf("shift %s: %w", rec.ShiftID, err)
	}
	return shift, nil
}

// Build compiles a shift from raw configuration. Tools and tests use it to
// evaluate cutoffs and schedules without storage.
func Build(id, cutoffTime, timezone, schedule string) (Shift, error) {
	shift := Shift{ID: id, CutoffTime: cutoffTime, Timezone: timezone, Schedule: schedule}
	if err := compile(&shift); err != nil {
		return Shift{}, err
	}
	return shift, nil
}
