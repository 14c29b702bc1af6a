package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
)

// scheduleAnchor is the DTSTART given to schedules that do not carry one.
// It is a Monday, so INTERVAL-based weekly rules count from ISO week boundaries.
var scheduleAnchor = [3]int{2000, 1, 3}

// Shift is a tenant-configured meal service window.
type Shift struct {
	ID         string
	TenantID   uuid.UUID
	Name       string
	CutoffTime string
	Timezone   string
	Schedule   string
	Order      int
	CreatedAt  time.Time
	UpdatedAt  time.Time

	loc        *time.Location
	cutoffHour int
	cutoffMin  int
	rule       *rrule.RRule
}

// Location returns the shift's time zone.
func (s Shift) Location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}

// CutoffAt returns the instant voting closes for the calendar date.
func (s Shift) CutoffAt(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, s.cutoffHour, s.cutoffMin, 0, 0, s.Location())
}

// VotingOpen reports whether a vote for date may still be recorded at now.
func (s Shift) VotingOpen(date, now time.Time) bool {
	return now.Before(s.CutoffAt(date))
}

// ServesOn reports whether the shift serves a meal on the calendar date.
// A shift without a schedule serves every day.
func (s Shift) ServesOn(date time.Time) bool {
	if s.rule == nil {
		return true
	}
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.Location())
	next := s.rule.After(start, true)
	return !next.IsZero() && next.Before(start.AddDate(0, 0, 1))
}

func compile(s *Shift) error {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", s.Timezone, err)
	}
	s.loc = loc

	hour, minute, err := parseClock(s.CutoffTime)
	if err != nil {
		return err
	}
	s.cutoffHour, s.cutoffMin = hour, minute

	rule, err := compileSchedule(s.Schedule, loc)
	if err != nil {
		return err
	}
	s.rule = rule
	return nil
}

func parseClock(v string) (int, int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cutoff time %q", v)
	}
	return t.Hour(), t.Minute(), nil
}

func compileSchedule(schedule string, loc *time.Location) (*rrule.RRule, error) {
	schedule = strings.TrimSpace(schedule)
	schedule = strings.TrimSpace(strings.TrimPrefix(schedule, "RRULE:"))
	if schedule == "" {
		return nil, nil
	}

	opt, err := rrule.StrToROptionInLocation(schedule, loc)
	if err != nil {
		return nil, fmt.Errorf("parse schedule: %w", err)
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = time.Date(scheduleAnchor[0], time.Month(scheduleAnchor[1]), scheduleAnchor[2], 0, 0, 0, 0, loc)
	}

	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}
	return rule, nil
}
