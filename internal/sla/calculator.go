// Package sla selects SLA configurations and computes response and resolve
// targets, optionally in business hours.
package sla

import (
	"errors"
	"strings"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/sellerdesk/support-portal/internal/domain"
)

// FallbackResolveWindow applies when no configuration matches.
const FallbackResolveWindow = 24 * time.Hour

// ErrInvalidCreatedAt is returned for a zero creation timestamp.
var ErrInvalidCreatedAt = errors.New("sla: createdAt must be a valid timestamp")

// Targets is the calculator output.
type Targets struct {
	ResponseTarget    *time.Time
	ResolveTarget     time.Time
	UsedBusinessHours bool
	Config            *domain.SLAConfig
}

// Fallback reports whether no configuration matched.
func (t Targets) Fallback() bool {
	return t.Config == nil
}

// CalendarOptions describes the business calendar.
type CalendarOptions struct {
	Location  *time.Location
	Workdays  []time.Weekday
	DayStart  time.Duration
	DayEnd    time.Duration
	Holidays  []Holiday
	AtRiskFor time.Duration
}

// Holiday is a fixed-date closure repeating every year.
type Holiday struct {
	Name  string
	Month time.Month
	Day   int
}

// DefaultCalendarOptions is Monday to Friday, 09:00 to 18:00 UTC.
func DefaultCalendarOptions() CalendarOptions {
	return CalendarOptions{
		Location:  time.UTC,
		Workdays:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		DayStart:  9 * time.Hour,
		DayEnd:    18 * time.Hour,
		AtRiskFor: 2 * time.Hour,
	}
}

// Calculator is immutable after construction and safe for concurrent use.
type Calculator struct {
	calendar  *cal.BusinessCalendar
	location  *time.Location
	atRiskFor time.Duration
}

// NewCalculator builds the business calendar from opts. An empty workday
// set falls back to Monday to Friday; a calendar without workdays never
// reaches a business-hours target.
func NewCalculator(opts CalendarOptions) *Calculator {
	bc := cal.NewBusinessCalendar()
	for d := time.Sunday; d <= time.Saturday; d++ {
		bc.SetWorkday(d, false)
	}
	workdays := opts.Workdays
	if len(workdays) == 0 {
		workdays = DefaultCalendarOptions().Workdays
	}
	for _, d := range workdays {
		bc.SetWorkday(d, true)
	}
	if opts.DayEnd > opts.DayStart {
		bc.SetWorkHours(opts.DayStart, opts.DayEnd)
	}
	for _, h := range opts.Holidays {
		bc.AddHoliday(&cal.Holiday{
			Name:  h.Name,
			Month: h.Month,
			Day:   h.Day,
			Func:  cal.CalcDayOfMonth,
		})
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{calendar: bc, location: loc, atRiskFor: opts.AtRiskFor}
}

// SelectConfig picks the active configuration for categoryID. A config for
// the ticket's own department beats one for "All"; within a specificity the
// first in input order wins.
func SelectConfig(categoryID, department string, configs []domain.SLAConfig) *domain.SLAConfig {
	var wildcard *domain.SLAConfig
	for i := range configs {
		c := &configs[i]
		if !c.IsActive || categoryID == "" || c.CategoryID != categoryID {
			continue
		}
		switch {
		case department != "" && strings.EqualFold(c.Department, department):
			return c
		case strings.EqualFold(c.Department, domain.DepartmentAll) && wildcard == nil:
			wildcard = c
		}
	}
	return wildcard
}

// ComputeTargets derives deadlines for a ticket created at createdAt.
func (c *Calculator) ComputeTargets(createdAt time.Time, categoryID, department string, configs []domain.SLAConfig) (Targets, error) {
	if createdAt.IsZero() {
		return Targets{}, ErrInvalidCreatedAt
	}
	cfg := SelectConfig(categoryID, department, configs)
	if cfg == nil {
		return Targets{ResolveTarget: createdAt.Add(FallbackResolveWindow)}, nil
	}

	matched := *cfg
	out := Targets{UsedBusinessHours: matched.UseBusinessHours, Config: &matched}
	if matched.ResponseHours > 0 {
		resp := c.add(createdAt, matched.ResponseHours, matched.UseBusinessHours)
		out.ResponseTarget = &resp
	}
	out.ResolveTarget = c.add(createdAt, matched.ResolutionHours, matched.UseBusinessHours)
	return out, nil
}

func (c *Calculator) add(from time.Time, hours int, business bool) time.Time {
	d := time.Duration(hours) * time.Hour
	if !business {
		return from.Add(d)
	}
	return c.calendar.AddWorkHours(from.In(c.location), d).In(from.Location())
}

// Status compares now with the resolve target.
func (c *Calculator) Status(targets Targets, now time.Time) domain.SLAStatus {
	return StatusAt(targets.ResolveTarget, now, c.atRiskFor)
}

// StatusAt classifies now against resolve with an at-risk lead window.
func StatusAt(resolve, now time.Time, atRiskFor time.Duration) domain.SLAStatus {
	switch {
	case resolve.IsZero():
		return domain.SLAStatusOnTrack
	case !now.Before(resolve):
		return domain.SLAStatusBreached
	case atRiskFor > 0 && resolve.Sub(now) <= atRiskFor:
		return domain.SLAStatusAtRisk
	default:
		return domain.SLAStatusOnTrack
	}
}

// AtRiskWindow returns the configured at-risk lead time.
func (c *Calculator) AtRiskWindow() time.Duration {
	return c.atRiskFor
}
