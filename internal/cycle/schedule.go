// Package cycle implements the pure calendar arithmetic behind obligation
// accounting periods: slicing an obligation's timeline into contiguous,
// non-overlapping day-granular cycles and deriving display fields from a
// persisted cycle. It performs no I/O.
package cycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

// ErrInvalidRecurrence is returned for recurrence settings that cannot
// produce a terminating cycle sequence (missing unit, non-positive interval,
// unknown frequency). Callers must reject these before materializing anything.
var ErrInvalidRecurrence = errors.New("invalid recurrence configuration")

// Bounds is a cycle's closed [Start, End] day interval.
type Bounds struct {
	Start datetime.Date
	End   datetime.Date
}

// Contains reports whether d falls within the bounds.
func (b Bounds) Contains(d datetime.Date) bool {
	return !d.Before(b.Start) && !d.After(b.End)
}

// Schedule maps cycle indexes to calendar bounds for one obligation.
// Index 0 is the cycle starting at the schedule anchor; fixed obligations
// anchor at the day after their due date, variable obligations at their
// anchor date. A nil schedule step means the obligation is non-recurring and
// has exactly one cycle.
type Schedule struct {
	anchor    datetime.Date
	recurring bool
	single    Bounds // non-recurring only

	// step parameters: months and days are mutually exclusive
	stepMonths int
	stepDays   int
}

// ForObligation builds the schedule for an obligation, validating its
// recurrence settings.
func ForObligation(o *model.Obligation) (*Schedule, error) {
	switch o.Kind {
	case model.KindFixed:
		if !o.IsRecurring {
			return &Schedule{
				recurring: false,
				single: Bounds{
					Start: datetime.DateOf(o.CreatedAt),
					End:   o.DueDate,
				},
			}, nil
		}
		if o.RecurrenceInterval == nil || o.RecurrenceUnit == nil {
			return nil, fmt.Errorf("%w: recurring obligation %q is missing interval or unit", ErrInvalidRecurrence, o.Name)
		}
		interval := *o.RecurrenceInterval
		if interval <= 0 {
			return nil, fmt.Errorf("%w: recurrence interval must be positive, got %d", ErrInvalidRecurrence, interval)
		}
		s := &Schedule{
			anchor:    o.DueDate.AddDays(1),
			recurring: true,
		}
		switch *o.RecurrenceUnit {
		case model.UnitDay:
			s.stepDays = interval
		case model.UnitWeek:
			s.stepDays = 7 * interval
		case model.UnitMonth:
			s.stepMonths = interval
		case model.UnitYear:
			s.stepMonths = 12 * interval
		default:
			return nil, fmt.Errorf("%w: unknown recurrence unit %q", ErrInvalidRecurrence, *o.RecurrenceUnit)
		}
		return s, nil

	case model.KindVariable:
		if o.Frequency == nil {
			return nil, fmt.Errorf("%w: variable obligation %q has no frequency", ErrInvalidRecurrence, o.Name)
		}
		s := &Schedule{
			anchor:    o.AnchorDate,
			recurring: true,
		}
		switch *o.Frequency {
		case model.FrequencyWeekly:
			s.stepDays = 7
		case model.FrequencyBiweekly:
			s.stepDays = 14
		case model.FrequencyMonthly:
			s.stepMonths = 1
		case model.FrequencyQuarterly:
			s.stepMonths = 3
		case model.FrequencyYearly:
			s.stepMonths = 12
		default:
			return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidRecurrence, *o.Frequency)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: unknown obligation kind %q", ErrInvalidRecurrence, o.Kind)
	}
}

// Recurring reports whether the schedule produces more than one cycle.
func (s *Schedule) Recurring() bool {
	return s.recurring
}

// StartOf returns the start date of cycle n. Month-based steps are computed
// from the anchor each time, clamping to the last day of short months, so a
// schedule anchored on the 31st does not drift after passing February.
func (s *Schedule) StartOf(n int) datetime.Date {
	if !s.recurring {
		return s.single.Start
	}
	if s.stepDays != 0 {
		return s.anchor.AddDays(n * s.stepDays)
	}
	return addMonthsClamped(s.anchor, n*s.stepMonths)
}

// EndOf returns the end date of cycle n, one day before the next cycle starts.
func (s *Schedule) EndOf(n int) datetime.Date {
	if !s.recurring {
		return s.single.End
	}
	return s.StartOf(n + 1).AddDays(-1)
}

// BoundsOf returns cycle n's bounds.
func (s *Schedule) BoundsOf(n int) Bounds {
	if !s.recurring {
		return s.single
	}
	return Bounds{Start: s.StartOf(n), End: s.EndOf(n)}
}

// IndexContaining locates the cycle containing ref by stepping outward from
// the anchor: forward while the candidate ends before ref, then backward if
// the candidate starts after ref. Each step moves at least one day, so the
// walk terminates for every validated schedule.
func (s *Schedule) IndexContaining(ref datetime.Date) int {
	if !s.recurring {
		return 0
	}
	n := 0
	for s.EndOf(n).Before(ref) {
		n++
	}
	for s.StartOf(n).After(ref) {
		n--
	}
	return n
}

// BoundsContaining returns the bounds of the cycle containing ref.
func (s *Schedule) BoundsContaining(ref datetime.Date) Bounds {
	return s.BoundsOf(s.IndexContaining(ref))
}

// addMonthsClamped shifts d by m calendar months, keeping the day-of-month
// where possible and clamping to the month's last day otherwise (Jan 31 + 1
// month = Feb 28/29, unlike time.Time.AddDate which would overflow into
// March).
func addMonthsClamped(d datetime.Date, m int) datetime.Date {
	year, month, day := d.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, m, 0)
	last := daysInMonth(first.Year(), first.Month())
	if day > last {
		day = last
	}
	return datetime.NewDate(first.Year(), first.Month(), day)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}
