package availability

import (
	"sort"
	"time"
)

// DateRange is an inclusive span of days.
type DateRange struct {
	From time.Time
	To   time.Time
}

// PickerConfig is everything a date-picker widget needs to render itself.
type PickerConfig struct {
	MinDate  time.Time
	MaxDate  *time.Time
	Disabled []DateRange
}

// Pickers pairs the two linked pickers of the booking widget.
type Pickers struct {
	CheckIn  PickerConfig
	CheckOut PickerConfig
}

// Calendar is an immutable view over one unit's blocked ranges as of a given day.
// Rebuild it from a fresh range set instead of mutating it.
type Calendar struct {
	ranges   []ReservationRange
	disabled []DateRange
	policy   Policy
	today    time.Time
}

// NewCalendar snapshots ranges under the given policy.
func NewCalendar(ranges []ReservationRange, policy Policy, today time.Time) *Calendar {
	owned := make([]ReservationRange, len(ranges))
	copy(owned, ranges)
	return &Calendar{
		ranges:   owned,
		disabled: mergeRanges(owned),
		policy:   policy,
		today:    Day(today),
	}
}

// Today is the reference day the calendar was built for.
func (c *Calendar) Today() time.Time {
	return c.today
}

// Ranges returns a copy of the underlying ranges.
func (c *Calendar) Ranges() []ReservationRange {
	out := make([]ReservationRange, len(c.ranges))
	copy(out, c.ranges)
	return out
}

// Annotate classifies a single day.
func (c *Calendar) Annotate(day time.Time) DayAnnotation {
	return c.policy.AnnotateDay(day, c.ranges)
}

// Window annotates every day in [from, to]. An inverted window yields nothing.
func (c *Calendar) Window(from, to time.Time) []DayAnnotation {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return nil
	}
	days := int(to.Sub(from).Hours()/24) + 1
	out := make([]DayAnnotation, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, c.Annotate(d))
	}
	return out
}

// Month annotates every day of the given month.
func (c *Calendar) Month(year int, month time.Month) []DayAnnotation {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return c.Window(first, first.AddDate(0, 1, -1))
}

// Selectable reports whether a day may be picked: not in the past and not blocked.
func (c *Calendar) Selectable(day time.Time) bool {
	day = Day(day)
	if day.Before(c.today) {
		return false
	}
	return !c.blocked(day)
}

// RangeFree reports whether no day in [checkIn, checkOut] is blocked.
func (c *Calendar) RangeFree(checkIn, checkOut time.Time) bool {
	for _, r := range c.ranges {
		if r.Overlaps(checkIn, checkOut) {
			return false
		}
	}
	return true
}

// Pickers derives both picker configurations from the current selection.
// The check-out minimum follows the check-in, and its maximum stops short of
// the next blocked day so a stay cannot straddle an existing reservation.
func (c *Calendar) Pickers(state SelectionState) Pickers {
	disabled := make([]DateRange, len(c.disabled))
	copy(disabled, c.disabled)

	checkIn := PickerConfig{MinDate: c.today, Disabled: disabled}
	checkOut := PickerConfig{MinDate: c.today, Disabled: disabled}
	if state.CheckIn != nil {
		in := Day(*state.CheckIn)
		checkOut.MinDate = in
		if next, ok := c.nextBlockedAfter(in); ok {
			limit := next.AddDate(0, 0, -1)
			checkOut.MaxDate = &limit
		}
	}
	return Pickers{CheckIn: checkIn, CheckOut: checkOut}
}

func (c *Calendar) blocked(day time.Time) bool {
	for _, r := range c.ranges {
		if r.Contains(day) {
			return true
		}
	}
	return false
}

func (c *Calendar) nextBlockedAfter(day time.Time) (time.Time, bool) {
	for _, r := range c.disabled {
		if r.From.After(day) {
			return r.From, true
		}
	}
	return time.Time{}, false
}

// mergeRanges collapses overlapping or adjacent ranges into sorted disabled spans.
// Annotation still reads the raw ranges; this only feeds the picker widgets.
func mergeRanges(ranges []ReservationRange) []DateRange {
	if len(ranges) == 0 {
		return nil
	}
	spans := make([]DateRange, len(ranges))
	for i, r := range ranges {
		spans[i] = DateRange{From: r.From, To: r.To}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].From.Before(spans[j].From) })

	merged := []DateRange{spans[0]}
	for _, span := range spans[1:] {
		last := &merged[len(merged)-1]
		if !span.From.After(last.To.AddDate(0, 0, 1)) {
			if span.To.After(last.To) {
				last.To = span.To
			}
			continue
		}
		merged = append(merged, span)
	}
	return merged
}
