package availability

import "time"

// ReservationRecord is a reservation as reported by the backend.
type ReservationRecord struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Status    string `json:"status"`
}

// ReservationRange is an inclusive span of occupied calendar days.
type ReservationRange struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Status Status    `json:"status"`
}

// Contains reports whether day falls inside [From, To].
func (r ReservationRange) Contains(day time.Time) bool {
	day = Day(day)
	return !day.Before(r.From) && !day.After(r.To)
}

// Overlaps reports whether the inclusive spans [from, to] and r share a day.
func (r ReservationRange) Overlaps(from, to time.Time) bool {
	return !Day(from).After(r.To) && !Day(to).Before(r.From)
}

// DayAnnotation classifies one calendar day for the widget.
type DayAnnotation struct {
	Date      time.Time `json:"date"`
	Blocked   bool      `json:"blocked"`
	StatusTag StatusTag `json:"statusTag"`
}

// DeriveBlockedRanges applies the default policy.
func DeriveBlockedRanges(records []ReservationRecord) []ReservationRange {
	return DefaultPolicy().DeriveBlockedRanges(records)
}

// DeriveBlockedRanges turns reservation records into one range per occupying record.
// Overlapping ranges are kept as-is. Records with unreadable dates or an end before the start are skipped.
func (p Policy) DeriveBlockedRanges(records []ReservationRecord) []ReservationRange {
	ranges := make([]ReservationRange, 0, len(records))
	for _, rec := range records {
		status := ParseStatus(rec.Status)
		if !p.Occupies(status) {
			continue
		}
		from, ok := ParseDay(rec.StartDate)
		if !ok {
			continue
		}
		to, ok := ParseDay(rec.EndDate)
		if !ok || to.Before(from) {
			continue
		}
		ranges = append(ranges, ReservationRange{From: from, To: to, Status: status})
	}
	return ranges
}

// AnnotateDay applies the default policy.
func AnnotateDay(date time.Time, ranges []ReservationRange) DayAnnotation {
	return DefaultPolicy().AnnotateDay(date, ranges)
}

// AnnotateDay marks date blocked when any range covers it. When several ranges
// cover the day, the tag comes from the highest-priority status; the first such
// range in slice order wins among equals.
func (p Policy) AnnotateDay(date time.Time, ranges []ReservationRange) DayAnnotation {
	day := Day(date)
	ann := DayAnnotation{Date: day, StatusTag: TagNone}
	best := -1
	for _, r := range ranges {
		if !r.Contains(day) {
			continue
		}
		ann.Blocked = true
		rank := p.rank(r.Status)
		if best == -1 || rank < best {
			best = rank
			ann.StatusTag = r.Status.Tag()
		}
	}
	return ann
}
