package availability

import "strings"

// Status mirrors the reservation lifecycle reported by the platform backend.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus normalises a raw status string. Unknown values are returned upper-cased and never occupy a day.
func ParseStatus(raw string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(raw)))
}

// Valid reports whether the status is one of the known lifecycle values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// StatusTag is the visual class attached to a blocked day.
type StatusTag string

const (
	TagNone      StatusTag = "none"
	TagPending   StatusTag = "pending"
	TagCompleted StatusTag = "completed"
)

// Tag maps a reservation status to its calendar tag.
func (s Status) Tag() StatusTag {
	switch s {
	case StatusCompleted:
		return TagCompleted
	case StatusPending, StatusConfirmed:
		return TagPending
	default:
		return TagNone
	}
}

// Policy decides which statuses occupy a day and which status wins when ranges overlap.
type Policy struct {
	occupying map[Status]struct{}
	priority  []Status
}

// DefaultPolicy blocks pending, confirmed and completed stays; completed outranks pending.
func DefaultPolicy() Policy {
	return NewPolicy(nil, nil)
}

// NewPolicy builds a policy. An empty occupying set or priority order falls back to the defaults.
func NewPolicy(occupying, priority []Status) Policy {
	if len(occupying) == 0 {
		occupying = []Status{StatusPending, StatusConfirmed, StatusCompleted}
	}
	if len(priority) == 0 {
		priority = []Status{StatusCompleted, StatusPending, StatusConfirmed, StatusCancelled}
	}
	set := make(map[Status]struct{}, len(occupying))
	for _, s := range occupying {
		set[s] = struct{}{}
	}
	order := make([]Status, 0, len(priority))
	seen := make(map[Status]struct{}, len(priority))
	for _, s := range priority {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		order = append(order, s)
	}
	return Policy{occupying: set, priority: order}
}

// PolicyFromStrings parses status names coming from configuration.
func PolicyFromStrings(occupying, priority []string) Policy {
	return NewPolicy(parseStatuses(occupying), parseStatuses(priority))
}

// Occupies reports whether reservations in the given status block new bookings.
func (p Policy) Occupies(s Status) bool {
	_, ok := p.normalized().occupying[s]
	return ok
}

// Occupying lists the occupying statuses in priority order.
func (p Policy) Occupying() []Status {
	candidates := append(p.Priority(), StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled)
	seen := make(map[Status]struct{}, len(candidates))
	out := make([]Status, 0, len(candidates))
	for _, s := range candidates {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		if p.Occupies(s) {
			out = append(out, s)
		}
	}
	return out
}

// Priority returns the tie-break order, highest first.
func (p Policy) Priority() []Status {
	order := p.normalized().priority
	out := make([]Status, len(order))
	copy(out, order)
	return out
}

// normalized lets the zero Policy behave like DefaultPolicy.
func (p Policy) normalized() Policy {
	if p.occupying == nil || p.priority == nil {
		return NewPolicy(nil, nil)
	}
	return p
}

// rank is the position of s in the priority order; unranked statuses sort last.
func (p Policy) rank(s Status) int {
	p = p.normalized()
	for i, candidate := range p.priority {
		if candidate == s {
			return i
		}
	}
	return len(p.priority)
}

func parseStatuses(raw []string) []Status {
	out := make([]Status, 0, len(raw))
	for _, r := range raw {
		s := ParseStatus(r)
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}
