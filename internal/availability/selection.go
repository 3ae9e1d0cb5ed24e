package availability

import (
	"math"
	"time"
)

// SelectionState holds the check-in and check-out picked in the booking widget.
type SelectionState struct {
	CheckIn  *time.Time
	CheckOut *time.Time
}

// Complete reports whether both dates are set.
func (s SelectionState) Complete() bool {
	return s.CheckIn != nil && s.CheckOut != nil
}

// SelectCheckIn sets the check-in day. A check-out that is not strictly after
// the new check-in is cleared. Days before today leave the state untouched.
func SelectCheckIn(date time.Time, state SelectionState, today time.Time) SelectionState {
	day := Day(date)
	if day.Before(Day(today)) {
		return state
	}
	next := SelectionState{CheckIn: &day}
	if state.CheckOut != nil && Day(*state.CheckOut).After(day) {
		out := Day(*state.CheckOut)
		next.CheckOut = &out
	}
	return next
}

// SelectCheckOut sets the check-out day without consulting blocked ranges.
func SelectCheckOut(date time.Time, state SelectionState) SelectionState {
	day := Day(date)
	next := SelectionState{CheckOut: &day}
	if state.CheckIn != nil {
		in := Day(*state.CheckIn)
		next.CheckIn = &in
	}
	return next
}

// ComputeNights returns the number of nights between check-in and check-out,
// or zero when a date is missing or the span is not positive.
func ComputeNights(state SelectionState) int {
	if !state.Complete() {
		return 0
	}
	diff := state.CheckOut.Sub(*state.CheckIn)
	nights := int(math.Ceil(diff.Hours() / 24))
	if nights <= 0 {
		return 0
	}
	return nights
}

// ComputeTotalPrice multiplies the nightly price by the number of nights.
func ComputeTotalPrice(pricePerNight float64, nights int) float64 {
	return pricePerNight * float64(nights)
}

// ClampGuests bounds a guest count to [1, maxGuests].
func ClampGuests(guests, maxGuests int) int {
	if maxGuests < 1 {
		maxGuests = 1
	}
	if guests < 1 {
		return 1
	}
	if guests > maxGuests {
		return maxGuests
	}
	return guests
}

// MaxGuestOptions bounds the guest selector regardless of the unit's stated capacity.
const MaxGuestOptions = 64

// GuestOptions lists the values offered by the guest selector.
func GuestOptions(maxGuests int) []int {
	if maxGuests < 1 {
		maxGuests = 1
	}
	if maxGuests > MaxGuestOptions {
		maxGuests = MaxGuestOptions
	}
	options := make([]int, maxGuests)
	for i := range options {
		options[i] = i + 1
	}
	return options
}
