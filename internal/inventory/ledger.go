package inventory

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Day returns the calendar date of t in t's own location as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func nightsBetween(from, to time.Time) int {
	return int(to.Sub(from) / day)
}

func (r Reservation) normalized() Reservation {
	r.CheckIn = Day(r.CheckIn)
	r.CheckOut = Day(r.CheckOut)
	return r
}

func (r Reservation) validate() error {
	if r.Rooms < 1 {
		return ErrInvalidRooms
	}
	if !r.CheckIn.Before(r.CheckOut) {
		return ErrInvalidRange
	}
	if nightsBetween(r.CheckIn, r.CheckOut) > MaxRangeDays {
		return ErrRangeTooLong
	}
	return nil
}

// Overlaps reports whether r holds any night in [from, to).
func (r Reservation) Overlaps(from, to time.Time) bool {
	return r.CheckIn.Before(to) && from.Before(r.CheckOut)
}

// bookedByNight sums the rooms held on every night of [from, to), ignoring
// the reservation of excludeBookingID.
func bookedByNight(existing []Reservation, from, to time.Time, excludeBookingID string) []int {
	booked := make([]int, nightsBetween(from, to))
	for _, r := range existing {
		if r.BookingID == excludeBookingID || !r.Overlaps(from, to) {
			continue
		}
		start, end := r.CheckIn, r.CheckOut
		if start.Before(from) {
			start = from
		}
		if end.After(to) {
			end = to
		}
		for i := nightsBetween(from, start); i < nightsBetween(from, end); i++ {
			booked[i] += r.Rooms
		}
	}
	return booked
}

// CheckCapacity fails when adding req would push any night over stock.
// An earlier reservation of req.BookingID does not count against it.
func CheckCapacity(stock int, existing []Reservation, req Reservation) error {
	booked := bookedByNight(existing, req.CheckIn, req.CheckOut, req.BookingID)
	for i, n := range booked {
		if n+req.Rooms > stock {
			night := req.CheckIn.Add(time.Duration(i) * day)
			return ErrInsufficientStock.WithCause(
				fmt.Errorf("%s: %d of %d rooms taken, %d requested", night.Format(time.DateOnly), n, stock, req.Rooms),
			)
		}
	}
	return nil
}

// DailyAvailability lists booked and free rooms for each night of [from, to).
func DailyAvailability(stock int, existing []Reservation, from, to time.Time) []DayAvailability {
	booked := bookedByNight(existing, from, to, "")
	out := make([]DayAvailability, len(booked))
	for i, n := range booked {
		free := stock - n
		if free < 0 {
			free = 0
		}
		out[i] = DayAvailability{
			Date:      from.Add(time.Duration(i) * day),
			Booked:    n,
			Available: free,
		}
	}
	return out
}
