package discount

import (
	"slices"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Nights counts started 24h periods of a stay, never less than one.
func Nights(checkIn, checkOut time.Time) int {
	d := checkOut.Sub(checkIn)
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

func BaseAmount(rate int64, nights, rooms int) int64 {
	return rate * int64(nights) * int64(rooms)
}

// NormalizeCode makes voucher codes case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ActiveAt reports whether d is switched on and inside its validity window.
func (d *Discount) ActiveAt(t time.Time) bool {
	return d.IsActive && !t.Before(d.StartsAt) && t.Before(d.EndsAt)
}

func (d *Discount) InScope(hotelID, roomTypeID string) bool {
	if len(d.HotelIDs) > 0 && !slices.Contains(d.HotelIDs, hotelID) {
		return false
	}
	if len(d.RoomTypeIDs) > 0 && !slices.Contains(d.RoomTypeIDs, roomTypeID) {
		return false
	}
	return true
}

// Reduction is what d takes off amount, within [0, amount].
func (d *Discount) Reduction(amount int64) int64 {
	var r int64
	switch d.Type {
	case TypePercentage:
		r = amount * d.Value / 100
		if d.MaxDiscount > 0 && r > d.MaxDiscount {
			r = d.MaxDiscount
		}
	case TypeFixed:
		r = d.Value
	}
	if r < 0 {
		return 0
	}
	if r > amount {
		return amount
	}
	return r
}

func (d *Discount) snapshot(reduced int64) Applied {
	return Applied{
		ID:            d.ID,
		Code:          d.Code,
		Name:          d.Name,
		Type:          d.Type,
		Value:         d.Value,
		AmountReduced: reduced,
	}
}

// BestFestival picks the applicable festival discount with the greatest
// value. Ties keep the earlier candidate.
func BestFestival(candidates []Discount, hotelID, roomTypeID string, at time.Time) *Discount {
	var best *Discount
	for i := range candidates {
		d := &candidates[i]
		if d.Kind != KindFestival || !d.ActiveAt(at) || !d.InScope(hotelID, roomTypeID) {
			continue
		}
		if best == nil || d.Value > best.Value {
			best = d
		}
	}
	return best
}

func voucherRejection(c VoucherCandidate, in QuoteInput, amount int64, at time.Time) string {
	d := c.Discount
	switch {
	case d == nil:
		return ReasonUnknown
	case d.Kind == KindFestival:
		return ReasonNotVoucher
	case !d.IsActive:
		return ReasonInactive
	case !d.ActiveAt(at):
		return ReasonNotInWindow
	case !d.InScope(in.HotelID, in.RoomTypeID):
		return ReasonOutOfScope
	case amount < d.MinBookingValue:
		return ReasonBelowMinimum
	case d.UsageLimitPerUser > 0 && c.Used >= d.UsageLimitPerUser:
		return ReasonUsageLimit
	}
	return ""
}

// Compose prices a stay: the festival discount comes off the base amount
// first, then vouchers are applied in submission order to what remains.
// Invalid vouchers are skipped and listed in Rejected. Once a non-stackable
// voucher is applied, or when one would join others, it stands alone.
func Compose(in QuoteInput, at time.Time, festival *Discount, vouchers []VoucherCandidate) *Quote {
	q := &Quote{Nights: Nights(in.CheckIn, in.CheckOut)}
	q.BaseAmount = BaseAmount(in.Rate, q.Nights, in.Rooms)

	afterFestival := q.BaseAmount
	if festival != nil {
		reduced := festival.Reduction(q.BaseAmount)
		applied := festival.snapshot(reduced)
		q.Festival = &applied
		afterFestival -= reduced
	}

	remaining := afterFestival
	exclusive := false
	seen := make(map[string]bool, len(vouchers))
	for _, c := range vouchers {
		if seen[c.Code] {
			q.Rejected = append(q.Rejected, Rejected{Code: c.Code, Reason: ReasonDuplicate})
			continue
		}
		seen[c.Code] = true

		reason := voucherRejection(c, in, afterFestival, at)
		if reason == "" && len(q.Vouchers) > 0 && (exclusive || !c.Discount.Stackable) {
			reason = ReasonNotStackable
		}
		var reduced int64
		if reason == "" {
			reduced = c.Discount.Reduction(remaining)
			if reduced == 0 {
				reason = ReasonNothingToTake
			}
		}
		if reason != "" {
			q.Rejected = append(q.Rejected, Rejected{Code: c.Code, Reason: reason})
			continue
		}

		q.Vouchers = append(q.Vouchers, c.Discount.snapshot(reduced))
		q.VoucherDiscount += reduced
		remaining -= reduced
		if !c.Discount.Stackable {
			exclusive = true
		}
	}

	q.Total = remaining
	return q
}
