// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

// boundaries holds an era's precomputed critical ticks. The predicates are
// pure functions of two timestamps; they never read the DAG.
type boundaries struct {
	endTick Tick

	// booking[i] + entropy == key[i]; both ascending, earliest first.
	booking []Tick
	key     []Tick
}

// newBoundaries computes the booking and key boundaries that fall inside the
// era. Booking boundaries are the ticks congruent to endTick - bookingDuration
// modulo the era duration; with a booking duration longer than an era the
// boundary that books a future era lands in this one.
func newBoundaries(conf Conf, era Era) boundaries {
	eraLength := conf.Ticks(conf.EraDuration)
	entropy := conf.Ticks(conf.EntropyDuration)

	b := era.EndTick - conf.Ticks(conf.BookingDuration)
	for b < era.StartTick {
		b += eraLength
	}
	bounds := boundaries{endTick: era.EndTick}
	for ; b < era.EndTick; b += eraLength {
		bounds.booking = append(bounds.booking, b)
		bounds.key = append(bounds.key, b+entropy)
	}
	return bounds
}

func crosses(boundaries []Tick, p, c Tick) bool {
	for _, b := range boundaries {
		if p < b && b <= c {
			return true
		}
	}
	return false
}

// IsBookingBoundary reports whether a booking boundary lies in (p, c] for a
// parent message at tick p and a child message at tick c.
func (b boundaries) IsBookingBoundary(p, c Tick) bool {
	return crosses(b.booking, p, c)
}

// IsKeyBoundary reports whether a key boundary lies in (p, c].
func (b boundaries) IsKeyBoundary(p, c Tick) bool {
	return crosses(b.key, p, c)
}

// IsSwitchBoundary reports whether the era end lies in (p, c]. A block
// timestamped exactly at the era end is the switch block only if its parent is
// strictly before the end.
func (b boundaries) IsSwitchBoundary(p, c Tick) bool {
	return p < b.endTick && b.endTick <= c
}

// MostRecentBookingBoundary returns the era's last booking boundary; ok is
// false when the era contains none.
func (b boundaries) MostRecentBookingBoundary() (Tick, bool) {
	if len(b.booking) == 0 {
		return 0, false
	}
	return b.booking[len(b.booking)-1], true
}

// BookingBoundaries returns the boundaries earliest first.
func (b boundaries) BookingBoundaries() []Tick {
	return b.booking
}
