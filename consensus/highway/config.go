// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"errors"
	"fmt"
	"time"
)

var (
	errNonPositiveTickUnit    = errors.New("tick unit must be positive")
	errNonPositiveEraDuration = errors.New("era duration must be positive")
	errNegativeDuration       = errors.New("duration must not be negative")
	errOmegaWindow            = errors.New("omega window must satisfy 0 <= start < end <= 1")
)

// Conf carries the tunable protocol parameters shared by every era runtime.
// It is immutable after construction; all methods are pure.
type Conf struct {
	// TickUnit is the wall-clock duration of one tick.
	TickUnit time.Duration

	// GenesisEraStart is the wall-clock start of era 0. Tick 0 corresponds to
	// this instant.
	GenesisEraStart time.Time

	// EraDuration is the fixed length of every era.
	EraDuration time.Duration

	// BookingDuration is how far before the end of an era the booking block is
	// picked, e.g. 10 days.
	BookingDuration time.Duration

	// EntropyDuration is the gap between the booking block and the key block,
	// e.g. 3 hours.
	EntropyDuration time.Duration

	// PostEraVotingDuration is the length of the voting period after the era
	// ends, during which ballots finalize the switch block.
	PostEraVotingDuration time.Duration

	// OmegaMessageTimeStart and OmegaMessageTimeEnd give the fractional window
	// [start, end) within a round in which omega ballots are scheduled.
	OmegaMessageTimeStart float64
	OmegaMessageTimeEnd   float64
}

func (c Conf) Validate() error {
	switch {
	case c.TickUnit <= 0:
		return errNonPositiveTickUnit
	case c.EraDuration <= 0:
		return errNonPositiveEraDuration
	case c.BookingDuration < 0, c.EntropyDuration < 0, c.PostEraVotingDuration < 0:
		return errNegativeDuration
	case c.OmegaMessageTimeStart < 0,
		c.OmegaMessageTimeStart >= c.OmegaMessageTimeEnd,
		c.OmegaMessageTimeEnd > 1:
		return fmt.Errorf("%w: [%v, %v)", errOmegaWindow, c.OmegaMessageTimeStart, c.OmegaMessageTimeEnd)
	}
	return nil
}

// ToTick converts a wall-clock instant to protocol time, truncating to whole
// ticks.
func (c Conf) ToTick(t time.Time) Tick {
	return Tick(t.Sub(c.GenesisEraStart) / c.TickUnit)
}

// ToTime converts protocol time back to a wall-clock instant.
func (c Conf) ToTime(t Tick) time.Time {
	return c.GenesisEraStart.Add(time.Duration(t) * c.TickUnit)
}

// Ticks converts a duration to whole ticks.
func (c Conf) Ticks(d time.Duration) Tick {
	return Tick(d / c.TickUnit)
}

// GenesisEraEnd returns the end tick of era 0.
func (c Conf) GenesisEraEnd() Tick {
	return c.Ticks(c.EraDuration)
}
