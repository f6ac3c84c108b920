// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

// Tick is a point in protocol time: the number of configured time units
// (typically milliseconds) since the genesis era start. All scheduling and
// boundary arithmetic inside a runtime is integer tick arithmetic; wall-clock
// instants appear only at the Conf conversion boundary.
type Tick int64

// RoundLength returns the length of a round with the given exponent, in ticks.
func RoundLength(exponent uint8) Tick {
	return Tick(1) << exponent
}

// CurrentRound returns the round id of the round containing [now], i.e. the
// largest lattice point base + k*2^exponent that is <= now. Times before
// [base] map to the first round.
func CurrentRound(base Tick, exponent uint8, now Tick) Tick {
	if now < base {
		return base
	}
	length := RoundLength(exponent)
	return base + (now-base)/length*length
}

// NextRound returns the smallest lattice point base + k*2^exponent that is
// strictly greater than [after].
func NextRound(base Tick, exponent uint8, after Tick) Tick {
	if after < base {
		return base
	}
	length := RoundLength(exponent)
	k := (after-base)/length + 1
	return base + k*length
}
