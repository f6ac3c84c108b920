// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundLength(t *testing.T) {
	require := require.New(t)

	require.Equal(Tick(1), RoundLength(0))
	require.Equal(Tick(1024), RoundLength(10))
	require.Equal(Tick(32768), RoundLength(15))
}

func TestCurrentRound(t *testing.T) {
	tests := []struct {
		name     string
		base     Tick
		exponent uint8
		now      Tick
		want     Tick
	}{
		{name: "at base", base: 100, exponent: 4, now: 100, want: 100},
		{name: "inside first round", base: 100, exponent: 4, now: 115, want: 100},
		{name: "at second round", base: 100, exponent: 4, now: 116, want: 116},
		{name: "before base", base: 100, exponent: 4, now: 50, want: 100},
		{name: "far along", base: 0, exponent: 10, now: 5000, want: 4096},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CurrentRound(tt.base, tt.exponent, tt.now))
		})
	}
}

func TestNextRoundIsStrictlyGreater(t *testing.T) {
	require := require.New(t)

	// Exactly on a lattice point: the next round is one length later.
	require.Equal(Tick(116), NextRound(100, 4, 100))
	require.Equal(Tick(132), NextRound(100, 4, 116))

	// Between lattice points.
	require.Equal(Tick(116), NextRound(100, 4, 101))
	require.Equal(Tick(116), NextRound(100, 4, 115))

	// Before the base the first round qualifies.
	require.Equal(Tick(100), NextRound(100, 4, 0))
}

func TestNextRoundStaysOnLattice(t *testing.T) {
	require := require.New(t)

	const (
		base     = Tick(7919)
		exponent = uint8(13)
	)
	length := RoundLength(exponent)
	for after := base - length; after < base+10*length; after += 37 {
		next := NextRound(base, exponent, after)
		require.Greater(next, after)
		require.Zero((next - base) % length)
	}
}
