// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/luxfi/ids"
)

// Domain separation prefixes keep the round-leader hash and the era-seed hash
// from ever being usable in each other's place.
var (
	leaderDomain = []byte("highway/round-leader")
	seedDomain   = []byte("highway/era-seed")

	errNoStake = errors.New("era has no stake to sample leaders from")

	_ LeaderSequencer = (*weightedSequencer)(nil)
)

// LeaderSequencer assigns exactly one leader to every round of an era.
// Implementations must be deterministic: every node derives the same leader
// for the same round.
type LeaderSequencer interface {
	Leader(round Tick) ids.NodeID
}

// weightedSequencer samples leaders proportionally to stake. The era's seed
// and the round id are hashed into a uniform 64-bit value which is mapped
// onto the concatenation of the bonded validators' cumulative stake
// intervals, in canonical bond order.
type weightedSequencer struct {
	seed  ids.ID
	bonds []Bond
	total uint64
}

// NewLeaderSequencer builds the stake-weighted sequencer for [era].
func NewLeaderSequencer(era Era) (LeaderSequencer, error) {
	total := era.TotalStake()
	if total == 0 {
		return nil, errNoStake
	}
	return &weightedSequencer{
		seed:  era.LeaderSeed,
		bonds: era.Bonds,
		total: total,
	}, nil
}

func (s *weightedSequencer) Leader(round Tick) ids.NodeID {
	h := sha256.New()
	h.Write(leaderDomain)
	h.Write(s.seed[:])
	var roundBytes [8]byte
	binary.BigEndian.PutUint64(roundBytes[:], uint64(round))
	h.Write(roundBytes[:])

	r := binary.BigEndian.Uint64(h.Sum(nil)[:8]) % s.total
	for _, b := range s.bonds {
		if r < b.Stake {
			return b.Validator
		}
		r -= b.Stake
	}
	// Unreachable: r < total and the intervals cover [0, total).
	return s.bonds[len(s.bonds)-1].Validator
}

// NextLeaderSeed derives a child era's leader seed from the parent era's seed
// and the magic bits of the main-chain blocks from the booking block through
// the key block inclusive.
func NextLeaderSeed(parent ids.ID, magicBits []bool) ids.ID {
	h := sha256.New()
	h.Write(seedDomain)
	h.Write(parent[:])
	for _, bit := range magicBits {
		if bit {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
	var seed ids.ID
	copy(seed[:], h.Sum(nil))
	return seed
}
