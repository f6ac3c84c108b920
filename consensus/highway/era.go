// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"github.com/luxfi/ids"

	safemath "github.com/andrew-stratx/CasperLabs/utils/math"
)

var (
	errEraEmptyBonds    = errors.New("era has no bonded validators")
	errEraZeroStake     = errors.New("bonded validator has zero stake")
	errEraDuplicateBond = errors.New("duplicate bonded validator")
	errEraBadInterval   = errors.New("era start must precede era end")
)

// Bond is a validator's stake in an era's validator set.
type Bond struct {
	Validator ids.NodeID `serialize:"true" json:"validator"`
	Stake     uint64     `serialize:"true" json:"stake"`
}

// Era is the immutable description of one era: its tick interval, the blocks
// that determined it, the seed for leader selection and the frozen validator
// set. Identity is the key block hash.
//
// Bonds are kept sorted by validator id so that iteration order is canonical
// on every node.
type Era struct {
	StartTick          Tick   `serialize:"true" json:"startTick"`
	EndTick            Tick   `serialize:"true" json:"endTick"`
	KeyBlockHash       ids.ID `serialize:"true" json:"keyBlockHash"`
	BookingBlockHash   ids.ID `serialize:"true" json:"bookingBlockHash"`
	ParentKeyBlockHash ids.ID `serialize:"true" json:"parentKeyBlockHash"`
	LeaderSeed         ids.ID `serialize:"true" json:"leaderSeed"`
	Bonds              []Bond `serialize:"true" json:"bonds"`
}

// NewEra builds an era with the bonds in canonical order. The input slice is
// not retained.
func NewEra(
	startTick Tick,
	endTick Tick,
	keyBlockHash ids.ID,
	bookingBlockHash ids.ID,
	parentKeyBlockHash ids.ID,
	leaderSeed ids.ID,
	bonds []Bond,
) Era {
	sorted := slices.Clone(bonds)
	slices.SortFunc(sorted, func(a, b Bond) int {
		return bytes.Compare(a.Validator[:], b.Validator[:])
	})
	return Era{
		StartTick:          startTick,
		EndTick:            endTick,
		KeyBlockHash:       keyBlockHash,
		BookingBlockHash:   bookingBlockHash,
		ParentKeyBlockHash: parentKeyBlockHash,
		LeaderSeed:         leaderSeed,
		Bonds:              sorted,
	}
}

// ID returns the era's identity, the key block hash.
func (e Era) ID() ids.ID {
	return e.KeyBlockHash
}

func (e Era) Validate() error {
	if e.StartTick >= e.EndTick {
		return fmt.Errorf("%w: [%d, %d)", errEraBadInterval, e.StartTick, e.EndTick)
	}
	if len(e.Bonds) == 0 {
		return errEraEmptyBonds
	}
	var total uint64
	for i, b := range e.Bonds {
		if b.Stake == 0 {
			return fmt.Errorf("%w: %s", errEraZeroStake, b.Validator)
		}
		if i > 0 {
			switch bytes.Compare(e.Bonds[i-1].Validator[:], b.Validator[:]) {
			case 0:
				return fmt.Errorf("%w: %s", errEraDuplicateBond, b.Validator)
			case 1:
				return errors.New("bonds are not in canonical order")
			}
		}
		var err error
		if total, err = safemath.Add(total, b.Stake); err != nil {
			return fmt.Errorf("total stake: %w", err)
		}
	}
	return nil
}

// TotalStake returns the sum of all bonded stakes.
func (e Era) TotalStake() uint64 {
	var total uint64
	for _, b := range e.Bonds {
		total += b.Stake
	}
	return total
}

// Stake returns the stake bonded by [validator], zero if not bonded.
func (e Era) Stake(validator ids.NodeID) uint64 {
	i, ok := slices.BinarySearchFunc(e.Bonds, validator, func(b Bond, v ids.NodeID) int {
		return bytes.Compare(b.Validator[:], v[:])
	})
	if !ok {
		return 0
	}
	return e.Bonds[i].Stake
}

// IsBonded reports whether [validator] is in the era's validator set.
func (e Era) IsBonded(validator ids.NodeID) bool {
	return e.Stake(validator) > 0
}
