// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"
)

type memDAG map[ids.ID]Message

func (d memDAG) Message(id ids.ID) (Message, error) {
	m, ok := d[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return m, nil
}

func (d memDAG) BondsAt(ids.ID) ([]Bond, error) {
	return nil, nil
}

// buildTestChain lays down [count] blocks one tick apart with the given magic
// bits and returns them in chain order.
func buildTestChain(dag memDAG, count int, bits []bool) []*Block {
	chain := make([]*Block, count)
	parent := ids.Empty
	for i := 0; i < count; i++ {
		var id ids.ID
		id[0] = byte(i)
		id[1] = byte(i >> 8)
		id[31] = 0xc4
		block := &Block{
			BlockID:  id,
			RoundID:  Tick(i),
			Parent:   parent,
			MagicBit: bits[i],
		}
		dag[id] = block
		chain[i] = block
		parent = id
	}
	return chain
}

// The bits collected between two blocks equal the main-chain slice
// [booking..key] mapped over the magic bits, for arbitrary index pairs.
func TestCollectMagicBitsRoundTrip(t *testing.T) {
	require := require.New(t)
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 100; trial++ {
		count := 2 + rng.Intn(150)
		bits := make([]bool, count)
		for i := range bits {
			bits[i] = rng.Intn(2) == 1
		}

		dag := memDAG{}
		chain := buildTestChain(dag, count, bits)
		rt := &EraRuntime{dag: dag}

		bookingIdx := rng.Intn(count)
		keyIdx := bookingIdx + rng.Intn(count-bookingIdx)

		got, err := rt.collectMagicBits(chain[bookingIdx], chain[keyIdx])
		require.NoError(err)
		require.Equal(bits[bookingIdx:keyIdx+1], got)
	}
}

func TestCollectMagicBitsDisconnected(t *testing.T) {
	require := require.New(t)

	dag := memDAG{}
	bits := []bool{true, false, true}
	chain := buildTestChain(dag, 3, bits)

	other := &Block{BlockID: ids.ID{0xff}, RoundID: 0}
	dag[other.BlockID] = other

	_, err := (&EraRuntime{dag: dag}).collectMagicBits(other, chain[2])
	require.Error(err)
}

func TestCrossingAncestor(t *testing.T) {
	require := require.New(t)

	dag := memDAG{}
	bits := make([]bool, 20)
	chain := buildTestChain(dag, 20, bits)
	rt := &EraRuntime{dag: dag}

	// The block crossing boundary 7 is the one at tick 7: its parent sits at
	// tick 6, strictly before.
	got, err := rt.crossingAncestor(chain[19], 7)
	require.NoError(err)
	require.Equal(chain[7].BlockID, got.BlockID)

	// A boundary at the chain root resolves to the root.
	got, err = rt.crossingAncestor(chain[19], 0)
	require.NoError(err)
	require.Equal(chain[0].BlockID, got.BlockID)

	// A boundary past the starting block cannot be crossed.
	_, err = rt.crossingAncestor(chain[5], 10)
	require.Error(err)
}
