// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highwaytest

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/luxfi/ids"

	"github.com/andrew-stratx/CasperLabs/consensus/highway"
)

// ChainParams describes a synthetic main chain for tests.
type ChainParams struct {
	Validator ids.NodeID
	EraID     ids.ID

	// Start is the tick of the first block; each later block is Step ticks
	// after its parent, Count blocks in total.
	Start highway.Tick
	Step  highway.Tick
	Count int

	// MagicBits supplies per-block magic bits, wrapping around; nil leaves
	// them false.
	MagicBits []bool
}

// BuildChain adds a main chain of blocks to [dag] and returns it in chain
// order. The first block has no parent. Hashes are deterministic in the
// parameters.
func BuildChain(dag *DAG, params ChainParams) []*highway.Block {
	chain := make([]*highway.Block, params.Count)
	parent := ids.Empty
	for i := 0; i < params.Count; i++ {
		tick := params.Start + highway.Tick(i)*params.Step
		magic := false
		if len(params.MagicBits) > 0 {
			magic = params.MagicBits[i%len(params.MagicBits)]
		}
		block := &highway.Block{
			BlockID:   chainBlockID(params.Validator, tick, i),
			Validator: params.Validator,
			RoundID:   tick,
			KeyBlock:  params.EraID,
			Parent:    parent,
			MagicBit:  magic,
		}
		dag.Add(block)
		chain[i] = block
		parent = block.BlockID
	}
	return chain
}

func chainBlockID(validator ids.NodeID, tick highway.Tick, index int) ids.ID {
	h := sha256.New()
	h.Write([]byte("highwaytest/chain"))
	h.Write(validator[:])
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(tick))
	binary.BigEndian.PutUint64(buf[8:], uint64(index))
	h.Write(buf[:])
	var id ids.ID
	copy(id[:], h.Sum(nil))
	return id
}
