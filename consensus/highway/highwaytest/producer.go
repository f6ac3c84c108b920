// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highwaytest

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/luxfi/ids"

	"github.com/andrew-stratx/CasperLabs/consensus/highway"
)

var _ highway.MessageProducer = (*Producer)(nil)

// Producer builds unsigned messages with deterministic hashes: the hash folds
// in the validator, the round and a per-producer sequence number, so two
// producers fed the same calls emit identical messages. Blocks get their
// magic bit from the low bit of the hash unless pinned via MagicBits.
type Producer struct {
	NodeID ids.NodeID

	// MagicBits, when non-nil, supplies the magic bits of produced blocks in
	// order, wrapping around.
	MagicBits []bool

	sequence uint64
	blocks   int

	// DAG, when non-nil, has every produced message added to it, mirroring
	// the node storing its own messages before relay.
	DAG *DAG
}

func (p *Producer) nextHash(round highway.Tick) ids.ID {
	p.sequence++
	h := sha256.New()
	h.Write(p.NodeID[:])
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(round))
	binary.BigEndian.PutUint64(buf[8:], p.sequence)
	h.Write(buf[:])
	var id ids.ID
	copy(id[:], h.Sum(nil))
	return id
}

func (p *Producer) Block(_ context.Context, params highway.BlockParams) (*highway.Block, error) {
	hash := p.nextHash(params.RoundID)
	magic := hash[len(hash)-1]&1 == 1
	if len(p.MagicBits) > 0 {
		magic = p.MagicBits[p.blocks%len(p.MagicBits)]
	}
	p.blocks++
	block := &highway.Block{
		BlockID:   hash,
		Validator: p.NodeID,
		RoundID:   params.RoundID,
		KeyBlock:  params.EraID,
		Parent:    params.MainParent,
		Justs:     params.Justifications,
		MagicBit:  magic,
	}
	if p.DAG != nil {
		p.DAG.Add(block)
	}
	return block, nil
}

func (p *Producer) Ballot(_ context.Context, params highway.BallotParams) (*highway.Ballot, error) {
	ballot := &highway.Ballot{
		BallotID:  p.nextHash(params.RoundID),
		Validator: p.NodeID,
		RoundID:   params.RoundID,
		KeyBlock:  params.EraID,
		Target:    params.Target,
		Justs:     params.Justifications,
		Role:      params.Role,
	}
	if p.DAG != nil {
		p.DAG.Add(ballot)
	}
	return ballot, nil
}
