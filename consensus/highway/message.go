// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"
)

var (
	_ Message = (*Block)(nil)
	_ Message = (*Ballot)(nil)
)

// Justifications maps a validator to the hashes of its messages cited by a
// message. Every cited validator must be bonded in the message's era.
type Justifications map[ids.NodeID]set.Set[ids.ID]

// Count returns the total number of cited hashes.
func (j Justifications) Count() int {
	n := 0
	for _, hashes := range j {
		n += hashes.Len()
	}
	return n
}

// BallotRole records what the producer intended a ballot to be. It is carried
// on the wire for observability only; classification derives the role from
// the message and the DAG, never from this field.
type BallotRole uint8

const (
	RoleUnspecified BallotRole = iota
	RoleLambdaResponse
	RoleLambdaLike
	RoleOmega
)

// Message is a vertex of the protocol DAG: a block or a ballot, tied to
// exactly one era by its key block hash.
type Message interface {
	ID() ids.ID
	Author() ids.NodeID
	Round() Tick
	Era() ids.ID
	Justifications() Justifications

	// Timestamp is the message's protocol time. Highway timestamps messages
	// by the round they were created in.
	Timestamp() Tick
}

// Block is a leader's proposal. MagicBit feeds the child era's leader seed.
type Block struct {
	BlockID   ids.ID
	Validator ids.NodeID
	RoundID   Tick
	KeyBlock  ids.ID
	Parent    ids.ID
	Justs     Justifications
	MagicBit  bool
}

func (b *Block) ID() ids.ID                     { return b.BlockID }
func (b *Block) Author() ids.NodeID             { return b.Validator }
func (b *Block) Round() Tick                    { return b.RoundID }
func (b *Block) Era() ids.ID                    { return b.KeyBlock }
func (b *Block) Justifications() Justifications { return b.Justs }
func (b *Block) Timestamp() Tick                { return b.RoundID }

// Ballot is a vote citing a target message.
type Ballot struct {
	BallotID  ids.ID
	Validator ids.NodeID
	RoundID   Tick
	KeyBlock  ids.ID
	Target    ids.ID
	Justs     Justifications
	Role      BallotRole
}

func (b *Ballot) ID() ids.ID                     { return b.BallotID }
func (b *Ballot) Author() ids.NodeID             { return b.Validator }
func (b *Ballot) Round() Tick                    { return b.RoundID }
func (b *Ballot) Era() ids.ID                    { return b.KeyBlock }
func (b *Ballot) Justifications() Justifications { return b.Justs }
func (b *Ballot) Timestamp() Tick                { return b.RoundID }
