// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"context"

	"github.com/luxfi/ids"
)

// DAG is the runtime's read view of the message DAG. Lookups are expected to
// be total for any hash the runtime has previously seen justified; a missing
// hash is an internal error, not a protocol error.
type DAG interface {
	// Message returns the message with the given hash.
	Message(id ids.ID) (Message, error)

	// BondsAt returns the validator set recorded in the chain state at the
	// given block. Child eras draw their bonds from their key block.
	BondsAt(blockID ids.ID) ([]Bond, error)
}

// EraStore persists eras keyed by their key block hash.
type EraStore interface {
	// AddEra stores the era. Adding an era that is already present is a
	// no-op, never an error.
	AddEra(era Era) error

	ContainsEra(keyBlockHash ids.ID) (bool, error)

	GetEra(keyBlockHash ids.ID) (Era, error)
}

// ForkChoiceResult is the tip the next message should build on.
type ForkChoiceResult struct {
	MainParent     ids.ID
	Justifications Justifications
}

// ForkChoice runs the fork-choice rule over the era identified by a key
// block.
type ForkChoice interface {
	FromKeyBlock(ctx context.Context, keyBlockHash ids.ID) (ForkChoiceResult, error)
}

// BlockParams describes the block the producer should sign and hash.
type BlockParams struct {
	EraID          ids.ID
	RoundID        Tick
	MainParent     ids.ID
	Justifications Justifications

	// IsBookingBlock is set when the block crosses a booking boundary; the
	// producer includes the resulting validator snapshot.
	IsBookingBlock bool
}

// BallotParams describes the ballot the producer should sign and hash.
type BallotParams struct {
	EraID          ids.ID
	RoundID        Tick
	Target         ids.ID
	Justifications Justifications
	Role           BallotRole
}

// MessageProducer signs and hashes the messages this validator emits. It owns
// the keys; the runtime never sees them.
type MessageProducer interface {
	Block(ctx context.Context, params BlockParams) (*Block, error)
	Ballot(ctx context.Context, params BallotParams) (*Ballot, error)
}

// Synced reports whether the initial sync has completed. The runtime polls it
// on every input; reads must be safe concurrently with writes by the syncing
// subsystem.
type Synced interface {
	IsSynced() bool
}
