// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"fmt"

	"github.com/luxfi/ids"
)

// MessageClass partitions incoming messages by the role they play in their
// round. Classification reads only the message and the DAG; it is
// deterministic and independent of the wall clock.
type MessageClass uint8

const (
	// ClassOther messages have no handler and are rejected before handling.
	ClassOther MessageClass = iota

	// ClassLambdaBlock is the leader's block in a round of the active period.
	ClassLambdaBlock

	// ClassLambdaLikeBallot is the leader's first message in a round of the
	// post-era voting period.
	ClassLambdaLikeBallot

	// ClassLambdaResponse is a non-leader ballot citing the round's lambda
	// block.
	ClassLambdaResponse

	// ClassOmega is any other ballot a validator emits in its own round.
	ClassOmega
)

func (c MessageClass) String() string {
	switch c {
	case ClassLambdaBlock:
		return "lambda block"
	case ClassLambdaLikeBallot:
		return "lambda-like ballot"
	case ClassLambdaResponse:
		return "lambda response"
	case ClassOmega:
		return "omega"
	default:
		return "other"
	}
}

func (rt *EraRuntime) classify(m Message) (MessageClass, error) {
	leader := rt.leader.Leader(m.Round())
	switch msg := m.(type) {
	case *Block:
		if msg.Validator == leader && msg.RoundID < rt.era.EndTick {
			return ClassLambdaBlock, nil
		}
		return ClassOther, nil

	case *Ballot:
		if msg.Validator == leader && rt.isVotingRound(msg.RoundID) {
			lambdaLike, err := rt.isLambdaLikeBallot(msg)
			if err != nil {
				return ClassOther, err
			}
			if lambdaLike {
				return ClassLambdaLikeBallot, nil
			}
		}
		if msg.Validator != leader {
			response, err := rt.citesRoundLambda(msg, leader)
			if err != nil {
				return ClassOther, err
			}
			if response {
				return ClassLambdaResponse, nil
			}
		}
		return ClassOmega, nil

	default:
		return ClassOther, nil
	}
}

// isLambdaLikeBallot reports whether [b] is the first message its author sent
// in its round, i.e. it does not justify any prior own message with the same
// round id. Only such a ballot can stand in for the round's lambda during the
// post-era voting period.
func (rt *EraRuntime) isLambdaLikeBallot(b *Ballot) (bool, error) {
	cited, err := rt.hasJustificationInOwnRound(b)
	return !cited, err
}

// hasJustificationInOwnRound reports whether [m] cites a message by its own
// author from its own round.
func (rt *EraRuntime) hasJustificationInOwnRound(m Message) (bool, error) {
	for hash := range m.Justifications()[m.Author()] {
		cited, err := rt.dag.Message(hash)
		if err != nil {
			return false, fmt.Errorf("looking up justification %s: %w", hash, err)
		}
		if cited.Round() == m.Round() {
			return true, nil
		}
	}
	return false, nil
}

// citesRoundLambda reports whether the ballot's target resolves to the lambda
// block of the ballot's round.
func (rt *EraRuntime) citesRoundLambda(b *Ballot, leader ids.NodeID) (bool, error) {
	if b.Target == ids.Empty {
		return false, nil
	}
	target, err := rt.dag.Message(b.Target)
	if err != nil {
		return false, fmt.Errorf("looking up ballot target %s: %w", b.Target, err)
	}
	block, ok := target.(*Block)
	if !ok {
		return false, nil
	}
	return block.RoundID == b.RoundID && block.Validator == leader, nil
}
