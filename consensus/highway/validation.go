// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"fmt"

	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"
)

// Validate checks an incoming message against the protocol rules, in order:
//
//  1. doppelganger: a message carrying the local validator's id that this
//     runtime did not produce;
//  2. a block not coming from its round's leader;
//  3. a second lambda message by the leader in the same round, unless it is a
//     follow-up ballot citing the leader's own prior message in that round.
//
// A nil return accepts the message. Rejections are soft except the
// doppelganger, which the caller must treat as fatal (IsFatal).
func (rt *EraRuntime) Validate(m Message) error {
	err := rt.validate(m)
	if err != nil && !IsFatal(err) {
		rt.metrics.messagesRejected.Inc()
	}
	return err
}

func (rt *EraRuntime) validate(m Message) error {
	if rt.localID != ids.EmptyNodeID && m.Author() == rt.localID && !rt.ownMessages.Contains(m.ID()) {
		return Fatal(ErrDoppelganger)
	}

	leader := rt.leader.Leader(m.Round())
	switch msg := m.(type) {
	case *Block:
		if msg.Validator != leader {
			return ErrNotLeader
		}
		duplicate, err := rt.hasOtherLambdaMessageInSameRound(msg)
		if err != nil {
			return Fatal(err)
		}
		if duplicate {
			return ErrDoubleLambda
		}

	case *Ballot:
		if msg.Validator != leader || !rt.isVotingRound(msg.RoundID) {
			return nil
		}
		duplicate, err := rt.hasOtherLambdaMessageInSameRound(msg)
		if err != nil {
			return Fatal(err)
		}
		if !duplicate {
			return nil
		}
		// The leader already has a lambda message in this round. A follow-up
		// citing its own prior message is fine; an independent second lambda
		// is equivocation.
		followUp, err := rt.hasJustificationInOwnRound(msg)
		if err != nil {
			return Fatal(err)
		}
		if !followUp {
			return ErrDoubleLambda
		}
	}
	return nil
}

// hasOtherLambdaMessageInSameRound walks the justification closure of [m]
// looking for another lambda message by the same validator in the same round:
// a block, or a lambda-like ballot in the voting period.
func (rt *EraRuntime) hasOtherLambdaMessageInSameRound(m Message) (bool, error) {
	var (
		queue   []ids.ID
		visited = set.NewSet[ids.ID](len(m.Justifications()))
	)
	for _, hashes := range m.Justifications() {
		for hash := range hashes {
			queue = append(queue, hash)
			visited.Add(hash)
		}
	}

	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]

		cited, err := rt.dag.Message(hash)
		if err != nil {
			return false, fmt.Errorf("traversing justifications at %s: %w", hash, err)
		}
		// Justifications only point backwards; once below the round there is
		// nothing from the round left to find on this branch.
		if cited.Round() < m.Round() {
			continue
		}
		if cited.Round() == m.Round() && cited.Author() == m.Author() {
			switch msg := cited.(type) {
			case *Block:
				return true, nil
			case *Ballot:
				if rt.isVotingRound(msg.RoundID) {
					lambdaLike, err := rt.isLambdaLikeBallot(msg)
					if err != nil {
						return false, err
					}
					if lambdaLike {
						return true, nil
					}
				}
			}
		}
		for _, hashes := range cited.Justifications() {
			for next := range hashes {
				if visited.Contains(next) {
					continue
				}
				visited.Add(next)
				queue = append(queue, next)
			}
		}
	}
	return false, nil
}
