// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import (
	"fmt"

	"github.com/google/btree"
)

// Action is a piece of future work the runtime schedules for itself.
type Action interface {
	fmt.Stringer

	// Round the action belongs to.
	Round() Tick

	// ord breaks ties between actions due at the same tick: StartRound runs
	// before CreateOmegaMessage.
	ord() int
}

// StartRound begins the round with the given id: the leader proposes, and the
// follow-up round and the omega ballot get scheduled.
type StartRound struct {
	RoundID Tick
}

func (a StartRound) Round() Tick    { return a.RoundID }
func (a StartRound) ord() int       { return 0 }
func (a StartRound) String() string { return fmt.Sprintf("StartRound(%d)", a.RoundID) }

// CreateOmegaMessage emits the validator's omega ballot for the round.
type CreateOmegaMessage struct {
	RoundID Tick
}

func (a CreateOmegaMessage) Round() Tick    { return a.RoundID }
func (a CreateOmegaMessage) ord() int       { return 1 }
func (a CreateOmegaMessage) String() string { return fmt.Sprintf("CreateOmegaMessage(%d)", a.RoundID) }

// DelayedAction is an action due at a tick. The tick is advisory: if the
// wall-clock has already passed the whole round, the StartRound handler
// compensates by skipping ahead to the first lattice point after now.
type DelayedAction struct {
	Tick   Tick
	Action Action
}

func lessDelayed(a, b DelayedAction) bool {
	if a.Tick != b.Tick {
		return a.Tick < b.Tick
	}
	if a.Action.ord() != b.Action.ord() {
		return a.Action.ord() < b.Action.ord()
	}
	return a.Action.Round() < b.Action.Round()
}

// Agenda is the ordered collection of the runtime's future work, earliest
// first. It is a plain value: scheduling never blocks, and handlers return
// additions rather than mutating shared state.
type Agenda struct {
	tree *btree.BTreeG[DelayedAction]
}

// NewAgenda returns an empty agenda.
func NewAgenda() Agenda {
	return Agenda{tree: btree.NewG(2, lessDelayed)}
}

// Schedule adds an action due at [tick].
func (a Agenda) Schedule(tick Tick, action Action) {
	a.tree.ReplaceOrInsert(DelayedAction{Tick: tick, Action: action})
}

// Add merges a batch of delayed actions into the agenda.
func (a Agenda) Add(items []DelayedAction) {
	for _, item := range items {
		a.tree.ReplaceOrInsert(item)
	}
}

// Merge folds every item of [other] into this agenda.
func (a Agenda) Merge(other Agenda) {
	other.Ascend(func(item DelayedAction) bool {
		a.tree.ReplaceOrInsert(item)
		return true
	})
}

// Len returns the number of scheduled actions.
func (a Agenda) Len() int {
	return a.tree.Len()
}

// Peek returns the earliest scheduled action without removing it.
func (a Agenda) Peek() (DelayedAction, bool) {
	return a.tree.Min()
}

// Pop removes and returns the earliest scheduled action.
func (a Agenda) Pop() (DelayedAction, bool) {
	return a.tree.DeleteMin()
}

// Ascend visits the scheduled actions earliest first until the callback
// returns false.
func (a Agenda) Ascend(visit func(DelayedAction) bool) {
	a.tree.Ascend(visit)
}
