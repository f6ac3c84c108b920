// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highwaytest

import (
	"context"
	"sync/atomic"

	"github.com/luxfi/ids"

	"github.com/andrew-stratx/CasperLabs/consensus/highway"
)

var (
	_ highway.ForkChoice      = (*ForkChoice)(nil)
	_ highway.Synced          = (*SyncFlag)(nil)
	_ highway.LeaderSequencer = (*FixedSequencer)(nil)
)

// ForkChoice returns whatever result was last set on it.
type ForkChoice struct {
	Result highway.ForkChoiceResult
	Err    error
}

func (f *ForkChoice) FromKeyBlock(context.Context, ids.ID) (highway.ForkChoiceResult, error) {
	return f.Result, f.Err
}

// Set points the fork choice at [tip] with no justifications.
func (f *ForkChoice) Set(tip ids.ID) {
	f.Result = highway.ForkChoiceResult{MainParent: tip}
}

// SyncFlag is a concurrency-safe Synced implementation.
type SyncFlag struct {
	synced atomic.Bool
}

// Synced returns a flag in the given initial state.
func Synced(initial bool) *SyncFlag {
	f := &SyncFlag{}
	f.synced.Store(initial)
	return f
}

func (f *SyncFlag) IsSynced() bool {
	return f.synced.Load()
}

func (f *SyncFlag) Set(synced bool) {
	f.synced.Store(synced)
}

// FixedSequencer pins every round's leader to one validator.
type FixedSequencer struct {
	NodeID ids.NodeID
}

func (s *FixedSequencer) Leader(highway.Tick) ids.NodeID {
	return s.NodeID
}
