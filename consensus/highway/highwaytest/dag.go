// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package highwaytest provides deterministic in-memory implementations of the
// runtime's capabilities for use in tests.
package highwaytest

import (
	"fmt"

	"github.com/luxfi/ids"

	"github.com/andrew-stratx/CasperLabs/consensus/highway"
)

var _ highway.DAG = (*DAG)(nil)

// DAG is an in-memory message store. The zero value is not usable; call
// NewDAG.
type DAG struct {
	messages map[ids.ID]highway.Message
	bonds    map[ids.ID][]highway.Bond
}

func NewDAG() *DAG {
	return &DAG{
		messages: make(map[ids.ID]highway.Message),
		bonds:    make(map[ids.ID][]highway.Bond),
	}
}

// Add records a message so later lookups resolve it.
func (d *DAG) Add(msgs ...highway.Message) {
	for _, m := range msgs {
		d.messages[m.ID()] = m
	}
}

// SetBondsAt pins the validator set reported at [blockID].
func (d *DAG) SetBondsAt(blockID ids.ID, bonds []highway.Bond) {
	d.bonds[blockID] = bonds
}

func (d *DAG) Message(id ids.ID) (highway.Message, error) {
	m, ok := d.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return m, nil
}

func (d *DAG) BondsAt(blockID ids.ID) ([]highway.Bond, error) {
	bonds, ok := d.bonds[blockID]
	if !ok {
		return nil, fmt.Errorf("no bonds recorded at %s", blockID)
	}
	return bonds, nil
}
