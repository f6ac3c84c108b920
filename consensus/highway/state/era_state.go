// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state persists eras in a key-value database, keyed by key block
// hash.
package state

import (
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/ids"

	"github.com/andrew-stratx/CasperLabs/consensus/highway"
)

var (
	eraPrefix = []byte("era")

	_ highway.EraStore = (*eraState)(nil)
)

type eraState struct {
	db database.Database
}

// New returns an EraStore layered over [db] under its own namespace.
func New(db database.Database) highway.EraStore {
	return &eraState{
		db: prefixdb.New(eraPrefix, db),
	}
}

func (s *eraState) AddEra(era highway.Era) error {
	key := era.ID()
	has, err := s.db.Has(key[:])
	if err != nil {
		return err
	}
	if has {
		// Eras are immutable and identified by their key block, so a repeat
		// add has nothing to change.
		return nil
	}
	bytes, err := eraCodec.Marshal(codecVersion, &era)
	if err != nil {
		return fmt.Errorf("serializing era %s: %w", key, err)
	}
	return s.db.Put(key[:], bytes)
}

func (s *eraState) ContainsEra(keyBlockHash ids.ID) (bool, error) {
	return s.db.Has(keyBlockHash[:])
}

func (s *eraState) GetEra(keyBlockHash ids.ID) (highway.Era, error) {
	bytes, err := s.db.Get(keyBlockHash[:])
	if err != nil {
		return highway.Era{}, err
	}
	var era highway.Era
	if _, err := eraCodec.Unmarshal(bytes, &era); err != nil {
		return highway.Era{}, fmt.Errorf("deserializing era %s: %w", keyBlockHash, err)
	}
	return era, nil
}
