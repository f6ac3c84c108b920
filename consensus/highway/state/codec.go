// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"errors"
	"math"

	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"

	"github.com/andrew-stratx/CasperLabs/consensus/highway"
)

const codecVersion = 0

var eraCodec codec.Manager

func init() {
	eraCodec = codec.NewManager(math.MaxInt)
	lc := linearcodec.NewDefault()

	err := errors.Join(
		lc.RegisterType(&highway.Era{}),
		eraCodec.RegisterCodec(codecVersion, lc),
	)
	if err != nil {
		panic(err)
	}
}
