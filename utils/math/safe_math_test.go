// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package math

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdd(t *testing.T) {
	require := require.New(t)

	sum, err := Add[uint64](1, 2)
	require.NoError(err)
	require.Equal(uint64(3), sum)

	sum, err = Add[uint64](math.MaxUint64, 0)
	require.NoError(err)
	require.Equal(uint64(math.MaxUint64), sum)

	_, err = Add[uint64](math.MaxUint64, 1)
	require.ErrorIs(err, ErrOverflow)
}
