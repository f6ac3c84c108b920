// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway_test

import (
	"testing"
	"time"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"
	"github.com/stretchr/testify/require"

	"github.com/andrew-stratx/CasperLabs/consensus/highway"
	"github.com/andrew-stratx/CasperLabs/consensus/highway/highwaytest"
	"github.com/andrew-stratx/CasperLabs/consensus/highway/state"
	"github.com/andrew-stratx/CasperLabs/utils/timer/mockable"
)

var (
	alice   = ids.GenerateTestNodeID()
	bob     = ids.GenerateTestNodeID()
	charlie = ids.GenerateTestNodeID()
)

func testConf() highway.Conf {
	return highway.Conf{
		TickUnit:              time.Millisecond,
		GenesisEraStart:       time.Date(2019, time.December, 9, 0, 0, 0, 0, time.UTC),
		EraDuration:           7 * 24 * time.Hour,
		BookingDuration:       10 * 24 * time.Hour,
		EntropyDuration:       3 * time.Hour,
		PostEraVotingDuration: 2 * time.Hour,
		OmegaMessageTimeStart: 0.5,
		OmegaMessageTimeEnd:   0.75,
	}
}

func testEra(conf highway.Conf) highway.Era {
	return highway.NewEra(
		0,
		conf.GenesisEraEnd(),
		ids.ID{0x11},
		ids.ID{0x12},
		ids.Empty,
		ids.ID{0x13},
		[]highway.Bond{
			{Validator: alice, Stake: 30},
			{Validator: bob, Stake: 40},
			{Validator: charlie, Stake: 30},
		},
	)
}

type fixture struct {
	conf     highway.Conf
	era      highway.Era
	dag      *highwaytest.DAG
	fc       *highwaytest.ForkChoice
	sync     *highwaytest.SyncFlag
	producer *highwaytest.Producer
	clock    *mockable.Clock
	eras     highway.EraStore
	runtime  *highway.EraRuntime
}

// newFixture builds a runtime for validator alice with bob pinned as the
// leader of every round.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		conf:  testConf(),
		dag:   highwaytest.NewDAG(),
		fc:    &highwaytest.ForkChoice{},
		sync:  highwaytest.Synced(true),
		clock: &mockable.Clock{},
	}
	f.era = testEra(f.conf)
	f.producer = &highwaytest.Producer{NodeID: alice, DAG: f.dag}
	f.clock.Set(f.conf.GenesisEraStart)
	f.eras = state.New(memdb.New())

	runtime, err := highway.New(highway.Params{
		Conf:           f.conf,
		Era:            f.era,
		Exponent:       15,
		LocalValidator: alice,
		Producer:       f.producer,
		DAG:            f.dag,
		Eras:           f.eras,
		ForkChoice:     f.fc,
		Synced:         f.sync,
		Leader:         &highwaytest.FixedSequencer{NodeID: bob},
		Clock:          f.clock,
	})
	require.NoError(t, err)
	f.runtime = runtime
	return f
}

func justify(validator ids.NodeID, hashes ...ids.ID) highway.Justifications {
	return highway.Justifications{validator: set.Of(hashes...)}
}

func (f *fixture) blockFrom(validator ids.NodeID, round highway.Tick, justs highway.Justifications) *highway.Block {
	block := &highway.Block{
		BlockID:   ids.GenerateTestID(),
		Validator: validator,
		RoundID:   round,
		KeyBlock:  f.era.ID(),
		Justs:     justs,
	}
	f.dag.Add(block)
	return block
}

func (f *fixture) ballotFrom(validator ids.NodeID, round highway.Tick, target ids.ID, justs highway.Justifications) *highway.Ballot {
	ballot := &highway.Ballot{
		BallotID:  ids.GenerateTestID(),
		Validator: validator,
		RoundID:   round,
		KeyBlock:  f.era.ID(),
		Target:    target,
		Justs:     justs,
	}
	f.dag.Add(ballot)
	return ballot
}

func TestValidateDoppelganger(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	// A message carrying our id that we did not produce.
	impostor := f.blockFrom(alice, 0, nil)

	err := f.runtime.Validate(impostor)
	require.ErrorIs(err, highway.ErrDoppelganger)
	require.True(highway.IsFatal(err))
	require.Equal("The block is coming from a doppelganger.", highway.ErrDoppelganger.Error())
}

func TestValidateNonLeaderBlock(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	block := f.blockFrom(charlie, 0, nil)

	err := f.runtime.Validate(block)
	require.ErrorIs(err, highway.ErrNotLeader)
	require.False(highway.IsFatal(err))
	require.Equal("The block is not coming from the leader of the round.", highway.ErrNotLeader.Error())
}

func TestValidateDoubleLambdaBlock(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	const round = highway.Tick(0)
	first := f.blockFrom(bob, round, nil)
	require.NoError(f.runtime.Validate(first))

	// A second block by the leader in the same round, justifying the first.
	direct := f.blockFrom(bob, round, justify(bob, first.BlockID))
	err := f.runtime.Validate(direct)
	require.ErrorIs(err, highway.ErrDoubleLambda)
	require.Equal("The leader has already sent a lambda message in this round.", highway.ErrDoubleLambda.Error())

	// The first lambda is also reachable through another validator's
	// response; the traversal must find it there too.
	response := f.ballotFrom(charlie, round, first.BlockID, justify(bob, first.BlockID))
	indirect := f.blockFrom(bob, round, justify(charlie, response.BallotID))
	err = f.runtime.Validate(indirect)
	require.ErrorIs(err, highway.ErrDoubleLambda)
}

func TestValidateLambdaLikeFollowUp(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	// A voting period round: at or past the era end.
	votingRound := f.era.EndTick + 100

	first := f.ballotFrom(bob, votingRound, ids.Empty, nil)
	require.NoError(f.runtime.Validate(first))

	// A follow-up citing the leader's own prior ballot in the round is not a
	// second lambda.
	followUp := f.ballotFrom(bob, votingRound, ids.Empty, justify(bob, first.BallotID))
	require.NoError(f.runtime.Validate(followUp))

	// An independent ballot that can see the first one only through another
	// validator is a second lambda.
	echo := f.ballotFrom(charlie, votingRound, first.BallotID, justify(bob, first.BallotID))
	independent := f.ballotFrom(bob, votingRound, ids.Empty, justify(charlie, echo.BallotID))
	err := f.runtime.Validate(independent)
	require.ErrorIs(err, highway.ErrDoubleLambda)
}

func TestValidateAcceptsOrdinaryBallots(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	lambda := f.blockFrom(bob, 0, nil)
	response := f.ballotFrom(charlie, 0, lambda.BlockID, justify(bob, lambda.BlockID))
	require.NoError(f.runtime.Validate(response))

	omega := f.ballotFrom(charlie, 0, lambda.BlockID, nil)
	require.NoError(f.runtime.Validate(omega))
}
