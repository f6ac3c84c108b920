// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package highway implements the per-era runtime of the Highway consensus
// protocol: a single-threaded deterministic state machine that validates and
// handles incoming messages, schedules its own rounds on a tick agenda, and
// constructs the child era when it observes a switch block.
package highway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/math/set"
	"go.uber.org/zap"

	"github.com/andrew-stratx/CasperLabs/utils/timer/mockable"
)

var (
	errNoDAG         = errors.New("runtime needs a DAG")
	errNoEraStore    = errors.New("runtime needs an era store")
	errNoForkChoice  = errors.New("runtime needs a fork choice")
	errNoSyncedFlag  = errors.New("runtime needs a synced flag")
	errNoProducer    = errors.New("a local validator needs a message producer")
	errUnknownAction = errors.New("unknown agenda action")
)

// Params carries everything needed to construct an EraRuntime. DAG, Eras,
// ForkChoice, Producer and Synced are capabilities owned by the caller; the
// runtime only holds references.
type Params struct {
	Conf Conf
	Era  Era

	// Exponent fixes the round length at 2^Exponent ticks.
	Exponent uint8

	// LocalValidator is this node's validator id; EmptyNodeID for a read-only
	// node. A non-empty id requires a Producer.
	LocalValidator ids.NodeID
	Producer       MessageProducer

	DAG        DAG
	Eras       EraStore
	ForkChoice ForkChoice
	Synced     Synced

	// Leader overrides the stake-weighted sequencer; tests pin leaders with
	// it. Nil selects the default.
	Leader LeaderSequencer

	Clock *mockable.Clock
	Log   log.Logger

	// Rand drives the omega ballot delay. It must not be seeded from era
	// state: omega timing is intentionally not deterministic across nodes.
	// Nil selects a time-seeded source.
	Rand *rand.Rand

	// Namespace prefixes the runtime's metrics.
	Namespace string
}

func (p Params) Validate() error {
	if err := p.Conf.Validate(); err != nil {
		return fmt.Errorf("conf: %w", err)
	}
	if err := p.Era.Validate(); err != nil {
		return fmt.Errorf("era: %w", err)
	}
	switch {
	case p.DAG == nil:
		return errNoDAG
	case p.Eras == nil:
		return errNoEraStore
	case p.ForkChoice == nil:
		return errNoForkChoice
	case p.Synced == nil:
		return errNoSyncedFlag
	case p.LocalValidator != ids.EmptyNodeID && p.Producer == nil:
		return errNoProducer
	}
	return nil
}

// EraRuntime drives one era. It owns its Era value (immutable for its
// lifetime) and processes one input at a time: either a received message or a
// due agenda action. Every handler returns its effects as a HandlerResult
// instead of mutating ambient state.
type EraRuntime struct {
	conf     Conf
	era      Era
	exponent uint8
	bounds   boundaries

	localID  ids.NodeID
	producer MessageProducer

	dag        DAG
	eras       EraStore
	forkChoice ForkChoice
	synced     Synced
	leader     LeaderSequencer
	clock      *mockable.Clock

	// ownMessages records what this runtime produced, so a doppelganger can
	// be told apart from an echo of our own messages. lastOwn is the latest
	// of them; lambda responses cite it.
	ownMessages set.Set[ids.ID]
	lastOwn     ids.ID

	rand    *rand.Rand
	log     log.Logger
	metrics *metrics
}

// New constructs the runtime for one era.
func New(p Params) (*EraRuntime, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	leader := p.Leader
	if leader == nil {
		var err error
		if leader, err = NewLeaderSequencer(p.Era); err != nil {
			return nil, err
		}
	}
	logger := p.Log
	if logger == nil {
		logger = log.NoLog{}
	}
	rng := p.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	clock := p.Clock
	if clock == nil {
		clock = &mockable.Clock{}
	}
	return &EraRuntime{
		conf:        p.Conf,
		era:         p.Era,
		exponent:    p.Exponent,
		bounds:      newBoundaries(p.Conf, p.Era),
		localID:     p.LocalValidator,
		producer:    p.Producer,
		dag:         p.DAG,
		eras:        p.Eras,
		forkChoice:  p.ForkChoice,
		synced:      p.Synced,
		leader:      leader,
		clock:       clock,
		ownMessages: set.NewSet[ids.ID](16),
		rand:        rng,
		log:         logger,
		metrics:     newMetrics(p.Namespace),
	}, nil
}

// Era returns the era this runtime drives.
func (rt *EraRuntime) Era() Era {
	return rt.era
}

func (rt *EraRuntime) now() Tick {
	return rt.conf.ToTick(rt.clock.Time())
}

func (rt *EraRuntime) currentRound() Tick {
	return CurrentRound(rt.era.StartTick, rt.exponent, rt.now())
}

func (rt *EraRuntime) votingEnd() Tick {
	return rt.era.EndTick + rt.conf.Ticks(rt.conf.PostEraVotingDuration)
}

// isVotingRound reports whether a round id falls in the post-era voting
// period.
func (rt *EraRuntime) isVotingRound(round Tick) bool {
	return round >= rt.era.EndTick && round < rt.votingEnd()
}

func (rt *EraRuntime) isBondedLocal() bool {
	return rt.localID != ids.EmptyNodeID && rt.era.IsBonded(rt.localID)
}

// InitAgenda computes the runtime's initial schedule. It is called once, when
// the runtime starts. A node that is not bonded in this era, or that starts
// after the voting period is over, schedules nothing.
func (rt *EraRuntime) InitAgenda() []DelayedAction {
	now := rt.now()
	if !rt.isBondedLocal() || now >= rt.votingEnd() {
		return nil
	}
	after := max(rt.era.StartTick, now)
	round := NextRound(rt.era.StartTick, rt.exponent, after)
	return []DelayedAction{{Tick: round, Action: StartRound{RoundID: round}}}
}

// HandleMessage applies a validated message to the runtime. During initial
// sync every message is swallowed so replays cannot double-produce. A message
// authored by the local validator reaching this point is an internal error:
// validation already separates doppelgangers from echoes.
func (rt *EraRuntime) HandleMessage(ctx context.Context, m Message) (HandlerResult, error) {
	var res HandlerResult
	if !rt.synced.IsSynced() {
		rt.log.Debug("swallowing message during initial sync",
			zap.Stringer("message", m.ID()),
		)
		return res, nil
	}
	if rt.localID != ids.EmptyNodeID && m.Author() == rt.localID {
		return res, Fatal(fmt.Errorf("%w: %s", ErrSelfMessage, m.ID()))
	}
	rt.metrics.messagesHandled.Inc()

	class, err := rt.classify(m)
	if err != nil {
		rt.log.Error("failed to classify message",
			zap.Stringer("message", m.ID()),
			zap.Error(err),
		)
		return res, Fatal(err)
	}
	switch class {
	case ClassLambdaBlock:
		if rt.isBondedLocal() && m.Round() == rt.currentRound() {
			if err := rt.createLambdaResponse(ctx, &res, m.(*Block)); err != nil {
				return res, err
			}
		}
	case ClassLambdaLikeBallot:
		// Post-era voting. The reference protocol leaves the response to a
		// lambda-like ballot pending; nothing is emitted until it settles.
	}

	if block, ok := m.(*Block); ok {
		if err := rt.handleSwitchBlock(ctx, &res, block); err != nil {
			return res, err
		}
	}
	return res, nil
}

// createLambdaResponse emits a ballot citing the round's lambda block and the
// validator's latest own message, and nothing else.
func (rt *EraRuntime) createLambdaResponse(ctx context.Context, res *HandlerResult, lambda *Block) error {
	justifications := Justifications{
		lambda.Validator: set.Of(lambda.BlockID),
	}
	if rt.lastOwn != ids.Empty {
		justifications[rt.localID] = set.Of(rt.lastOwn)
	}
	ballot, err := rt.producer.Ballot(ctx, BallotParams{
		EraID:          rt.era.ID(),
		RoundID:        lambda.RoundID,
		Target:         lambda.BlockID,
		Justifications: justifications,
		Role:           RoleLambdaResponse,
	})
	if err != nil {
		rt.log.Error("failed to produce lambda response",
			zap.Stringer("lambda", lambda.BlockID),
			zap.Int64("round", int64(lambda.RoundID)),
			zap.Error(err),
		)
		return Fatal(fmt.Errorf("producing lambda response: %w", err))
	}
	rt.recordOwn(ballot.BallotID)
	rt.metrics.responsesCreated.Inc()
	rt.log.Debug("created lambda response",
		zap.Stringer("lambda", lambda.BlockID),
		zap.Int64("round", int64(lambda.RoundID)),
	)
	res.emit(CreatedLambdaResponse{Message: ballot})
	return nil
}

// handleSwitchBlock creates the child era when [block]'s main-parent edge
// crosses the era end. Observing the same switch block twice creates the era
// at most once.
func (rt *EraRuntime) handleSwitchBlock(ctx context.Context, res *HandlerResult, block *Block) error {
	if block.Parent == ids.Empty {
		return nil
	}
	parent, err := rt.dag.Message(block.Parent)
	if err != nil {
		rt.log.Error("failed to look up main parent",
			zap.Stringer("block", block.BlockID),
			zap.Stringer("parent", block.Parent),
			zap.Error(err),
		)
		return Fatal(fmt.Errorf("looking up main parent %s: %w", block.Parent, err))
	}
	if !rt.bounds.IsSwitchBoundary(parent.Timestamp(), block.Timestamp()) {
		return nil
	}

	child, err := rt.childEra(block)
	if err != nil {
		rt.log.Error("failed to construct child era",
			zap.Stringer("switchBlock", block.BlockID),
			zap.Error(err),
		)
		return Fatal(err)
	}
	known, err := rt.eras.ContainsEra(child.ID())
	if err != nil {
		rt.log.Error("failed to check era store",
			zap.Stringer("keyBlock", child.ID()),
			zap.Error(err),
		)
		return Fatal(fmt.Errorf("checking era store for %s: %w", child.ID(), err))
	}
	if known {
		return nil
	}
	if err := rt.eras.AddEra(child); err != nil {
		rt.log.Error("failed to store era",
			zap.Stringer("keyBlock", child.ID()),
			zap.Error(err),
		)
		return Fatal(fmt.Errorf("storing era %s: %w", child.ID(), err))
	}
	rt.metrics.erasCreated.Inc()
	rt.log.Info("created child era",
		zap.Stringer("keyBlock", child.KeyBlockHash),
		zap.Stringer("bookingBlock", child.BookingBlockHash),
		zap.Int64("startTick", int64(child.StartTick)),
		zap.Int64("endTick", int64(child.EndTick)),
	)
	res.emit(CreatedEra{Era: child})
	return nil
}

// childEra derives the era that follows this one from its switch block: walk
// the main chain back to the key and booking blocks, fold their magic bits
// into the leader seed, and freeze the bonds recorded at the key block.
func (rt *EraRuntime) childEra(switchBlock *Block) (Era, error) {
	bookingBoundary, ok := rt.bounds.MostRecentBookingBoundary()
	if !ok {
		return Era{}, fmt.Errorf("era %s has no booking boundary", rt.era.ID())
	}
	keyBoundary := bookingBoundary + rt.conf.Ticks(rt.conf.EntropyDuration)

	keyBlock, err := rt.crossingAncestor(switchBlock, keyBoundary)
	if err != nil {
		return Era{}, fmt.Errorf("locating key block: %w", err)
	}
	bookingBlock, err := rt.crossingAncestor(keyBlock, bookingBoundary)
	if err != nil {
		return Era{}, fmt.Errorf("locating booking block: %w", err)
	}
	magicBits, err := rt.collectMagicBits(bookingBlock, keyBlock)
	if err != nil {
		return Era{}, err
	}
	bonds, err := rt.dag.BondsAt(keyBlock.BlockID)
	if err != nil {
		return Era{}, fmt.Errorf("reading bonds at key block %s: %w", keyBlock.BlockID, err)
	}

	start := rt.era.EndTick
	return NewEra(
		start,
		start+rt.conf.Ticks(rt.conf.EraDuration),
		keyBlock.BlockID,
		bookingBlock.BlockID,
		rt.era.KeyBlockHash,
		NextLeaderSeed(rt.era.LeaderSeed, magicBits),
		bonds,
	), nil
}

// crossingAncestor walks main parents from [from] back to the first block
// whose parent lies strictly before [boundary] while the block itself is at
// or past it.
func (rt *EraRuntime) crossingAncestor(from *Block, boundary Tick) (*Block, error) {
	current := from
	for {
		if current.Timestamp() < boundary {
			return nil, fmt.Errorf("block %s at tick %d predates boundary %d",
				current.BlockID, current.Timestamp(), boundary)
		}
		if current.Parent == ids.Empty {
			return current, nil
		}
		parent, err := rt.dag.Message(current.Parent)
		if err != nil {
			return nil, fmt.Errorf("looking up main parent %s: %w", current.Parent, err)
		}
		parentBlock, ok := parent.(*Block)
		if !ok {
			return nil, fmt.Errorf("main parent %s of %s is not a block", current.Parent, current.BlockID)
		}
		if parentBlock.Timestamp() < boundary {
			return current, nil
		}
		current = parentBlock
	}
}

// collectMagicBits gathers the magic bits of the main-chain blocks from
// [booking] through [key] inclusive, in chain order.
func (rt *EraRuntime) collectMagicBits(booking, key *Block) ([]bool, error) {
	var reversed []bool
	current := key
	for {
		reversed = append(reversed, current.MagicBit)
		if current.BlockID == booking.BlockID {
			break
		}
		if current.Parent == ids.Empty {
			return nil, fmt.Errorf("booking block %s is not an ancestor of key block %s",
				booking.BlockID, key.BlockID)
		}
		parent, err := rt.dag.Message(current.Parent)
		if err != nil {
			return nil, fmt.Errorf("looking up main parent %s: %w", current.Parent, err)
		}
		parentBlock, ok := parent.(*Block)
		if !ok {
			return nil, fmt.Errorf("main parent %s of %s is not a block", current.Parent, current.BlockID)
		}
		current = parentBlock
	}
	bits := make([]bool, len(reversed))
	for i, bit := range reversed {
		bits[len(reversed)-1-i] = bit
	}
	return bits, nil
}

// HandleAgenda runs a due agenda action.
func (rt *EraRuntime) HandleAgenda(ctx context.Context, action Action) (HandlerResult, error) {
	switch a := action.(type) {
	case StartRound:
		return rt.handleStartRound(ctx, a.RoundID)
	case CreateOmegaMessage:
		return rt.handleCreateOmega(ctx, a.RoundID)
	default:
		return HandlerResult{}, Fatal(fmt.Errorf("%w: %T", errUnknownAction, action))
	}
}

func (rt *EraRuntime) handleStartRound(ctx context.Context, round Tick) (HandlerResult, error) {
	var (
		res    HandlerResult
		now    = rt.now()
		length = RoundLength(rt.exponent)
	)
	// The scheduler slipped past this round entirely. Skip ahead to the first
	// lattice point after now; the missed round gets no lambda and no omega.
	if now > round+length {
		next := NextRound(rt.era.StartTick, rt.exponent, now)
		rt.metrics.roundsSkipped.Inc()
		rt.log.Warn("slipped past round, skipping ahead",
			zap.Int64("round", int64(round)),
			zap.Int64("now", int64(now)),
			zap.Int64("next", int64(next)),
		)
		res.schedule(next, StartRound{RoundID: next})
		return res, nil
	}

	if rt.isBondedLocal() && rt.synced.IsSynced() && rt.leader.Leader(round) == rt.localID {
		if err := rt.createLambdaMessage(ctx, &res, round); err != nil {
			return res, err
		}
	}

	next := NextRound(rt.era.StartTick, rt.exponent, round)
	if next < rt.votingEnd() {
		res.schedule(next, StartRound{RoundID: next})
	}
	res.schedule(round+rt.omegaDelay(length), CreateOmegaMessage{RoundID: round})
	return res, nil
}

// omegaDelay draws the omega offset uniformly from the configured fractional
// window of a round.
func (rt *EraRuntime) omegaDelay(roundLength Tick) Tick {
	start := rt.conf.OmegaMessageTimeStart
	width := rt.conf.OmegaMessageTimeEnd - start
	return Tick(float64(roundLength) * (start + rt.rand.Float64()*width))
}

// createLambdaMessage emits the leader's message for [round]: a block during
// the active period; during post-era voting, the block doubling as the switch
// block while the fork-choice tip is still pre-end, and a lambda-like ballot
// once a switch block exists on the chain.
func (rt *EraRuntime) createLambdaMessage(ctx context.Context, res *HandlerResult, round Tick) error {
	if round >= rt.votingEnd() {
		return nil
	}
	choice, err := rt.forkChoice.FromKeyBlock(ctx, rt.era.KeyBlockHash)
	if err != nil {
		rt.log.Error("fork choice failed",
			zap.Stringer("keyBlock", rt.era.KeyBlockHash),
			zap.Error(err),
		)
		return Fatal(fmt.Errorf("fork choice: %w", err))
	}

	if rt.isVotingRound(round) {
		switchExists, err := rt.tipPastEraEnd(choice.MainParent)
		if err != nil {
			rt.log.Error("failed to look up fork choice tip",
				zap.Stringer("tip", choice.MainParent),
				zap.Error(err),
			)
			return Fatal(err)
		}
		if switchExists {
			ballot, err := rt.producer.Ballot(ctx, BallotParams{
				EraID:          rt.era.ID(),
				RoundID:        round,
				Target:         choice.MainParent,
				Justifications: choice.Justifications,
				Role:           RoleLambdaLike,
			})
			if err != nil {
				rt.log.Error("failed to produce lambda-like ballot",
					zap.Int64("round", int64(round)),
					zap.Error(err),
				)
				return Fatal(fmt.Errorf("producing lambda-like ballot: %w", err))
			}
			rt.recordOwn(ballot.BallotID)
			rt.metrics.lambdasCreated.Inc()
			res.emit(CreatedLambdaMessage{Message: ballot})
			return nil
		}
	}

	isBooking, err := rt.crossesBookingBoundary(choice.MainParent, rt.now())
	if err != nil {
		rt.log.Error("failed to look up main parent",
			zap.Stringer("parent", choice.MainParent),
			zap.Error(err),
		)
		return Fatal(err)
	}
	block, err := rt.producer.Block(ctx, BlockParams{
		EraID:          rt.era.ID(),
		RoundID:        round,
		MainParent:     choice.MainParent,
		Justifications: choice.Justifications,
		IsBookingBlock: isBooking,
	})
	if err != nil {
		rt.log.Error("failed to produce lambda block",
			zap.Int64("round", int64(round)),
			zap.Error(err),
		)
		return Fatal(fmt.Errorf("producing lambda block: %w", err))
	}
	rt.recordOwn(block.BlockID)
	rt.metrics.lambdasCreated.Inc()
	rt.log.Debug("created lambda message",
		zap.Stringer("block", block.BlockID),
		zap.Int64("round", int64(round)),
		zap.Bool("isBookingBlock", isBooking),
	)
	res.emit(CreatedLambdaMessage{Message: block})
	return nil
}

// tipPastEraEnd reports whether the fork-choice tip is already at or past the
// era end, i.e. a switch block exists on the chain being built on.
func (rt *EraRuntime) tipPastEraEnd(tip ids.ID) (bool, error) {
	if tip == ids.Empty {
		return false, nil
	}
	m, err := rt.dag.Message(tip)
	if err != nil {
		return false, fmt.Errorf("looking up fork choice tip %s: %w", tip, err)
	}
	return m.Timestamp() >= rt.era.EndTick, nil
}

// crossesBookingBoundary reports whether building on [parent] now crosses a
// booking boundary, i.e. the produced block is a booking block.
func (rt *EraRuntime) crossesBookingBoundary(parent ids.ID, now Tick) (bool, error) {
	if parent == ids.Empty {
		return false, nil
	}
	m, err := rt.dag.Message(parent)
	if err != nil {
		return false, fmt.Errorf("looking up main parent %s: %w", parent, err)
	}
	return rt.bounds.IsBookingBoundary(m.Timestamp(), now), nil
}

func (rt *EraRuntime) handleCreateOmega(ctx context.Context, round Tick) (HandlerResult, error) {
	var res HandlerResult
	if !rt.synced.IsSynced() || !rt.isBondedLocal() {
		return res, nil
	}
	choice, err := rt.forkChoice.FromKeyBlock(ctx, rt.era.KeyBlockHash)
	if err != nil {
		rt.log.Error("fork choice failed",
			zap.Stringer("keyBlock", rt.era.KeyBlockHash),
			zap.Error(err),
		)
		return res, Fatal(fmt.Errorf("fork choice: %w", err))
	}
	ballot, err := rt.producer.Ballot(ctx, BallotParams{
		EraID:          rt.era.ID(),
		RoundID:        round,
		Target:         choice.MainParent,
		Justifications: choice.Justifications,
		Role:           RoleOmega,
	})
	if err != nil {
		rt.log.Error("failed to produce omega ballot",
			zap.Int64("round", int64(round)),
			zap.Error(err),
		)
		return res, Fatal(fmt.Errorf("producing omega ballot: %w", err))
	}
	rt.recordOwn(ballot.BallotID)
	rt.metrics.omegasCreated.Inc()
	res.emit(CreatedOmegaMessage{Message: ballot})
	return res, nil
}

func (rt *EraRuntime) recordOwn(id ids.ID) {
	rt.ownMessages.Add(id)
	rt.lastOwn = id
}
