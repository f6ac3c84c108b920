// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highway

import "errors"

// Protocol rejection reasons. ErrNotLeader and ErrDoubleLambda are soft
// errors: the message is dropped, no state mutates, and the relay layer may
// penalize the sender. ErrDoppelganger is returned wrapped in a FatalError.
// The strings are part of the protocol's observable behavior and must not
// change.
var (
	ErrDoppelganger = errors.New("The block is coming from a doppelganger.")
	ErrNotLeader    = errors.New("The block is not coming from the leader of the round.")
	ErrDoubleLambda = errors.New("The leader has already sent a lambda message in this round.")
)

// ErrSelfMessage is raised when a message this runtime produced is delivered
// back to it. That indicates a relay bug, so it is fatal.
var ErrSelfMessage = errors.New("message was produced by this runtime")

// FatalError marks a failure after which the runtime must not be fed further
// inputs: a doppelganger, a self-delivered message, or a broken capability
// (DAG, era storage). The node may keep running other era runtimes.
type FatalError struct {
	err error
}

// Fatal wraps [err] as a FatalError. Fatal(nil) returns nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{err: err}
}

func (e *FatalError) Error() string {
	return "fatal: " + e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// IsFatal reports whether [err] carries a FatalError anywhere in its chain.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
