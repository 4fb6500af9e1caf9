/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

// Package pagination turns remote listing operations returning truncated
// pages into single pull-based sequences of items. It provides the argument
// parsing convention deciding how a call should run (streaming, aggregating
// or manual single page), the sequence engine performing the successive
// fetches, and an adapter for binding the behaviour onto named methods.
package pagination

import (
	"context"
	"io"
)

// Unbounded disables a cap (call count or result count).
const Unbounded = -1

// FetchHandler receives the completion of one fetch call. It is invoked
// exactly once per call. A nil or empty nextQuery means the source is
// exhausted. The extra values are opaque to the engine and forwarded
// unchanged to the final consumer.
type FetchHandler func(err error, items []any, nextQuery map[string]any, extra ...any)

// FetchFunc performs one remote listing call for the given query and reports
// its outcome through the handler before returning. It may panic instead of
// invoking the handler; a panic is treated like a reported error.
type FetchFunc func(query any, handler FetchHandler)

// AggregateCallback receives the outcome of an aggregating or manual run:
// the error if any, every item collected in order, and the trailing values
// observed on the last successful fetch.
type AggregateCallback func(err error, results []any, trailing ...any)

// IItemSequence defines a pull-based, non-restartable sequence of items
// produced by a paginated operation. It is not safe for concurrent
// consumers.
type IItemSequence interface {
	io.Closer
	// HasNext returns whether more items are available. It blocks while a
	// fetch is needed to answer.
	HasNext() bool
	// GetNext returns the next item.
	GetNext() (any, error)
	// Stop returns a stop function which ends the sequence. No fetch is
	// issued after the stop function has been called.
	Stop() context.CancelFunc
	// Err returns the error which terminated the sequence, if any.
	Err() error
	// TrailingArgs returns the opaque trailing values reported by the last
	// fetch whose items were delivered.
	TrailingArgs() []any
	// RequestsMade returns the number of fetches performed so far.
	RequestsMade() int
}
