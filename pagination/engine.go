/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

package pagination

import (
	"context"

	"github.com/go-logr/logr"
	"go.uber.org/atomic"

	"github.com/pageflow-go/pageflow/commonerrors"
	"github.com/pageflow-go/pageflow/parallelisation"
)

// DefaultHighWaterMark is the number of items a sequence buffers ahead of
// consumption when no explicit mark was given.
const DefaultHighWaterMark = 16

var _ IItemSequence = (*Sequence)(nil)

// Sequence is a pull-based lazy sequence over a fetch operation. No fetch is
// performed before the first pull, at most one fetch is in flight at any
// time, and the producer never runs ahead of consumption by more than the
// buffer plus the page being emitted. A Sequence cannot be restarted and is
// not safe for concurrent consumers.
type Sequence struct {
	fetch  FetchFunc
	logger logr.Logger

	buffer        chan any
	highWaterMark int

	started      *atomic.Bool
	reading      *atomic.Bool
	ended        *atomic.Bool
	requestsMade *atomic.Int64
	failure      *atomic.Error
	trailing     *atomic.Value

	// Producer owned state.
	nextQuery        any
	callCap          int
	resultsRemaining int64

	// Consumer owned peek state.
	peeked bool
	next   any

	cancellationStore *parallelisation.CancelFunctionStore
	ctx               context.Context
}

// SequenceOption tunes a sequence at construction time.
type SequenceOption func(*Sequence)

// WithCallCap bounds how many fetches the sequence may perform. Negative
// values mean unbounded.
func WithCallCap(maxAPICalls int) SequenceOption {
	return func(s *Sequence) { s.callCap = normaliseCap(maxAPICalls) }
}

// WithResultCap bounds how many items the sequence may deliver across all
// fetches combined. Negative values mean unbounded.
func WithResultCap(maxResults int) SequenceOption {
	return func(s *Sequence) { s.resultsRemaining = int64(normaliseCap(maxResults)) }
}

// WithHighWaterMark sets the buffering capacity of the sequence. Zero means
// no buffering at all: items are handed over in lock step with the consumer.
func WithHighWaterMark(highWaterMark int) SequenceOption {
	return func(s *Sequence) { s.highWaterMark = highWaterMark }
}

// WithLogger sets the logger used for trace messages. Errors are never
// logged; they are surfaced to the consumer.
func WithLogger(logger logr.Logger) SequenceOption {
	return func(s *Sequence) { s.logger = logger }
}

func normaliseCap(value int) int {
	if value < 0 {
		return Unbounded
	}
	return value
}

// NewSequence creates a sequence of the items returned by successive calls
// to the fetch operation, starting from the given query. The query may be
// nil (normalised to an empty mapping) or any value the fetch operation
// understands.
func NewSequence(ctx context.Context, fetch FetchFunc, query any, options ...SequenceOption) (*Sequence, error) {
	if fetch == nil {
		return nil, commonerrors.New(commonerrors.ErrUndefined, "missing fetch operation")
	}
	store := parallelisation.NewCancelFunctionsStore()
	cancelCtx, cancel := context.WithCancel(ctx)
	store.RegisterCancelFunction(cancel)
	sequence := &Sequence{
		fetch:             fetch,
		logger:            logr.Discard(),
		highWaterMark:     DefaultHighWaterMark,
		started:           atomic.NewBool(false),
		reading:           atomic.NewBool(false),
		ended:             atomic.NewBool(false),
		requestsMade:      atomic.NewInt64(0),
		failure:           atomic.NewError(nil),
		trailing:          new(atomic.Value),
		nextQuery:         normaliseQuery(query),
		callCap:           Unbounded,
		resultsRemaining:  Unbounded,
		cancellationStore: store,
		ctx:               cancelCtx,
	}
	for i := range options {
		if options[i] != nil {
			options[i](sequence)
		}
	}
	if sequence.highWaterMark < 0 {
		sequence.highWaterMark = DefaultHighWaterMark
	}
	sequence.buffer = make(chan any, sequence.highWaterMark)
	sequence.trailing.Store([]any{})
	return sequence, nil
}

// NewSequenceFromDescriptor creates a sequence configured by a parsed call
// descriptor.
func NewSequenceFromDescriptor(ctx context.Context, descriptor *Descriptor, fetch FetchFunc, options ...SequenceOption) (*Sequence, error) {
	if descriptor == nil {
		return nil, commonerrors.New(commonerrors.ErrUndefined, "missing descriptor")
	}
	sequenceOptions := []SequenceOption{
		WithCallCap(descriptor.MaxAPICalls),
		WithResultCap(descriptor.MaxResults),
	}
	if descriptor.StreamOptions.HighWaterMark != nil {
		sequenceOptions = append(sequenceOptions, WithHighWaterMark(*descriptor.StreamOptions.HighWaterMark))
	}
	sequenceOptions = append(sequenceOptions, options...)
	return NewSequence(ctx, fetch, descriptor.InitialQuery(), sequenceOptions...)
}

func normaliseQuery(query any) any {
	if query == nil {
		return map[string]any{}
	}
	return query
}

func (s *Sequence) HasNext() bool {
	if parallelisation.DetermineContextError(s.ctx) != nil {
		return false
	}
	if s.peeked {
		return true
	}
	s.start()
	item, ok := <-s.buffer
	if !ok {
		return false
	}
	s.next = item
	s.peeked = true
	return true
}

func (s *Sequence) GetNext() (any, error) {
	if err := parallelisation.DetermineContextError(s.ctx); err != nil {
		return nil, err
	}
	if !s.HasNext() {
		if err := s.Err(); err != nil {
			return nil, err
		}
		if err := parallelisation.DetermineContextError(s.ctx); err != nil {
			return nil, err
		}
		return nil, commonerrors.New(commonerrors.ErrNotFound, "there is not any next item")
	}
	item := s.next
	s.next = nil
	s.peeked = false
	return item, nil
}

// Stop returns a stop function which ends the sequence. An in-flight fetch
// completes but whatever it returns is discarded, and no further fetch is
// ever issued.
func (s *Sequence) Stop() context.CancelFunc {
	return s.cancellationStore.Cancel
}

func (s *Sequence) Close() error {
	s.Stop()()
	return nil
}

// Err returns the error which terminated the sequence, nil when it ended
// naturally or has not ended yet.
func (s *Sequence) Err() error {
	return s.failure.Load()
}

// TrailingArgs returns the opaque trailing values reported by the last fetch
// whose items were delivered. Values from a fetch discarded by an early stop
// are never reported.
func (s *Sequence) TrailingArgs() []any {
	return s.trailing.Load().([]any)
}

// RequestsMade returns the number of fetches whose results were processed.
func (s *Sequence) RequestsMade() int {
	return int(s.requestsMade.Load())
}

// ForEach pulls every remaining item and applies f to it, in order. It stops
// on the first error returned by f (an EOF means a benign stop and is
// swallowed), on a sequence failure, or on a stop request.
func (s *Sequence) ForEach(f func(item any) error) error {
	for s.HasNext() {
		item, err := s.GetNext()
		if err != nil {
			return err
		}
		if err := f(item); err != nil {
			return commonerrors.Ignore(err, commonerrors.ErrEOF)
		}
	}
	return s.Err()
}

// start launches the producer on the first pull. Re-entrant pulls are no-ops.
func (s *Sequence) start() {
	if s.started.CompareAndSwap(false, true) {
		go s.pump()
	}
}

// pump performs fetches strictly sequentially until the source is exhausted,
// a cap is hit, the consumer stops the sequence or a fetch fails.
func (s *Sequence) pump() {
	defer close(s.buffer)
	defer s.ended.Store(true)
	for {
		if parallelisation.DetermineContextError(s.ctx) != nil {
			return
		}
		finished, err := s.fetchPage()
		if err != nil {
			s.failure.Store(err)
			s.logger.V(1).Info("sequence failed", "requestsMade", s.requestsMade.Load())
			return
		}
		if finished {
			s.logger.V(1).Info("sequence ended", "requestsMade", s.requestsMade.Load())
			return
		}
		// Deferred continuation: yield so that a pending stop request from
		// the consumer is observed before the next fetch starts.
		if parallelisation.Yield(s.ctx) != nil {
			return
		}
	}
}

// fetchPage performs one fetch and emits its retained items downstream, in
// order, one at a time.
func (s *Sequence) fetchPage() (finished bool, err error) {
	s.reading.Store(true)
	defer s.reading.Store(false)

	completion, err := invokeFetch(s.fetch, s.nextQuery)
	if err != nil {
		return false, err
	}
	if completion.err != nil {
		// The failing call's items are not processed.
		return false, completion.err
	}

	s.nextQuery = completion.nextQuery
	items := completion.items
	if s.resultsRemaining > Unbounded && int64(len(items)) > s.resultsRemaining {
		items = items[:s.resultsRemaining]
	}
	for i := range items {
		// A stop request is honoured before every single item; the rest of
		// an in-flight fetch is silently discarded.
		if parallelisation.DetermineContextError(s.ctx) != nil {
			return true, nil
		}
		select {
		case s.buffer <- items[i]:
		case <-s.ctx.Done():
			return true, nil
		}
	}
	if s.resultsRemaining > Unbounded {
		s.resultsRemaining -= int64(len(items))
	}
	s.requestsMade.Inc()
	s.trailing.Store(completion.extra)
	s.logger.V(2).Info("page delivered", "items", len(items), "requestsMade", s.requestsMade.Load())

	finished = len(completion.nextQuery) == 0 || s.resultsRemaining == 0
	capped := s.callCap > Unbounded && s.requestsMade.Load() >= int64(s.callCap)
	return finished || capped, nil
}

// fetchCompletion captures the values a fetch reported through its handler.
type fetchCompletion struct {
	err       error
	items     []any
	nextQuery map[string]any
	extra     []any
}

// invokeFetch performs one call to the fetch operation, enforcing the
// exactly-once handler contract and converting panics into errors.
func invokeFetch(fetch FetchFunc, query any) (completion *fetchCompletion, err error) {
	defer func() {
		if r := recover(); r != nil {
			completion = nil
			err = commonerrors.Newf(commonerrors.ErrUnexpected, "fetch operation panicked: %v", r)
		}
	}()
	fetch(query, func(fetchErr error, items []any, nextQuery map[string]any, extra ...any) {
		if completion != nil {
			return
		}
		reported := fetchCompletion{err: fetchErr, items: items, nextQuery: nextQuery, extra: extra}
		if reported.extra == nil {
			reported.extra = []any{}
		}
		completion = &reported
	})
	if completion == nil {
		err = commonerrors.New(commonerrors.ErrUnexpected, "fetch operation returned without invoking its handler")
	}
	return
}
