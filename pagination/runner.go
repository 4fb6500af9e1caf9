/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

package pagination

import (
	"context"

	"github.com/pageflow-go/pageflow/commonerrors"
	"github.com/pageflow-go/pageflow/parallelisation"
)

// Run executes a parsed call to completion. With auto-pagination on, it
// drains a sequence over the fetch operation and concatenates every emitted
// item; otherwise it performs exactly one fetch and passes its raw outcome
// through (the caller owns paging; the next query is the first trailing
// value). When the descriptor carries a callback, the outcome is delivered
// to it exactly once and the returned values are zero; otherwise the outcome
// is returned. No partial results are ever delivered on error.
func Run(ctx context.Context, descriptor *Descriptor, fetch FetchFunc, options ...SequenceOption) (results []any, trailing []any, err error) {
	if descriptor == nil {
		return nil, nil, commonerrors.New(commonerrors.ErrUndefined, "missing descriptor")
	}
	if descriptor.AutoPaginate {
		results, trailing, err = aggregate(ctx, descriptor, fetch, options...)
	} else {
		results, trailing, err = runManual(ctx, descriptor, fetch)
	}
	if descriptor.Callback != nil {
		descriptor.Callback(err, results, trailing...)
		return nil, nil, nil
	}
	return
}

// RunStream returns the live sequence for a parsed call, regardless of the
// descriptor shape: caps and stream options apply, any callback is ignored.
func RunStream(ctx context.Context, descriptor *Descriptor, fetch FetchFunc, options ...SequenceOption) (*Sequence, error) {
	return NewSequenceFromDescriptor(ctx, descriptor, fetch, options...)
}

// aggregate drains a whole sequence. On clean termination it returns every
// item in order plus the trailing values of the last delivered fetch; on a
// fetch error it returns that error alone.
func aggregate(ctx context.Context, descriptor *Descriptor, fetch FetchFunc, options ...SequenceOption) (results []any, trailing []any, err error) {
	sequence, err := NewSequenceFromDescriptor(ctx, descriptor, fetch, options...)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = sequence.Close() }()
	collected := make([]any, 0)
	for sequence.HasNext() {
		item, itemErr := sequence.GetNext()
		if itemErr != nil {
			return nil, nil, itemErr
		}
		collected = append(collected, item)
	}
	if sequenceErr := sequence.Err(); sequenceErr != nil {
		return nil, nil, sequenceErr
	}
	return collected, sequence.TrailingArgs(), nil
}

// runManual performs exactly one fetch. The raw handler values are passed
// through: items as the results, then the next query followed by the fetch's
// extra values as the trailing values.
func runManual(ctx context.Context, descriptor *Descriptor, fetch FetchFunc) (results []any, trailing []any, err error) {
	if fetch == nil {
		return nil, nil, commonerrors.New(commonerrors.ErrUndefined, "missing fetch operation")
	}
	if err = parallelisation.DetermineContextError(ctx); err != nil {
		return nil, nil, err
	}
	completion, err := invokeFetch(fetch, descriptor.InitialQuery())
	if err != nil {
		return nil, nil, err
	}
	if completion.err != nil {
		return nil, nil, completion.err
	}
	trailing = append([]any{completion.nextQuery}, completion.extra...)
	return completion.items, trailing, nil
}
