/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

package pagination

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sasha-s/go-deadlock"

	"github.com/pageflow-go/pageflow/commonerrors"
)

// AggregatingMethod is a bound method which parses its arguments and runs to
// completion (aggregating or manual mode per the parsed descriptor).
type AggregatingMethod func(ctx context.Context, args ...any) (results []any, trailing []any, err error)

// StreamingMethod is a bound method which parses its arguments and always
// returns the live sequence, even when a callback-looking last argument was
// supplied.
type StreamingMethod func(ctx context.Context, args ...any) (*Sequence, error)

// MethodTable registers named fetch operations and hands out paginated
// bindings for them. Registering a method value (e.g. client.ListItems)
// preserves its receiver, so a bound method observes the same state the
// original would have. Any number of names can be registered and bound.
type MethodTable struct {
	mu        deadlock.RWMutex
	methods   map[string]FetchFunc
	installed mapset.Set[string]
}

// NewMethodTable creates an empty method table.
func NewMethodTable() *MethodTable {
	return &MethodTable{
		methods:   make(map[string]FetchFunc),
		installed: mapset.NewSet[string](),
	}
}

// Register adds a fetch operation under the given name.
func (t *MethodTable) Register(name string, method FetchFunc) error {
	if method == nil {
		return commonerrors.New(commonerrors.ErrUndefined, "missing method")
	}
	defer t.mu.Unlock()
	t.mu.Lock()
	if _, found := t.methods[name]; found {
		return commonerrors.Newf(commonerrors.ErrConflict, "method [%v] is already registered", name)
	}
	t.methods[name] = method
	return nil
}

// Method returns the fetch operation currently held under the given name.
func (t *MethodTable) Method(name string) (FetchFunc, error) {
	defer t.mu.RUnlock()
	t.mu.RLock()
	method, found := t.methods[name]
	if !found {
		return nil, commonerrors.Newf(commonerrors.ErrNotFound, "method [%v] is not registered", name)
	}
	return method, nil
}

// Names returns the registered method names.
func (t *MethodTable) Names() []string {
	defer t.mu.RUnlock()
	t.mu.RLock()
	names := make([]string, 0, len(t.methods))
	for name := range t.methods {
		names = append(names, name)
	}
	return names
}

// Install replaces the named method with the one returned by factory. The
// factory receives the original method, which stays reachable through the
// replacement's closure. A method can only be installed over once.
func (t *MethodTable) Install(name string, factory func(original FetchFunc) FetchFunc) error {
	if factory == nil {
		return commonerrors.New(commonerrors.ErrUndefined, "missing method factory")
	}
	defer t.mu.Unlock()
	t.mu.Lock()
	original, found := t.methods[name]
	if !found {
		return commonerrors.Newf(commonerrors.ErrNotFound, "method [%v] is not registered", name)
	}
	if !t.installed.Add(name) {
		return commonerrors.Newf(commonerrors.ErrConflict, "method [%v] already has a replacement installed", name)
	}
	replacement := factory(original)
	if replacement == nil {
		t.installed.Remove(name)
		return commonerrors.New(commonerrors.ErrUndefined, "the factory returned no method")
	}
	t.methods[name] = replacement
	return nil
}

// BindAggregating returns the full paginated behaviour for the named method:
// every call parses its arguments and runs to completion, delivering the
// outcome through the parsed callback or the returned values.
func (t *MethodTable) BindAggregating(name string, options ...SequenceOption) (AggregatingMethod, error) {
	method, err := t.Method(name)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, args ...any) ([]any, []any, error) {
		return Run(ctx, ParseArguments(args...), method, options...)
	}, nil
}

// BindStreaming returns the streaming behaviour for the named method: every
// call parses its arguments and returns the live sequence.
func (t *MethodTable) BindStreaming(name string, options ...SequenceOption) (StreamingMethod, error) {
	method, err := t.Method(name)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, args ...any) (*Sequence, error) {
		return RunStream(ctx, ParseArguments(args...), method, options...)
	}, nil
}
