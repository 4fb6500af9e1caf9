/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

package pagination

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/pageflow-go/pageflow/commonerrors"
	"github.com/pageflow-go/pageflow/commonerrors/errortest"
)

// mockClient demonstrates binding method values: the bound behaviour must
// observe the same receiver state the original method would have.
type mockClient struct {
	backend *MockFetch
	label   string
}

func (c *mockClient) ListItems(query any, handler FetchHandler) {
	c.backend.Fetch(query, func(err error, items []any, nextQuery map[string]any, extra ...any) {
		handler(err, items, nextQuery, append([]any{c.label}, extra...)...)
	})
}

func TestMethodTable_Register(t *testing.T) {
	table := NewMethodTable()
	fetch := NewMockFetch()
	require.NoError(t, table.Register("listItems", fetch.Fetch))
	assert.Contains(t, table.Names(), "listItems")

	err := table.Register("listItems", fetch.Fetch)
	errortest.AssertError(t, err, commonerrors.ErrConflict)

	err = table.Register("listNothing", nil)
	errortest.AssertError(t, err, commonerrors.ErrUndefined)

	_, err = table.Method("unknown")
	errortest.AssertError(t, err, commonerrors.ErrNotFound)
}

func TestMethodTable_Install(t *testing.T) {
	defer goleak.VerifyNone(t)
	pages, total := GenerateMockPages(2, 2)
	fetch := NewMockFetch(pages...)
	table := NewMethodTable()
	require.NoError(t, table.Register("listItems", fetch.Fetch))

	wrapped := atomic.NewInt64(0)
	require.NoError(t, table.Install("listItems", func(original FetchFunc) FetchFunc {
		return func(query any, handler FetchHandler) {
			wrapped.Inc()
			original(query, handler)
		}
	}))

	// The replacement serves the binding; the original stays reachable
	// through its closure.
	bound, err := table.BindAggregating("listItems")
	require.NoError(t, err)
	results, _, err := bound(context.TODO())
	require.NoError(t, err)
	assert.Len(t, results, total)
	assert.Equal(t, int64(2), wrapped.Load())
	assert.Equal(t, 2, fetch.Calls())

	// A method can only be installed over once.
	err = table.Install("listItems", func(original FetchFunc) FetchFunc { return original })
	errortest.AssertError(t, err, commonerrors.ErrConflict)

	err = table.Install("unknown", func(original FetchFunc) FetchFunc { return original })
	errortest.AssertError(t, err, commonerrors.ErrNotFound)

	err = table.Install("listItems", nil)
	errortest.AssertError(t, err, commonerrors.ErrUndefined)
}

func TestMethodTable_BindAggregating(t *testing.T) {
	defer goleak.VerifyNone(t)
	pages, total := GenerateMockPages(3, 2)
	backend := NewMockFetch(pages...)
	client := &mockClient{backend: backend, label: "client-state"}
	table := NewMethodTable()
	require.NoError(t, table.Register("listItems", client.ListItems))

	bound, err := table.BindAggregating("listItems")
	require.NoError(t, err)

	results, trailing, err := bound(context.TODO(), map[string]any{"topic": "news"})
	require.NoError(t, err)
	assert.Len(t, results, total)
	// Receiver state travelled with the method value.
	require.NotEmpty(t, trailing)
	assert.Equal(t, "client-state", trailing[0])

	_, err = table.BindAggregating("unknown")
	errortest.AssertError(t, err, commonerrors.ErrNotFound)
}

func TestMethodTable_BindAggregatingWithCallback(t *testing.T) {
	defer goleak.VerifyNone(t)
	fetch := NewMockFetch(MockPageSpec{Items: []any{"a", "b"}})
	table := NewMethodTable()
	require.NoError(t, table.Register("listItems", fetch.Fetch))
	bound, err := table.BindAggregating("listItems")
	require.NoError(t, err)

	invocations := 0
	results, _, err := bound(context.TODO(), func(err error, results []any, _ ...any) {
		invocations++
		assert.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, results)
	})
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Equal(t, 1, invocations)
}

func TestMethodTable_BindStreaming(t *testing.T) {
	defer goleak.VerifyNone(t)
	fetch := NewMockFetch(
		MockPageSpec{Items: []any{"a", "b"}, NextQuery: GenerateMockCursor()},
		MockPageSpec{Items: []any{"c"}},
	)
	table := NewMethodTable()
	require.NoError(t, table.Register("listItems", fetch.Fetch))

	bound, err := table.BindStreaming("listItems")
	require.NoError(t, err)

	// Even with a callback-looking last argument, a live sequence comes back.
	sequence, err := bound(context.TODO(), map[string]any{}, func(error, []any, ...any) {
		t.Error("the callback must not be used by the streaming entry point")
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, sequence.Close()) }()

	items := drainSequence(t, sequence)
	assert.Equal(t, []any{"a", "b", "c"}, items)

	_, err = table.BindStreaming("unknown")
	errortest.AssertError(t, err, commonerrors.ErrNotFound)
}

func TestMethodTable_SeveralNamesAtOnce(t *testing.T) {
	defer goleak.VerifyNone(t)
	firstPages, firstTotal := GenerateMockPages(2, 3)
	secondPages, secondTotal := GenerateMockPages(3, 1)
	firstFetch := NewMockFetch(firstPages...)
	secondFetch := NewMockFetch(secondPages...)

	table := NewMethodTable()
	require.NoError(t, table.Register("listFirst", firstFetch.Fetch))
	require.NoError(t, table.Register("listSecond", secondFetch.Fetch))

	boundFirst, err := table.BindAggregating("listFirst")
	require.NoError(t, err)
	boundSecond, err := table.BindAggregating("listSecond")
	require.NoError(t, err)

	firstResults, _, err := boundFirst(context.TODO())
	require.NoError(t, err)
	secondResults, _, err := boundSecond(context.TODO())
	require.NoError(t, err)
	assert.Len(t, firstResults, firstTotal)
	assert.Len(t, secondResults, secondTotal)
	assert.Equal(t, 2, firstFetch.Calls())
	assert.Equal(t, 3, secondFetch.Calls())
}
