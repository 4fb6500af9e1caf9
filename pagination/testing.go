/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

package pagination

import (
	"github.com/go-faker/faker/v4"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/atomic"
)

// MockItem is a fake result item.
type MockItem struct {
	Index  int
	ID     string
	Value1 string
	Value2 string
}

func GenerateMockItem() *MockItem {
	return &MockItem{
		ID:     faker.UUIDHyphenated(),
		Value1: faker.Name(),
		Value2: faker.Sentence(),
	}
}

func GenerateMockItems(count int) []any {
	items := make([]any, 0, count)
	for i := 0; i < count; i++ {
		item := GenerateMockItem()
		item.Index = i
		items = append(items, item)
	}
	return items
}

// MockPageSpec scripts the completion of one fetch call.
type MockPageSpec struct {
	Items     []any
	NextQuery map[string]any
	Extra     []any
	Err       error
	Panic     bool
}

// MockFetch is a scripted fetch operation. Calls beyond the script complete
// with an empty terminal page. It records every query it receives and
// whether two calls ever overlapped.
type MockFetch struct {
	mu         deadlock.RWMutex
	pages      []MockPageSpec
	queries    []any
	calls      *atomic.Int64
	inFlight   *atomic.Bool
	overlapped *atomic.Bool
}

func NewMockFetch(pages ...MockPageSpec) *MockFetch {
	return &MockFetch{
		pages:      pages,
		calls:      atomic.NewInt64(0),
		inFlight:   atomic.NewBool(false),
		overlapped: atomic.NewBool(false),
	}
}

// Fetch implements FetchFunc.
func (m *MockFetch) Fetch(query any, handler FetchHandler) {
	if !m.inFlight.CompareAndSwap(false, true) {
		m.overlapped.Store(true)
	}
	defer m.inFlight.Store(false)

	m.mu.Lock()
	m.queries = append(m.queries, query)
	index := int(m.calls.Inc()) - 1
	var page MockPageSpec
	if index < len(m.pages) {
		page = m.pages[index]
	}
	m.mu.Unlock()

	if page.Panic {
		panic("mock fetch failure")
	}
	handler(page.Err, page.Items, page.NextQuery, page.Extra...)
}

// Calls returns how many times the fetch operation was invoked.
func (m *MockFetch) Calls() int {
	return int(m.calls.Load())
}

// Overlapped states whether two fetch calls were ever in flight at once.
func (m *MockFetch) Overlapped() bool {
	return m.overlapped.Load()
}

// Queries returns a copy of the queries received, in call order.
func (m *MockFetch) Queries() []any {
	defer m.mu.RUnlock()
	m.mu.RLock()
	queries := make([]any, len(m.queries))
	copy(queries, m.queries)
	return queries
}

// GenerateMockCursor creates a non-empty next query.
func GenerateMockCursor() map[string]any {
	return map[string]any{"pageToken": faker.UUIDDigit()}
}

// GenerateMockPages scripts a chained collection of pageCount pages of
// itemsPerPage items each, ending with an exhausted last page. It returns
// the script and the total number of items.
func GenerateMockPages(pageCount, itemsPerPage int) (pages []MockPageSpec, itemTotal int) {
	for i := 0; i < pageCount; i++ {
		page := MockPageSpec{
			Items: GenerateMockItems(itemsPerPage),
			Extra: []any{map[string]any{"page": i}},
		}
		for j := range page.Items {
			page.Items[j].(*MockItem).Index = itemTotal + j
		}
		if i < pageCount-1 {
			page.NextQuery = GenerateMockCursor()
		}
		itemTotal += len(page.Items)
		pages = append(pages, page)
	}
	return
}

// GenerateMockCollection scripts a randomly sized collection.
func GenerateMockCollection() (fetch *MockFetch, itemTotal int, err error) {
	randoms, err := faker.RandomInt(1, 10)
	if err != nil {
		return
	}
	pageCount := randoms[0]
	itemRandoms, err := faker.RandomInt(0, 15)
	if err != nil {
		return
	}
	itemsPerPage := itemRandoms[0]
	pages, itemTotal := GenerateMockPages(pageCount, itemsPerPage)
	fetch = NewMockFetch(pages...)
	return
}
