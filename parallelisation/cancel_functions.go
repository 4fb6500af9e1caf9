/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

package parallelisation

import (
	"context"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/sync/errgroup"
)

// CancelFunctionStore is a registry of cancel functions which can all be
// executed at once. Registration may happen at any time, including while a
// cancellation is in progress.
type CancelFunctionStore struct {
	mu        deadlock.RWMutex
	functions []context.CancelFunc
}

func (s *CancelFunctionStore) RegisterCancelFunction(cancel ...context.CancelFunc) {
	defer s.mu.Unlock()
	s.mu.Lock()
	s.functions = append(s.functions, cancel...)
}

func (s *CancelFunctionStore) Len() int {
	defer s.mu.RUnlock()
	s.mu.RLock()
	return len(s.functions)
}

// Cancel executes all the cancel functions in the store.
func (s *CancelFunctionStore) Cancel() {
	defer s.mu.Unlock()
	s.mu.Lock()
	g := new(errgroup.Group)
	g.SetLimit(len(s.functions) + 1)
	for i := range s.functions {
		cancelFunc := s.functions[i]
		g.Go(func() error {
			cancelFunc()
			return nil
		})
	}
	_ = g.Wait()
	s.functions = make([]context.CancelFunc, 0, len(s.functions))
}

// NewCancelFunctionsStore creates a store for cancel functions.
func NewCancelFunctionsStore() *CancelFunctionStore {
	return &CancelFunctionStore{
		functions: make([]context.CancelFunc, 0),
	}
}
