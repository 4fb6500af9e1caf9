/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

// Package parallelisation provides cooperative scheduling helpers used by
// sequence producers: context error determination, context-aware pauses and
// an explicit yield point so that cancellation and consumer signals are
// observed between units of work.
package parallelisation

import (
	"context"
	"runtime"
	"time"

	"github.com/pageflow-go/pageflow/commonerrors"
)

// DetermineContextError determines what the context error is if any.
func DetermineContextError(ctx context.Context) error {
	return commonerrors.ErrFromContext(ctx)
}

// SleepWithContext pauses the current goroutine for the given duration, or
// until the context is done, whichever comes first.
func SleepWithContext(ctx context.Context, duration time.Duration) {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Yield relinquishes the processor so other goroutines (typically the
// consumer of a sequence) can run, then reports the context state. It is the
// deferred continuation point a producer must pass through between units of
// work so that a pending stop request is observed before the next one starts.
func Yield(ctx context.Context) error {
	runtime.Gosched()
	return DetermineContextError(ctx)
}
