/*
 * Copyright (C) 2020-2025 Arm Limited or its affiliates and Contributors. All rights reserved.
 * SPDX-License-Identifier: Apache-2.0
 */

package parallelisation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pageflow-go/pageflow/commonerrors"
	"github.com/pageflow-go/pageflow/commonerrors/errortest"
)

func TestDetermineContextError(t *testing.T) {
	defer goleak.VerifyNone(t)
	require.NoError(t, DetermineContextError(context.Background()))

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()
	errortest.AssertError(t, DetermineContextError(cancelledCtx), commonerrors.ErrCancelled)

	timedOutCtx, stop := context.WithTimeout(context.Background(), time.Nanosecond)
	defer stop()
	<-timedOutCtx.Done()
	errortest.AssertError(t, DetermineContextError(timedOutCtx), commonerrors.ErrTimeout)
}

func TestSleepWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)
	start := time.Now()
	SleepWithContext(context.Background(), 25*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	// A cancelled context must cut the pause short.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start = time.Now()
	SleepWithContext(ctx, time.Hour)
	assert.Less(t, time.Since(start), time.Second)
}

func TestYield(t *testing.T) {
	defer goleak.VerifyNone(t)
	require.NoError(t, Yield(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	errortest.AssertError(t, Yield(ctx), commonerrors.ErrCancelled)
}
