// go-spihid
// Copyright (c) 2025 The Sidecar Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-spihid.
//
// go-spihid is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-spihid is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-spihid; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package spihid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetryConfig keeps retry tests quick and deterministic
func fastRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
		RetryTimeout:      time.Second,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := RetryWithConfig(context.Background(), fastRetryConfig(), func() error {
		attempts++
		if attempts < 3 {
			return ErrTransportTimeout
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	permanent := errors.New("broken wiring")
	attempts := 0
	err := RetryWithConfig(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := RetryWithConfig(context.Background(), fastRetryConfig(), func() error {
		attempts++
		return ErrTransportRead
	})
	require.ErrorIs(t, err, ErrTransportRead)
	assert.Equal(t, 3, attempts)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := RetryWithConfig(ctx, fastRetryConfig(), func() error {
		attempts++
		cancel()
		return ErrTransportTimeout
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetryNilConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	err := RetryWithConfig(context.Background(), nil, func() error { return nil })
	require.NoError(t, err)
}

func TestBackoffGrowthAndCap(t *testing.T) {
	t.Parallel()

	config := &RetryConfig{
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        35 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}

	assert.Equal(t, 10*time.Millisecond, config.backoff(0))
	assert.Equal(t, 20*time.Millisecond, config.backoff(1))
	// 40ms exceeds the cap.
	assert.Equal(t, 35*time.Millisecond, config.backoff(2))
	assert.Equal(t, 35*time.Millisecond, config.backoff(5))
}

func TestBackoffJitterStaysInBounds(t *testing.T) {
	t.Parallel()

	config := &RetryConfig{
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 1.0,
		Jitter:            0.5,
	}

	for i := 0; i < 100; i++ {
		delay := config.backoff(0)
		assert.GreaterOrEqual(t, delay, 50*time.Millisecond)
		assert.LessOrEqual(t, delay, 150*time.Millisecond)
	}
}
