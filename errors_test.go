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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "transport timeout retryable",
			err:  ErrTransportTimeout,
			want: true,
		},
		{
			name: "transport read retryable",
			err:  ErrTransportRead,
			want: true,
		},
		{
			name: "transport write retryable",
			err:  ErrTransportWrite,
			want: true,
		},
		{
			name: "communication failed retryable",
			err:  ErrCommunicationFailed,
			want: true,
		},
		{
			name: "checksum mismatch retryable",
			err:  ErrChecksumMismatch,
			want: true,
		},
		{
			name: "fragment mismatch retryable",
			err:  ErrProtocolMismatch,
			want: true,
		},
		{
			name: "wrapped retryable sentinel",
			err:  fmt.Errorf("transaction failed: %w", ErrTransportTimeout),
			want: true,
		},
		{
			name: "data too large not retryable",
			err:  ErrDataTooLarge,
			want: false,
		},
		{
			name: "invalid parameter not retryable",
			err:  ErrInvalidParameter,
			want: false,
		},
		{
			name: "condition timeout not retryable",
			err:  ErrTimeout,
			want: false,
		},
		{
			name: "unknown error not retryable",
			err:  errors.New("something else"),
			want: false,
		},
		{
			name: "transport error carries its own verdict",
			err:  NewTransportError("write", "SPI0.0", ErrTransportWrite, ErrorTypeTransient),
			want: true,
		},
		{
			name: "permanent transport error not retryable",
			err:  NewDataTooLargeError("sendRequest", "SPI0.0"),
			want: false,
		},
		{
			name: "wrapped transport error",
			err:  fmt.Errorf("outer: %w", NewTimeoutError("status", "SPI0.0")),
			want: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{
			name: "nil error permanent",
			err:  nil,
			want: ErrorTypePermanent,
		},
		{
			name: "transport timeout",
			err:  ErrTransportTimeout,
			want: ErrorTypeTimeout,
		},
		{
			name: "condition timeout",
			err:  ErrTimeout,
			want: ErrorTypeTimeout,
		},
		{
			name: "read fault transient",
			err:  ErrTransportRead,
			want: ErrorTypeTransient,
		},
		{
			name: "unknown permanent",
			err:  errors.New("boom"),
			want: ErrorTypePermanent,
		},
		{
			name: "transport error carries its type",
			err:  NewChecksumError("read", "SPI0.0"),
			want: ErrorTypeTransient,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	err := NewTransportError("write", "SPI0.0", ErrTransportWrite, ErrorTypeTransient)
	assert.Equal(t, "write SPI0.0: transport write failed", err.Error())
	require.ErrorIs(t, err, ErrTransportWrite)
	assert.True(t, err.Retryable)

	// No port leaves it out of the message.
	bare := NewTransportError("open", "", ErrInvalidParameter, ErrorTypePermanent)
	assert.Equal(t, "open: invalid parameter", bare.Error())
	assert.False(t, bare.Retryable)
}

func TestTimeoutErrorWrapsSentinel(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("Transact", "mock")
	require.ErrorIs(t, err, ErrTransportTimeout)
	assert.Equal(t, ErrorTypeTimeout, GetErrorType(err))
	assert.True(t, IsRetryable(err))

	// The condition timeout is a different failure and must not satisfy
	// transport timeout checks.
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestErrorTypeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "permanent", ErrorTypePermanent.String())
	assert.Equal(t, "transient", ErrorTypeTransient.String())
	assert.Equal(t, "timeout", ErrorTypeTimeout.String())
	assert.Equal(t, "unknown", ErrorType(99).String())
}
