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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SidecarProject/go-spihid/internal/frame"
)

func TestTransportWithRetryRecoversFromTransientFaults(t *testing.T) {
	t.Parallel()

	failures := 2
	mock := NewMockTransport()
	mock.TransactFunc = func(_ []byte) ([]byte, error) {
		if failures > 0 {
			failures--
			return nil, ErrTransportTimeout
		}
		return nil, nil
	}

	wrapped := NewTransportWithRetry(mock, fastRetryConfig())
	status := make([]byte, len(frame.StatusOK))
	require.NoError(t, wrapped.Transact(make([]byte, frame.PacketSize), status))
	assert.Equal(t, frame.StatusOK, status)
	assert.Len(t, mock.Transactions(), 3)
}

func TestTransportWithRetryGivesUpOnPermanentFaults(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.TransactFunc = func(_ []byte) ([]byte, error) {
		return nil, ErrInvalidParameter
	}

	wrapped := NewTransportWithRetry(mock, fastRetryConfig())
	err := wrapped.Transact(make([]byte, frame.PacketSize), make([]byte, 4))
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Len(t, mock.Transactions(), 1)
}

func TestTransportWithRetryForwarding(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetWakeCapable(true)
	wrapped := NewTransportWithRetry(mock, nil)

	assert.Equal(t, TransportMock, wrapped.Type())
	assert.True(t, wrapped.HasCapability(CapabilityWake))

	require.NoError(t, wrapped.PowerOn())
	assert.True(t, mock.Powered())
	require.NoError(t, wrapped.EnableWake())
	assert.True(t, mock.WakeArmed())
	require.NoError(t, wrapped.DisableWake())
	assert.False(t, mock.WakeArmed())
	require.NoError(t, wrapped.Close())
	assert.False(t, wrapped.IsConnected())
}

func TestLinkThroughRetryWrapper(t *testing.T) {
	t.Parallel()

	failures := 1
	mock := NewMockTransport()
	mock.TransactFunc = func(_ []byte) ([]byte, error) {
		if failures > 0 {
			failures--
			return nil, ErrTransportTimeout
		}
		return nil, nil
	}

	link, err := New(NewTransportWithRetry(mock, fastRetryConfig()))
	require.NoError(t, err)

	_, err = link.SendRequest(frame.DeviceKeyboard, frame.CodeInfo, 0, 0, 0, nil)
	require.NoError(t, err)
	assert.Len(t, mock.Transactions(), 2)
}
