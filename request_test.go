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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SidecarProject/go-spihid/internal/frame"
)

func TestSendRequestFramesMessage(t *testing.T) {
	t.Parallel()
	link, mock, _ := newTestLink(t)

	payload := []byte{0xaa, 0xbb}
	n, err := link.SendRequest(frame.DeviceKeyboard, frame.CodeInfo,
		frame.SubInterfaceInfo, 0x01, 128, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	txs := mock.Transactions()
	require.Len(t, txs, 1)

	pkt, err := frame.DecodePacket(txs[0])
	require.NoError(t, err)
	assert.Equal(t, byte(frame.FlagsWrite), pkt.Flags)
	assert.Equal(t, byte(frame.DeviceKeyboard), pkt.Device)
	assert.Zero(t, pkt.Offset)
	assert.Zero(t, pkt.Remaining)

	hdr, got, err := frame.DecodeMessage(pkt.Data)
	require.NoError(t, err)
	assert.Equal(t, byte(frame.CodeInfo), hdr.Code)
	assert.Equal(t, byte(frame.SubInterfaceInfo), hdr.Sub)
	assert.Equal(t, byte(0x01), hdr.Aux)
	assert.Equal(t, uint16(128), hdr.ResponseLength)
	assert.Equal(t, payload, got)
}

func TestSendRequestRollingIDWraps(t *testing.T) {
	t.Parallel()
	link, mock, _ := newTestLink(t)

	for i := 0; i < 300; i++ {
		_, err := link.SendRequest(frame.DeviceManagement, frame.CodeInfo,
			frame.SubDeviceInfo, 0, 0, nil)
		require.NoError(t, err)
	}

	txs := mock.Transactions()
	require.Len(t, txs, 300)
	for i, tx := range txs {
		pkt, err := frame.DecodePacket(tx)
		require.NoError(t, err)
		hdr, _, err := frame.DecodeMessage(pkt.Data)
		require.NoError(t, err)
		assert.Equal(t, byte(i), hdr.ID, "request %d", i)
	}
}

func TestSendRequestPayloadTooLarge(t *testing.T) {
	t.Parallel()
	link, mock, _ := newTestLink(t)

	_, err := link.SendRequest(frame.DeviceKeyboard, frame.CodeInfo, 0, 0, 0,
		make([]byte, frame.MaxSinglePayload+1))
	require.ErrorIs(t, err, ErrDataTooLarge)
	assert.Empty(t, mock.Transactions())
}

func TestSendRequestUnexpectedStatusIsNotFatal(t *testing.T) {
	t.Parallel()
	link, mock, _ := newTestLink(t)
	mock.SetStatus([]byte{0x00, 0x00, 0x00, 0x00})

	n, err := link.SendRequest(frame.DeviceKeyboard, frame.CodeInfo, 0, 0, 0, []byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSendRequestContextInterruptible(t *testing.T) {
	t.Parallel()

	mock := NewBlockingMockTransport()
	link, err := New(mock)
	require.NoError(t, err)

	// First request takes the transaction lock and parks inside Transact.
	firstDone := make(chan error, 1)
	go func() {
		_, err := link.SendRequest(frame.DeviceManagement, frame.CodeInfo,
			frame.SubDeviceInfo, 0, 0, nil)
		firstDone <- err
	}()
	time.Sleep(50 * time.Millisecond)

	// Second request blocks on the lock; cancelling it must return
	// ErrInterrupted without sending anything.
	ctx, cancel := context.WithCancel(context.Background())
	secondDone := make(chan error, 1)
	go func() {
		_, err := link.SendRequestContext(ctx, frame.DeviceManagement,
			frame.CodeInfo, frame.SubDeviceInfo, 0, 0, nil)
		secondDone <- err
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-secondDone:
		require.ErrorIs(t, err, ErrInterrupted)
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("interrupted request did not return")
	}

	mock.Unblock()
	select {
	case err := <-firstDone:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("first request did not complete")
	}

	// Only the first request reached the bus.
	assert.Len(t, mock.Transactions(), 1)
}

func TestTransactionsAreMutuallyExclusive(t *testing.T) {
	t.Parallel()

	var inFlight atomic.Int32
	var overlapped atomic.Bool

	mock := NewMockTransport()
	mock.TransactFunc = func(_ []byte) ([]byte, error) {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		time.Sleep(time.Millisecond)
		inFlight.Add(-1)
		return nil, nil
	}
	link, err := New(mock)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := link.SendRequest(frame.DeviceKeyboard, frame.CodeInfo, 0, 0, 0, nil)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.False(t, overlapped.Load(), "two transactions overlapped on the bus")
	assert.Len(t, mock.Transactions(), 40)
}

func TestAwaitConditionTimesOut(t *testing.T) {
	t.Parallel()
	link, _, _ := newTestLink(t)

	start := time.Now()
	err := link.awaitCondition("nothing", func() bool { return false }, 50*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Contains(t, err.Error(), "nothing")
}

func TestAwaitConditionWakesOnBroadcast(t *testing.T) {
	t.Parallel()
	link, _, _ := newTestLink(t)

	var flag bool
	go func() {
		time.Sleep(20 * time.Millisecond)
		link.mu.Lock()
		flag = true
		link.cond.Broadcast()
		link.mu.Unlock()
	}()

	err := link.awaitCondition("flag", func() bool { return flag }, time.Second)
	require.NoError(t, err)
}
