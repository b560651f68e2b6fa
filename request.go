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
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/SidecarProject/go-spihid/internal/frame"
)

// SendRequest builds and sends one request message to a sub-device and
// performs the synchronous write + status read-back transaction. It
// returns the number of payload bytes accepted.
func (l *Link) SendRequest(device, code, sub, aux byte, responseLen uint16, payload []byte) (int, error) {
	return l.SendRequestContext(context.Background(), device, code, sub, aux, responseLen, payload)
}

// SendRequestContext is SendRequest with context support. The transaction
// lock acquisition is interruptible: if ctx is cancelled while another
// transaction holds the bus, nothing is sent and ErrInterrupted is
// returned.
func (l *Link) SendRequestContext(ctx context.Context, device, code, sub, aux byte,
	responseLen uint16, payload []byte) (int, error) {
	if len(payload) > frame.MaxSinglePayload {
		return 0, NewDataTooLargeError("sendRequest", string(l.transport.Type()))
	}

	select {
	case l.txSem <- struct{}{}:
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}
	defer func() { <-l.txSem }()

	id := l.nextID
	l.nextID++ // wraps mod 256 by byte arithmetic

	msg := frame.EncodeMessage(frame.Header{
		Code:           code,
		Sub:            sub,
		Aux:            aux,
		ID:             id,
		ResponseLength: responseLen,
	}, payload)

	pkt, err := frame.EncodePacket(frame.FlagsWrite, device, msg)
	if err != nil {
		return 0, fmt.Errorf("failed to frame request: %w", err)
	}

	status := make([]byte, len(frame.StatusOK))
	if err := l.transport.Transact(pkt, status); err != nil {
		return 0, fmt.Errorf("transaction failed: %w", err)
	}

	if !bytes.Equal(status, frame.StatusOK) {
		// The device acknowledged with an unexpected pattern. The write
		// itself went through, so this is diagnostic only.
		l.log.Warn().
			Hex("status", status).
			Uint8("id", id).
			Msg("unexpected status read-back")
	}

	return len(payload), nil
}

// awaitCondition blocks until pred becomes true or timeout elapses. Every
// relevant inbound dispatch broadcasts the shared condition; waiters
// re-check their predicate after each wakeup, so spurious wakeups are
// harmless. The timeout failure wraps ErrTimeout, distinct from transport
// I/O faults.
func (l *Link) awaitCondition(what string, pred func() bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(timeout, func() {
		l.mu.Lock()
		l.cond.Broadcast()
		l.mu.Unlock()
	})
	defer timer.Stop()

	l.mu.Lock()
	defer l.mu.Unlock()
	for !pred() {
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: waiting for %s", ErrTimeout, what)
		}
		l.cond.Wait()
	}
	return nil
}
