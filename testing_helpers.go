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
	"sync"
	"time"
)

// MockTransport is a scripted in-memory transport for tests. Outbound
// transactions are recorded; inbound packets are injected with
// InjectPacket, which invokes the registered handler synchronously on the
// caller's goroutine (the caller plays the completion context).
type MockTransport struct {
	// TransactFunc, when set, is consulted for every transaction and its
	// return value becomes the status read-back.
	TransactFunc func(tx []byte) ([]byte, error)
	// OnEnableSignal, when set, runs after EnableSignal succeeds. Useful
	// to inject the boot announcement at the moment the signal path is
	// armed.
	OnEnableSignal func()

	handler      func(raw []byte)
	status       []byte
	transactions [][]byte
	timeout      time.Duration
	mu           sync.Mutex
	powered      bool
	signal       bool
	wakeCapable  bool
	wakeArmed    bool
	closed       bool
}

// NewMockTransport creates a mock transport whose status read-back is the
// expected status-ok pattern.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		status:  []byte{0xac, 0x27, 0x68, 0xd5},
		timeout: time.Second,
	}
}

// Transact records the written packet and fills in the scripted status
func (m *MockTransport) Transact(packet, status []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrTransportWrite
	}
	tx := make([]byte, len(packet))
	copy(tx, packet)
	m.transactions = append(m.transactions, tx)
	fn := m.TransactFunc
	scripted := m.status
	m.mu.Unlock()

	if fn != nil {
		resp, err := fn(tx)
		if err != nil {
			return err
		}
		if resp != nil {
			scripted = resp
		}
	}
	copy(status, scripted)
	return nil
}

// SetPacketHandler registers the inbound packet handler
func (m *MockTransport) SetPacketHandler(handler func(raw []byte)) {
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
}

// InjectPacket delivers an inbound transfer to the registered handler
func (m *MockTransport) InjectPacket(raw []byte) {
	m.mu.Lock()
	handler := m.handler
	m.mu.Unlock()
	if handler != nil {
		cp := make([]byte, len(raw))
		copy(cp, raw)
		handler(cp)
	}
}

// Transactions returns copies of all packets written so far
func (m *MockTransport) Transactions() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.transactions))
	copy(out, m.transactions)
	return out
}

// SetStatus overrides the status read-back returned by Transact
func (m *MockTransport) SetStatus(status []byte) {
	m.mu.Lock()
	m.status = append([]byte(nil), status...)
	m.mu.Unlock()
}

// SetWakeCapable marks the mock as supporting wake-on-signal
func (m *MockTransport) SetWakeCapable(capable bool) {
	m.mu.Lock()
	m.wakeCapable = capable
	m.mu.Unlock()
}

// PowerOn records the power state
func (m *MockTransport) PowerOn() error {
	m.mu.Lock()
	m.powered = true
	m.mu.Unlock()
	return nil
}

// PowerOff records the power state
func (m *MockTransport) PowerOff() error {
	m.mu.Lock()
	m.powered = false
	m.mu.Unlock()
	return nil
}

// EnableSignal records the signal state and fires OnEnableSignal
func (m *MockTransport) EnableSignal() error {
	m.mu.Lock()
	m.signal = true
	hook := m.OnEnableSignal
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

// DisableSignal records the signal state
func (m *MockTransport) DisableSignal() error {
	m.mu.Lock()
	m.signal = false
	m.mu.Unlock()
	return nil
}

// EnableWake arms wake-on-signal
func (m *MockTransport) EnableWake() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.wakeCapable {
		return ErrInvalidParameter
	}
	m.wakeArmed = true
	return nil
}

// DisableWake disarms wake-on-signal
func (m *MockTransport) DisableWake() error {
	m.mu.Lock()
	m.wakeArmed = false
	m.mu.Unlock()
	return nil
}

// HasCapability reports the scripted capabilities
func (m *MockTransport) HasCapability(capability TransportCapability) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return capability == CapabilityWake && m.wakeCapable
}

// Powered returns the recorded power state
func (m *MockTransport) Powered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.powered
}

// SignalEnabled returns the recorded signal state
func (m *MockTransport) SignalEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signal
}

// WakeArmed returns the recorded wake state
func (m *MockTransport) WakeArmed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wakeArmed
}

// SetTimeout records the transaction timeout
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	m.timeout = timeout
	m.mu.Unlock()
	return nil
}

// IsConnected returns true until the mock is closed
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Close marks the mock as closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// BlockingMockTransport is a mock transport whose transactions block until
// Unblock is called, the timeout expires, or the transport is closed. It
// is used for testing transaction-lock contention and interruption.
type BlockingMockTransport struct {
	MockTransport
	blockMu   sync.Mutex
	blockChan chan struct{}
}

// NewBlockingMockTransport creates a new blocking mock transport
func NewBlockingMockTransport() *BlockingMockTransport {
	b := &BlockingMockTransport{blockChan: make(chan struct{})}
	b.status = []byte{0xac, 0x27, 0x68, 0xd5}
	b.timeout = 5 * time.Second
	return b
}

// Transact blocks until Unblock, then behaves like MockTransport.Transact
func (b *BlockingMockTransport) Transact(packet, status []byte) error {
	b.blockMu.Lock()
	blockChan := b.blockChan
	b.blockMu.Unlock()

	b.mu.Lock()
	timeout := b.timeout
	b.mu.Unlock()

	select {
	case <-blockChan:
	case <-time.After(timeout):
		return NewTimeoutError("Transact", "mock")
	}
	return b.MockTransport.Transact(packet, status)
}

// Unblock allows blocked transactions to proceed
func (b *BlockingMockTransport) Unblock() {
	b.blockMu.Lock()
	close(b.blockChan)
	b.blockChan = make(chan struct{})
	b.blockMu.Unlock()
}
