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

// Package serial provides a bench transport that tunnels the fixed wire
// frames over a serial port, for adapters that bridge the SPI bus to a
// USB-serial link. DTR drives device power, RTS drives the signal path.
package serial

import (
	"fmt"
	"sync"
	"time"

	spihid "github.com/SidecarProject/go-spihid"
	goserial "go.bug.st/serial"
)

const defaultBaudRate = 115200

// Option is a functional option for configuring the serial transport
type Option func(*Transport) error

// WithBaudRate overrides the default baud rate
func WithBaudRate(baud int) Option {
	return func(t *Transport) error {
		if baud <= 0 {
			return spihid.ErrInvalidParameter
		}
		t.baudRate = baud
		return nil
	}
}

// Transport implements the spihid.Transport interface over a serial tunnel
type Transport struct {
	port     goserial.Port
	handler  func(raw []byte)
	stop     chan struct{}
	done     chan struct{}
	statusCh chan []byte
	portName string
	baudRate int
	timeout  time.Duration

	// writeMu serializes tunnel writes; mu guards the control fields.
	writeMu sync.Mutex
	mu      sync.Mutex
	pending bool
}

// New opens the named serial port and prepares the transport
func New(portName string, opts ...Option) (*Transport, error) {
	t := &Transport{
		portName: portName,
		baudRate: defaultBaudRate,
		timeout:  time.Second,
		statusCh: make(chan []byte, 1),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	mode := &goserial.Mode{
		BaudRate: t.baudRate,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}
	port, err := goserial.Open(portName, mode)
	if err != nil {
		return nil, spihid.NewTransportError("open", portName, err, spihid.ErrorTypePermanent)
	}
	if err := port.SetReadTimeout(50 * time.Millisecond); err != nil {
		_ = port.Close()
		return nil, spihid.NewTransportError("open", portName, err, spihid.ErrorTypePermanent)
	}
	t.port = port
	return t, nil
}

// Transact writes one packet through the tunnel and waits for the
// adapter's status frame.
func (t *Transport) Transact(packet, status []byte) error {
	t.mu.Lock()
	t.pending = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.pending = false
		t.mu.Unlock()
	}()

	t.writeMu.Lock()
	_, err := t.port.Write(frameTunnel(packet))
	t.writeMu.Unlock()
	if err != nil {
		return spihid.NewTransportError("write", t.portName,
			fmt.Errorf("%w: %w", spihid.ErrTransportWrite, err), spihid.ErrorTypeTransient)
	}

	select {
	case resp := <-t.statusCh:
		if len(resp) != len(status) {
			return spihid.NewInvalidResponseError(
				fmt.Sprintf("status frame of %d bytes", len(resp)), t.portName)
		}
		copy(status, resp)
		return nil
	case <-time.After(t.readTimeout()):
		return spihid.NewTimeoutError("status", t.portName)
	}
}

// readTimeout returns the configured transaction timeout
func (t *Transport) readTimeout() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeout
}

// SetPacketHandler registers the inbound packet handler
func (t *Transport) SetPacketHandler(handler func(raw []byte)) {
	t.mu.Lock()
	t.handler = handler
	t.mu.Unlock()
}

// PowerOn asserts DTR to power the device behind the adapter
func (t *Transport) PowerOn() error {
	if err := t.port.SetDTR(true); err != nil {
		return spihid.NewTransportError("powerOn", t.portName, err, spihid.ErrorTypeTransient)
	}
	return nil
}

// PowerOff drops DTR
func (t *Transport) PowerOff() error {
	if err := t.port.SetDTR(false); err != nil {
		return spihid.NewTransportError("powerOff", t.portName, err, spihid.ErrorTypeTransient)
	}
	return nil
}

// EnableSignal asserts RTS and starts the completion goroutine
func (t *Transport) EnableSignal() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return nil // already armed
	}

	if err := t.port.SetRTS(true); err != nil {
		return spihid.NewTransportError("enableSignal", t.portName, err, spihid.ErrorTypeTransient)
	}

	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.readLoop(t.stop, t.done)
	return nil
}

// DisableSignal drops RTS and stops the completion goroutine
func (t *Transport) DisableSignal() error {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	if err := t.port.SetRTS(false); err != nil {
		return spihid.NewTransportError("disableSignal", t.portName, err, spihid.ErrorTypeTransient)
	}
	return nil
}

// readLoop is the completion goroutine. Short frames answer the pending
// transaction when one is waiting; everything else goes to the handler.
func (t *Transport) readLoop(stop, done chan struct{}) {
	defer close(done)
	var d deframer
	buf := make([]byte, 4096)

	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := t.port.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue // read timeout tick
		}

		for _, payload := range d.feed(buf[:n]) {
			t.route(payload)
		}
	}
}

// route hands one tunneled transfer to the pending transaction or the
// packet handler.
func (t *Transport) route(payload []byte) {
	t.mu.Lock()
	pending := t.pending
	handler := t.handler
	t.mu.Unlock()

	if pending && len(payload) == 4 {
		select {
		case t.statusCh <- payload:
			return
		default:
		}
	}
	if handler != nil {
		handler(payload)
	}
}

// SetTimeout sets the transaction timeout
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	t.timeout = timeout
	t.mu.Unlock()
	return nil
}

// IsConnected returns true if the port is open
func (t *Transport) IsConnected() bool {
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() spihid.TransportType {
	return spihid.TransportSerial
}

// Close stops the completion goroutine and releases the port
func (t *Transport) Close() error {
	_ = t.DisableSignal()
	if t.port != nil {
		if err := t.port.Close(); err != nil {
			return fmt.Errorf("failed to close serial port: %w", err)
		}
	}
	return nil
}
