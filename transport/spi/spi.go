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

// Package spi provides the native SPI bus transport for spihid links.
// A GPIO ready line driven by the device is the inbound signal path:
// every edge triggers a full-packet read on the completion goroutine.
package spi

import (
	"fmt"
	"sync"
	"time"

	spihid "github.com/SidecarProject/go-spihid"
	"github.com/SidecarProject/go-spihid/internal/frame"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// Default bus clock. The device tolerates up to 8 MHz.
	defaultSpeed = 8 * physic.MegaHertz

	// edgeWait bounds each WaitForEdge call so the reader goroutine can
	// notice shutdown.
	edgeWait = 100 * time.Millisecond
)

// Option is a functional option for configuring the SPI transport
type Option func(*Transport) error

// WithSpeed overrides the bus clock frequency
func WithSpeed(speed physic.Frequency) Option {
	return func(t *Transport) error {
		if speed <= 0 {
			return spihid.ErrInvalidParameter
		}
		t.speed = speed
		return nil
	}
}

// WithReadyPin names the GPIO pin the device raises when it has a packet
// for the host. Without a ready pin the transport is write-only: no
// completion goroutine runs and no unsolicited packets are delivered.
func WithReadyPin(name string) Option {
	return func(t *Transport) error {
		t.readyPinName = name
		return nil
	}
}

// WithPowerControl installs platform hooks for device power sequencing.
// Without hooks PowerOn and PowerOff are no-ops (bus-powered devices).
func WithPowerControl(on, off func() error) Option {
	return func(t *Transport) error {
		t.powerOn = on
		t.powerOff = off
		return nil
	}
}

// Transport implements the spihid.Transport interface over a native SPI bus
type Transport struct {
	port         spi.PortCloser
	conn         spi.Conn
	readyPin     gpio.PinIn
	powerOn      func() error
	powerOff     func() error
	handler      func(raw []byte)
	stop         chan struct{}
	done         chan struct{}
	portName     string
	readyPinName string
	speed        physic.Frequency
	timeout      time.Duration

	// busMu serializes raw bus access between the transaction path and
	// the completion goroutine.
	busMu sync.Mutex
	mu    sync.Mutex
}

// New opens the named SPI port and prepares the transport
func New(portName string, opts ...Option) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	t := &Transport{
		portName: portName,
		speed:    defaultSpeed,
		timeout:  time.Second,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(t.speed, spi.Mode3, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to configure SPI port %s: %w", portName, err)
	}
	t.port = port
	t.conn = conn

	if t.readyPinName != "" {
		pin := gpioreg.ByName(t.readyPinName)
		if pin == nil {
			_ = port.Close()
			return nil, fmt.Errorf("ready pin %s not found: %w",
				t.readyPinName, spihid.ErrInvalidParameter)
		}
		if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("failed to configure ready pin %s: %w", t.readyPinName, err)
		}
		t.readyPin = pin
	}

	return t, nil
}

// Transact writes one packet and clocks the status read-back out of the
// device in the same bus tenure.
func (t *Transport) Transact(packet, status []byte) error {
	t.busMu.Lock()
	defer t.busMu.Unlock()

	if err := t.conn.Tx(packet, nil); err != nil {
		return spihid.NewTransportError("write", t.portName,
			fmt.Errorf("%w: %w", spihid.ErrTransportWrite, err), spihid.ErrorTypeTransient)
	}
	if err := t.conn.Tx(make([]byte, len(status)), status); err != nil {
		return spihid.NewTransportError("status", t.portName,
			fmt.Errorf("%w: %w", spihid.ErrTransportRead, err), spihid.ErrorTypeTransient)
	}
	return nil
}

// SetPacketHandler registers the inbound packet handler
func (t *Transport) SetPacketHandler(handler func(raw []byte)) {
	t.mu.Lock()
	t.handler = handler
	t.mu.Unlock()
}

// PowerOn runs the platform power hook, if any
func (t *Transport) PowerOn() error {
	if t.powerOn != nil {
		if err := t.powerOn(); err != nil {
			return fmt.Errorf("power on hook failed: %w", err)
		}
	}
	return nil
}

// PowerOff runs the platform power hook, if any
func (t *Transport) PowerOff() error {
	if t.powerOff != nil {
		if err := t.powerOff(); err != nil {
			return fmt.Errorf("power off hook failed: %w", err)
		}
	}
	return nil
}

// EnableSignal starts the completion goroutine watching the ready line
func (t *Transport) EnableSignal() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		return nil // already armed
	}
	if t.readyPin == nil {
		// Write-only configuration; nothing to watch.
		return nil
	}

	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.watchReady(t.stop, t.done)
	return nil
}

// DisableSignal stops the completion goroutine
func (t *Transport) DisableSignal() error {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

// watchReady is the completion goroutine: every rising edge on the ready
// line means the device has a packet for us.
func (t *Transport) watchReady(stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}

		if !t.readyPin.WaitForEdge(edgeWait) {
			continue
		}
		t.readPacket()
	}
}

// readPacket clocks one full packet out of the device and hands it to the
// registered handler.
func (t *Transport) readPacket() {
	raw := make([]byte, frame.PacketSize)

	t.busMu.Lock()
	err := t.conn.Tx(make([]byte, frame.PacketSize), raw)
	t.busMu.Unlock()
	if err != nil {
		return
	}

	t.mu.Lock()
	handler := t.handler
	t.mu.Unlock()
	if handler != nil {
		handler(raw)
	}
}

// SetTimeout sets the transaction timeout. SPI transfers are host-clocked
// and complete immediately, so this only bounds edge waits indirectly.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.mu.Lock()
	t.timeout = timeout
	t.mu.Unlock()
	return nil
}

// IsConnected returns true if the port is open
func (t *Transport) IsConnected() bool {
	return t.conn != nil
}

// Type returns the transport type
func (*Transport) Type() spihid.TransportType {
	return spihid.TransportSPI
}

// Close stops the completion goroutine and releases the port
func (t *Transport) Close() error {
	_ = t.DisableSignal()
	if t.port != nil {
		if err := t.port.Close(); err != nil {
			return fmt.Errorf("failed to close SPI port: %w", err)
		}
	}
	return nil
}
