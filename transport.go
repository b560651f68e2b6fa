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
	"fmt"
	"time"
)

// Transport defines the interface to the physical bus carrying the link.
// This can be implemented by SPI or serial-tunnel backends.
//
// Transact and the packet handler may be called from different goroutines;
// implementations must keep the handler callback confined to a single
// completion goroutine so the Link can mutate its receive-side state
// without extra locking.
type Transport interface {
	// Transact writes one full wire packet and immediately reads the short
	// status frame back into status. It must not return until both halves
	// of the transaction are complete.
	Transact(packet, status []byte) error

	// SetPacketHandler registers the function invoked with every inbound
	// transfer (full packets and short sentinel frames alike). The handler
	// runs on the transport's completion goroutine.
	SetPacketHandler(handler func(raw []byte))

	// PowerOn powers the device behind the link.
	PowerOn() error

	// PowerOff removes power from the device.
	PowerOff() error

	// EnableSignal arms the inbound signal path; after this call the
	// packet handler may fire at any time.
	EnableSignal() error

	// DisableSignal quiesces the inbound signal path.
	DisableSignal() error

	// SetTimeout sets the transaction timeout for the transport
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is usable
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType

	// Close releases the transport
	Close() error
}

// WakeTransport is implemented by transports that can keep the device
// powered through suspend and wake the host on inbound activity.
type WakeTransport interface {
	EnableWake() error
	DisableWake() error
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI represents a native SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportSerial represents a serial-tunnel bench transport.
	TransportSerial TransportType = "serial"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// TransportCapability represents specific capabilities or behaviors of a transport
type TransportCapability string

const (
	// CapabilityWake indicates the transport can arm wake-on-signal so
	// suspend may leave the device powered.
	CapabilityWake TransportCapability = "wake"
)

// TransportCapabilityChecker defines an interface for querying transport capabilities
type TransportCapabilityChecker interface {
	// HasCapability returns true if the transport has the specified capability
	HasCapability(capability TransportCapability) bool
}

// TransportWithRetry wraps a Transport with retry capabilities for the
// synchronous transaction path. Inbound delivery is not retried; a dropped
// packet is handled by the protocol layer.
type TransportWithRetry struct {
	transport Transport
	config    *RetryConfig
}

// NewTransportWithRetry creates a new transport wrapper with retry logic
func NewTransportWithRetry(transport Transport, config *RetryConfig) *TransportWithRetry {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &TransportWithRetry{
		transport: transport,
		config:    config,
	}
}

// Transact performs a bus transaction with retry logic
func (t *TransportWithRetry) Transact(packet, status []byte) error {
	return RetryWithConfig(context.Background(), t.config, func() error {
		if err := t.transport.Transact(packet, status); err != nil {
			return &TransportError{
				Op:        "Transact",
				Err:       err,
				Type:      GetErrorType(err),
				Retryable: IsRetryable(err),
			}
		}
		return nil
	})
}

// SetPacketHandler forwards handler registration to the underlying transport
func (t *TransportWithRetry) SetPacketHandler(handler func(raw []byte)) {
	t.transport.SetPacketHandler(handler)
}

// PowerOn powers the device behind the link
func (t *TransportWithRetry) PowerOn() error {
	if err := t.transport.PowerOn(); err != nil {
		return fmt.Errorf("failed to power on underlying transport: %w", err)
	}
	return nil
}

// PowerOff removes power from the device
func (t *TransportWithRetry) PowerOff() error {
	if err := t.transport.PowerOff(); err != nil {
		return fmt.Errorf("failed to power off underlying transport: %w", err)
	}
	return nil
}

// EnableSignal arms the inbound signal path
func (t *TransportWithRetry) EnableSignal() error {
	if err := t.transport.EnableSignal(); err != nil {
		return fmt.Errorf("failed to enable signal on underlying transport: %w", err)
	}
	return nil
}

// DisableSignal quiesces the inbound signal path
func (t *TransportWithRetry) DisableSignal() error {
	if err := t.transport.DisableSignal(); err != nil {
		return fmt.Errorf("failed to disable signal on underlying transport: %w", err)
	}
	return nil
}

// SetTimeout sets the transaction timeout for the transport
func (t *TransportWithRetry) SetTimeout(timeout time.Duration) error {
	if err := t.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on underlying transport: %w", err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *TransportWithRetry) IsConnected() bool {
	return t.transport.IsConnected()
}

// Type returns the transport type
func (t *TransportWithRetry) Type() TransportType {
	return t.transport.Type()
}

// Close closes the transport connection
func (t *TransportWithRetry) Close() error {
	if err := t.transport.Close(); err != nil {
		return fmt.Errorf("failed to close underlying transport: %w", err)
	}
	return nil
}

// HasCapability forwards capability checking to the underlying transport
func (t *TransportWithRetry) HasCapability(capability TransportCapability) bool {
	if capChecker, ok := t.transport.(TransportCapabilityChecker); ok {
		return capChecker.HasCapability(capability)
	}
	return false
}

// EnableWake forwards wake arming to the underlying transport
func (t *TransportWithRetry) EnableWake() error {
	if wt, ok := t.transport.(WakeTransport); ok {
		if err := wt.EnableWake(); err != nil {
			return fmt.Errorf("failed to enable wake on underlying transport: %w", err)
		}
		return nil
	}
	return ErrInvalidParameter
}

// DisableWake forwards wake disarming to the underlying transport
func (t *TransportWithRetry) DisableWake() error {
	if wt, ok := t.transport.(WakeTransport); ok {
		if err := wt.DisableWake(); err != nil {
			return fmt.Errorf("failed to disable wake on underlying transport: %w", err)
		}
		return nil
	}
	return ErrInvalidParameter
}

// SetRetryConfig updates the retry configuration
func (t *TransportWithRetry) SetRetryConfig(config *RetryConfig) {
	t.config = config
}
