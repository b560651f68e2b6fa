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
	"io"
	"sync"
	"time"

	"github.com/SidecarProject/go-spihid/internal/frame"
	"github.com/rs/zerolog"
)

// LinkState tracks bring-up and teardown of the link
type LinkState int

// Link lifecycle states
const (
	StateOff LinkState = iota
	StatePoweringOn
	StateAwaitingBoot
	StateAwaitingDeviceInfo
	StateAwaitingInterfaceInfo
	StateAwaitingDescriptors
	StateReady
	StateSuspended
	StateShuttingDown
)

// String returns the name of the link state
func (s LinkState) String() string {
	switch s {
	case StateOff:
		return "off"
	case StatePoweringOn:
		return "powering-on"
	case StateAwaitingBoot:
		return "awaiting-boot"
	case StateAwaitingDeviceInfo:
		return "awaiting-device-info"
	case StateAwaitingInterfaceInfo:
		return "awaiting-interface-info"
	case StateAwaitingDescriptors:
		return "awaiting-descriptors"
	case StateReady:
		return "ready"
	case StateSuspended:
		return "suspended"
	case StateShuttingDown:
		return "shutting-down"
	default:
		return "unknown"
	}
}

// LinkConfig contains configuration options for the Link
type LinkConfig struct {
	// RetryConfig configures retry behavior for transport transactions
	RetryConfig *RetryConfig
	// Timeout is the transaction timeout applied to the transport
	Timeout time.Duration
	// StepTimeout bounds each bring-up wait (boot, info, descriptors)
	StepTimeout time.Duration
}

// DefaultLinkConfig returns default link configuration
func DefaultLinkConfig() *LinkConfig {
	return &LinkConfig{
		RetryConfig: DefaultRetryConfig(),
		Timeout:     1 * time.Second,
		StepTimeout: 1 * time.Second,
	}
}

// Link manages one multiplexed HID link over a shared bus transport.
//
// Thread Safety: outbound requests are serialized internally by the
// transaction lock and may be issued from any goroutine. All receive-side
// protocol state (reassembly, identity, sub-device info) is mutated only
// from the transport's completion goroutine via HandlePacket.
type Link struct {
	transport Transport
	config    *LinkConfig
	log       zerolog.Logger
	registry  SinkRegistry

	// mu guards the fields below and backs the broadcast condition used
	// by bring-up waits.
	mu           sync.Mutex
	cond         *sync.Cond
	state        LinkState
	booted       bool
	haveIdentity bool
	wakeArmed    bool
	identity     DeviceIdentity
	subdevices   [frame.MaxSubdevices]*Subdevice

	reasm   *reassembler
	crcWarn *rateLimiter

	// txSem is the interruptible transaction lock; nextID is only touched
	// while it is held.
	txSem  chan struct{}
	nextID byte
}

// New creates a new Link on the given transport. The link registers itself
// as the transport's packet handler; call Start to bring the device up.
func New(transport Transport, opts ...Option) (*Link, error) {
	if transport == nil {
		return nil, ErrInvalidParameter
	}

	link := &Link{
		transport: transport,
		config:    DefaultLinkConfig(),
		log:       zerolog.New(io.Discard),
		txSem:     make(chan struct{}, 1),
		crcWarn:   newRateLimiter(5 * time.Second),
	}
	link.cond = sync.NewCond(&link.mu)

	for _, opt := range opts {
		if err := opt(link); err != nil {
			return nil, err
		}
	}

	link.reasm = newReassembler(link.log)
	transport.SetPacketHandler(link.HandlePacket)
	return link, nil
}

// Transport returns the underlying transport
func (l *Link) Transport() Transport {
	return l.transport
}

// State returns the current lifecycle state
func (l *Link) State() LinkState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Identity returns the link identity block. The boolean is false until the
// first device-info response has been applied.
func (l *Link) Identity() (DeviceIdentity, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.identity, l.haveIdentity
}

// Subdevices returns the sub-devices known so far, in slot order.
func (l *Link) Subdevices() []*Subdevice {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs := make([]*Subdevice, 0, len(l.subdevices))
	for _, sub := range l.subdevices {
		if sub != nil {
			subs = append(subs, sub)
		}
	}
	return subs
}

// SetRetryConfig updates the retry configuration
func (l *Link) SetRetryConfig(config *RetryConfig) {
	l.config.RetryConfig = config
	if tr, ok := l.transport.(*TransportWithRetry); ok {
		tr.SetRetryConfig(config)
	}
}

// SetTimeout sets the transaction timeout on the transport
func (l *Link) SetTimeout(timeout time.Duration) error {
	l.config.Timeout = timeout
	return l.transport.SetTimeout(timeout)
}

// hasCapability checks if the transport has the specified capability
func (l *Link) hasCapability(capability TransportCapability) bool {
	if checker, ok := l.transport.(TransportCapabilityChecker); ok {
		return checker.HasCapability(capability)
	}
	return false
}

// subdevice returns the sub-device for a slot, or nil. Caller holds mu.
func (l *Link) subdevice(slot byte) *Subdevice {
	if int(slot) >= len(l.subdevices) {
		return nil
	}
	return l.subdevices[slot]
}

// setState transitions the lifecycle state and wakes any waiters
func (l *Link) setState(state LinkState) {
	l.mu.Lock()
	if state != l.state {
		l.log.Debug().
			Stringer("from", l.state).
			Stringer("to", state).
			Msg("link state change")
		l.state = state
		l.cond.Broadcast()
	}
	l.mu.Unlock()
}
