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

	"github.com/SidecarProject/go-spihid/internal/frame"
)

// Start powers the link and runs the full bring-up sequence
func (l *Link) Start() error {
	return l.StartContext(context.Background())
}

// StartContext brings the link up: power on, wait for the boot
// announcement, fetch the identity block, then fetch interface info and
// report descriptors for every declared sub-device. The boot and
// device-info waits are mandatory; per-sub-device waits are best-effort
// and a sub-device that never answers simply never becomes ready.
func (l *Link) StartContext(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateOff {
		state := l.state
		l.mu.Unlock()
		return fmt.Errorf("%w: cannot start from state %s", ErrInvalidParameter, state)
	}
	l.mu.Unlock()

	l.setState(StatePoweringOn)
	if err := l.transport.PowerOn(); err != nil {
		l.setState(StateOff)
		return fmt.Errorf("%w: power on: %w", ErrInitFailed, err)
	}
	if err := l.transport.EnableSignal(); err != nil {
		l.abortBringUp()
		return fmt.Errorf("%w: enable signal: %w", ErrInitFailed, err)
	}

	l.setState(StateAwaitingBoot)
	if err := l.awaitCondition("boot announcement",
		func() bool { return l.booted }, l.config.StepTimeout); err != nil {
		l.abortBringUp()
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	l.setState(StateAwaitingDeviceInfo)
	if err := l.fetchDeviceInfo(ctx); err != nil {
		l.abortBringUp()
		return fmt.Errorf("%w: %w", ErrInitFailed, err)
	}

	l.mu.Lock()
	count := l.identity.SubdeviceCount
	l.mu.Unlock()

	l.setState(StateAwaitingInterfaceInfo)
	for slot := 0; slot < count; slot++ {
		if err := l.fetchInterfaceInfo(ctx, byte(slot)); err != nil {
			l.abortBringUp()
			return fmt.Errorf("%w: %w", ErrInitFailed, err)
		}
	}

	l.setState(StateAwaitingDescriptors)
	for slot := 0; slot < count; slot++ {
		if err := l.fetchDescriptor(ctx, byte(slot)); err != nil {
			l.abortBringUp()
			return fmt.Errorf("%w: %w", ErrInitFailed, err)
		}
	}

	l.setState(StateReady)
	return nil
}

// fetchDeviceInfo requests the identity block and waits for it. Both a
// transport fault and a timeout here are fatal to bring-up.
func (l *Link) fetchDeviceInfo(ctx context.Context) error {
	if _, err := l.SendRequestContext(ctx, frame.DeviceManagement,
		frame.CodeInfo, frame.SubDeviceInfo, frame.DeviceManagement,
		frame.MaxSinglePayload, nil); err != nil {
		return fmt.Errorf("device info request: %w", err)
	}
	return l.awaitCondition("device info",
		func() bool { return l.haveIdentity }, l.config.StepTimeout)
}

// fetchInterfaceInfo requests one sub-device's interface info. A missing
// answer is logged and tolerated; a transport fault is returned.
func (l *Link) fetchInterfaceInfo(ctx context.Context, slot byte) error {
	if _, err := l.SendRequestContext(ctx, frame.DeviceManagement,
		frame.CodeInfo, frame.SubInterfaceInfo, slot,
		frame.MaxSinglePayload, nil); err != nil {
		return fmt.Errorf("interface info request for slot %d: %w", slot, err)
	}

	err := l.awaitCondition("interface info",
		func() bool {
			sub := l.subdevice(slot)
			return sub != nil && sub.infoSet
		}, l.config.StepTimeout)
	if err != nil {
		l.log.Warn().Err(err).Uint8("slot", slot).Msg("no interface info, continuing")
	}
	return nil
}

// fetchDescriptor requests one sub-device's report descriptor. Like
// interface info, only transport faults abort bring-up.
func (l *Link) fetchDescriptor(ctx context.Context, slot byte) error {
	if _, err := l.SendRequestContext(ctx, frame.DeviceManagement,
		frame.CodeInfo, frame.SubReportDescriptor, slot,
		frame.MaxDescriptorSize, nil); err != nil {
		return fmt.Errorf("descriptor request for slot %d: %w", slot, err)
	}

	err := l.awaitCondition("report descriptor",
		func() bool {
			sub := l.subdevice(slot)
			return sub != nil && sub.Descriptor != nil
		}, l.config.StepTimeout)
	if err != nil {
		l.log.Warn().Err(err).Uint8("slot", slot).Msg("no report descriptor, continuing")
	}
	return nil
}

// abortBringUp tears the transport back down after a fatal bring-up error
func (l *Link) abortBringUp() {
	if err := l.transport.DisableSignal(); err != nil {
		l.log.Warn().Err(err).Msg("disable signal during abort failed")
	}
	if err := l.transport.PowerOff(); err != nil {
		l.log.Warn().Err(err).Msg("power off during abort failed")
	}
	l.mu.Lock()
	l.booted = false
	l.state = StateOff
	l.cond.Broadcast()
	l.mu.Unlock()
}

// Suspend quiesces all ready consumers and removes power from the device.
// If any consumer refuses to suspend, previously suspended consumers are
// resumed and the failure is propagated. With allowWake set and a
// wake-capable transport, power stays on and wake is armed instead.
func (l *Link) Suspend(allowWake bool) error {
	l.mu.Lock()
	if l.state != StateReady {
		state := l.state
		l.mu.Unlock()
		return fmt.Errorf("%w: cannot suspend from state %s", ErrNotReady, state)
	}
	subs := l.readySubdevices()
	l.mu.Unlock()

	var suspended []*Subdevice
	for _, sub := range subs {
		if err := sub.sink.Suspend(); err != nil {
			for i := len(suspended) - 1; i >= 0; i-- {
				if rerr := suspended[i].sink.Resume(false); rerr != nil {
					l.log.Warn().Err(rerr).
						Uint8("slot", suspended[i].ID).
						Msg("rollback resume failed")
				}
			}
			return fmt.Errorf("failed to suspend sub-device %d: %w", sub.ID, err)
		}
		suspended = append(suspended, sub)
	}

	if err := l.transport.DisableSignal(); err != nil {
		l.log.Warn().Err(err).Msg("disable signal failed during suspend")
	}

	wake := false
	if allowWake && l.hasCapability(CapabilityWake) {
		if wt, ok := l.transport.(WakeTransport); ok {
			if err := wt.EnableWake(); err != nil {
				l.log.Warn().Err(err).Msg("wake arming failed, powering off instead")
			} else {
				wake = true
			}
		}
	}
	if !wake {
		if err := l.transport.PowerOff(); err != nil {
			return fmt.Errorf("failed to power off transport: %w", err)
		}
	}

	l.mu.Lock()
	l.wakeArmed = wake
	l.state = StateSuspended
	l.cond.Broadcast()
	l.mu.Unlock()
	return nil
}

// Resume re-powers the link and resumes all consumers with the reset
// variant. The first consumer failure is remembered while the remaining
// consumers are still processed, and returned last.
func (l *Link) Resume() error {
	l.mu.Lock()
	if l.state != StateSuspended {
		state := l.state
		l.mu.Unlock()
		return fmt.Errorf("%w: cannot resume from state %s", ErrNotReady, state)
	}
	wakeArmed := l.wakeArmed
	subs := l.readySubdevices()
	l.mu.Unlock()

	if wakeArmed {
		if wt, ok := l.transport.(WakeTransport); ok {
			if err := wt.DisableWake(); err != nil {
				l.log.Warn().Err(err).Msg("wake disarming failed")
			}
		}
	} else if err := l.transport.PowerOn(); err != nil {
		return fmt.Errorf("failed to power on transport: %w", err)
	}
	if err := l.transport.EnableSignal(); err != nil {
		return fmt.Errorf("failed to enable signal: %w", err)
	}

	var firstErr error
	for _, sub := range subs {
		if err := sub.sink.Resume(true); err != nil {
			l.log.Warn().Err(err).Uint8("slot", sub.ID).Msg("consumer resume failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to resume sub-device %d: %w", sub.ID, err)
			}
		}
	}

	l.mu.Lock()
	l.wakeArmed = false
	l.state = StateReady
	l.cond.Broadcast()
	l.mu.Unlock()
	return firstErr
}

// Close tears the link down and releases the transport. Sub-device info
// and identity are cleared; this is the only point they are ever unset.
func (l *Link) Close() error {
	l.setState(StateShuttingDown)

	l.mu.Lock()
	subs := l.readySubdevices()
	l.mu.Unlock()
	for _, sub := range subs {
		sub.sink.SetReady(false)
	}

	if err := l.transport.DisableSignal(); err != nil {
		l.log.Warn().Err(err).Msg("disable signal failed during close")
	}
	if err := l.transport.PowerOff(); err != nil {
		l.log.Warn().Err(err).Msg("power off failed during close")
	}
	err := l.transport.Close()

	l.mu.Lock()
	l.booted = false
	l.haveIdentity = false
	l.wakeArmed = false
	l.identity = DeviceIdentity{}
	for i := range l.subdevices {
		l.subdevices[i] = nil
	}
	l.reasm.reset()
	l.state = StateOff
	l.cond.Broadcast()
	l.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// readySubdevices snapshots the sub-devices that have a registered
// consumer endpoint. Caller holds mu.
func (l *Link) readySubdevices() []*Subdevice {
	var subs []*Subdevice
	for _, sub := range l.subdevices {
		if sub != nil && sub.ready && sub.sink != nil {
			subs = append(subs, sub)
		}
	}
	return subs
}
