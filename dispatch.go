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
	"encoding/binary"
	"errors"
	"strings"

	"github.com/SidecarProject/go-spihid/internal/frame"
)

// Fixed-layout sizes of the info response payloads
const (
	deviceInfoSize    = 20
	interfaceInfoSize = 12
)

// HandlePacket is the entry point for inbound transfers. It must be called
// only from the transport's completion goroutine: the packet codec, the
// reassembler and the dispatcher all run here, and never take the
// transaction lock.
func (l *Link) HandlePacket(raw []byte) {
	if len(raw) != frame.PacketSize {
		l.handleSentinel(raw)
		return
	}

	pkt, err := frame.DecodePacket(raw)
	if err != nil {
		if errors.Is(err, frame.ErrPacketChecksum) {
			if suppressed, ok := l.crcWarn.allow(); ok {
				l.log.Warn().
					Int("suppressed", suppressed).
					Msg("packet checksum mismatch, packet dropped")
			}
		} else {
			l.log.Debug().Err(err).Msg("undecodable packet dropped")
		}
		return
	}

	if msg := l.reasm.process(pkt); msg != nil {
		l.dispatch(msg)
	}
}

// handleSentinel recognizes the short frames exchanged outside the message
// envelope: the boot announcement and stray status acknowledgments.
func (l *Link) handleSentinel(raw []byte) {
	switch {
	case bytes.Equal(raw, frame.BootAnnounce):
		l.log.Debug().Msg("boot announcement received")
		l.markBooted()
	case bytes.Equal(raw, frame.StatusOK):
		// A status frame outside a transaction carries no information.
		l.log.Debug().Msg("stray status frame ignored")
	default:
		l.log.Debug().Int("len", len(raw)).Msg("runt transfer dropped")
	}
}

// dispatch validates a reassembled message and routes it by direction,
// request code and sub-code. Undeliverable messages are dropped without
// error; steady-state faults stay invisible to consumers.
func (l *Link) dispatch(a *assembled) {
	hdr, payload, err := frame.DecodeMessage(a.data)
	if err != nil {
		if errors.Is(err, frame.ErrMessageChecksum) {
			if suppressed, ok := l.crcWarn.allow(); ok {
				l.log.Warn().
					Int("suppressed", suppressed).
					Msg("message checksum mismatch, message dropped")
			}
		} else {
			l.log.Debug().Err(err).Msg("malformed message dropped")
		}
		return
	}

	switch {
	case a.flags == frame.FlagsRead && hdr.Code == frame.CodeInputReport:
		if hdr.Aux == frame.DeviceManagement && hdr.Sub == frame.SubBootStatus {
			l.handleBootStatus(payload)
			return
		}
		l.deliverReport(hdr.Aux, payload)

	case a.flags == frame.FlagsWrite && hdr.Code == frame.CodeInfo:
		switch hdr.Sub {
		case frame.SubDeviceInfo:
			l.applyDeviceInfo(payload)
		case frame.SubInterfaceInfo:
			l.applyInterfaceInfo(payload)
		case frame.SubReportDescriptor:
			l.applyDescriptor(hdr.Aux, payload)
		default:
			l.log.Debug().
				Uint8("sub", hdr.Sub).
				Msg("unhandled info sub-code")
		}

	default:
		l.log.Debug().
			Uint8("flags", a.flags).
			Uint8("code", hdr.Code).
			Uint8("sub", hdr.Sub).
			Msg("unhandled message")
	}
}

// handleBootStatus decodes the boot/status report carried on the
// management slot. A 5-byte payload beginning with the status code means
// the device is up.
func (l *Link) handleBootStatus(payload []byte) {
	if len(payload) == 5 && payload[0] == frame.SubBootStatus {
		l.log.Debug().Msg("status report: ok")
		l.markBooted()
		return
	}
	l.log.Debug().Int("len", len(payload)).Msg("unrecognized status report")
}

// markBooted records the boot announcement and wakes bring-up waiters
func (l *Link) markBooted() {
	l.mu.Lock()
	l.booted = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

// deliverReport routes an unsolicited input report to the slot's consumer
// endpoint. Reports for unknown or not-yet-ready sub-devices are dropped
// silently.
func (l *Link) deliverReport(slot byte, payload []byte) {
	l.mu.Lock()
	sub := l.subdevice(slot)
	var sink ReportSink
	if sub != nil && sub.ready {
		sink = sub.sink
	}
	l.mu.Unlock()

	if sink == nil {
		return
	}

	report := make([]byte, len(payload))
	copy(report, payload)
	if err := sink.DeliverInputReport(report); err != nil {
		l.log.Warn().Err(err).Uint8("slot", slot).Msg("input report delivery failed")
	}
}

// boundedString extracts a string reference from an info payload. It
// refuses references that escape the payload or exceed the destination
// capacity, leaving the field unset.
func boundedString(payload []byte, off, length uint16) (string, bool) {
	if length > frame.MaxStringSize {
		return "", false
	}
	if int(off)+int(length) > len(payload) {
		return "", false
	}
	return strings.TrimRight(string(payload[off:off+length]), "\x00"), true
}

// applyDeviceInfo populates the link identity block from a device-info
// response. Only the first valid response takes effect; re-applications
// wake waiters and change nothing.
func (l *Link) applyDeviceInfo(payload []byte) {
	if len(payload) < deviceInfoSize {
		l.log.Debug().Int("len", len(payload)).Msg("short device-info payload")
		return
	}

	l.mu.Lock()
	defer func() {
		l.cond.Broadcast()
		l.mu.Unlock()
	}()

	if l.haveIdentity {
		return
	}

	id := DeviceIdentity{
		VendorID:  binary.LittleEndian.Uint16(payload[0:2]),
		ProductID: binary.LittleEndian.Uint16(payload[2:4]),
		Version:   binary.LittleEndian.Uint16(payload[4:6]),
	}

	count := int(payload[6])
	if count > frame.MaxSubdevices {
		l.log.Warn().
			Int("declared", count).
			Int("max", frame.MaxSubdevices).
			Msg("device declares more sub-devices than supported")
		count = frame.MaxSubdevices
	}
	id.SubdeviceCount = count

	if s, ok := boundedString(payload,
		binary.LittleEndian.Uint16(payload[8:10]),
		binary.LittleEndian.Uint16(payload[10:12])); ok {
		id.Vendor = s
	}
	if s, ok := boundedString(payload,
		binary.LittleEndian.Uint16(payload[12:14]),
		binary.LittleEndian.Uint16(payload[14:16])); ok {
		id.Product = s
	}
	// The serial reference fills the serial field. (An earlier firmware
	// tool wrote it over the vendor string; that defect is not kept.)
	if s, ok := boundedString(payload,
		binary.LittleEndian.Uint16(payload[16:18]),
		binary.LittleEndian.Uint16(payload[18:20])); ok {
		id.Serial = s
	}

	l.identity = id
	l.haveIdentity = true

	for slot := 0; slot < count; slot++ {
		if l.subdevices[slot] == nil {
			l.subdevices[slot] = &Subdevice{ID: byte(slot)}
		}
	}

	l.log.Info().
		Uint16("vendor_id", id.VendorID).
		Uint16("product_id", id.ProductID).
		Int("subdevices", count).
		Msg("device identity populated")
}

// applyInterfaceInfo populates one sub-device's interface info. First
// response wins; later ones only wake waiters.
func (l *Link) applyInterfaceInfo(payload []byte) {
	if len(payload) < interfaceInfoSize {
		l.log.Debug().Int("len", len(payload)).Msg("short interface-info payload")
		return
	}

	l.mu.Lock()
	defer func() {
		l.cond.Broadcast()
		l.mu.Unlock()
	}()

	slot := payload[0]
	sub := l.subdevice(slot)
	if sub == nil {
		l.log.Debug().Uint8("slot", slot).Msg("interface info for unknown slot")
		return
	}
	if sub.infoSet {
		return
	}

	sub.Country = payload[1]
	sub.MaxInput = binary.LittleEndian.Uint16(payload[2:4])
	sub.MaxOutput = binary.LittleEndian.Uint16(payload[4:6])
	sub.MaxControl = binary.LittleEndian.Uint16(payload[6:8])
	if s, ok := boundedString(payload,
		binary.LittleEndian.Uint16(payload[8:10]),
		binary.LittleEndian.Uint16(payload[10:12])); ok {
		sub.Name = s
	}
	sub.infoSet = true

	l.log.Debug().Uint8("slot", slot).Str("name", sub.Name).Msg("interface info populated")
}

// applyDescriptor stores a sub-device's report descriptor and, for
// non-management slots, registers a consumer endpoint for it.
func (l *Link) applyDescriptor(slot byte, payload []byte) {
	if len(payload) > frame.MaxDescriptorSize {
		l.log.Warn().
			Int("len", len(payload)).
			Uint8("slot", slot).
			Msg("oversized report descriptor dropped")
		return
	}

	l.mu.Lock()
	sub := l.subdevice(slot)
	if sub == nil || sub.Descriptor != nil {
		l.cond.Broadcast()
		l.mu.Unlock()
		return
	}
	desc := make([]byte, len(payload))
	copy(desc, payload)
	sub.Descriptor = desc
	registry := l.registry
	l.mu.Unlock()

	if slot != frame.DeviceManagement && registry != nil {
		l.registerSink(sub, registry)
	}

	l.mu.Lock()
	l.cond.Broadcast()
	l.mu.Unlock()
}

// registerSink creates the consumer endpoint for a sub-device whose
// descriptor just arrived. Registration failure leaves the sub-device
// permanently not ready, which is the best-effort contract of bring-up.
func (l *Link) registerSink(sub *Subdevice, registry SinkRegistry) {
	sink, err := registry.Register(sub)
	if err != nil {
		l.log.Warn().Err(err).Uint8("slot", sub.ID).Msg("sink registration failed")
		return
	}

	desc := make([]byte, len(sub.Descriptor))
	copy(desc, sub.Descriptor)
	if err := sink.DeliverDescriptor(desc); err != nil {
		l.log.Warn().Err(err).Uint8("slot", sub.ID).Msg("descriptor delivery failed")
		return
	}

	l.mu.Lock()
	sub.sink = sink
	sub.ready = true
	l.mu.Unlock()
	sink.SetReady(true)

	l.log.Debug().Uint8("slot", sub.ID).Msg("sub-device ready")
}
