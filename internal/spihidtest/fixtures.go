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

// Package spihidtest provides wire-format fixture builders shared by the
// protocol tests. Unlike the production codec it can build arbitrary
// fragment sequences, including deliberately inconsistent ones.
package spihidtest

import (
	"encoding/binary"

	"github.com/SidecarProject/go-spihid/internal/frame"
)

// RawPacket builds one CRC-valid wire packet with explicit header fields.
func RawPacket(flags, device byte, offset, remaining uint16, payload []byte) []byte {
	buf := make([]byte, frame.PacketSize)
	buf[0] = flags
	buf[1] = device
	binary.LittleEndian.PutUint16(buf[2:4], offset)
	binary.LittleEndian.PutUint16(buf[4:6], remaining)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(len(payload)))
	copy(buf[frame.PacketHeaderSize:], payload)
	binary.LittleEndian.PutUint16(buf[frame.PacketSize-2:], frame.Crc16(buf[:frame.PacketSize-2]))
	return buf
}

// Message builds one CRC-valid message buffer.
func Message(code, sub, aux, id byte, responseLen uint16, payload []byte) []byte {
	return frame.EncodeMessage(frame.Header{
		Code:           code,
		Sub:            sub,
		Aux:            aux,
		ID:             id,
		ResponseLength: responseLen,
	}, payload)
}

// MessagePackets fragments a message into consistent wire packets of at
// most chunk payload bytes each.
func MessagePackets(flags, device byte, msg []byte, chunk int) [][]byte {
	var packets [][]byte
	total := len(msg)
	for off := 0; off < total; off += chunk {
		end := off + chunk
		if end > total {
			end = total
		}
		packets = append(packets, RawPacket(flags, device,
			uint16(off), uint16(total-end), msg[off:end]))
	}
	return packets
}

// DeviceInfo describes the fixture identity block.
type DeviceInfo struct {
	Vendor         string
	Product        string
	Serial         string
	VendorID       uint16
	ProductID      uint16
	Version        uint16
	SubdeviceCount byte
}

// DeviceInfoPayload lays out a device-info response payload with the
// string bytes packed after the fixed block.
func DeviceInfoPayload(info DeviceInfo) []byte {
	strings := []string{info.Vendor, info.Product, info.Serial}
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint16(buf[0:2], info.VendorID)
	binary.LittleEndian.PutUint16(buf[2:4], info.ProductID)
	binary.LittleEndian.PutUint16(buf[4:6], info.Version)
	buf[6] = info.SubdeviceCount

	off := len(buf)
	for i, s := range strings {
		binary.LittleEndian.PutUint16(buf[8+4*i:], uint16(off))
		binary.LittleEndian.PutUint16(buf[10+4*i:], uint16(len(s)))
		off += len(s)
	}
	for _, s := range strings {
		buf = append(buf, s...)
	}
	return buf
}

// InterfaceInfoPayload lays out a sub-device interface-info response.
func InterfaceInfoPayload(slot, country byte, maxIn, maxOut, maxCtl uint16, name string) []byte {
	buf := make([]byte, 12)
	buf[0] = slot
	buf[1] = country
	binary.LittleEndian.PutUint16(buf[2:4], maxIn)
	binary.LittleEndian.PutUint16(buf[4:6], maxOut)
	binary.LittleEndian.PutUint16(buf[6:8], maxCtl)
	binary.LittleEndian.PutUint16(buf[8:10], 12)
	binary.LittleEndian.PutUint16(buf[10:12], uint16(len(name)))
	return append(buf, name...)
}

// InfoResponsePacket wraps an info response payload into a single wire
// packet as the device would send it back.
func InfoResponsePacket(sub, aux, id byte, payload []byte) []byte {
	msg := Message(frame.CodeInfo, sub, aux, id, 0, payload)
	return RawPacket(frame.FlagsWrite, frame.DeviceManagement, 0, 0, msg)
}

// InputReportPacket wraps an input report into a single wire packet.
func InputReportPacket(device, slot byte, report []byte) []byte {
	msg := Message(frame.CodeInputReport, 0, slot, 0, 0, report)
	return RawPacket(frame.FlagsRead, device, 0, 0, msg)
}

// BootStatusPacket builds the in-envelope boot/status report carried on
// the management slot.
func BootStatusPacket() []byte {
	payload := []byte{frame.SubBootStatus, 0x00, 0x00, 0x00, 0x00}
	msg := Message(frame.CodeInputReport, frame.SubBootStatus, frame.DeviceManagement, 0, 0, payload)
	return RawPacket(frame.FlagsRead, frame.DeviceManagement, 0, 0, msg)
}
