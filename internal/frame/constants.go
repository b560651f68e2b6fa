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

// Package frame provides packet and message codecs plus protocol constants
// for the multiplexed HID-over-SPI wire format.
package frame

// Packet direction flags - these indicate the direction of data flow
const (
	FlagsRead  = 0x20 // Device to host (unsolicited reports)
	FlagsWrite = 0x40 // Host to device, echoed back on responses to our requests
)

// Packet geometry. Every wire transfer is exactly PacketSize bytes:
// an 8-byte header, DataSize payload bytes and a trailing CRC16.
const (
	PacketSize       = 256
	PacketHeaderSize = 8
	DataSize         = PacketSize - PacketHeaderSize - 2 // 246
)

// Message geometry. A message is an 8-byte header, a payload and a
// trailing CRC16 over header+payload. A message that fits in a single
// packet may carry at most MaxSinglePayload payload bytes.
const (
	MessageHeaderSize = 8
	MaxSinglePayload  = DataSize - MessageHeaderSize - 2 // 236
)

// Sub-device ids multiplexed over the link
const (
	DeviceManagement = 0x00
	DeviceKeyboard   = 0x01
	DeviceTrackpad   = 0x02

	// MaxSubdevices caps the sub-device count a device may declare.
	MaxSubdevices = 3
)

// Message request codes and sub-codes
const (
	CodeInputReport = 0x10 // Unsolicited report from a sub-device
	CodeInfo        = 0x20 // Info/descriptor request-response family

	SubDeviceInfo       = 0x01 // Whole-link identity block
	SubInterfaceInfo    = 0x02 // Per-sub-device interface info
	SubReportDescriptor = 0x10 // HID report descriptor blob
	SubBootStatus       = 0xe0 // Boot/status announcement on the management slot
)

// Decoder limits
const (
	MaxDescriptorSize = 512 // Largest report descriptor a sub-device may present
	MaxStringSize     = 64  // Capacity of identity and name string buffers
)

// Short sentinel frames exchanged outside the message envelope
var (
	// StatusOK is the read-back pattern expected after every packet write.
	StatusOK = []byte{0xac, 0x27, 0x68, 0xd5}
	// BootAnnounce is sent by the device once its firmware is up.
	BootAnnounce = []byte{0x55, 0xaa, 0x55, 0xaa}
)
