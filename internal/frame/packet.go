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

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Packet codec errors
var (
	ErrPacketSize      = errors.New("packet has wrong size")
	ErrPacketChecksum  = errors.New("packet checksum mismatch")
	ErrPacketLength    = errors.New("packet length field out of range")
	ErrPayloadTooLarge = errors.New("payload exceeds packet capacity")
)

// Packet is one decoded 256-byte wire transfer. A packet carries either a
// whole message or one fragment of a message spanning several packets.
type Packet struct {
	Data      []byte // Payload, Length bytes, copied out of the raw buffer
	Offset    uint16 // Byte offset of this fragment within the message
	Remaining uint16 // Bytes still to come after this fragment
	Length    uint16 // Payload bytes carried by this packet
	Flags     byte
	Device    byte
}

// EncodePacket frames payload into a single wire packet. The payload must
// fit in one packet; fragmented writes are not part of the protocol.
func EncodePacket(flags, device byte, payload []byte) ([]byte, error) {
	if len(payload) > DataSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), DataSize)
	}

	buf := make([]byte, PacketSize)
	buf[0] = flags
	buf[1] = device
	binary.LittleEndian.PutUint16(buf[2:4], 0) // offset
	binary.LittleEndian.PutUint16(buf[4:6], 0) // remaining
	binary.LittleEndian.PutUint16(buf[6:8], uint16(len(payload)))
	copy(buf[PacketHeaderSize:], payload)

	crc := Crc16(buf[:PacketSize-2])
	binary.LittleEndian.PutUint16(buf[PacketSize-2:], crc)
	return buf, nil
}

// DecodePacket verifies the trailing CRC16 of a raw wire transfer and
// unpacks its header fields. The payload is copied, so the caller may
// reuse the raw buffer immediately.
func DecodePacket(raw []byte) (*Packet, error) {
	if len(raw) != PacketSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPacketSize, len(raw))
	}

	want := binary.LittleEndian.Uint16(raw[PacketSize-2:])
	if got := Crc16(raw[:PacketSize-2]); got != want {
		return nil, fmt.Errorf("%w: computed %04x, packet says %04x", ErrPacketChecksum, got, want)
	}

	p := &Packet{
		Flags:     raw[0],
		Device:    raw[1],
		Offset:    binary.LittleEndian.Uint16(raw[2:4]),
		Remaining: binary.LittleEndian.Uint16(raw[4:6]),
		Length:    binary.LittleEndian.Uint16(raw[6:8]),
	}
	if p.Length > DataSize {
		return nil, fmt.Errorf("%w: %d", ErrPacketLength, p.Length)
	}

	p.Data = make([]byte, p.Length)
	copy(p.Data, raw[PacketHeaderSize:PacketHeaderSize+int(p.Length)])
	return p, nil
}
