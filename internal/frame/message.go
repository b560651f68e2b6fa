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

// Message codec errors
var (
	ErrMessageShort    = errors.New("message shorter than header")
	ErrMessageLength   = errors.New("message length field inconsistent")
	ErrMessageChecksum = errors.New("message checksum mismatch")
)

// Header is the 8-byte message header preceding every message payload.
type Header struct {
	Code           byte   // Request code (CodeInputReport, CodeInfo)
	Sub            byte   // Sub-code within the request family
	Aux            byte   // Auxiliary code, used as the sub-device slot
	ID             byte   // Rolling message id, wraps mod 256
	ResponseLength uint16 // Response bytes the sender can accept
	PayloadLength  uint16 // Payload bytes following the header
}

// EncodeMessage serializes a header and payload and appends the message
// CRC16 computed over header+payload.
func EncodeMessage(h Header, payload []byte) []byte {
	h.PayloadLength = uint16(len(payload))

	buf := make([]byte, MessageHeaderSize+len(payload)+2)
	buf[0] = h.Code
	buf[1] = h.Sub
	buf[2] = h.Aux
	buf[3] = h.ID
	binary.LittleEndian.PutUint16(buf[4:6], h.ResponseLength)
	binary.LittleEndian.PutUint16(buf[6:8], h.PayloadLength)
	copy(buf[MessageHeaderSize:], payload)

	crc := Crc16(buf[:len(buf)-2])
	binary.LittleEndian.PutUint16(buf[len(buf)-2:], crc)
	return buf
}

// DecodeMessage parses a reassembled message buffer, verifies that the
// declared payload length matches the buffer and that the trailing CRC16
// validates, and returns the header plus a view of the payload bytes.
func DecodeMessage(buf []byte) (Header, []byte, error) {
	if len(buf) < MessageHeaderSize+2 {
		return Header{}, nil, fmt.Errorf("%w: %d bytes", ErrMessageShort, len(buf))
	}

	h := Header{
		Code:           buf[0],
		Sub:            buf[1],
		Aux:            buf[2],
		ID:             buf[3],
		ResponseLength: binary.LittleEndian.Uint16(buf[4:6]),
		PayloadLength:  binary.LittleEndian.Uint16(buf[6:8]),
	}

	total := MessageHeaderSize + int(h.PayloadLength) + 2
	if len(buf) != total {
		return Header{}, nil, fmt.Errorf("%w: header says %d, buffer is %d",
			ErrMessageLength, total, len(buf))
	}

	want := binary.LittleEndian.Uint16(buf[total-2:])
	if got := Crc16(buf[:total-2]); got != want {
		return Header{}, nil, fmt.Errorf("%w: computed %04x, message says %04x",
			ErrMessageChecksum, got, want)
	}

	return h, buf[MessageHeaderSize : total-2], nil
}
