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

package serial

import (
	"encoding/binary"

	"github.com/SidecarProject/go-spihid/internal/frame"
)

// Tunnel framing used by bench adapters: each bus transfer travels as
// sync byte, le16 length, payload. The payload is either a full 256-byte
// packet or one of the short sentinel frames.
const (
	syncByte       = 0x7e
	tunnelOverhead = 3
	maxTunneled    = frame.PacketSize
)

// frameTunnel wraps a bus transfer for the serial tunnel.
func frameTunnel(payload []byte) []byte {
	buf := make([]byte, tunnelOverhead+len(payload))
	buf[0] = syncByte
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(payload)))
	copy(buf[tunnelOverhead:], payload)
	return buf
}

// deframer incrementally extracts tunneled transfers from a serial byte
// stream, resynchronizing on the sync byte after garbage.
type deframer struct {
	buf []byte
}

// feed appends stream bytes and returns all complete transfer payloads
// extracted so far.
func (d *deframer) feed(data []byte) [][]byte {
	d.buf = append(d.buf, data...)

	var out [][]byte
	for {
		// Discard noise before the next sync byte.
		start := 0
		for start < len(d.buf) && d.buf[start] != syncByte {
			start++
		}
		d.buf = d.buf[start:]

		if len(d.buf) < tunnelOverhead {
			return out
		}

		length := int(binary.LittleEndian.Uint16(d.buf[1:3]))
		if length > maxTunneled {
			// Not a real frame start; skip this sync byte and rescan.
			d.buf = d.buf[1:]
			continue
		}
		if len(d.buf) < tunnelOverhead+length {
			return out
		}

		payload := make([]byte, length)
		copy(payload, d.buf[tunnelOverhead:tunnelOverhead+length])
		d.buf = d.buf[tunnelOverhead+length:]
		out = append(out, payload)
	}
}
