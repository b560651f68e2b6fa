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
	"github.com/SidecarProject/go-spihid/internal/frame"
	"github.com/rs/zerolog"
)

// reassemblyState is the explicit state of the single reassembly slot.
type reassemblyState int

const (
	reasmIdle reassemblyState = iota
	reasmAccumulating
)

// assembled is one complete message handed to the dispatcher, tagged with
// the direction flags and device id of the packets that carried it.
type assembled struct {
	data   []byte
	flags  byte
	device byte
}

// reassembler accumulates packet fragments into whole messages. Only one
// message may be mid-assembly at a time; a fragment that does not belong
// to the accumulation in progress restarts it. It is confined to the
// transport's completion goroutine and needs no locking.
type reassembler struct {
	log    zerolog.Logger
	buf    []byte
	total  uint16
	offset uint16
	state  reassemblyState
	device byte
	flags  byte
}

func newReassembler(log zerolog.Logger) *reassembler {
	return &reassembler{log: log}
}

// process feeds one validated packet through the state machine. It returns
// a complete message when the packet finishes one, nil otherwise.
func (r *reassembler) process(p *frame.Packet) *assembled {
	// A sequence whose arithmetic escapes the 16-bit length domain can
	// never complete; drop the packet without touching the slot.
	if int(p.Offset)+int(p.Length)+int(p.Remaining) > 0xffff {
		r.log.Warn().
			Uint16("offset", p.Offset).
			Uint16("length", p.Length).
			Uint16("remaining", p.Remaining).
			Msg("fragment length arithmetic overflows, packet dropped")
		return nil
	}

	if r.state == reasmAccumulating {
		switch {
		case p.Device != r.device || p.Flags != r.flags || p.Offset != r.offset:
			// Wrong owner or a hole in the sequence: the accumulation
			// is dead. The packet itself may start a new message, so
			// fall through to the idle rules.
			r.log.Warn().
				Uint8("device", p.Device).
				Uint8("flags", p.Flags).
				Uint16("offset", p.Offset).
				Uint16("expected_offset", r.offset).
				Msg("fragment mismatch, discarding partial message")
			r.reset()
		case uint32(p.Offset)+uint32(p.Length)+uint32(p.Remaining) != uint32(r.total):
			// Offset lines up but the implied total disagrees with the
			// one established by the first fragment. Drop the packet and
			// keep waiting for a consistent continuation.
			r.log.Warn().
				Uint16("implied_total", p.Offset+p.Length+p.Remaining).
				Uint16("total", r.total).
				Msg("fragment total disagrees, packet dropped")
			return nil
		default:
			copy(r.buf[r.offset:], p.Data)
			r.offset += p.Length
			if r.offset < r.total {
				return nil
			}
			msg := &assembled{data: r.buf, flags: r.flags, device: r.device}
			r.buf = nil
			r.reset()
			return msg
		}
	}

	// Idle rules
	if p.Offset != 0 {
		r.log.Warn().
			Uint8("device", p.Device).
			Uint16("offset", p.Offset).
			Msg("orphan fragment, packet dropped")
		return nil
	}

	if p.Remaining == 0 {
		// Single-packet message, dispatch immediately without touching
		// the slot.
		data := make([]byte, p.Length)
		copy(data, p.Data)
		return &assembled{data: data, flags: p.Flags, device: p.Device}
	}

	r.state = reasmAccumulating
	r.device = p.Device
	r.flags = p.Flags
	r.total = p.Length + p.Remaining
	r.offset = p.Length
	r.buf = make([]byte, r.total)
	copy(r.buf, p.Data)
	return nil
}

// reset clears the slot back to idle
func (r *reassembler) reset() {
	r.state = reasmIdle
	r.device = 0
	r.flags = 0
	r.total = 0
	r.offset = 0
	r.buf = nil
}
