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
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodePacket(t *testing.T) {
	t.Parallel()
	payload := []byte{0x10, 0x20, 0x30, 0x40}

	raw, err := EncodePacket(FlagsWrite, DeviceKeyboard, payload)
	if err != nil {
		t.Fatalf("EncodePacket() error = %v", err)
	}
	if len(raw) != PacketSize {
		t.Fatalf("EncodePacket() produced %d bytes, want %d", len(raw), PacketSize)
	}

	p, err := DecodePacket(raw)
	if err != nil {
		t.Fatalf("DecodePacket() error = %v", err)
	}
	if p.Flags != FlagsWrite {
		t.Errorf("Flags = %02x, want %02x", p.Flags, FlagsWrite)
	}
	if p.Device != DeviceKeyboard {
		t.Errorf("Device = %02x, want %02x", p.Device, DeviceKeyboard)
	}
	if p.Offset != 0 || p.Remaining != 0 {
		t.Errorf("Offset/Remaining = %d/%d, want 0/0", p.Offset, p.Remaining)
	}
	if !bytes.Equal(p.Data, payload) {
		t.Errorf("Data = %x, want %x", p.Data, payload)
	}
}

func TestEncodePacketPayloadTooLarge(t *testing.T) {
	t.Parallel()
	_, err := EncodePacket(FlagsWrite, DeviceManagement, make([]byte, DataSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("EncodePacket() error = %v, want ErrPayloadTooLarge", err)
	}

	// Exactly full is fine.
	if _, err := EncodePacket(FlagsWrite, DeviceManagement, make([]byte, DataSize)); err != nil {
		t.Errorf("EncodePacket() at capacity error = %v", err)
	}
}

func TestDecodePacketWrongSize(t *testing.T) {
	t.Parallel()
	for _, size := range []int{0, 4, PacketSize - 1, PacketSize + 1} {
		if _, err := DecodePacket(make([]byte, size)); !errors.Is(err, ErrPacketSize) {
			t.Errorf("DecodePacket(%d bytes) error = %v, want ErrPacketSize", size, err)
		}
	}
}

func TestDecodePacketLengthOutOfRange(t *testing.T) {
	t.Parallel()
	raw, err := EncodePacket(FlagsRead, DeviceTrackpad, []byte{0x01})
	if err != nil {
		t.Fatalf("EncodePacket() error = %v", err)
	}
	// Claim more payload than a packet can carry and re-seal the CRC so
	// only the length check can reject it.
	raw[6] = byte(DataSize + 1)
	raw[7] = byte((DataSize + 1) >> 8)
	crc := Crc16(raw[:PacketSize-2])
	raw[PacketSize-2] = byte(crc)
	raw[PacketSize-1] = byte(crc >> 8)

	if _, err := DecodePacket(raw); !errors.Is(err, ErrPacketLength) {
		t.Errorf("DecodePacket() error = %v, want ErrPacketLength", err)
	}
}

func TestDecodePacketDetectsCorruption(t *testing.T) {
	t.Parallel()
	raw, err := EncodePacket(FlagsRead, DeviceKeyboard, []byte{0xde, 0xad, 0xbe, 0xef})
	if err != nil {
		t.Fatalf("EncodePacket() error = %v", err)
	}

	// Any single-bit flip anywhere in the transfer must fail the CRC.
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			corrupted := make([]byte, len(raw))
			copy(corrupted, raw)
			corrupted[i] ^= 1 << bit

			if _, err := DecodePacket(corrupted); !errors.Is(err, ErrPacketChecksum) {
				t.Fatalf("byte %d bit %d: error = %v, want ErrPacketChecksum", i, bit, err)
			}
		}
	}
}
