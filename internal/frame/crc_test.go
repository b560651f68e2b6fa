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

import "testing"

func TestCrc16(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{
			name: "empty data",
			data: []byte{},
			want: 0x0000,
		},
		{
			name: "single zero byte",
			data: []byte{0x00},
			want: 0x0000,
		},
		{
			name: "single byte",
			data: []byte{0x01},
			want: 0xc0c1,
		},
		{
			name: "standard check input",
			data: []byte("123456789"),
			want: 0xbb3d, // CRC-16/ARC check value
		},
		{
			name: "all ones",
			data: []byte{0xff, 0xff},
			want: 0xb001,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Crc16(tt.data); got != tt.want {
				t.Errorf("Crc16() = %04x, want %04x", got, tt.want)
			}
		})
	}
}

func TestUpdateCrc16Incremental(t *testing.T) {
	t.Parallel()
	data := []byte("the quick brown fox jumps over the lazy dog")

	whole := Crc16(data)
	for split := 0; split <= len(data); split++ {
		crc := UpdateCrc16(0, data[:split])
		crc = UpdateCrc16(crc, data[split:])
		if crc != whole {
			t.Fatalf("split at %d: incremental = %04x, whole = %04x", split, crc, whole)
		}
	}
}
