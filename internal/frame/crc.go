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

// crc16Poly is the reflected form of x^16 + x^15 + x^2 + 1, the
// polynomial used by the device firmware for both packet and message
// checksums. The running value starts at 0, not 0xFFFF.
const crc16Poly = 0xa001

var crc16Table [256]uint16

func init() {
	for i := range crc16Table {
		crc := uint16(i)
		for bit := 0; bit < 8; bit++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ crc16Poly
			} else {
				crc >>= 1
			}
		}
		crc16Table[i] = crc
	}
}

// UpdateCrc16 folds data into a running CRC16 value.
func UpdateCrc16(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = (crc >> 8) ^ crc16Table[byte(crc)^b]
	}
	return crc
}

// Crc16 computes the CRC16 of data with an initial value of 0.
func Crc16(data []byte) uint16 {
	return UpdateCrc16(0, data)
}
