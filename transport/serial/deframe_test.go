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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameTunnelRoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte{0xac, 0x27, 0x68, 0xd5}
	var d deframer
	out := d.feed(frameTunnel(payload))
	require.Len(t, out, 1)
	assert.Equal(t, payload, out[0])
}

func TestDeframerHandlesSplitFrames(t *testing.T) {
	t.Parallel()

	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	framed := frameTunnel(payload)

	var d deframer
	// Feed a byte at a time; only the final byte completes the frame.
	for _, b := range framed[:len(framed)-1] {
		assert.Empty(t, d.feed([]byte{b}))
	}
	out := d.feed(framed[len(framed)-1:])
	require.Len(t, out, 1)
	assert.Equal(t, payload, out[0])
}

func TestDeframerResynchronizesAfterGarbage(t *testing.T) {
	t.Parallel()

	payload := []byte{0x01, 0x02, 0x03}
	stream := append([]byte{0x00, 0x13, 0x37}, frameTunnel(payload)...)

	var d deframer
	out := d.feed(stream)
	require.Len(t, out, 1)
	assert.Equal(t, payload, out[0])
}

func TestDeframerSkipsImpossibleLength(t *testing.T) {
	t.Parallel()

	// A stray sync byte followed by a length no real frame can have; the
	// real frame behind it must still come out.
	stream := append([]byte{syncByte, 0xff, 0xff}, frameTunnel([]byte{0x42})...)

	var d deframer
	out := d.feed(stream)
	require.Len(t, out, 1)
	assert.Equal(t, []byte{0x42}, out[0])
}

func TestDeframerExtractsBackToBackFrames(t *testing.T) {
	t.Parallel()

	a := frameTunnel([]byte{0x01})
	b := frameTunnel([]byte{0x02, 0x03})

	var d deframer
	out := d.feed(append(a, b...))
	require.Len(t, out, 2)
	assert.Equal(t, []byte{0x01}, out[0])
	assert.Equal(t, []byte{0x02, 0x03}, out[1])
}

func TestDeframerEmptyPayloadFrame(t *testing.T) {
	t.Parallel()

	var d deframer
	out := d.feed(frameTunnel(nil))
	require.Len(t, out, 1)
	assert.Empty(t, out[0])
}
