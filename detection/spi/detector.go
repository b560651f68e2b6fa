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

// Package spi registers a detector that enumerates spidev bus nodes.
package spi

import (
	"context"

	"github.com/SidecarProject/go-spihid/detection"
)

func init() {
	detection.RegisterDetector(&Detector{})
}

// Detector enumerates SPI bus nodes
type Detector struct{}

// Transport returns the transport type this detector serves
func (*Detector) Transport() string {
	return "spi"
}

// Detect lists candidate SPI bus nodes
func (d *Detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	return d.detect(ctx, opts)
}
