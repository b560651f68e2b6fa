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

//go:build linux

package spi

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/SidecarProject/go-spihid/detection"
)

// detect enumerates /dev/spidev* character devices
func (*Detector) detect(ctx context.Context, _ *detection.Options) ([]detection.DeviceInfo, error) {
	nodes, err := filepath.Glob("/dev/spidev*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for SPI nodes: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, node := range nodes {
		select {
		case <-ctx.Done():
			return devices, ctx.Err()
		default:
		}

		var st unix.Stat_t
		if err := unix.Stat(node, &st); err != nil {
			continue
		}
		if st.Mode&unix.S_IFMT != unix.S_IFCHR {
			continue
		}
		// Accessibility check; nodes we cannot open are not candidates.
		if err := unix.Access(node, unix.R_OK|unix.W_OK); err != nil {
			continue
		}

		devices = append(devices, detection.DeviceInfo{
			Path:        node,
			Transport:   "spi",
			Description: fmt.Sprintf("SPI bus node %s", node),
		})
	}
	return devices, nil
}
