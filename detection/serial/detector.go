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

// Package serial registers a detector that enumerates serial ports for
// bench adapters.
package serial

import (
	"context"
	"fmt"

	goserial "go.bug.st/serial"

	"github.com/SidecarProject/go-spihid/detection"
)

func init() {
	detection.RegisterDetector(&Detector{})
}

// Detector enumerates serial ports
type Detector struct{}

// Transport returns the transport type this detector serves
func (*Detector) Transport() string {
	return "serial"
}

// Detect lists candidate serial ports
func (*Detector) Detect(ctx context.Context, _ *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := goserial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, port := range ports {
		select {
		case <-ctx.Done():
			return devices, ctx.Err()
		default:
		}
		devices = append(devices, detection.DeviceInfo{
			Path:        port,
			Transport:   "serial",
			Description: fmt.Sprintf("serial port %s", port),
		})
	}
	return devices, nil
}
