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

// Package detection enumerates bus nodes that may carry a spihid device.
// Bus-specific detectors register themselves on import:
//
//	import _ "github.com/SidecarProject/go-spihid/detection/spi"
package detection

import (
	"context"
	"errors"
	"sync"
)

// Detection errors
var (
	// ErrUnsupportedPlatform indicates the detector cannot run on this OS.
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
	// ErrNoDetectors indicates no detector packages were imported.
	ErrNoDetectors = errors.New("no detectors registered")
)

// DeviceInfo describes one candidate bus node
type DeviceInfo struct {
	// Path is the node to hand to the matching transport constructor
	Path string
	// Transport names the transport package that can open Path
	Transport string
	// Description is a human-readable hint for tooling output
	Description string
}

// Options control a detection pass
type Options struct {
	// Timeout bounds the whole pass via the context passed to DetectAll;
	// detectors themselves only enumerate, they never probe the bus.
}

// DefaultOptions returns the default detection options
func DefaultOptions() Options {
	return Options{}
}

// Detector enumerates candidate nodes for one bus type
type Detector interface {
	// Transport returns the transport type this detector serves
	Transport() string
	// Detect lists candidate nodes
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.Mutex
	registry   []Detector
)

// RegisterDetector adds a detector; called from detector package init
func RegisterDetector(d Detector) {
	registryMu.Lock()
	registry = append(registry, d)
	registryMu.Unlock()
}

// DetectAll runs every registered detector and merges the results.
// Unsupported-platform results are skipped, not errors.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	registryMu.Lock()
	detectors := make([]Detector, len(registry))
	copy(detectors, registry)
	registryMu.Unlock()

	if len(detectors) == 0 {
		return nil, ErrNoDetectors
	}
	if opts == nil {
		o := DefaultOptions()
		opts = &o
	}

	var devices []DeviceInfo
	for _, d := range detectors {
		found, err := d.Detect(ctx, opts)
		if err != nil {
			if errors.Is(err, ErrUnsupportedPlatform) {
				continue
			}
			return devices, err
		}
		devices = append(devices, found...)
	}
	return devices, nil
}
