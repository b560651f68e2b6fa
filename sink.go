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

// ReportSink is the consumer endpoint for one sub-device. The link calls
// it with decoded input reports and lifecycle notifications. All byte
// slices handed to a sink are copies owned by the sink.
type ReportSink interface {
	// DeliverInputReport hands an unsolicited input report to the consumer.
	DeliverInputReport(report []byte) error

	// DeliverDescriptor hands the sub-device's report descriptor to the
	// consumer after registration.
	DeliverDescriptor(descriptor []byte) error

	// SetReady notifies the consumer of readiness changes.
	SetReady(ready bool)

	// Suspend asks the consumer to quiesce before the link powers down.
	Suspend() error

	// Resume asks the consumer to come back; reset indicates the device
	// state was lost across the suspend.
	Resume(reset bool) error
}

// SinkRegistry creates consumer endpoints. The link calls Register once per
// sub-device, when that sub-device's report descriptor arrives.
type SinkRegistry interface {
	Register(sub *Subdevice) (ReportSink, error)
}

// DeviceIdentity is the whole-link identity block, populated exactly once
// by the first valid device-info response.
type DeviceIdentity struct {
	Vendor         string
	Product        string
	Serial         string
	VendorID       uint16
	ProductID      uint16
	Version        uint16
	SubdeviceCount int
}

// Subdevice is one logical peripheral multiplexed over the link.
// Its info fields are populated at most once as responses arrive during
// bring-up and are never unset until link teardown.
type Subdevice struct {
	sink       ReportSink
	Name       string
	Descriptor []byte
	MaxInput   uint16
	MaxOutput  uint16
	MaxControl uint16
	ID         byte
	Country    byte
	infoSet    bool
	ready      bool
}

// Ready reports whether the sub-device completed bring-up and has a
// registered consumer endpoint.
func (s *Subdevice) Ready() bool {
	return s.ready
}

// Sink returns the registered consumer endpoint, or nil.
func (s *Subdevice) Sink() ReportSink {
	return s.sink
}
