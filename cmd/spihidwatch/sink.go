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

package main

import (
	"encoding/hex"

	"github.com/rs/zerolog"

	spihid "github.com/SidecarProject/go-spihid"
)

// printRegistry hands every sub-device a sink that logs its traffic
type printRegistry struct {
	log zerolog.Logger
}

// Register returns a logging sink for the sub-device
func (r *printRegistry) Register(sub *spihid.Subdevice) (spihid.ReportSink, error) {
	return &printSink{log: r.log.With().Str("subdevice", sub.Name).Logger()}, nil
}

// printSink logs reports and lifecycle events instead of forwarding them
// to an input layer.
type printSink struct {
	log zerolog.Logger
}

// DeliverInputReport logs one input report
func (s *printSink) DeliverInputReport(report []byte) error {
	s.log.Info().Str("report", hex.EncodeToString(report)).Msg("input report")
	return nil
}

// DeliverDescriptor logs the report descriptor size
func (s *printSink) DeliverDescriptor(descriptor []byte) error {
	s.log.Info().Int("bytes", len(descriptor)).Msg("report descriptor")
	return nil
}

// SetReady logs readiness transitions
func (s *printSink) SetReady(ready bool) {
	s.log.Debug().Bool("ready", ready).Msg("readiness changed")
}

// Suspend logs the suspend request
func (s *printSink) Suspend() error {
	s.log.Debug().Msg("suspended")
	return nil
}

// Resume logs the resume request
func (s *printSink) Resume(reset bool) error {
	s.log.Debug().Bool("reset", reset).Msg("resumed")
	return nil
}
