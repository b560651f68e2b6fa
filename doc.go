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

/*
Package spihid implements the multiplexed HID message protocol spoken by
SPI-attached input devices that carry several logical sub-devices
(management, keyboard, trackpad) over one physical link.

The protocol moves fixed 256-byte packets over a full-duplex bus. Each
packet is CRC16-protected and carries either a whole logical message or
one fragment of a message spanning several packets. Messages are
CRC16-protected independently of packets and are routed by request code
to input-report delivery, identity/interface-info decoding or report
descriptor handling. Outbound requests are serialized on a single
transaction lock and every write is followed synchronously by a short
status read-back.

Basic Usage:

	import (
	    "github.com/SidecarProject/go-spihid"
	    "github.com/SidecarProject/go-spihid/transport/spi"
	)

	// Create an SPI transport
	transport, err := spi.New("SPI0.0", spi.WithReadyPin("GPIO25"))
	if err != nil {
	    log.Fatal(err)
	}

	// Create the link with a registry that builds consumer endpoints
	link, err := spihid.New(transport,
	    spihid.WithSinkRegistry(myRegistry),
	    spihid.WithStepTimeout(time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	// Bring the device up: power on, boot announcement, identity,
	// per-sub-device info and descriptors
	if err := link.Start(); err != nil {
	    log.Fatal(err)
	}
	defer link.Close()

	identity, _ := link.Identity()
	fmt.Printf("device: %s %s\n", identity.Vendor, identity.Product)

Once the link is ready, input reports flow from the completion goroutine
straight to the ReportSink registered for each sub-device. Suspend and
Resume manage consumer quiescing and wake arming around system sleep.

Transport Selection:

  - spi: native SPI bus via periph.io, with a GPIO ready line as the
    inbound signal path
  - serial: bench adapters tunneling the fixed frames over a serial port

Error Handling:

All operations return meaningful errors that can be inspected:

	if errors.Is(err, spihid.ErrTimeout) {
	    // Device never answered; distinct from bus I/O faults
	}

Thread Safety:

Requests may be sent from any goroutine; the link serializes them on an
interruptible transaction lock. Inbound processing (packet validation,
reassembly, dispatch) is confined to the transport's completion goroutine
and never blocks on the transaction lock.
*/
package spihid
