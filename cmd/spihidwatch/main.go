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

// spihidwatch brings up a spihid link, prints the device identity and
// streams input reports until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	spihid "github.com/SidecarProject/go-spihid"
	"github.com/SidecarProject/go-spihid/detection"
	"github.com/SidecarProject/go-spihid/transport/serial"
	"github.com/SidecarProject/go-spihid/transport/spi"

	// Import detection packages to register detectors
	_ "github.com/SidecarProject/go-spihid/detection/serial"
	_ "github.com/SidecarProject/go-spihid/detection/spi"
)

func main() {
	if run() != 0 {
		os.Exit(1)
	}
}

func run() int {
	configPath := flag.String("config", "", "Path to TOML config file")
	transportFlag := flag.String("transport", "", "Transport type: spi or serial")
	portFlag := flag.String("port", "", "Bus node or serial port (auto-detected if empty)")
	readyPinFlag := flag.String("ready-pin", "", "GPIO name of the device ready line (spi only)")
	watchForFlag := flag.Duration("watch-for", 0, "Stop after this long (0 = until interrupted)")
	verboseFlag := flag.Bool("verbose", false, "Enable verbose output")

	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spihidwatch: %v\n", err)
		return 1
	}

	// Flags override the config file
	if *transportFlag != "" {
		config.Transport = *transportFlag
	}
	if *portFlag != "" {
		config.Port = *portFlag
	}
	if *readyPinFlag != "" {
		config.ReadyPin = *readyPinFlag
	}
	if *watchForFlag > 0 {
		config.WatchFor = duration{*watchForFlag}
	}
	if *verboseFlag {
		config.Verbose = true
	}

	log := newLogger(config.Verbose)

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down")
		cancel()
	}()

	if err := watch(ctx, config, log); err != nil {
		log.Error().Err(err).Msg("watch failed")
		return 1
	}
	return 0
}

// newLogger builds a console logger for interactive use
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// watch runs one full link session
func watch(ctx context.Context, config *Config, log zerolog.Logger) error {
	port := config.Port
	if port == "" {
		detected, err := detectPort(ctx, config.Transport)
		if err != nil {
			return err
		}
		port = detected
		log.Info().Str("port", port).Msg("auto-detected port")
	}

	transport, err := openTransport(config, port)
	if err != nil {
		return err
	}

	link, err := spihid.New(transport,
		spihid.WithLogger(log),
		spihid.WithTimeout(config.Timeout.Duration),
		spihid.WithStepTimeout(config.StepTimeout.Duration),
		spihid.WithSinkRegistry(&printRegistry{log: log}),
	)
	if err != nil {
		_ = transport.Close()
		return fmt.Errorf("failed to create link: %w", err)
	}
	defer func() {
		if err := link.Close(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}()

	if err := link.StartContext(ctx); err != nil {
		return fmt.Errorf("bring-up failed: %w", err)
	}
	printIdentity(link, log)

	if config.WatchFor.Duration > 0 {
		timer := time.NewTimer(config.WatchFor.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}
	return nil
}

// detectPort picks the first enumerated node for the configured transport
func detectPort(ctx context.Context, transportType string) (string, error) {
	opts := detection.DefaultOptions()
	devices, err := detection.DetectAll(ctx, &opts)
	if err != nil {
		return "", fmt.Errorf("detection failed: %w", err)
	}
	for _, device := range devices {
		if device.Transport == transportType {
			return device.Path, nil
		}
	}
	return "", fmt.Errorf("no %s device found", transportType)
}

// openTransport builds the configured transport
func openTransport(config *Config, port string) (spihid.Transport, error) {
	switch config.Transport {
	case "spi":
		var opts []spi.Option
		if config.ReadyPin != "" {
			opts = append(opts, spi.WithReadyPin(config.ReadyPin))
		}
		transport, err := spi.New(port, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open SPI transport: %w", err)
		}
		return transport, nil
	case "serial":
		var opts []serial.Option
		if config.BaudRate > 0 {
			opts = append(opts, serial.WithBaudRate(config.BaudRate))
		}
		transport, err := serial.New(port, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open serial transport: %w", err)
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unknown transport type %q: %w",
			config.Transport, spihid.ErrInvalidParameter)
	}
}

// printIdentity logs the identity and sub-device table after bring-up
func printIdentity(link *spihid.Link, log zerolog.Logger) {
	identity, ok := link.Identity()
	if !ok {
		log.Warn().Msg("link ready without identity")
		return
	}
	log.Info().
		Str("vendor", identity.Vendor).
		Str("product", identity.Product).
		Str("serial", identity.Serial).
		Uint16("vid", identity.VendorID).
		Uint16("pid", identity.ProductID).
		Uint16("version", identity.Version).
		Int("subdevices", identity.SubdeviceCount).
		Msg("link ready")

	for i, sub := range link.Subdevices() {
		if sub == nil {
			continue
		}
		log.Info().
			Int("slot", i).
			Str("name", sub.Name).
			Int("descriptor", len(sub.Descriptor)).
			Bool("ready", sub.Ready()).
			Msg("subdevice")
	}
}
