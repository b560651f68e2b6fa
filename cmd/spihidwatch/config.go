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
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds application configuration
type Config struct {
	Transport   string        `toml:"transport"`
	Port        string        `toml:"port"`
	ReadyPin    string        `toml:"ready_pin"`
	BaudRate    int           `toml:"baud_rate"`
	Timeout     duration      `toml:"timeout"`
	StepTimeout duration      `toml:"step_timeout"`
	WatchFor    duration      `toml:"watch_for"`
	Verbose     bool          `toml:"verbose"`
}

// duration wraps time.Duration for TOML decoding of strings like "1s"
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Transport:   "spi",
		Timeout:     duration{time.Second},
		StepTimeout: duration{time.Second},
	}
}

// LoadConfig reads a TOML config file over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}
