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

import (
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Link
type Option func(*Link) error

// WithRetryConfig sets the retry configuration for the link
func WithRetryConfig(config *RetryConfig) Option {
	return func(l *Link) error {
		l.SetRetryConfig(config)
		return nil
	}
}

// WithTimeout sets the transaction timeout for the link
func WithTimeout(timeout time.Duration) Option {
	return func(l *Link) error {
		return l.SetTimeout(timeout)
	}
}

// WithStepTimeout bounds each bring-up wait (boot announcement, device
// info, per-sub-device info and descriptors)
func WithStepTimeout(timeout time.Duration) Option {
	return func(l *Link) error {
		if timeout <= 0 {
			return ErrInvalidParameter
		}
		l.config.StepTimeout = timeout
		return nil
	}
}

// WithMaxRetries sets the maximum number of transaction attempts
func WithMaxRetries(maxAttempts int) Option {
	return func(link *Link) error {
		if link.config.RetryConfig == nil {
			link.config.RetryConfig = DefaultRetryConfig()
		}
		link.config.RetryConfig.MaxAttempts = maxAttempts
		if tr, ok := link.transport.(*TransportWithRetry); ok {
			tr.SetRetryConfig(link.config.RetryConfig)
		}
		return nil
	}
}

// WithRetryBackoff sets the initial backoff duration for retries
func WithRetryBackoff(initialBackoff time.Duration) Option {
	return func(link *Link) error {
		if link.config.RetryConfig == nil {
			link.config.RetryConfig = DefaultRetryConfig()
		}
		link.config.RetryConfig.InitialBackoff = initialBackoff
		if tr, ok := link.transport.(*TransportWithRetry); ok {
			tr.SetRetryConfig(link.config.RetryConfig)
		}
		return nil
	}
}

// WithLogger attaches a zerolog logger to the link. The default logger
// discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Link) error {
		l.log = logger
		return nil
	}
}

// WithSinkRegistry sets the registry used to create consumer endpoints as
// sub-device descriptors arrive. Without a registry no sub-device ever
// becomes ready, which is useful for probe-only tooling.
func WithSinkRegistry(registry SinkRegistry) Option {
	return func(l *Link) error {
		l.registry = registry
		return nil
	}
}
