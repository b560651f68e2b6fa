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
	"errors"
	"fmt"
)

// Sentinel errors returned by link and transport operations
var (
	// ErrTransportRead indicates a read failure on the underlying bus.
	ErrTransportRead = errors.New("transport read failed")
	// ErrTransportWrite indicates a write failure on the underlying bus.
	ErrTransportWrite = errors.New("transport write failed")
	// ErrTransportTimeout indicates the bus did not respond in time.
	ErrTransportTimeout = errors.New("transport timeout")
	// ErrCommunicationFailed indicates a failed bus transaction.
	ErrCommunicationFailed = errors.New("communication failed")
	// ErrChecksumMismatch indicates a packet or message CRC failure.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrProtocolMismatch indicates a fragment that contradicts the
	// reassembly in progress.
	ErrProtocolMismatch = errors.New("fragment sequence mismatch")
	// ErrTimeout indicates a condition wait exceeded its deadline.
	// It is distinct from ErrTransportTimeout so callers can tell
	// "device never responded" from an I/O fault.
	ErrTimeout = errors.New("operation timeout")
	// ErrInterrupted indicates a blocking acquisition was cancelled
	// before anything was sent.
	ErrInterrupted = errors.New("operation interrupted")
	// ErrDataTooLarge indicates a payload exceeding packet capacity.
	ErrDataTooLarge = errors.New("data too large")
	// ErrInvalidParameter indicates a caller-supplied parameter is invalid.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidResponse indicates a malformed fixed-layout response.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrNotReady indicates the link has not completed bring-up.
	ErrNotReady = errors.New("link not ready")
	// ErrInitFailed wraps any fatal bring-up failure.
	ErrInitFailed = errors.New("link initialization failed")
	// ErrClosed indicates the link or transport has been shut down.
	ErrClosed = errors.New("link closed")
)

// ErrorType classifies transport errors for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent indicates an error that will not resolve on retry.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient indicates an error that may resolve on retry.
	ErrorTypeTransient
	// ErrorTypeTimeout indicates a deadline expiry.
	ErrorTypeTimeout
)

// String returns the name of the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// TransportError wraps an error from the underlying bus with context about
// the operation and port it occurred on.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError with explicit classification
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a retryable timeout TransportError
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewChecksumError creates a retryable checksum TransportError
func NewChecksumError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrChecksumMismatch, ErrorTypeTransient)
}

// NewDataTooLargeError creates a permanent TransportError for oversized payloads
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDataTooLarge, ErrorTypePermanent)
}

// NewInvalidResponseError creates a permanent TransportError for malformed responses
func NewInvalidResponseError(detail, port string) *TransportError {
	return NewTransportError("response", port,
		fmt.Errorf("%w: %s", ErrInvalidResponse, detail), ErrorTypePermanent)
}

// retryableSentinels are errors that may resolve if the operation is repeated
var retryableSentinels = []error{
	ErrTransportTimeout,
	ErrTransportRead,
	ErrTransportWrite,
	ErrCommunicationFailed,
	ErrChecksumMismatch,
	ErrProtocolMismatch,
}

// IsRetryable reports whether an operation that failed with err is worth
// retrying. A TransportError carries its own verdict; bare sentinels are
// classified by kind.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	for _, sentinel := range retryableSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// GetErrorType classifies err for backoff decisions
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout) || errors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case IsRetryable(err):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
