// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"

	"github.com/bytesentinel/go-u3v-vision/pkg/wire"
)

var (
	// ErrIO covers transport failures: timeouts, send/recv errors,
	// transaction-level framing mismatches (bad ack, request-id mismatch),
	// and a write ack whose length_written differs from the bytes sent.
	ErrIO = errors.New("host: io error")

	// ErrRetryExhausted is returned when a transaction's Pending-ack loop
	// exceeds its configured retry budget.
	ErrRetryExhausted = errors.New("host: pending-ack retry budget exhausted")

	// ErrInvalidData covers host-side data validity failures: malformed
	// manifest bytes, a short read ack, a SHA-1 mismatch.
	ErrInvalidData = errors.New("host: invalid data")
)

// StatusError wraps a non-success ack status returned by the device, so
// callers can distinguish device-reported failures from transport failures
// and inspect the status's fatal bit.
type StatusError struct {
	Status wire.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("host: device status %s (%#04x)", e.Status, uint16(e.Status))
}

// IsFatal reports whether the underlying status carries GenCP's fatal bit.
func (e *StatusError) IsFatal() bool { return e.Status.IsFatal() }

// statusErr builds a *StatusError unless ack's status is Success.
func statusErr(ack *wire.Ack) error {
	if ack.Status.IsSuccess() {
		return nil
	}
	return &StatusError{Status: ack.Status}
}
