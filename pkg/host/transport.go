// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// BulkTransport abstracts the USB control channel: a real backend wraps a
// bulk-in/bulk-out endpoint pair, and the in-process emulator wires the
// same interface straight to a device control module.

package host

import "context"

// BulkTransport is the control channel's bulk-out/bulk-in pair plus the
// Halt/ClearHalt semaphore the host uses during Open.
type BulkTransport interface {
	// Send transmits buf as a single atomic bulk-out transfer.
	Send(ctx context.Context, buf []byte) error
	// Recv receives a single atomic bulk-in transfer (one ack packet).
	Recv(ctx context.Context) ([]byte, error)
	// ClearHalt clears any halted state on the control endpoint, as the
	// host does when (re-)opening a control channel.
	ClearHalt(ctx context.Context) error
}
