// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import "errors"

var (
	// ErrInvalidPacket is the parent of every command/ack framing failure;
	// wrap it with fmt.Errorf("%w: ...") for the specific defect.
	ErrInvalidPacket = errors.New("wire: invalid packet")

	// ErrPacketTooLarge is returned by MarshalBinary when the SCD is longer
	// than the 16-bit scd_len header field can describe.
	ErrPacketTooLarge = errors.New("wire: packet exceeds configured maximum")
)
