// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Public chunked Read/Write: windows a logical transfer into sub-reads or
// sub-writes that fit the negotiated transfer limits and issues them in
// order over a single Handle.

package host

import (
	"context"
	"fmt"

	"github.com/bytesentinel/go-u3v-vision/pkg/wire"
)

// maxReadMemLength is the largest single ReadMem request_length the wire
// format's u16 field can carry.
const maxReadMemLength = 0xFFFF

// effectiveMaxAckLen is the negotiated max_ack_len, lowered by any
// configured MaxReadChunk cap.
func (h *Handle) effectiveMaxAckLen() uint32 {
	if h.cfg.MaxReadChunk > 0 && h.cfg.MaxReadChunk < h.maxAckLen {
		return h.cfg.MaxReadChunk
	}
	return h.maxAckLen
}

// effectiveMaxCmdLen is the negotiated max_cmd_len, lowered by any
// configured MaxWriteChunk cap.
func (h *Handle) effectiveMaxCmdLen() uint32 {
	if h.cfg.MaxWriteChunk > 0 && h.cfg.MaxWriteChunk < h.maxCmdLen {
		return h.cfg.MaxWriteChunk
	}
	return h.maxCmdLen
}

// Read fills buf by issuing one or more chunked ReadMem transactions
// starting at address, first windowing into maxReadMemLength-sized pieces
// and then chunking each window to fit max_ack_len.
func (h *Handle) Read(ctx context.Context, address uint64, buf []byte) error {
	offset := 0
	for offset < len(buf) {
		window := len(buf) - offset
		if window > maxReadMemLength {
			window = maxReadMemLength
		}
		chunks, err := wire.ChunkRead(address+uint64(offset), uint64(window), h.effectiveMaxAckLen())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		for _, c := range chunks {
			ack, err := h.sendCmd(ctx, wire.KindReadMem, wire.EncodeReadMem(c.Address, c.Length))
			if err != nil {
				return err
			}
			if err := statusErr(ack); err != nil {
				return err
			}
			if len(ack.SCD) != int(c.Length) {
				return fmt.Errorf("%w: read ack carried %d bytes, want %d", ErrInvalidData, len(ack.SCD), c.Length)
			}
			n := int(c.Address - address)
			copy(buf[n:n+int(c.Length)], ack.SCD)
		}
		offset += window
	}
	return nil
}

// Write issues data to address via one or more chunked WriteMem
// transactions, verifying each ack's length_written matches the sent
// chunk's data length.
func (h *Handle) Write(ctx context.Context, address uint64, data []byte) error {
	chunks, err := wire.ChunkWrite(address, data, h.effectiveMaxCmdLen())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	for _, c := range chunks {
		ack, err := h.sendCmd(ctx, wire.KindWriteMem, wire.EncodeWriteMem(c.Address, c.Data))
		if err != nil {
			return err
		}
		if err := statusErr(ack); err != nil {
			return err
		}
		written, err := wire.DecodeWriteMemAck(ack.SCD)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		if int(written) != len(c.Data) {
			return fmt.Errorf("%w: ack reports %d bytes written, sent %d", ErrIO, written, len(c.Data))
		}
	}
	return nil
}
