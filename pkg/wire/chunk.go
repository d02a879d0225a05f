// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ReadMem/WriteMem chunking so that a logical transfer fits within the
// negotiated max_cmd_len/max_ack_len.

package wire

import "fmt"

// ReadChunk is one sub-read of a chunked logical ReadMem.
type ReadChunk struct {
	Address uint64
	Length  uint16
}

// ChunkRead splits a logical (address, length) read into sub-reads such
// that each resulting ack (12-byte header plus data) fits within
// maxAckLen.
func ChunkRead(address uint64, length uint64, maxAckLen uint32) ([]ReadChunk, error) {
	if maxAckLen < headerLen+1 {
		return nil, fmt.Errorf("wire: max_ack_len %d cannot carry any ReadMem data", maxAckLen)
	}
	maxData := maxAckLen - headerLen
	if maxData > 0xFFFF {
		maxData = 0xFFFF
	}

	var chunks []ReadChunk
	for remaining := length; remaining > 0; {
		n := remaining
		if n > uint64(maxData) {
			n = uint64(maxData)
		}
		chunks = append(chunks, ReadChunk{Address: address, Length: uint16(n)})
		address += n
		remaining -= n
	}
	return chunks, nil
}

// WriteChunk is one sub-write of a chunked logical WriteMem.
type WriteChunk struct {
	Address uint64
	Data    []byte
}

// ChunkWrite splits a logical (address, data) write into sub-writes such
// that each resulting command (12-byte header, 8-byte address, data) fits
// within maxCmdLen. The last chunk may be short.
func ChunkWrite(address uint64, data []byte, maxCmdLen uint32) ([]WriteChunk, error) {
	const addressFieldLen = 8
	overhead := uint32(headerLen + addressFieldLen)
	if maxCmdLen < overhead+1 {
		return nil, fmt.Errorf("wire: max_cmd_len %d cannot carry any WriteMem data", maxCmdLen)
	}
	maxData := maxCmdLen - overhead
	if maxData > 0xFFFF {
		maxData = 0xFFFF
	}

	var chunks []WriteChunk
	for offset := 0; offset < len(data); {
		n := uint32(len(data) - offset)
		if n > maxData {
			n = maxData
		}
		chunks = append(chunks, WriteChunk{Address: address, Data: data[offset : offset+int(n)]})
		address += uint64(n)
		offset += int(n)
	}
	return chunks, nil
}
