// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Specific Command Data (SCD) decoders and ack body encoders.

package wire

import (
	"encoding/binary"
	"fmt"
)

// ReadMemSCD is the decoded body of a ReadMem command.
type ReadMemSCD struct {
	Address    uint64
	ReadLength uint16
}

// DecodeReadMem parses a ReadMem SCD: address(u64) | reserved(u16==0) |
// read_length(u16).
func DecodeReadMem(scd []byte) (*ReadMemSCD, error) {
	if len(scd) != 12 {
		return nil, fmt.Errorf("%w: ReadMem scd must be 12 bytes, got %d", ErrInvalidPacket, len(scd))
	}
	reserved := binary.LittleEndian.Uint16(scd[8:10])
	if reserved != 0 {
		return nil, fmt.Errorf("%w: ReadMem reserved field non-zero", ErrInvalidPacket)
	}
	return &ReadMemSCD{
		Address:    binary.LittleEndian.Uint64(scd[0:8]),
		ReadLength: binary.LittleEndian.Uint16(scd[10:12]),
	}, nil
}

// EncodeReadMem serializes a ReadMem command SCD.
func EncodeReadMem(address uint64, length uint16) []byte {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint64(b[0:8], address)
	binary.LittleEndian.PutUint16(b[10:12], length)
	return b
}

// WriteMemSCD is the decoded body of a WriteMem command.
type WriteMemSCD struct {
	Address uint64
	Data    []byte
}

// DecodeWriteMem parses a WriteMem SCD: address(u64) | data(scd_len-8).
func DecodeWriteMem(scd []byte) (*WriteMemSCD, error) {
	if len(scd) < 8 {
		return nil, fmt.Errorf("%w: WriteMem scd shorter than address field", ErrInvalidPacket)
	}
	return &WriteMemSCD{
		Address: binary.LittleEndian.Uint64(scd[0:8]),
		Data:    scd[8:],
	}, nil
}

// EncodeWriteMem serializes a WriteMem command SCD.
func EncodeWriteMem(address uint64, data []byte) []byte {
	b := make([]byte, 8+len(data))
	binary.LittleEndian.PutUint64(b[0:8], address)
	copy(b[8:], data)
	return b
}

// ReadMemStackedEntry is one sub-operation of a ReadMemStacked command.
type ReadMemStackedEntry struct {
	Address    uint64
	ReadLength uint16
}

// DecodeReadMemStacked parses repeated 12-byte {address|reserved==0|read_length}
// entries totalling scd_len bytes.
func DecodeReadMemStacked(scd []byte) ([]ReadMemStackedEntry, error) {
	if len(scd)%12 != 0 {
		return nil, fmt.Errorf("%w: ReadMemStacked scd length %d not a multiple of 12", ErrInvalidPacket, len(scd))
	}
	entries := make([]ReadMemStackedEntry, 0, len(scd)/12)
	for off := 0; off < len(scd); off += 12 {
		e := scd[off : off+12]
		if binary.LittleEndian.Uint16(e[8:10]) != 0 {
			return nil, fmt.Errorf("%w: ReadMemStacked reserved field non-zero", ErrInvalidPacket)
		}
		entries = append(entries, ReadMemStackedEntry{
			Address:    binary.LittleEndian.Uint64(e[0:8]),
			ReadLength: binary.LittleEndian.Uint16(e[10:12]),
		})
	}
	return entries, nil
}

// WriteMemStackedEntry is one sub-operation of a WriteMemStacked command.
type WriteMemStackedEntry struct {
	Address uint64
	Data    []byte
}

// DecodeWriteMemStacked parses repeated {address|reserved==0|data_length|data}
// entries consuming scd_len bytes.
func DecodeWriteMemStacked(scd []byte) ([]WriteMemStackedEntry, error) {
	var entries []WriteMemStackedEntry
	off := 0
	for off < len(scd) {
		if len(scd)-off < 12 {
			return nil, fmt.Errorf("%w: WriteMemStacked entry header truncated", ErrInvalidPacket)
		}
		e := scd[off : off+12]
		if binary.LittleEndian.Uint16(e[8:10]) != 0 {
			return nil, fmt.Errorf("%w: WriteMemStacked reserved field non-zero", ErrInvalidPacket)
		}
		dataLen := int(binary.LittleEndian.Uint16(e[10:12]))
		off += 12
		if len(scd)-off < dataLen {
			return nil, fmt.Errorf("%w: WriteMemStacked entry data truncated", ErrInvalidPacket)
		}
		entries = append(entries, WriteMemStackedEntry{
			Address: binary.LittleEndian.Uint64(e[0:8]),
			Data:    scd[off : off+dataLen],
		})
		off += dataLen
	}
	return entries, nil
}

// EncodeWriteMemStacked serializes a WriteMemStacked command SCD.
func EncodeWriteMemStacked(entries []WriteMemStackedEntry) []byte {
	total := 0
	for _, e := range entries {
		total += 12 + len(e.Data)
	}
	b := make([]byte, total)
	off := 0
	for _, e := range entries {
		binary.LittleEndian.PutUint64(b[off:off+8], e.Address)
		binary.LittleEndian.PutUint16(b[off+10:off+12], uint16(len(e.Data)))
		copy(b[off+12:off+12+len(e.Data)], e.Data)
		off += 12 + len(e.Data)
	}
	return b
}

// EncodePendingAck serializes a Pending ack SCD: reserved(u16=0) | timeout_ms(u16).
func EncodePendingAck(timeoutMs uint16) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b[2:4], timeoutMs)
	return b
}

// DecodePendingAck parses a Pending ack SCD.
func DecodePendingAck(scd []byte) (uint16, error) {
	if len(scd) != 4 {
		return 0, fmt.Errorf("%w: Pending ack scd must be 4 bytes", ErrInvalidPacket)
	}
	return binary.LittleEndian.Uint16(scd[2:4]), nil
}

// writtenLengthAck serializes the common reserved(u16=0) | length_written(u16)
// shape shared by WriteMem and each WriteMemStacked entry's ack.
func writtenLengthAck(n uint16) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b[2:4], n)
	return b
}

// EncodeWriteMemAck serializes a WriteMem ack SCD.
func EncodeWriteMemAck(lengthWritten uint16) []byte {
	return writtenLengthAck(lengthWritten)
}

// EncodeWriteMemStackedAck serializes a WriteMemStacked ack SCD: repeated
// {reserved(u16=0) | length_written(u16)} entries, one per sub-write.
func EncodeWriteMemStackedAck(lengthsWritten []uint16) []byte {
	b := make([]byte, 4*len(lengthsWritten))
	for i, n := range lengthsWritten {
		copy(b[4*i:4*i+4], writtenLengthAck(n))
	}
	return b
}

// DecodeWriteMemAck parses a WriteMem ack SCD.
func DecodeWriteMemAck(scd []byte) (uint16, error) {
	if len(scd) != 4 {
		return 0, fmt.Errorf("%w: WriteMem ack scd must be 4 bytes", ErrInvalidPacket)
	}
	return binary.LittleEndian.Uint16(scd[2:4]), nil
}

// DecodeWriteMemStackedAck parses a WriteMemStacked ack SCD into the
// per-entry lengths written.
func DecodeWriteMemStackedAck(scd []byte) ([]uint16, error) {
	if len(scd)%4 != 0 {
		return nil, fmt.Errorf("%w: WriteMemStacked ack scd length %d not a multiple of 4", ErrInvalidPacket, len(scd))
	}
	out := make([]uint16, len(scd)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(scd[4*i+2 : 4*i+4])
	}
	return out, nil
}
