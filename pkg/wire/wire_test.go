// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/hex"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatalf("unhex(%q): %v", s, err)
	}
	return b
}

func TestCommandRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		cmd  *Command
	}{
		{"ReadMem", &Command{Flag: FlagRequestAck, Kind: KindReadMem, RequestID: 1, SCD: EncodeReadMem(0x1000, 64)}},
		{"WriteMem", &Command{Flag: FlagRequestAck, Kind: KindWriteMem, RequestID: 2, SCD: EncodeWriteMem(0x2000, []byte{1, 2, 3, 4})}},
		{"ReadMemStacked", &Command{Flag: FlagRequestAck, Kind: KindReadMemStacked, RequestID: 3, SCD: EncodeWriteMemStacked(nil)}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := tc.cmd.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary() error = %v", err)
			}
			if len(raw) != headerLen+len(tc.cmd.SCD) {
				t.Errorf("len(raw) = %d; want %d", len(raw), headerLen+len(tc.cmd.SCD))
			}
			got, err := ParseCommand(raw)
			if err != nil {
				t.Fatalf("ParseCommand() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.cmd) {
				t.Errorf("ParseCommand(MarshalBinary()) = %+v; want %+v", got, tc.cmd)
			}
		})
	}
}

func TestAckRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		ack  *Ack
	}{
		{"ReadMemAck", &Ack{Status: StatusSuccess, Kind: KindReadMemAck, RequestID: 1, SCD: []byte{0xAA, 0xBB}}},
		{"WriteMemAck", &Ack{Status: StatusSuccess, Kind: KindWriteMemAck, RequestID: 2, SCD: EncodeWriteMemAck(4)}},
		{"PendingAck", &Ack{Status: StatusSuccess, Kind: KindPendingAck, RequestID: 3, SCD: EncodePendingAck(50)}},
		{"ErrorAck", &Ack{Status: StatusWriteProtect, Kind: KindWriteMemAck, RequestID: 4, SCD: nil}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := tc.ack.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary() error = %v", err)
			}
			got, err := ParseAck(raw)
			if err != nil {
				t.Fatalf("ParseAck() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.ack) {
				t.Errorf("ParseAck(MarshalBinary()) = %+v; want %+v", got, tc.ack)
			}
		})
	}
}

func TestCommandEndianness(t *testing.T) {
	cmd := &Command{Flag: FlagRequestAck, Kind: KindReadMem, RequestID: 0x0102, SCD: EncodeReadMem(0x0807060504030201, 0x0A0B)}
	raw, err := cmd.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	// magic
	if !bytes.Equal(raw[0:4], []byte{0x55, 0x33, 0x56, 0x43}) {
		t.Errorf("magic bytes = % x; want 55 33 56 43", raw[0:4])
	}
	// request_id at offset 10
	if raw[10] != 0x02 || raw[11] != 0x01 {
		t.Errorf("request_id bytes = % x; want 02 01", raw[10:12])
	}
}

func TestParseCommandBadMagic(t *testing.T) {
	buf := unhex(t, "00 00 00 00 00 40 00 08 00 00 01 00")
	if _, err := ParseCommand(buf); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("ParseCommand() error = %v, want %v", err, ErrInvalidPacket)
	}
}

func TestParseCommandBadFlag(t *testing.T) {
	buf := unhex(t, "55 33 56 43 FF FF 00 08 00 00 01 00")
	if _, err := ParseCommand(buf); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("ParseCommand() error = %v, want %v", err, ErrInvalidPacket)
	}
}

func TestParseCommandUnknownKind(t *testing.T) {
	buf := unhex(t, "55 33 56 43 00 40 FF FF 00 00 01 00")
	if _, err := ParseCommand(buf); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("ParseCommand() error = %v, want %v", err, ErrInvalidPacket)
	}
}

// Exact wire bytes of a ReadMem command and its success ack.
func TestReadMemCommandKnownBytes(t *testing.T) {
	raw := unhex(t, "55 33 56 43 00 40 00 08 0C 00 01 00 04 00 00 00 00 00 00 00 00 00 40 00")
	cmd, err := ParseCommand(raw)
	if err != nil {
		t.Fatalf("ParseCommand() error = %v", err)
	}
	if cmd.Kind != KindReadMem || cmd.RequestID != 1 {
		t.Fatalf("cmd = %+v; want kind=ReadMem request_id=1", cmd)
	}
	scd, err := DecodeReadMem(cmd.SCD)
	if err != nil {
		t.Fatalf("DecodeReadMem() error = %v", err)
	}
	if scd.Address != 0x04 || scd.ReadLength != 64 {
		t.Errorf("scd = %+v; want address=0x04 length=64", scd)
	}

	data := make([]byte, 64)
	ack := &Ack{Status: StatusSuccess, Kind: KindReadMemAck, RequestID: 1, SCD: data}
	got, err := ack.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	wantHeader := unhex(t, "55 33 56 43 00 00 01 08 40 00 01 00")
	if !bytes.Equal(got[:headerLen], wantHeader) {
		t.Errorf("ack header = % x; want % x", got[:headerLen], wantHeader)
	}
	if !bytes.Equal(got[headerLen:], data) {
		t.Errorf("ack data mismatch")
	}
}

// A WriteProtect error ack carries an empty SCD and mirrors the command's
// request id.
func TestWriteProtectErrorAckShape(t *testing.T) {
	raw := EncodeWriteMem(0x0004, []byte{1, 2, 3, 4})
	cmd := &Command{Flag: FlagRequestAck, Kind: KindWriteMem, RequestID: 1, SCD: raw}
	_, err := cmd.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}

	ack := NewErrorAck(1, KindWriteMemAck, StatusWriteProtect)
	got, err := ack.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	parsed, err := ParseAck(got)
	if err != nil {
		t.Fatalf("ParseAck() error = %v", err)
	}
	if parsed.Status != StatusWriteProtect || parsed.Kind != KindWriteMemAck || parsed.RequestID != 1 || len(parsed.SCD) != 0 {
		t.Errorf("parsed ack = %+v; want status=WriteProtect kind=WriteMemAck id=1 empty scd", parsed)
	}
}

// An unparseable command is answered with a synthetic request_id=0,
// kind=ReadMemAck InvalidParameter ack.
func TestMalformedMagicErrorAckShape(t *testing.T) {
	raw := unhex(t, "00 00 00 00 00 40 00 08 0C 00 01 00 04 00 00 00 00 00 00 00 00 00 40 00")
	if _, err := ParseCommand(raw); !errors.Is(err, ErrInvalidPacket) {
		t.Fatalf("ParseCommand() error = %v, want %v", err, ErrInvalidPacket)
	}

	ack := NewErrorAck(0, KindReadMemAck, StatusInvalidParameter)
	got, err := ack.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	parsed, _ := ParseAck(got)
	if parsed.Status != StatusInvalidParameter || parsed.Kind != KindReadMemAck || parsed.RequestID != 0 {
		t.Errorf("parsed ack = %+v; want status=InvalidParameter kind=ReadMemAck id=0", parsed)
	}
}

func TestChunkReadCoverage(t *testing.T) {
	testCases := []struct {
		name      string
		address   uint64
		length    uint64
		maxAckLen uint32
	}{
		{"small", 0x100, 10, 13},
		{"exact multiple", 0, 100, 20},
		{"large window", 0x1000, 200000, 1024},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chunks, err := ChunkRead(tc.address, tc.length, tc.maxAckLen)
			if err != nil {
				t.Fatalf("ChunkRead() error = %v", err)
			}
			var total uint64
			addr := tc.address
			for _, c := range chunks {
				if c.Address != addr {
					t.Errorf("chunk address = %#x; want contiguous %#x", c.Address, addr)
				}
				if headerLen+int(c.Length) > int(tc.maxAckLen) {
					t.Errorf("chunk ack size %d exceeds max_ack_len %d", headerLen+int(c.Length), tc.maxAckLen)
				}
				addr += uint64(c.Length)
				total += uint64(c.Length)
			}
			if total != tc.length {
				t.Errorf("total chunked length = %d; want %d", total, tc.length)
			}
		})
	}
}

func TestChunkWriteCoverage(t *testing.T) {
	testCases := []struct {
		name      string
		address   uint64
		length    int
		maxCmdLen uint32
	}{
		{"small", 0x100, 10, 21},
		{"exact multiple", 0, 100, 28},
		{"large window", 0x2000, 5000, 256},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := make([]byte, tc.length)
			for i := range data {
				data[i] = byte(i)
			}
			chunks, err := ChunkWrite(tc.address, data, tc.maxCmdLen)
			if err != nil {
				t.Fatalf("ChunkWrite() error = %v", err)
			}
			var reassembled []byte
			addr := tc.address
			for _, c := range chunks {
				if c.Address != addr {
					t.Errorf("chunk address = %#x; want contiguous %#x", c.Address, addr)
				}
				if headerLen+8+len(c.Data) > int(tc.maxCmdLen) {
					t.Errorf("chunk cmd size %d exceeds max_cmd_len %d", headerLen+8+len(c.Data), tc.maxCmdLen)
				}
				reassembled = append(reassembled, c.Data...)
				addr += uint64(len(c.Data))
			}
			if !bytes.Equal(reassembled, data) {
				t.Errorf("reassembled data does not match original")
			}
		})
	}
}

func TestDecodeWriteMemStacked(t *testing.T) {
	entries := []WriteMemStackedEntry{
		{Address: 0x10, Data: []byte{1, 2, 3}},
		{Address: 0x20, Data: []byte{4, 5}},
	}
	raw := EncodeWriteMemStacked(entries)
	got, err := DecodeWriteMemStacked(raw)
	if err != nil {
		t.Fatalf("DecodeWriteMemStacked() error = %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("DecodeWriteMemStacked() = %+v; want %+v", got, entries)
	}
}

func TestDecodeReadMemStackedRejectsNonMultiple(t *testing.T) {
	if _, err := DecodeReadMemStacked(make([]byte, 13)); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("DecodeReadMemStacked() error = %v, want %v", err, ErrInvalidPacket)
	}
}

func TestStatusNamespaceAndFatal(t *testing.T) {
	testCases := []struct {
		name      string
		s         Status
		namespace uint8
		fatal     bool
	}{
		{"Success", StatusSuccess, 0, false},
		{"InvalidParameter", StatusInvalidParameter, 0, true},
		{"ResendNotSupported", StatusResendNotSupported, 1, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.s.Namespace(); got != tc.namespace {
				t.Errorf("Namespace() = %d; want %d", got, tc.namespace)
			}
			if got := tc.s.IsFatal(); got != tc.fatal {
				t.Errorf("IsFatal() = %v; want %v", got, tc.fatal)
			}
		})
	}
}
