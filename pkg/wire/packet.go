// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Implements U3V GenCP command/ack packetization.

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Magic is the four ASCII bytes "U3VC" read as a little-endian u32. Both
// command and ack headers carry the same value; direction of the bulk
// endpoint is what tells them apart, not the magic.
const Magic uint32 = 0x43563355

// Flag is the command header's CCD flag field.
type Flag uint16

const (
	FlagRequestAck    Flag = 1 << 14
	FlagCommandResend Flag = 1 << 15

	validCommandFlags = FlagRequestAck | FlagCommandResend
)

// SCDKind identifies the payload shape following the CCD header.
type SCDKind uint16

const (
	KindReadMem            SCDKind = 0x0800
	KindReadMemAck         SCDKind = 0x0801
	KindWriteMem           SCDKind = 0x0802
	KindWriteMemAck        SCDKind = 0x0803
	KindPendingAck         SCDKind = 0x0805
	KindReadMemStacked     SCDKind = 0x0806
	KindReadMemStackedAck  SCDKind = 0x0807
	KindWriteMemStacked    SCDKind = 0x0808
	KindWriteMemStackedAck SCDKind = 0x0809
)

func (k SCDKind) isValidCommandKind() bool {
	switch k {
	case KindReadMem, KindWriteMem, KindReadMemStacked, KindWriteMemStacked:
		return true
	default:
		return false
	}
}

const headerLen = 12

type commandHeader struct {
	Magic     uint32
	Flag      uint16
	SCDKind   uint16
	SCDLen    uint16
	RequestID uint16
}

type ackHeader struct {
	Magic     uint32
	Status    uint16
	SCDKind   uint16
	SCDLen    uint16
	RequestID uint16
}

// Command is a parsed GenCP command packet.
type Command struct {
	Flag      Flag
	Kind      SCDKind
	RequestID uint16
	SCD       []byte
}

// ParseCommand decodes a full command packet, enforcing framing strictly:
// bad magic, bad flag, unknown SCD kind, or a buffer whose length does not
// exactly match the declared scd_len all fail.
func ParseCommand(buf []byte) (*Command, error) {
	if len(buf) < headerLen {
		return nil, fmt.Errorf("%w: short command header", ErrInvalidPacket)
	}
	var hdr commandHeader
	if err := binary.Read(bytes.NewReader(buf[:headerLen]), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPacket, err)
	}
	if hdr.Magic != Magic {
		return nil, fmt.Errorf("%w: invalid prefix magic", ErrInvalidPacket)
	}
	if Flag(hdr.Flag)&^validCommandFlags != 0 {
		return nil, fmt.Errorf("%w: invalid command flag", ErrInvalidPacket)
	}
	kind := SCDKind(hdr.SCDKind)
	if !kind.isValidCommandKind() {
		return nil, fmt.Errorf("%w: unknown scd_kind %#x", ErrInvalidPacket, hdr.SCDKind)
	}
	if len(buf) != headerLen+int(hdr.SCDLen) {
		return nil, fmt.Errorf("%w: scd_len %d does not match buffer", ErrInvalidPacket, hdr.SCDLen)
	}
	return &Command{
		Flag:      Flag(hdr.Flag),
		Kind:      kind,
		RequestID: hdr.RequestID,
		SCD:       buf[headerLen:],
	}, nil
}

// MarshalBinary emits the command packet.
func (c *Command) MarshalBinary() ([]byte, error) {
	if len(c.SCD) > 0xFFFF {
		return nil, ErrPacketTooLarge
	}
	hdr := commandHeader{
		Magic:     Magic,
		Flag:      uint16(c.Flag),
		SCDKind:   uint16(c.Kind),
		SCDLen:    uint16(len(c.SCD)),
		RequestID: c.RequestID,
	}
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	buf.Write(c.SCD)
	return buf.Bytes(), nil
}

// Ack is a parsed or to-be-emitted GenCP acknowledge packet.
type Ack struct {
	Status    Status
	Kind      SCDKind
	RequestID uint16
	SCD       []byte
}

// ParseAck decodes a full ack packet. Used on the host side; the device
// side only ever emits acks via MarshalBinary.
func ParseAck(buf []byte) (*Ack, error) {
	if len(buf) < headerLen {
		return nil, fmt.Errorf("%w: short ack header", ErrInvalidPacket)
	}
	var hdr ackHeader
	if err := binary.Read(bytes.NewReader(buf[:headerLen]), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPacket, err)
	}
	if hdr.Magic != Magic {
		return nil, fmt.Errorf("%w: invalid prefix magic", ErrInvalidPacket)
	}
	if len(buf) != headerLen+int(hdr.SCDLen) {
		return nil, fmt.Errorf("%w: scd_len %d does not match buffer", ErrInvalidPacket, hdr.SCDLen)
	}
	var scd []byte
	if hdr.SCDLen > 0 {
		scd = buf[headerLen:]
	}
	return &Ack{
		Status:    Status(hdr.Status),
		Kind:      SCDKind(hdr.SCDKind),
		RequestID: hdr.RequestID,
		SCD:       scd,
	}, nil
}

// MarshalBinary emits the ack packet. Callers that need to honor
// max_ack_len should check len(result) themselves and fall back to a short
// error ack rather than relying on an error return here.
func (a *Ack) MarshalBinary() ([]byte, error) {
	if len(a.SCD) > 0xFFFF {
		return nil, ErrPacketTooLarge
	}
	hdr := ackHeader{
		Magic:     Magic,
		Status:    uint16(a.Status),
		SCDKind:   uint16(a.Kind),
		SCDLen:    uint16(len(a.SCD)),
		RequestID: a.RequestID,
	}
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	buf.Write(a.SCD)
	return buf.Bytes(), nil
}

// NewErrorAck builds a short ack carrying no SCD, used for every error
// path in the dispatcher.
func NewErrorAck(requestID uint16, kind SCDKind, status Status) *Ack {
	return &Ack{Status: status, Kind: kind, RequestID: requestID}
}
