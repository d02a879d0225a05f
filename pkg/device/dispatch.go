// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The per-command dispatch algorithm: parse, gate, execute, ack.

package device

import (
	"errors"

	"github.com/bytesentinel/go-u3v-vision/pkg/memory"
	"github.com/bytesentinel/go-u3v-vision/pkg/wire"
)

// ackKindFor maps a command's SCD kind to its corresponding ack kind, used
// for every error ack once the command itself has parsed.
func ackKindFor(k wire.SCDKind) wire.SCDKind {
	switch k {
	case wire.KindReadMem:
		return wire.KindReadMemAck
	case wire.KindWriteMem:
		return wire.KindWriteMemAck
	case wire.KindReadMemStacked:
		return wire.KindReadMemStackedAck
	case wire.KindWriteMemStacked:
		return wire.KindWriteMemStackedAck
	default:
		return wire.KindReadMemAck
	}
}

func readStatusFor(err error) wire.Status {
	switch {
	case errors.Is(err, memory.ErrAccessDenied):
		return wire.StatusAccessDenied
	case errors.Is(err, memory.ErrOutOfRange):
		return wire.StatusInvalidAddress
	default:
		return wire.StatusGenericError
	}
}

func writeStatusFor(err error) wire.Status {
	switch {
	case errors.Is(err, memory.ErrAccessDenied):
		return wire.StatusWriteProtect
	case errors.Is(err, memory.ErrOutOfRange):
		return wire.StatusInvalidAddress
	default:
		return wire.StatusGenericError
	}
}

// processCommand runs the full command algorithm against a single raw
// buffer. It always runs on its own worker goroutine, joined by Module's
// WaitGroup before any halt or shutdown is honored.
func (m *Module) processCommand(buf []byte) {
	m.processed.Add(1)

	cmd, err := wire.ParseCommand(buf)
	if err != nil {
		m.emitAck(wire.NewErrorAck(0, wire.KindReadMemAck, wire.StatusInvalidParameter))
		return
	}

	if uint32(len(buf)) > m.maxCmdLen {
		m.emitAck(wire.NewErrorAck(cmd.RequestID, ackKindFor(cmd.Kind), wire.StatusInvalidParameter))
		return
	}

	if m.isHalted(EndpointControl) {
		return
	}

	if m.isHalted(EndpointEvent) {
		m.emitAck(wire.NewErrorAck(cmd.RequestID, ackKindFor(cmd.Kind), wire.StatusEventEndpointHalted))
		return
	}
	if m.isHalted(EndpointStream) {
		m.emitAck(wire.NewErrorAck(cmd.RequestID, ackKindFor(cmd.Kind), wire.StatusStreamEndpointHalted))
		return
	}

	if !m.onProcessing.CompareAndSwap(false, true) {
		m.busy.Add(1)
		m.emitAck(wire.NewErrorAck(cmd.RequestID, ackKindFor(cmd.Kind), wire.StatusBusy))
		return
	}
	defer m.onProcessing.Store(false)

	var ack *wire.Ack
	switch cmd.Kind {
	case wire.KindReadMem:
		ack = m.dispatchReadMem(cmd)
	case wire.KindWriteMem:
		ack = m.dispatchWriteMem(cmd)
	case wire.KindReadMemStacked:
		ack = m.dispatchReadMemStacked(cmd)
	case wire.KindWriteMemStacked:
		ack = m.dispatchWriteMemStacked(cmd)
	default:
		ack = wire.NewErrorAck(cmd.RequestID, ackKindFor(cmd.Kind), wire.StatusInvalidParameter)
	}

	m.emitAck(ack)
}

func (m *Module) dispatchReadMem(cmd *wire.Command) *wire.Ack {
	scd, err := wire.DecodeReadMem(cmd.SCD)
	if err != nil {
		return wire.NewErrorAck(cmd.RequestID, wire.KindReadMemAck, wire.StatusInvalidParameter)
	}
	data, err := m.mem.ReadRaw(scd.Address, uint64(scd.ReadLength))
	if err != nil {
		return wire.NewErrorAck(cmd.RequestID, wire.KindReadMemAck, readStatusFor(err))
	}
	return &wire.Ack{Status: wire.StatusSuccess, Kind: wire.KindReadMemAck, RequestID: cmd.RequestID, SCD: data}
}

// writeOne performs a single WriteMem-shaped write and reports whether the
// TimestampLatch observer, if triggered, rejected the value.
func (m *Module) writeOne(address uint64, data []byte) (ok bool, err error) {
	m.latch = latchOutcome{}
	if err := m.mem.WriteRaw(address, data); err != nil {
		return false, err
	}
	if m.latch.fired && !m.latch.valid {
		return false, nil
	}
	return true, nil
}

func (m *Module) dispatchWriteMem(cmd *wire.Command) *wire.Ack {
	scd, err := wire.DecodeWriteMem(cmd.SCD)
	if err != nil {
		return wire.NewErrorAck(cmd.RequestID, wire.KindWriteMemAck, wire.StatusInvalidParameter)
	}
	ok, err := m.writeOne(scd.Address, scd.Data)
	if err != nil {
		return wire.NewErrorAck(cmd.RequestID, wire.KindWriteMemAck, writeStatusFor(err))
	}
	if !ok {
		return wire.NewErrorAck(cmd.RequestID, wire.KindWriteMemAck, wire.StatusGenericError)
	}
	return &wire.Ack{
		Status:    wire.StatusSuccess,
		Kind:      wire.KindWriteMemAck,
		RequestID: cmd.RequestID,
		SCD:       wire.EncodeWriteMemAck(uint16(len(scd.Data))),
	}
}

// dispatchReadMemStacked executes each sub-read in command order,
// independently access-gated, aborting on the first failure.
func (m *Module) dispatchReadMemStacked(cmd *wire.Command) *wire.Ack {
	entries, err := wire.DecodeReadMemStacked(cmd.SCD)
	if err != nil {
		return wire.NewErrorAck(cmd.RequestID, wire.KindReadMemStackedAck, wire.StatusInvalidParameter)
	}
	var out []byte
	for _, e := range entries {
		data, err := m.mem.ReadRaw(e.Address, uint64(e.ReadLength))
		if err != nil {
			return wire.NewErrorAck(cmd.RequestID, wire.KindReadMemStackedAck, readStatusFor(err))
		}
		out = append(out, data...)
	}
	return &wire.Ack{Status: wire.StatusSuccess, Kind: wire.KindReadMemStackedAck, RequestID: cmd.RequestID, SCD: out}
}

func (m *Module) dispatchWriteMemStacked(cmd *wire.Command) *wire.Ack {
	entries, err := wire.DecodeWriteMemStacked(cmd.SCD)
	if err != nil {
		return wire.NewErrorAck(cmd.RequestID, wire.KindWriteMemStackedAck, wire.StatusInvalidParameter)
	}
	lengths := make([]uint16, 0, len(entries))
	for _, e := range entries {
		ok, err := m.writeOne(e.Address, e.Data)
		if err != nil {
			return wire.NewErrorAck(cmd.RequestID, wire.KindWriteMemStackedAck, writeStatusFor(err))
		}
		if !ok {
			return wire.NewErrorAck(cmd.RequestID, wire.KindWriteMemStackedAck, wire.StatusGenericError)
		}
		lengths = append(lengths, uint16(len(e.Data)))
	}
	return &wire.Ack{
		Status:    wire.StatusSuccess,
		Kind:      wire.KindWriteMemStackedAck,
		RequestID: cmd.RequestID,
		SCD:       wire.EncodeWriteMemStackedAck(lengths),
	}
}

// emitAck serializes ack and enqueues it, falling back to a short
// InvalidParameter ack if it would not fit within maxAckLen, and to a
// best-effort Control halt plus drop if the outbound queue is saturated.
func (m *Module) emitAck(ack *wire.Ack) {
	raw, err := ack.MarshalBinary()
	if err != nil || uint32(len(raw)) > m.maxAckLen {
		short := wire.NewErrorAck(ack.RequestID, ack.Kind, wire.StatusInvalidParameter)
		raw, err = short.MarshalBinary()
		if err != nil {
			return
		}
	}
	if !m.outbound.send(raw) {
		select {
		case m.inbound <- signal{kind: sigSetHalt, endpoint: EndpointControl}:
		default:
		}
	}
}
