// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Memory is the flat byte store backing a device's register map: a single
// buffer plus a parallel per-byte access-right map, with observers that
// fire synchronously after a write commits.

package memory

import (
	"sync"

	"github.com/bytesentinel/go-u3v-vision/pkg/regmap"
)

// Observer is called after a write to a range it overlaps. offset and data
// describe the write that triggered it, not the observer's own range, so an
// observer watching a sub-range must trim old/new itself if it cares.
type Observer func(offset uint64, old, new []byte)

type observerReg struct {
	offset uint64
	length uint64
	fn     Observer
}

// Memory is safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	buf  []byte
	prot []regmap.AccessMode
	obs  []*observerReg
}

// New allocates a zero-filled, fully-NA memory of the given size.
func New(size uint64) *Memory {
	return &Memory{
		buf:  make([]byte, size),
		prot: make([]regmap.AccessMode, size),
	}
}

// NewFromTable allocates a memory sized and protected according to tbl,
// seeded with tbl's declared initial values.
func NewFromTable(tbl *regmap.Table) *Memory {
	m := New(tbl.Size())
	if err := m.LoadTable(0, tbl); err != nil {
		panic(err) // tbl.Size() always fits a memory sized from tbl.Size()
	}
	return m
}

// LoadTable seeds the byte range [base, base+tbl.Size()) with tbl's initial
// image and establishes per-register protection over that range, letting
// several independently-built register tables (e.g. ABRM and SBRM) share
// one physical address space at distinct base addresses.
func (m *Memory) LoadTable(base uint64, tbl *regmap.Table) error {
	if err := m.bounds(base, tbl.Size()); err != nil {
		return err
	}
	copy(m.buf[base:base+tbl.Size()], tbl.InitialImage())
	for _, d := range tbl.Registers() {
		for i := base + d.Offset; i < base+d.End(); i++ {
			m.prot[i] = d.Access
		}
	}
	return nil
}

// SetAccessRight marks [offset, offset+length) with mode, for raw regions
// not described by a register table (e.g. a manifest table or XML file
// blob that the device still wants the host to be able to ReadMem).
func (m *Memory) SetAccessRight(offset, length uint64, mode regmap.AccessMode) error {
	if err := m.bounds(offset, length); err != nil {
		return err
	}
	for i := offset; i < offset+length; i++ {
		m.prot[i] = mode
	}
	return nil
}

// accessRange folds the per-byte access rights over [offset, offset+length)
// with the lattice meet, so any NA byte in the range drags the whole range
// down. Must be called with mu held.
func (m *Memory) accessRange(offset, length uint64) regmap.AccessMode {
	combined := regmap.RW
	for i := offset; i < offset+length; i++ {
		combined = regmap.Meet(combined, m.prot[i])
	}
	return combined
}

func (m *Memory) bounds(offset, length uint64) error {
	if offset > uint64(len(m.buf)) || length > uint64(len(m.buf))-offset {
		return ErrOutOfRange
	}
	return nil
}

// ReadRaw returns a copy of [offset, offset+length), failing if any byte in
// the range is not readable.
func (m *Memory) ReadRaw(offset, length uint64) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.bounds(offset, length); err != nil {
		return nil, err
	}
	if !m.accessRange(offset, length).Readable() {
		return nil, ErrAccessDenied
	}
	out := make([]byte, length)
	copy(out, m.buf[offset:offset+length])
	return out, nil
}

// writeLocked commits data at offset and collects the observer callbacks it
// triggers, without invoking them. Caller must hold mu and have already
// validated bounds and access.
func (m *Memory) writeLocked(offset uint64, data []byte) []func() {
	length := uint64(len(data))
	old := make([]byte, length)
	copy(old, m.buf[offset:offset+length])
	copy(m.buf[offset:offset+length], data)

	var pending []func()
	for _, r := range m.obs {
		if r.offset < offset+length && offset < r.offset+r.length {
			fn, o, n := r.fn, old, data
			ro := offset
			pending = append(pending, func() { fn(ro, o, n) })
		}
	}
	return pending
}

// WriteRaw commits data at [offset, offset+len(data)), failing if any byte
// in the range is not writable. Observers registered over an overlapping
// range fire synchronously, in registration order, after the lock is
// released - never while it is held, so an observer may itself call back
// into Memory.
func (m *Memory) WriteRaw(offset uint64, data []byte) error {
	m.mu.Lock()
	length := uint64(len(data))
	if err := m.bounds(offset, length); err != nil {
		m.mu.Unlock()
		return err
	}
	if !m.accessRange(offset, length).Writable() {
		m.mu.Unlock()
		return ErrAccessDenied
	}
	pending := m.writeLocked(offset, data)
	m.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return nil
}

// WriteRawUnchecked writes without enforcing access rights. It exists for
// device-internal mutation of otherwise RO/WO registers (e.g. latching a
// read-only Timestamp register from a TimestampLatch observer) and must
// never be reached from a host-dispatched WriteMem command.
func (m *Memory) WriteRawUnchecked(offset uint64, data []byte) error {
	m.mu.Lock()
	if err := m.bounds(offset, uint64(len(data))); err != nil {
		m.mu.Unlock()
		return err
	}
	pending := m.writeLocked(offset, data)
	m.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return nil
}

// RegisterObserver subscribes fn to writes overlapping [offset,
// offset+length). Observers fire in the order they were registered.
func (m *Memory) RegisterObserver(offset, length uint64, fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = append(m.obs, &observerReg{offset: offset, length: length, fn: fn})
}

// ReadRegister reads a descriptor's raw bytes.
func (m *Memory) ReadRegister(d *regmap.Descriptor) ([]byte, error) {
	return m.ReadRaw(d.Offset, d.Length)
}

// WriteRegister writes a descriptor's raw bytes; data must match d.Length
// exactly.
func (m *Memory) WriteRegister(d *regmap.Descriptor, data []byte) error {
	if uint64(len(data)) != d.Length {
		return ErrOutOfRange
	}
	return m.WriteRaw(d.Offset, data)
}

// ReadUint decodes an unsigned integer register.
func (m *Memory) ReadUint(d *regmap.Descriptor) (uint64, error) {
	raw, err := m.ReadRegister(d)
	if err != nil {
		return 0, err
	}
	return regmap.ParseUint(raw, d.Endian), nil
}

// WriteUint encodes and writes an unsigned integer register.
func (m *Memory) WriteUint(d *regmap.Descriptor, v uint64) error {
	raw, err := regmap.SerializeUint(v, int(d.Length), d.Endian)
	if err != nil {
		return err
	}
	return m.WriteRegister(d, raw)
}

// ReadInt decodes a signed integer register.
func (m *Memory) ReadInt(d *regmap.Descriptor) (int64, error) {
	raw, err := m.ReadRegister(d)
	if err != nil {
		return 0, err
	}
	return regmap.ParseInt(raw, d.Endian), nil
}

// WriteInt encodes and writes a signed integer register.
func (m *Memory) WriteInt(d *regmap.Descriptor, v int64) error {
	raw, err := regmap.SerializeInt(v, int(d.Length), d.Endian)
	if err != nil {
		return err
	}
	return m.WriteRegister(d, raw)
}

// ReadASCII decodes a NUL-terminated ASCII string register.
func (m *Memory) ReadASCII(d *regmap.Descriptor) (string, error) {
	raw, err := m.ReadRegister(d)
	if err != nil {
		return "", err
	}
	return regmap.ParseASCII(raw)
}

// WriteASCII encodes and writes an ASCII string register.
func (m *Memory) WriteASCII(d *regmap.Descriptor, s string) error {
	raw, err := regmap.SerializeASCII(s, int(d.Length))
	if err != nil {
		return err
	}
	return m.WriteRegister(d, raw)
}

// ReadBitField decodes a bit-field projection.
func (m *Memory) ReadBitField(bf *regmap.BitFieldDescriptor) (int64, error) {
	raw, err := m.ReadRegister(bf.Parent)
	if err != nil {
		return 0, err
	}
	return regmap.ReadBitField(raw, bf, bf.Parent.Endian), nil
}

// WriteBitField performs a read-modify-write of bf's parent register,
// atomic with respect to other Memory writers, and fires any observers
// registered over the parent's byte range.
func (m *Memory) WriteBitField(bf *regmap.BitFieldDescriptor, v int64) error {
	m.mu.Lock()
	offset, length := bf.Parent.Offset, bf.Parent.Length
	if err := m.bounds(offset, length); err != nil {
		m.mu.Unlock()
		return err
	}
	if !m.accessRange(offset, length).Writable() {
		m.mu.Unlock()
		return ErrAccessDenied
	}
	current := make([]byte, length)
	copy(current, m.buf[offset:offset+length])

	newBytes, err := regmap.WriteBitField(current, bf, v, bf.Parent.Endian)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	pending := m.writeLocked(offset, newBytes)
	m.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return nil
}
