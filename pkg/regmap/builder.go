// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Builder assembles a Table declaratively, the way the ABRM/SBRM register
// maps in pkg/bootstrap are constructed: a sequence of chained calls, each
// appending one register at the next free offset unless an explicit offset
// is given, followed by Build() to validate and freeze the result.

package regmap

import "fmt"

// Builder accumulates register declarations before Build validates them.
type Builder struct {
	size uint64
	regs []*Descriptor
	bits []*bitFieldSpec

	next uint64 // next free offset for auto-placed registers
	err  error  // first error encountered, returned by Build
}

type bitFieldSpec struct {
	name       string
	parentName string
	lsb, msb   uint8
	signed     bool
}

// NewBuilder starts a table of the given total byte size.
func NewBuilder(size uint64) *Builder {
	return &Builder{size: size}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// place resolves the offset for a new register: explicit offsets (>=0 passed
// by the caller) are honored as-is, a negative sentinel means "next free".
func (b *Builder) place(length uint64, explicit int64) uint64 {
	if explicit >= 0 {
		return uint64(explicit)
	}
	return b.next
}

func (b *Builder) add(d *Descriptor, explicit int64) *Builder {
	d.Offset = b.place(d.Length, explicit)
	if d.Offset+d.Length > b.next {
		b.next = d.Offset + d.Length
	}
	b.regs = append(b.regs, d)
	return b
}

// Reg declares a register at an explicit offset; pass -1 via RegAuto to
// place it immediately after the previous one instead.
func (b *Builder) Reg(name string, offset uint64, length uint64, access AccessMode, e Endian, k Kind, initial []byte) *Builder {
	if k.width() != 0 && k.width() != length {
		b.fail(fmt.Errorf("%w: %s declares length %d for %v", ErrBadWidth, name, length, k))
	}
	return b.add(&Descriptor{Name: name, Length: length, Access: access, Endian: e, Kind: k, Initial: initial}, int64(offset))
}

// RegAuto is like Reg but places the register immediately after the
// previously declared one.
func (b *Builder) RegAuto(name string, length uint64, access AccessMode, e Endian, k Kind, initial []byte) *Builder {
	if k.width() != 0 && k.width() != length {
		b.fail(fmt.Errorf("%w: %s declares length %d for %v", ErrBadWidth, name, length, k))
	}
	return b.add(&Descriptor{Name: name, Length: length, Access: access, Endian: e, Kind: k, Initial: initial}, -1)
}

// ASCII declares a fixed-length ASCII string register.
func (b *Builder) ASCII(name string, offset uint64, length uint64, access AccessMode, initial string) *Builder {
	raw, err := SerializeASCII(initial, int(length))
	if err != nil {
		b.fail(fmt.Errorf("regmap: %s: %w", name, err))
		raw = nil
	}
	return b.Reg(name, offset, length, access, LittleEndian, KindASCII, raw)
}

// Bytes declares an opaque fixed-length byte register.
func (b *Builder) Bytes(name string, offset uint64, length uint64, access AccessMode) *Builder {
	return b.Reg(name, offset, length, access, LittleEndian, KindBytes, nil)
}

// Uint32 declares a 4-byte unsigned integer register.
func (b *Builder) Uint32(name string, offset uint64, access AccessMode, e Endian, initial uint32) *Builder {
	raw, _ := SerializeUint(uint64(initial), 4, e)
	return b.Reg(name, offset, 4, access, e, KindUint32, raw)
}

// Uint64 declares an 8-byte unsigned integer register.
func (b *Builder) Uint64(name string, offset uint64, access AccessMode, e Endian, initial uint64) *Builder {
	raw, _ := SerializeUint(initial, 8, e)
	return b.Reg(name, offset, 8, access, e, KindUint64, raw)
}

// BitField declares a named projection onto a previously-or-later declared
// parent register. Parent resolution happens at Build time so that
// BitFields may be declared in any order relative to their parent.
func (b *Builder) BitField(name string, parent string, lsb, msb uint8, signed bool) *Builder {
	b.bits = append(b.bits, &bitFieldSpec{name: name, parentName: parent, lsb: lsb, msb: msb, signed: signed})
	return b
}

// Build validates every declared register and bit-field: no two
// addressable registers overlap, every register fits within the map,
// integer/float widths match their Kind, and every bit-field's [LSB,MSB]
// falls within its parent's bit width.
func (b *Builder) Build() (*Table, error) {
	if b.err != nil {
		return nil, b.err
	}

	byName := make(map[string]*Descriptor, len(b.regs)+len(b.bits))
	for _, d := range b.regs {
		if _, dup := byName[d.Name]; dup {
			return nil, fmt.Errorf("regmap: duplicate register name %q", d.Name)
		}
		if d.End() > b.size {
			return nil, fmt.Errorf("%w: %s ends at %d, map size %d", ErrOutOfBounds, d.Name, d.End(), b.size)
		}
		byName[d.Name] = d
	}

	for i, a := range b.regs {
		for _, bb := range b.regs[i+1:] {
			if a.Offset < bb.End() && bb.Offset < a.End() {
				return nil, fmt.Errorf("%w: %s and %s", ErrOverlap, a.Name, bb.Name)
			}
		}
	}

	var fields []*Descriptor
	for _, spec := range b.bits {
		parent, ok := byName[spec.parentName]
		if !ok {
			return nil, fmt.Errorf("%w: %s wants %s", ErrUnknownParent, spec.name, spec.parentName)
		}
		if !parent.Kind.integer() {
			return nil, fmt.Errorf("regmap: %s: parent %s is not an integer register", spec.name, spec.parentName)
		}
		width := uint8(parent.Length * 8)
		if spec.msb < spec.lsb || spec.msb >= width {
			return nil, fmt.Errorf("%w: %s [%d:%d] against %d-bit parent", ErrBadBitRange, spec.name, spec.lsb, spec.msb, width)
		}
		if _, dup := byName[spec.name]; dup {
			return nil, fmt.Errorf("regmap: duplicate register name %q", spec.name)
		}
		fd := &Descriptor{
			Name:   spec.name,
			Offset: parent.Offset,
			Length: parent.Length,
			Access: parent.Access,
			Endian: parent.Endian,
			Kind:   KindBitField,
			BitField: &BitFieldDescriptor{
				Parent: parent,
				LSB:    spec.lsb,
				MSB:    spec.msb,
				Signed: spec.signed,
			},
		}
		byName[fd.Name] = fd
		fields = append(fields, fd)
	}

	return &Table{
		size:   b.size,
		byName: byName,
		order:  b.regs,
		fields: fields,
	}, nil
}
