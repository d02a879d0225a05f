// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Declarative register descriptors.

package regmap

import "math"

// Endian selects the byte order a register's integer/float encoding uses.
type Endian uint8

const (
	LittleEndian Endian = iota
	BigEndian
)

// Kind is the semantic type a register's bytes are interpreted as.
type Kind uint8

const (
	KindASCII Kind = iota
	KindBytes
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindBitField
)

func (k Kind) width() uint64 {
	switch k {
	case KindUint8, KindInt8:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat32:
		return 4
	case KindUint64, KindInt64, KindFloat64:
		return 8
	default:
		return 0 // ASCII/Bytes/BitField: width is not fixed by Kind alone
	}
}

func (k Kind) integer() bool {
	switch k {
	case KindUint8, KindUint16, KindUint32, KindUint64,
		KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	default:
		return false
	}
}

// Descriptor is a single named register: its byte range, access right, and
// semantic type.
type Descriptor struct {
	Name    string
	Offset  uint64
	Length  uint64
	Access  AccessMode
	Endian  Endian
	Kind    Kind
	Initial []byte // nil means zero-filled

	// Set only for Kind == KindBitField.
	BitField *BitFieldDescriptor
}

// End returns the exclusive end of the register's byte range.
func (d *Descriptor) End() uint64 { return d.Offset + d.Length }

// BitFieldDescriptor describes a BitField<T, LSB, MSB> projection onto an
// integer register.
type BitFieldDescriptor struct {
	Parent *Descriptor
	LSB    uint8
	MSB    uint8
	Signed bool
}

// width in bits of the underlying parent integer.
func (bf *BitFieldDescriptor) parentBits() uint8 {
	return uint8(bf.Parent.Length * 8)
}

// Min and Max are the representable signed/unsigned range for the field.
func (bf *BitFieldDescriptor) Min() int64 {
	if !bf.Signed {
		return 0
	}
	width := uint(bf.MSB - bf.LSB)
	return -(int64(1) << width)
}

func (bf *BitFieldDescriptor) Max() int64 {
	width := uint(bf.MSB - bf.LSB)
	if bf.Signed {
		return (int64(1) << width) - 1
	}
	if width >= 63 {
		// An unsigned field spanning the whole 64-bit parent exceeds what
		// the int64 value API can carry; saturate at its ceiling.
		return math.MaxInt64
	}
	return (int64(1) << (width + 1)) - 1
}
