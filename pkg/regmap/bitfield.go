// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// BitField<T, LSB, MSB> read/write semantics.

package regmap

// mirrorBE mirrors [lsb, msb] against a width-bit word, as required for
// big-endian parent registers: bit index i becomes width-1-i, and the
// endpoints are swapped back into LSB <= MSB order.
func mirrorBE(lsb, msb, width uint8) (uint8, uint8) {
	return width - 1 - msb, width - 1 - lsb
}

func effectiveBits(bf *BitFieldDescriptor, e Endian) (lsb, msb uint8) {
	if e == BigEndian {
		return mirrorBE(bf.LSB, bf.MSB, bf.parentBits())
	}
	return bf.LSB, bf.MSB
}

func maskFor(lsb, msb uint8) uint64 {
	width := uint(msb-lsb) + 1
	var m uint64
	if width >= 64 {
		m = ^uint64(0)
	} else {
		m = (uint64(1) << width) - 1
	}
	return m << lsb
}

// ReadBitField extracts the field's value out of the parent register's raw
// bytes, sign-extending if the field is signed.
func ReadBitField(parentBytes []byte, bf *BitFieldDescriptor, e Endian) int64 {
	word := ParseUint(parentBytes, e)
	lsb, msb := effectiveBits(bf, e)
	mask := maskFor(lsb, msb)
	extracted := (word & mask) >> lsb

	if !bf.Signed {
		return int64(extracted)
	}
	width := uint(msb - lsb)
	signBit := uint64(1) << width
	if extracted&signBit != 0 {
		extracted |= ^uint64(0) << (width + 1)
	}
	return int64(extracted)
}

// WriteBitField returns the new raw bytes for the parent register after a
// read-modify-write that sets the field to v, leaving bits outside
// [LSB,MSB] untouched. It fails ErrInvalidRegisterData if v is out of the
// field's representable [MIN,MAX] range.
func WriteBitField(parentBytes []byte, bf *BitFieldDescriptor, v int64, e Endian) ([]byte, error) {
	if v < bf.Min() || v > bf.Max() {
		return nil, ErrInvalidRegisterData
	}
	lsb, msb := effectiveBits(bf, e)
	mask := maskFor(lsb, msb)

	current := ParseUint(parentBytes, e)
	encoded := (uint64(v) << lsb) & mask
	newWord := (current &^ mask) | encoded

	out, err := SerializeUint(newWord, len(parentBytes), e)
	if err != nil {
		return nil, err
	}
	return out, nil
}
