// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Table is the verified mapping from register name to descriptor, built
// once at startup and immutable afterwards.

package regmap

// Table is an immutable, built register map.
type Table struct {
	size   uint64
	byName map[string]*Descriptor
	order  []*Descriptor // declaration order, addressable registers only (no bit-fields)
	fields []*Descriptor // bit-field pseudo-descriptors, declaration order
}

// Size is the byte length of the memory region this table describes.
func (t *Table) Size() uint64 { return t.size }

// Lookup returns the descriptor for name, including bit-fields.
func (t *Table) Lookup(name string) (*Descriptor, bool) {
	d, ok := t.byName[name]
	return d, ok
}

// MustLookup panics if name is not declared; intended for startup wiring of
// well-known registers where a miss is a programming error.
func (t *Table) MustLookup(name string) *Descriptor {
	d, ok := t.byName[name]
	if !ok {
		panic("regmap: unknown register " + name)
	}
	return d
}

// Registers returns the addressable (non-bit-field) descriptors in
// declaration order.
func (t *Table) Registers() []*Descriptor { return t.order }

// BitFields returns the bit-field pseudo-descriptors in declaration order.
func (t *Table) BitFields() []*Descriptor { return t.fields }

// InitialImage renders the flat initial byte image implied by every
// register's Initial value (zero-filled where absent).
func (t *Table) InitialImage() []byte {
	img := make([]byte, t.size)
	for _, d := range t.order {
		if d.Initial == nil {
			continue
		}
		copy(img[d.Offset:d.Offset+d.Length], d.Initial)
	}
	return img
}
