// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Implements the access-right lattice used by the register-map substrate.

package regmap

// AccessMode is a point in the lattice NA ⊑ {RO, WO} ⊑ RW.
//
// The two low bits are independent flags (readable, writable) so that the
// lattice meet (greatest lower bound) is plain bitwise AND: any byte that is
// NA in a range drags the whole range's combined mode down to NA for a mode
// the byte lacks.
type AccessMode uint8

const (
	NA AccessMode = 0
	RO AccessMode = 1 << 0
	WO AccessMode = 1 << 1
	RW AccessMode = RO | WO
)

func (a AccessMode) String() string {
	switch a {
	case NA:
		return "NA"
	case RO:
		return "RO"
	case WO:
		return "WO"
	case RW:
		return "RW"
	default:
		return "invalid"
	}
}

// Readable reports whether RO ⊑ a.
func (a AccessMode) Readable() bool { return a&RO != 0 }

// Writable reports whether WO ⊑ a.
func (a AccessMode) Writable() bool { return a&WO != 0 }

// Meet returns the greatest lower bound of a and b.
func Meet(a, b AccessMode) AccessMode { return a & b }

// MeetAll folds Meet across every mode, returning RW (the top element) for
// an empty input.
func MeetAll(modes ...AccessMode) AccessMode {
	acc := RW
	for _, m := range modes {
		acc = Meet(acc, m)
	}
	return acc
}
