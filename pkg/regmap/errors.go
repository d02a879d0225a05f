// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

import "errors"

var (
	// ErrInvalidRegisterData is returned when a value cannot be represented
	// in its declared register: a bit-field write outside [MIN,MAX], a
	// non-ASCII string, or a value wider than its declared length.
	ErrInvalidRegisterData = errors.New("regmap: invalid register data")

	// ErrUnknownRegister is returned when a name does not resolve in a Table.
	ErrUnknownRegister = errors.New("regmap: unknown register")

	// ErrOverlap is returned at build time when two registers' byte ranges
	// overlap without one being a bit-field projection of the other.
	ErrOverlap = errors.New("regmap: register ranges overlap")

	// ErrOutOfBounds is returned at build time when a register's range does
	// not fit within the declared map size.
	ErrOutOfBounds = errors.New("regmap: register range exceeds map size")

	// ErrBadWidth is returned at build time when an integer/float register's
	// declared length does not match its semantic type's width.
	ErrBadWidth = errors.New("regmap: length does not match type width")

	// ErrBadBitRange is returned at build time when a bit-field's LSB/MSB do
	// not satisfy LSB <= MSB < bit-width(T).
	ErrBadBitRange = errors.New("regmap: bit-field LSB/MSB out of range")

	// ErrUnknownParent is returned at build time when a bit-field names a
	// parent register that has not been declared.
	ErrUnknownParent = errors.New("regmap: bit-field parent not declared")
)
