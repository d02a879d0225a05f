// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import "errors"

var (
	// ErrAccessDenied is returned when a read or write range is not fully
	// covered by the required access right.
	ErrAccessDenied = errors.New("memory: access denied")

	// ErrOutOfRange is returned when a read or write range falls outside the
	// backing buffer.
	ErrOutOfRange = errors.New("memory: address range out of bounds")
)
