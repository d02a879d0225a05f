// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// ThreadSafe wraps a Handle with an owning mutex so multiple goroutines
// can share one control channel, serializing each transaction's
// send+recv+retry span.

package host

import (
	"context"
	"sync"

	"github.com/bytesentinel/go-u3v-vision/pkg/bootstrap"
)

// ThreadSafe serializes every operation on an underlying Handle behind one
// mutex, so unrelated callers' transactions never interleave their
// send/recv/retry spans.
type ThreadSafe struct {
	mu sync.Mutex
	h  *Handle
}

// NewThreadSafe wraps h.
func NewThreadSafe(h *Handle) *ThreadSafe {
	return &ThreadSafe{h: h}
}

func (s *ThreadSafe) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Open(ctx)
}

func (s *ThreadSafe) Read(ctx context.Context, address uint64, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Read(ctx, address, buf)
}

func (s *ThreadSafe) Write(ctx context.Context, address uint64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.Write(ctx, address, data)
}

func (s *ThreadSafe) ReadManifest(ctx context.Context) ([]*bootstrap.ManifestEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.ReadManifest(ctx)
}

func (s *ThreadSafe) ReadDeviceXML(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.ReadDeviceXML(ctx)
}

func (s *ThreadSafe) MaxCmdLen() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.MaxCmdLen()
}

func (s *ThreadSafe) MaxAckLen() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.h.MaxAckLen()
}
