// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// InProcessTransport implements host.BulkTransport directly over a
// device.Module's channels, skipping any real USB transport entirely.

package emulator

import (
	"context"
	"fmt"

	"github.com/bytesentinel/go-u3v-vision/pkg/device"
)

// InProcessTransport is host.BulkTransport backed by a running device.Module.
type InProcessTransport struct {
	mod *device.Module
}

// NewInProcessTransport wraps mod, whose Run loop must be started on its
// own goroutine (see Device.Start) before Send or Recv is called.
func NewInProcessTransport(mod *device.Module) *InProcessTransport {
	return &InProcessTransport{mod: mod}
}

// Send hands buf to the device's control endpoint as a single command.
func (t *InProcessTransport) Send(ctx context.Context, buf []byte) error {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	t.mod.ReceiveData(cp)
	return nil
}

// Recv waits for the device's next outbound ack, or ctx's deadline.
func (t *InProcessTransport) Recv(ctx context.Context) ([]byte, error) {
	select {
	case raw, ok := <-t.mod.Acks():
		if !ok {
			return nil, fmt.Errorf("emulator: device control endpoint closed")
		}
		return raw, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ClearHalt clears the device's control endpoint halt state.
func (t *InProcessTransport) ClearHalt(ctx context.Context) error {
	t.mod.ClearHalt(device.EndpointControl)
	return nil
}
