// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// sendCmd is the single-transaction engine: request-id sequencing, the
// Pending-ack backoff-and-retry loop, and ack validation.

package host

import (
	"context"
	"fmt"
	"time"

	"github.com/bytesentinel/go-u3v-vision/pkg/wire"
)

// sendCmd issues one command and returns its terminal (non-Pending) ack.
// Transport failures and framing mismatches fail ErrIO; a Pending-ack loop
// that outlives the configured retry budget fails ErrRetryExhausted. The
// request id is held constant across every Pending iteration of the same
// transaction and only advances once a terminal ack is returned.
func (h *Handle) sendCmd(ctx context.Context, kind wire.SCDKind, scd []byte) (*wire.Ack, error) {
	id := h.requestID
	cmd := &wire.Command{Flag: wire.FlagRequestAck, Kind: kind, RequestID: id, SCD: scd}
	raw, err := cmd.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: marshal command: %v", ErrIO, err)
	}

	sctx, cancel := context.WithTimeout(ctx, h.timeout)
	err = h.t.Send(sctx, raw)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: send: %v", ErrIO, err)
	}

	retriesRemaining := h.cfg.RetryBudget
	for {
		rctx, cancel := context.WithTimeout(ctx, h.timeout)
		ackRaw, err := h.t.Recv(rctx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: recv: %v", ErrIO, err)
		}

		ack, err := wire.ParseAck(ackRaw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		if ack.RequestID != id {
			return nil, fmt.Errorf("%w: request id mismatch: got %d want %d", ErrIO, ack.RequestID, id)
		}

		if ack.Kind != wire.KindPendingAck {
			h.requestID++
			return ack, nil
		}

		timeoutMs, err := wire.DecodePendingAck(ack.SCD)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		time.Sleep(time.Duration(timeoutMs) * time.Millisecond)
		if retriesRemaining <= 0 {
			return nil, ErrRetryExhausted
		}
		retriesRemaining--
	}
}
