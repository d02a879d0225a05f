// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Handle is the host-side control channel: the transaction engine plus the
// bootstrap handshake that discovers a device's response timeout and
// negotiated transfer limits.

package host

import (
	"context"
	"fmt"
	"time"

	"github.com/bytesentinel/go-u3v-vision/pkg/bootstrap"
	"github.com/bytesentinel/go-u3v-vision/pkg/regmap"
	"github.com/bytesentinel/go-u3v-vision/pkg/wire"
)

// Initial communication assumptions used for the bootstrap reads
// themselves, before the real max_cmd_len/max_ack_len are known.
const (
	DefaultBootstrapMaxAckLen uint32 = 1024
	DefaultBootstrapMaxCmdLen uint32 = 1024
	DefaultBootstrapTimeout          = 500 * time.Millisecond
	DefaultRetryBudget               = 3
)

// Config carries Handle construction options not discovered by bootstrap.
type Config struct {
	// RetryBudget bounds the number of additional Pending-ack waits per
	// transaction. Zero selects DefaultRetryBudget.
	RetryBudget int

	// BootstrapTimeout bounds the handshake reads themselves, before
	// MaximumDeviceResponseTime is known. Zero selects DefaultBootstrapTimeout.
	BootstrapTimeout time.Duration

	// MaxReadChunk caps the per-chunk ack size Read plans against, below
	// whatever max_ack_len the device negotiates. Zero means no cap. Useful
	// against emulated devices that advertise limits larger than they can
	// comfortably serve.
	MaxReadChunk uint32

	// MaxWriteChunk caps the per-chunk command size Write plans against,
	// below the negotiated max_cmd_len. Zero means no cap.
	MaxWriteChunk uint32
}

// Handle is a host-side control channel transaction engine. It is not safe
// for concurrent use by multiple goroutines; wrap with NewThreadSafe for
// multi-user access.
type Handle struct {
	t   BulkTransport
	cfg Config

	timeout   time.Duration
	maxCmdLen uint32
	maxAckLen uint32
	requestID uint16

	abrm *regmap.Table
	sbrm *regmap.Table
}

// New constructs a Handle over t. Call Open before issuing any other
// transaction.
func New(t BulkTransport, cfg Config) *Handle {
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = DefaultRetryBudget
	}
	if cfg.BootstrapTimeout <= 0 {
		cfg.BootstrapTimeout = DefaultBootstrapTimeout
	}
	return &Handle{
		t:         t,
		cfg:       cfg,
		timeout:   cfg.BootstrapTimeout,
		maxCmdLen: DefaultBootstrapMaxCmdLen,
		maxAckLen: DefaultBootstrapMaxAckLen,
	}
}

// MaxCmdLen and MaxAckLen expose the negotiated transfer limits, valid
// after Open.
func (h *Handle) MaxCmdLen() uint32 { return h.maxCmdLen }
func (h *Handle) MaxAckLen() uint32 { return h.maxAckLen }

// Timeout exposes the negotiated per-transaction timeout, valid after Open.
func (h *Handle) Timeout() time.Duration { return h.timeout }

// Open clears any halted control endpoint state and performs the bootstrap
// handshake: MaximumDeviceResponseTime from ABRM sets the transaction
// timeout, then SBRMAddress locates the SBRM from which
// MaximumCommandTransferLength/MaximumAcknowledgeTransferLength are read.
func (h *Handle) Open(ctx context.Context) error {
	if err := h.t.ClearHalt(ctx); err != nil {
		return fmt.Errorf("host: clear halt: %w", err)
	}

	abrm, err := bootstrap.BuildABRM(bootstrap.ABRMDefaults{})
	if err != nil {
		return fmt.Errorf("host: build abrm layout: %w", err)
	}
	h.abrm = abrm

	respTime := abrm.MustLookup(bootstrap.RegMaximumDeviceResponseTime)
	raw, err := h.readBootstrap(ctx, respTime.Offset, respTime.Length)
	if err != nil {
		return fmt.Errorf("host: read MaximumDeviceResponseTime: %w", err)
	}
	ms := regmap.ParseUint(raw, respTime.Endian)
	if ms > 0 {
		h.timeout = time.Duration(ms) * time.Millisecond
	}

	sbrmAddrDesc := abrm.MustLookup(bootstrap.RegSBRMAddress)
	raw, err = h.readBootstrap(ctx, sbrmAddrDesc.Offset, sbrmAddrDesc.Length)
	if err != nil {
		return fmt.Errorf("host: read SBRMAddress: %w", err)
	}
	sbrmAddr := regmap.ParseUint(raw, sbrmAddrDesc.Endian)

	sbrm, err := bootstrap.BuildSBRM(bootstrap.SBRMDefaults{})
	if err != nil {
		return fmt.Errorf("host: build sbrm layout: %w", err)
	}
	h.sbrm = sbrm

	cmdLenDesc := sbrm.MustLookup(bootstrap.RegMaximumCommandTransferLength)
	raw, err = h.readBootstrap(ctx, sbrmAddr+cmdLenDesc.Offset, cmdLenDesc.Length)
	if err != nil {
		return fmt.Errorf("host: read MaximumCommandTransferLength: %w", err)
	}
	h.maxCmdLen = uint32(regmap.ParseUint(raw, cmdLenDesc.Endian))

	ackLenDesc := sbrm.MustLookup(bootstrap.RegMaximumAcknowledgeTransferLength)
	raw, err = h.readBootstrap(ctx, sbrmAddr+ackLenDesc.Offset, ackLenDesc.Length)
	if err != nil {
		return fmt.Errorf("host: read MaximumAcknowledgeTransferLength: %w", err)
	}
	h.maxAckLen = uint32(regmap.ParseUint(raw, ackLenDesc.Endian))

	return nil
}

// ABRM returns the register table describing the device's boot register
// map, valid after Open. Exposed so callers can resolve well-known
// register offsets (e.g. TimestampLatch) without re-declaring the layout.
func (h *Handle) ABRM() *regmap.Table { return h.abrm }

// SBRM returns the register table describing the device's technology-
// specific boot register map, valid after Open.
func (h *Handle) SBRM() *regmap.Table { return h.sbrm }

// SBRMAddress returns the SBRM base address discovered during Open.
func (h *Handle) SBRMAddress(ctx context.Context) (uint64, error) {
	desc := h.abrm.MustLookup(bootstrap.RegSBRMAddress)
	raw, err := h.readBootstrap(ctx, desc.Offset, desc.Length)
	if err != nil {
		return 0, err
	}
	return regmap.ParseUint(raw, desc.Endian), nil
}

// readBootstrap issues a single unchunked ReadMem for a small boot register,
// used by Open before the real max_ack_len is known and by SBRMAddress.
func (h *Handle) readBootstrap(ctx context.Context, address, length uint64) ([]byte, error) {
	ack, err := h.sendCmd(ctx, wire.KindReadMem, wire.EncodeReadMem(address, uint16(length)))
	if err != nil {
		return nil, err
	}
	if err := statusErr(ack); err != nil {
		return nil, err
	}
	if uint64(len(ack.SCD)) != length {
		return nil, fmt.Errorf("%w: short read during bootstrap", ErrInvalidData)
	}
	return ack.SCD, nil
}
