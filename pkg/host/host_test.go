// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bytesentinel/go-u3v-vision/pkg/wire"
)

// fakeTransport is a BulkTransport double driven entirely by a scripted
// list of ack bytes returned in order, one per Recv call, regardless of
// what Send was given. It exists to exercise the retry/backoff and
// chunking logic in isolation from a real device.Module.
type fakeTransport struct {
	mu             sync.Mutex
	acks           [][]byte
	sent           [][]byte
	clearHaltCalls int
}

func (f *fakeTransport) Send(ctx context.Context, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.sent = append(f.sent, cp)
	return nil
}

func (f *fakeTransport) Recv(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.acks) == 0 {
		return nil, errors.New("fakeTransport: no scripted ack left")
	}
	next := f.acks[0]
	f.acks = f.acks[1:]
	return next, nil
}

func (f *fakeTransport) ClearHalt(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearHaltCalls++
	return nil
}

func pendingAck(requestID uint16, timeoutMs uint16) []byte {
	a := &wire.Ack{Status: wire.StatusSuccess, Kind: wire.KindPendingAck, RequestID: requestID, SCD: wire.EncodePendingAck(timeoutMs)}
	raw, _ := a.MarshalBinary()
	return raw
}

func successReadAck(requestID uint16, data []byte) []byte {
	a := &wire.Ack{Status: wire.StatusSuccess, Kind: wire.KindReadMemAck, RequestID: requestID, SCD: data}
	raw, _ := a.MarshalBinary()
	return raw
}

func successWriteAck(requestID uint16, n uint16) []byte {
	a := &wire.Ack{Status: wire.StatusSuccess, Kind: wire.KindWriteMemAck, RequestID: requestID, SCD: wire.EncodeWriteMemAck(n)}
	raw, _ := a.MarshalBinary()
	return raw
}

func TestSendCmdRetryExhaustedAfterBudget(t *testing.T) {
	ft := &fakeTransport{acks: [][]byte{
		pendingAck(0, 1),
		pendingAck(0, 1),
		pendingAck(0, 1),
	}}
	h := New(ft, Config{RetryBudget: 2, BootstrapTimeout: time.Second})

	start := time.Now()
	_, err := h.sendCmd(context.Background(), wire.KindReadMem, wire.EncodeReadMem(0, 4))
	elapsed := time.Since(start)

	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("sendCmd() error = %v; want ErrRetryExhausted", err)
	}
	if elapsed < 3*time.Millisecond {
		t.Errorf("elapsed = %v; want >= 3ms (one sleep per Pending ack)", elapsed)
	}
	if h.requestID != 0 {
		t.Errorf("requestID advanced to %d after exhaustion; want unchanged at 0", h.requestID)
	}
}

func TestSendCmdSucceedsAfterPending(t *testing.T) {
	ft := &fakeTransport{acks: [][]byte{
		pendingAck(0, 1),
		successReadAck(0, []byte{1, 2, 3, 4}),
	}}
	h := New(ft, Config{RetryBudget: 2, BootstrapTimeout: time.Second})

	ack, err := h.sendCmd(context.Background(), wire.KindReadMem, wire.EncodeReadMem(0, 4))
	if err != nil {
		t.Fatalf("sendCmd() error = %v", err)
	}
	if ack.Kind != wire.KindReadMemAck {
		t.Errorf("ack.Kind = %v; want KindReadMemAck", ack.Kind)
	}
	if h.requestID != 1 {
		t.Errorf("requestID = %d; want 1 after a terminal ack", h.requestID)
	}
}

func TestSendCmdRequestIDMismatchIsIOError(t *testing.T) {
	ft := &fakeTransport{acks: [][]byte{successReadAck(99, []byte{0, 0, 0, 0})}}
	h := New(ft, Config{BootstrapTimeout: time.Second})

	_, err := h.sendCmd(context.Background(), wire.KindReadMem, wire.EncodeReadMem(0, 4))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("sendCmd() error = %v; want ErrIO", err)
	}
}

func TestReadChunksAcrossMaxAckLen(t *testing.T) {
	ft := &fakeTransport{acks: [][]byte{
		successReadAck(0, []byte{1, 2}),
		successReadAck(1, []byte{3, 4}),
		successReadAck(2, []byte{5}),
	}}
	h := New(ft, Config{BootstrapTimeout: time.Second})
	h.maxAckLen = 2 + 12 // header + 2 data bytes per chunk

	buf := make([]byte, 5)
	if err := h.Read(context.Background(), 0x1000, buf); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := []byte{1, 2, 3, 4, 5}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("buf[%d] = %d; want %d", i, buf[i], want[i])
		}
	}
	if len(ft.sent) != 3 {
		t.Fatalf("len(sent) = %d; want 3 chunked commands", len(ft.sent))
	}
}

func TestWriteChunksAcrossMaxCmdLen(t *testing.T) {
	ft := &fakeTransport{acks: [][]byte{
		successWriteAck(0, 2),
		successWriteAck(1, 2),
		successWriteAck(2, 1),
	}}
	h := New(ft, Config{BootstrapTimeout: time.Second})
	h.maxCmdLen = 2 + 8 + 12 // header + address + 2 data bytes per chunk

	if err := h.Write(context.Background(), 0x2000, []byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(ft.sent) != 3 {
		t.Fatalf("len(sent) = %d; want 3 chunked commands", len(ft.sent))
	}
}

func TestReadHonorsMaxReadChunkCap(t *testing.T) {
	ft := &fakeTransport{acks: [][]byte{
		successReadAck(0, []byte{1, 2}),
		successReadAck(1, []byte{3, 4}),
		successReadAck(2, []byte{5}),
	}}
	h := New(ft, Config{BootstrapTimeout: time.Second, MaxReadChunk: 2 + 12})
	// The device's negotiated limit would allow the read in one chunk; the
	// configured cap forces three.

	buf := make([]byte, 5)
	if err := h.Read(context.Background(), 0x1000, buf); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(ft.sent) != 3 {
		t.Fatalf("len(sent) = %d; want 3 capped chunks", len(ft.sent))
	}
}

func TestWriteHonorsMaxWriteChunkCap(t *testing.T) {
	ft := &fakeTransport{acks: [][]byte{
		successWriteAck(0, 2),
		successWriteAck(1, 2),
		successWriteAck(2, 1),
	}}
	h := New(ft, Config{BootstrapTimeout: time.Second, MaxWriteChunk: 2 + 8 + 12})

	if err := h.Write(context.Background(), 0x2000, []byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(ft.sent) != 3 {
		t.Fatalf("len(sent) = %d; want 3 capped chunks", len(ft.sent))
	}
}

func TestUnzipSingleFile(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("genapi.xml")
	if err != nil {
		t.Fatalf("zip.Create() error = %v", err)
	}
	const xml = "<GenApiXml><Device>Zipped</Device></GenApiXml>"
	if _, err := f.Write([]byte(xml)); err != nil {
		t.Fatalf("zip write error = %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip.Close() error = %v", err)
	}

	got, err := unzipSingleFile(buf.Bytes())
	if err != nil {
		t.Fatalf("unzipSingleFile() error = %v", err)
	}
	if got != xml {
		t.Errorf("unzipSingleFile() = %q; want %q", got, xml)
	}
}

func TestUnzipSingleFileRejectsGarbage(t *testing.T) {
	if _, err := unzipSingleFile([]byte("not a zip archive")); !errors.Is(err, ErrInvalidData) {
		t.Errorf("unzipSingleFile() error = %v; want ErrInvalidData", err)
	}
}

func TestWriteRejectsLengthMismatch(t *testing.T) {
	ft := &fakeTransport{acks: [][]byte{successWriteAck(0, 3)}}
	h := New(ft, Config{BootstrapTimeout: time.Second})

	err := h.Write(context.Background(), 0x2000, []byte{1, 2, 3, 4})
	if !errors.Is(err, ErrIO) {
		t.Fatalf("Write() error = %v; want ErrIO on length_written mismatch", err)
	}
}
