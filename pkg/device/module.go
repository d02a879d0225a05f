// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Module is the device-side control endpoint: a single main loop that
// accepts command bytes off the control bulk pipe, dispatches each to its
// own worker goroutine (at most one in flight at a time), and drains
// acks back out through a bounded queue.

package device

import (
	"sync"
	"sync/atomic"

	"github.com/bytesentinel/go-u3v-vision/pkg/memory"
	"github.com/bytesentinel/go-u3v-vision/pkg/regmap"
)

// Endpoint names one of the three bulk pipes a GenCP device exposes.
type Endpoint int

const (
	EndpointControl Endpoint = iota
	EndpointEvent
	EndpointStream
)

type signalKind int

const (
	sigReceiveData signalKind = iota
	sigSetHalt
	sigClearHalt
	sigShutdown
)

type signal struct {
	kind     signalKind
	data     []byte
	endpoint Endpoint
}

// latchOutcome records the result of the most recent TimestampLatch write,
// set by the observer and read back by the dispatcher immediately after
// the triggering WriteRaw call returns. Safe without its own lock: the
// on_processing gate guarantees only one goroutine is ever inside a
// dispatch critical section at a time, and the observer fires synchronously
// on that same goroutine's call stack.
type latchOutcome struct {
	fired bool
	valid bool
}

// Clock supplies the device's current timestamp, in the units the
// Timestamp register stores. Injectable so tests can control it.
type Clock func() uint64

// Config carries the values a Module needs that are negotiated or stamped
// into the boot register maps rather than hardcoded here.
type Config struct {
	MaxCmdLen    uint32
	MaxAckLen    uint32
	AckQueueSize int32
	Clock        Clock
}

// Module is safe for concurrent use once Run has been started.
type Module struct {
	mem *memory.Memory

	timestampDesc      *regmap.Descriptor
	timestampLatchDesc *regmap.Descriptor
	clock              Clock

	maxCmdLen uint32
	maxAckLen uint32

	onProcessing  atomic.Bool
	haltedControl atomic.Bool
	haltedEvent   atomic.Bool
	haltedStream  atomic.Bool

	inbound  chan signal
	outbound *ackQueue
	eventCh  chan uint64 // UpdateTimestamp(ns) notifications to the event module
	done     chan struct{}

	wg sync.WaitGroup

	latch latchOutcome

	processed atomic.Uint64
	busy      atomic.Uint64
}

// Stats is a point-in-time snapshot of a Module's telemetry counters,
// exposed for cmd/u3vmetrics' Prometheus exposition.
type Stats struct {
	CommandsProcessed uint64
	BusyCollisions    uint64
	HaltedControl     bool
	HaltedEvent       bool
	HaltedStream      bool
}

// Stats returns a snapshot of the module's running counters and halt
// state. Safe to call from any goroutine, including while Run is active.
func (m *Module) Stats() Stats {
	return Stats{
		CommandsProcessed: m.processed.Load(),
		BusyCollisions:    m.busy.Load(),
		HaltedControl:     m.haltedControl.Load(),
		HaltedEvent:       m.haltedEvent.Load(),
		HaltedStream:      m.haltedStream.Load(),
	}
}

// New builds a Module wired to mem's ABRM-declared Timestamp and
// TimestampLatch registers, and registers the observer that implements the
// TimestampLatch-write side effect.
func New(mem *memory.Memory, tbl *regmap.Table, cfg Config) *Module {
	if cfg.AckQueueSize <= 0 {
		cfg.AckQueueSize = 32
	}
	if cfg.Clock == nil {
		cfg.Clock = func() uint64 { return 0 }
	}

	m := &Module{
		mem:                mem,
		timestampDesc:      tbl.MustLookup("Timestamp"),
		timestampLatchDesc: tbl.MustLookup("TimestampLatch"),
		clock:              cfg.Clock,
		maxCmdLen:          cfg.MaxCmdLen,
		maxAckLen:          cfg.MaxAckLen,
		inbound:            make(chan signal, 256),
		outbound:           newAckQueue(cfg.AckQueueSize),
		eventCh:            make(chan uint64, 32),
		done:               make(chan struct{}),
	}

	latchDesc, tsDesc, clock := m.timestampLatchDesc, m.timestampDesc, m.clock
	mem.RegisterObserver(latchDesc.Offset, latchDesc.Length, func(offset uint64, old, new []byte) {
		v := regmap.ParseUint(new, latchDesc.Endian)
		if v != 1 {
			m.latch = latchOutcome{fired: true, valid: false}
			return
		}
		now := clock()
		ts, err := regmap.SerializeUint(now, int(tsDesc.Length), tsDesc.Endian)
		if err != nil {
			m.latch = latchOutcome{fired: true, valid: false}
			return
		}
		if err := mem.WriteRawUnchecked(tsDesc.Offset, ts); err != nil {
			m.latch = latchOutcome{fired: true, valid: false}
			return
		}
		m.latch = latchOutcome{fired: true, valid: true}
		select {
		case m.eventCh <- now:
		default:
		}
	})

	return m
}

// Run consumes signals until Shutdown, spawning one worker goroutine per
// ReceiveData and joining all in-flight workers before honoring a halt or
// shutdown request. Run returns once shutdown has drained.
func (m *Module) Run() {
	for sig := range m.inbound {
		switch sig.kind {
		case sigReceiveData:
			m.wg.Add(1)
			go func(buf []byte) {
				defer m.wg.Done()
				m.processCommand(buf)
			}(sig.data)

		case sigSetHalt:
			m.wg.Wait()
			m.setHalted(sig.endpoint, true)

		case sigClearHalt:
			m.wg.Wait()
			m.setHalted(sig.endpoint, false)

		case sigShutdown:
			m.wg.Wait()
			m.outbound.close()
			close(m.eventCh)
			close(m.done)
			return
		}
	}
}

func (m *Module) setHalted(ep Endpoint, halted bool) {
	switch ep {
	case EndpointControl:
		m.haltedControl.Store(halted)
	case EndpointEvent:
		m.haltedEvent.Store(halted)
	case EndpointStream:
		m.haltedStream.Store(halted)
	}
}

func (m *Module) isHalted(ep Endpoint) bool {
	switch ep {
	case EndpointControl:
		return m.haltedControl.Load()
	case EndpointEvent:
		return m.haltedEvent.Load()
	case EndpointStream:
		return m.haltedStream.Load()
	default:
		return false
	}
}

// ReceiveData hands a raw command buffer to the main loop. It blocks only
// if the inbound queue is saturated, which signals a host badly out of
// step with the negotiated transfer limits.
func (m *Module) ReceiveData(buf []byte) {
	m.inbound <- signal{kind: sigReceiveData, data: buf}
}

// SetHalt halts ep after every in-flight worker has drained.
func (m *Module) SetHalt(ep Endpoint) {
	m.inbound <- signal{kind: sigSetHalt, endpoint: ep}
}

// ClearHalt clears ep's halt state after every in-flight worker has drained.
func (m *Module) ClearHalt(ep Endpoint) {
	m.inbound <- signal{kind: sigClearHalt, endpoint: ep}
}

// Shutdown stops the main loop once in-flight workers finish, closing the
// outbound ack queue and the sibling-notification channel so a consuming
// event module sees end-of-stream.
func (m *Module) Shutdown() {
	m.inbound <- signal{kind: sigShutdown}
	<-m.done
}

// Acks exposes the outbound ack queue for the transport layer to drain.
func (m *Module) Acks() <-chan []byte { return m.outbound.ch }

// TimestampUpdates carries the latched nanosecond value whenever a
// TimestampLatch write of 1 commits, for the sibling event module to
// forward as an UpdateTimestamp event.
func (m *Module) TimestampUpdates() <-chan uint64 { return m.eventCh }
