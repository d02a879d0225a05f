// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

// ackQueue is a bounded, non-blocking outbound ack channel: safe with many
// concurrent senders (command workers) and one receiver (the transport
// drain loop). send reports false instead of blocking once the queue is
// full, so a stalled receiver turns into dropped acks rather than stuck
// workers.
type ackQueue struct {
	ch chan []byte
}

func newAckQueue(capacity int32) *ackQueue {
	return &ackQueue{ch: make(chan []byte, capacity)}
}

// send enqueues data unless the queue is full. Never called concurrently
// with close: workers are joined before shutdown closes the queue.
func (q *ackQueue) send(data []byte) bool {
	select {
	case q.ch <- data:
		return true
	default:
		return false
	}
}

func (q *ackQueue) close() {
	close(q.ch)
}
