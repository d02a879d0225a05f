// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// u3vmetrics drives an in-process emulated device through a small
// synthetic workload - including a deliberate concurrent collision to
// exercise the Busy counter - then exports the resulting control-module
// telemetry as Prometheus text exposition.
package main

import (
	"context"
	"flag"
	"log"
	"sync"
	"time"

	"github.com/bytesentinel/go-u3v-vision/pkg/bootstrap"
	"github.com/bytesentinel/go-u3v-vision/pkg/emulator"
	"github.com/bytesentinel/go-u3v-vision/pkg/host"
	"github.com/bytesentinel/go-u3v-vision/pkg/wire"
)

var deviceName = flag.String("device", "emu0", "Label applied to the device_id metric dimension")

func main() {
	flag.Parse()

	dev, err := emulator.NewDevice(emulator.DeviceConfig{
		ABRM: bootstrap.ABRMDefaults{
			ManufacturerName:          "ByteSentinel",
			ModelName:                 "U3V-EMU-1",
			SerialNumber:              *deviceName,
			MaximumDeviceResponseTime: 500,
		},
		SBRM: bootstrap.SBRMDefaults{
			MaximumCommandTransferLength:     256,
			MaximumAcknowledgeTransferLength: 256,
			NumberOfStreamChannels:           1,
		},
	})
	if err != nil {
		log.Fatalf("emulator.NewDevice: %v", err)
	}
	dev.Start()
	defer dev.Shutdown()

	ctx := context.Background()
	h := host.NewThreadSafe(host.New(dev.Transport, host.Config{}))
	if err := h.Open(ctx); err != nil {
		log.Fatalf("host.Open: %v", err)
	}

	// A handful of ordinary transactions.
	buf := make([]byte, 4)
	for i := 0; i < 5; i++ {
		if err := h.Read(ctx, 0, buf); err != nil {
			log.Fatalf("host.Read: %v", err)
		}
	}

	// Raw commands injected concurrently at the control endpoint, below
	// the host handle's per-transaction serialization, so losers of the
	// on_processing race collect Busy acks.
	const raced = 8
	var wg sync.WaitGroup
	for i := 0; i < raced; i++ {
		cmd := &wire.Command{
			Flag:      wire.FlagRequestAck,
			Kind:      wire.KindReadMem,
			RequestID: uint16(i + 100),
			SCD:       wire.EncodeReadMem(0, 4),
		}
		raw, err := cmd.MarshalBinary()
		if err != nil {
			log.Fatalf("Command.MarshalBinary: %v", err)
		}
		wg.Add(1)
		go func(buf []byte) {
			defer wg.Done()
			dev.Module.ReceiveData(buf)
		}(raw)
	}
	wg.Wait()

	// Draining the raced acks guarantees every worker has finished before
	// the stats snapshot is taken.
	drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	for i := 0; i < raced; i++ {
		if _, err := dev.Transport.Recv(drainCtx); err != nil {
			log.Fatalf("drain raced acks: %v", err)
		}
	}

	outputMetrics(*deviceName, dev.Module.Stats())
}
