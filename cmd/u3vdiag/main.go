// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// u3vdiag spins up an in-process emulated U3V device, drives it through a
// bootstrap handshake and a handful of representative transactions, and
// dumps the decoded results.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/davecgh/go-spew/spew"

	"github.com/bytesentinel/go-u3v-vision/pkg/bootstrap"
	"github.com/bytesentinel/go-u3v-vision/pkg/emulator"
	"github.com/bytesentinel/go-u3v-vision/pkg/host"
	"github.com/bytesentinel/go-u3v-vision/pkg/regmap"
	"github.com/bytesentinel/go-u3v-vision/pkg/wire"
)

var manufacturer = flag.String("manufacturer", "ByteSentinel", "ABRM ManufacturerName stamped into the emulated device")

func main() {
	spew.Config.Indent = "  "
	flag.Parse()

	dev, err := emulator.NewDevice(emulator.DeviceConfig{
		ABRM: bootstrap.ABRMDefaults{
			GenCpVersion:              0x00010000,
			ManufacturerName:          *manufacturer,
			ModelName:                 "U3V-DIAG-1",
			SerialNumber:              "DIAG0001",
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

	fmt.Printf("===> ABRM REGISTER SNAPSHOT\n")
	dumpTable(dev.ABRM)
	fmt.Printf("\n")

	fmt.Printf("===> SBRM REGISTER SNAPSHOT\n")
	dumpTable(dev.SBRM)
	fmt.Printf("\n")

	ctx := context.Background()
	h := host.New(dev.Transport, host.Config{})
	if err := h.Open(ctx); err != nil {
		log.Fatalf("host.Open: %v", err)
	}

	fmt.Printf("===> BOOTSTRAP HANDSHAKE\n")
	spew.Dump(struct {
		Timeout   interface{}
		MaxCmdLen uint32
		MaxAckLen uint32
	}{h.Timeout(), h.MaxCmdLen(), h.MaxAckLen()})
	fmt.Printf("\n")

	fmt.Printf("===> DECODED READMEM COMMAND + ACK\n")
	cmd := &wire.Command{Flag: wire.FlagRequestAck, Kind: wire.KindReadMem, RequestID: 7, SCD: wire.EncodeReadMem(0, 16)}
	raw, err := cmd.MarshalBinary()
	if err != nil {
		log.Fatalf("Command.MarshalBinary: %v", err)
	}
	parsed, err := wire.ParseCommand(raw)
	if err != nil {
		log.Fatalf("wire.ParseCommand: %v", err)
	}
	spew.Dump(parsed)

	buf := make([]byte, 16)
	if err := h.Read(ctx, 0, buf); err != nil {
		log.Fatalf("host.Read: %v", err)
	}
	fmt.Printf("read 16 bytes from address 0: %x\n", buf)
}

func dumpTable(tbl *regmap.Table) {
	for _, d := range tbl.Registers() {
		fmt.Printf("  %-28s off=0x%04x len=%-3d access=%s kind=%d\n", d.Name, d.Offset, d.Length, d.Access, d.Kind)
	}
}
