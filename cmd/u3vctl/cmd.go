// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytesentinel/go-u3v-vision/pkg/bootstrap"
	"github.com/bytesentinel/go-u3v-vision/pkg/cmdutil"
	"github.com/bytesentinel/go-u3v-vision/pkg/regmap"
)

// cliContext is the kong run-context; empty, since all state lives on the
// command structs.
type cliContext struct{}

type discoverCmd struct {
	identityFlags
}

type readMemCmd struct {
	identityFlags
	Address uint64 `flag:"" required:"" help:"Byte address to read from"`
	Length  uint16 `flag:"" required:"" help:"Number of bytes to read"`
}

type writeMemCmd struct {
	identityFlags
	cmdutil.WriteGuard
	Address uint64 `flag:"" required:"" help:"Byte address to write to"`
	Data    string `flag:"" required:"" help:"Hex-encoded bytes to write"`
}

type latchCmd struct {
	identityFlags
}

type xmlCmd struct {
	identityFlags
}

type serveCmd struct {
	identityFlags
}

var cli struct {
	Discover discoverCmd `cmd:"" help:"Open a control channel and print the bootstrap handshake result"`
	ReadMem  readMemCmd  `cmd:"" help:"Read bytes from a device register address"`
	WriteMem writeMemCmd `cmd:"" help:"Write bytes to a device register address"`
	Latch    latchCmd    `cmd:"" help:"Write 1 to TimestampLatch and read back the latched Timestamp"`
	Xml      xmlCmd      `cmd:"" help:"Retrieve and print the device's GenApi XML manifest"`
	Serve    serveCmd    `cmd:"" help:"Run an emulated device until interrupted"`
}

func (c *discoverCmd) Run(ctx *cliContext) error {
	dev, h, err := c.openDevice(context.Background())
	if err != nil {
		return err
	}
	defer dev.Shutdown()

	fmt.Printf("response timeout:  %s\n", h.Timeout())
	fmt.Printf("max_cmd_len:       %d\n", h.MaxCmdLen())
	fmt.Printf("max_ack_len:       %d\n", h.MaxAckLen())
	sbrmAddr, err := h.SBRMAddress(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("sbrm address:      0x%x\n", sbrmAddr)
	return nil
}

func (c *readMemCmd) Run(ctx *cliContext) error {
	dev, h, err := c.openDevice(context.Background())
	if err != nil {
		return err
	}
	defer dev.Shutdown()

	buf := make([]byte, c.Length)
	if err := h.Read(context.Background(), c.Address, buf); err != nil {
		return fmt.Errorf("readmem: %w", err)
	}
	fmt.Println(hex.Dump(buf))
	return nil
}

func (c *writeMemCmd) Run(ctx *cliContext) error {
	if !c.Allow() {
		return fmt.Errorf("write not confirmed")
	}
	data, err := hex.DecodeString(c.Data)
	if err != nil {
		return fmt.Errorf("writemem: decode --data: %w", err)
	}

	dev, h, err := c.openDevice(context.Background())
	if err != nil {
		return err
	}
	defer dev.Shutdown()

	if err := h.Write(context.Background(), c.Address, data); err != nil {
		return fmt.Errorf("writemem: %w", err)
	}
	fmt.Printf("wrote %d bytes to 0x%x\n", len(data), c.Address)
	return nil
}

func (c *latchCmd) Run(ctx *cliContext) error {
	dev, h, err := c.openDevice(context.Background())
	if err != nil {
		return err
	}
	defer dev.Shutdown()

	abrm := h.ABRM()
	latchDesc := abrm.MustLookup(bootstrap.RegTimestampLatch)
	tsDesc := abrm.MustLookup(bootstrap.RegTimestamp)

	one, err := regmap.SerializeUint(1, int(latchDesc.Length), latchDesc.Endian)
	if err != nil {
		return err
	}
	if err := h.Write(context.Background(), latchDesc.Offset, one); err != nil {
		return fmt.Errorf("latch: %w", err)
	}

	raw := make([]byte, tsDesc.Length)
	if err := h.Read(context.Background(), tsDesc.Offset, raw); err != nil {
		return fmt.Errorf("latch: read back Timestamp: %w", err)
	}
	fmt.Printf("timestamp: %d\n", regmap.ParseUint(raw, tsDesc.Endian))
	return nil
}

func (c *xmlCmd) Run(ctx *cliContext) error {
	dev, h, err := c.openDevice(context.Background())
	if err != nil {
		return err
	}
	defer dev.Shutdown()

	xml, err := h.ReadDeviceXML(context.Background())
	if err != nil {
		return fmt.Errorf("xml: %w", err)
	}
	fmt.Println(xml)
	return nil
}

func (c *serveCmd) Run(ctx *cliContext) error {
	dev, h, err := c.openDevice(context.Background())
	if err != nil {
		return err
	}
	defer dev.Shutdown()

	fmt.Printf("emulated device %q (%q) serving; max_cmd_len=%d max_ack_len=%d\n",
		c.Model, c.Serial, h.MaxCmdLen(), h.MaxAckLen())
	fmt.Println("press Ctrl-C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fmt.Println("shutting down")
	return nil
}
