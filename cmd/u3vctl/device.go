// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/bytesentinel/go-u3v-vision/pkg/bootstrap"
	"github.com/bytesentinel/go-u3v-vision/pkg/emulator"
	"github.com/bytesentinel/go-u3v-vision/pkg/host"
	"github.com/bytesentinel/go-u3v-vision/pkg/hostconfig"
)

// identityFlags are the ABRM identity fields every subcommand accepts, so
// a user can point u3vctl at a differently-named emulated device without
// editing the binary. The device these flags describe is always the
// in-process emulator; a real USB backend would slot in behind the same
// host.BulkTransport interface.
type identityFlags struct {
	Manufacturer string `optional:"" default:"ByteSentinel" help:"ABRM ManufacturerName"`
	Model        string `optional:"" default:"U3V-EMU-1"    help:"ABRM ModelName"`
	Serial       string `optional:"" default:"EMU0001"      help:"ABRM SerialNumber"`
	Config       string `optional:"" type:"accessiblefile" help:"Path to an optional TOML file of host-handle defaults"`
}

// openDevice spins up a fresh in-process emulated device and opens a host
// handle against it, performing the full bootstrap handshake. Every
// subcommand gets its own device: there is no way to address a
// previously-"served" one without a real transport underneath.
func (f *identityFlags) openDevice(ctx context.Context) (*emulator.Device, *host.Handle, error) {
	dev, err := emulator.NewDevice(emulator.DeviceConfig{
		ABRM: bootstrap.ABRMDefaults{
			GenCpVersion:              0x00010000,
			ManufacturerName:          f.Manufacturer,
			ModelName:                 f.Model,
			SerialNumber:              f.Serial,
			MaximumDeviceResponseTime: 500,
		},
		SBRM: bootstrap.SBRMDefaults{
			U3VVersion:                       0x00010000,
			MaximumCommandTransferLength:     256,
			MaximumAcknowledgeTransferLength: 256,
			NumberOfStreamChannels:           1,
		},
		XML: demoGenApiXML,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build emulated device: %w", err)
	}
	dev.Start()

	var hcfg host.Config
	if f.Config != "" {
		cfg, err := hostconfig.Load(f.Config)
		if err != nil {
			dev.Shutdown()
			return nil, nil, err
		}
		hcfg = cfg.HandleConfig()
	}

	h := host.New(dev.Transport, hcfg)
	if err := h.Open(ctx); err != nil {
		dev.Shutdown()
		return nil, nil, fmt.Errorf("open control channel: %w", err)
	}
	return dev, h, nil
}

// demoGenApiXML is the GenApi XML text u3vctl's emulated device publishes
// through its manifest table's sole DeviceXml entry.
const demoGenApiXML = `<?xml version="1.0" encoding="UTF-8"?>
<RegisterDescription ModelName="U3V-EMU-1" VendorName="ByteSentinel" StandardNameSpace="None" SchemaMajorVersion="1" SchemaMinorVersion="1" MajorVersion="1" MinorVersion="0">
</RegisterDescription>
`
