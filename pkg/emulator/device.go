// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package emulator assembles a complete in-process GenCP device: an ABRM,
// an SBRM layered at the address the ABRM declares, a manifest table, and
// a GenApi XML blob, all sharing one flat memory.Memory and wired to a
// device.Module - paired with an in-process host.BulkTransport so a
// pkg/host.Handle can exercise a full bootstrap-and-transact cycle without
// any real USB hardware underneath.
package emulator

import (
	"crypto/sha1"
	"fmt"

	"github.com/bytesentinel/go-u3v-vision/pkg/bootstrap"
	"github.com/bytesentinel/go-u3v-vision/pkg/device"
	"github.com/bytesentinel/go-u3v-vision/pkg/memory"
	"github.com/bytesentinel/go-u3v-vision/pkg/regmap"
)

// DeviceConfig describes the device identity and capability fields an
// emulated device stamps into its boot register maps, plus the GenApi XML
// text it publishes through its manifest table.
type DeviceConfig struct {
	ABRM bootstrap.ABRMDefaults
	SBRM bootstrap.SBRMDefaults

	// XML is the GenApi XML document text the device publishes as its
	// sole DeviceXml manifest entry, stored uncompressed with a verified
	// SHA-1.
	XML string

	Clock        device.Clock
	AckQueueSize int32
}

// Device is a fully assembled in-process GenCP device: its combined
// address space and the control Module running over it.
type Device struct {
	Module    *device.Module
	Mem       *memory.Memory
	Transport *InProcessTransport

	ABRM *regmap.Table
	SBRM *regmap.Table
}

// NewDevice lays out cfg's register maps and manifest/XML regions into one
// memory.Memory, in the order ABRM, SBRM, manifest table, XML blob, and
// constructs the device.Module that will serve them. Any zero SBRMAddress
// or ManifestTableAddress in cfg.ABRM is assigned immediately following the
// preceding region.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	if cfg.ABRM.SBRMAddress == 0 {
		cfg.ABRM.SBRMAddress = uint64(bootstrap.ABRMSize)
	}
	if cfg.ABRM.ManifestTableAddress == 0 {
		cfg.ABRM.ManifestTableAddress = cfg.ABRM.SBRMAddress + uint64(bootstrap.SBRMSize)
	}

	abrm, err := bootstrap.BuildABRM(cfg.ABRM)
	if err != nil {
		return nil, fmt.Errorf("emulator: build abrm: %w", err)
	}
	sbrm, err := bootstrap.BuildSBRM(cfg.SBRM)
	if err != nil {
		return nil, fmt.Errorf("emulator: build sbrm: %w", err)
	}

	xml := []byte(cfg.XML)
	sum := sha1.Sum(xml)
	fileAddr := cfg.ABRM.ManifestTableAddress + 8 + bootstrap.ManifestEntrySize
	entry := &bootstrap.ManifestEntry{
		FileType:      bootstrap.FileTypeDeviceXml,
		Compression:   bootstrap.CompressionNone,
		SchemaVersion: 1,
		FileAddress:   fileAddr,
		FileSize:      uint64(len(xml)),
		SHA1:          sum,
	}
	manifestBytes := bootstrap.SerializeManifestTable([]*bootstrap.ManifestEntry{entry})

	mem := memory.New(fileAddr + uint64(len(xml)))
	if err := mem.LoadTable(0, abrm); err != nil {
		return nil, fmt.Errorf("emulator: load abrm: %w", err)
	}
	if err := mem.LoadTable(cfg.ABRM.SBRMAddress, sbrm); err != nil {
		return nil, fmt.Errorf("emulator: load sbrm: %w", err)
	}
	if err := mem.SetAccessRight(cfg.ABRM.ManifestTableAddress, uint64(len(manifestBytes)), regmap.RO); err != nil {
		return nil, fmt.Errorf("emulator: protect manifest table: %w", err)
	}
	if err := mem.WriteRawUnchecked(cfg.ABRM.ManifestTableAddress, manifestBytes); err != nil {
		return nil, fmt.Errorf("emulator: seed manifest table: %w", err)
	}
	if len(xml) > 0 {
		if err := mem.SetAccessRight(fileAddr, uint64(len(xml)), regmap.RO); err != nil {
			return nil, fmt.Errorf("emulator: protect xml blob: %w", err)
		}
		if err := mem.WriteRawUnchecked(fileAddr, xml); err != nil {
			return nil, fmt.Errorf("emulator: seed xml blob: %w", err)
		}
	}

	mod := device.New(mem, abrm, device.Config{
		MaxCmdLen:    cfg.SBRM.MaximumCommandTransferLength,
		MaxAckLen:    cfg.SBRM.MaximumAcknowledgeTransferLength,
		AckQueueSize: cfg.AckQueueSize,
		Clock:        cfg.Clock,
	})

	return &Device{
		Module:    mod,
		Mem:       mem,
		Transport: NewInProcessTransport(mod),
		ABRM:      abrm,
		SBRM:      sbrm,
	}, nil
}

// Start runs the device's main loop on a new goroutine. Call Shutdown to
// stop it.
func (d *Device) Start() {
	go d.Module.Run()
}

// Shutdown stops the device's main loop, waiting for any in-flight command
// to finish first.
func (d *Device) Shutdown() {
	d.Module.Shutdown()
}
