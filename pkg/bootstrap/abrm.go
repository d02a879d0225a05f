// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The Technology-Agnostic Boot Register Map (ABRM), the base register
// block every U3V device exposes at address 0.

package bootstrap

import "github.com/bytesentinel/go-u3v-vision/pkg/regmap"

// ABRM register names, usable with (*regmap.Table).MustLookup.
const (
	RegGenCpVersion              = "GenCpVersion"
	RegManufacturerName          = "ManufacturerName"
	RegModelName                 = "ModelName"
	RegFamilyName                = "FamilyName"
	RegDeviceVersion             = "DeviceVersion"
	RegManufacturerInfo          = "ManufacturerInfo"
	RegSerialNumber              = "SerialNumber"
	RegUserDefinedName           = "UserDefinedName"
	RegDeviceCapability          = "DeviceCapability"
	RegMaximumDeviceResponseTime = "MaximumDeviceResponseTime"
	RegManifestTableAddress      = "ManifestTableAddress"
	RegSBRMAddress               = "SBRMAddress"
	RegDeviceConfiguration       = "DeviceConfiguration"
	RegTimestamp                 = "Timestamp"
	RegTimestampLatch            = "TimestampLatch"
)

// ABRMSize is the byte length of the ABRM region this package lays out;
// the real ABRM extends further (manufacturer-specific registers) but
// everything material to the control core is captured here.
const ABRMSize = 0x0200

// ABRMDefaults carries the identity fields a concrete device stamps into
// its ABRM at construction.
type ABRMDefaults struct {
	GenCpVersion              uint32
	ManufacturerName          string
	ModelName                 string
	FamilyName                string
	DeviceVersion             string
	ManufacturerInfo          string
	SerialNumber              string
	UserDefinedName           string
	DeviceCapability          [8]byte
	MaximumDeviceResponseTime uint32
	ManifestTableAddress      uint64
	SBRMAddress               uint64
}

// BuildABRM lays out the ABRM register table at its fixed offsets.
func BuildABRM(d ABRMDefaults) (*regmap.Table, error) {
	b := regmap.NewBuilder(ABRMSize)
	b.Uint32(RegGenCpVersion, 0x0000, regmap.RO, regmap.LittleEndian, d.GenCpVersion)
	b.ASCII(RegManufacturerName, 0x0004, 64, regmap.RO, d.ManufacturerName)
	b.ASCII(RegModelName, 0x0044, 64, regmap.RO, d.ModelName)
	b.ASCII(RegFamilyName, 0x0084, 64, regmap.RO, d.FamilyName)
	b.ASCII(RegDeviceVersion, 0x00C4, 64, regmap.RO, d.DeviceVersion)
	b.ASCII(RegManufacturerInfo, 0x0104, 64, regmap.RO, d.ManufacturerInfo)
	b.ASCII(RegSerialNumber, 0x0144, 64, regmap.RO, d.SerialNumber)
	b.ASCII(RegUserDefinedName, 0x0184, 64, regmap.RW, d.UserDefinedName)
	b.Reg(RegDeviceCapability, 0x01C4, 8, regmap.RO, regmap.LittleEndian, regmap.KindBytes, d.DeviceCapability[:])
	b.Uint32(RegMaximumDeviceResponseTime, 0x01CC, regmap.RO, regmap.LittleEndian, d.MaximumDeviceResponseTime)
	b.Uint64(RegManifestTableAddress, 0x01D0, regmap.RO, regmap.LittleEndian, d.ManifestTableAddress)
	b.Uint64(RegSBRMAddress, 0x01D8, regmap.RO, regmap.LittleEndian, d.SBRMAddress)
	b.Reg(RegDeviceConfiguration, 0x01E0, 8, regmap.RW, regmap.LittleEndian, regmap.KindBytes, nil)
	b.Uint64(RegTimestamp, 0x01F0, regmap.RO, regmap.LittleEndian, 0)
	b.Uint32(RegTimestampLatch, 0x01F8, regmap.WO, regmap.LittleEndian, 0)
	return b.Build()
}
