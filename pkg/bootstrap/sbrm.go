// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The Technology-Specific Boot Register Map (SBRM), layered at the address
// stored in the ABRM's SBRMAddress register.

package bootstrap

import "github.com/bytesentinel/go-u3v-vision/pkg/regmap"

const (
	RegU3VVersion                       = "U3VVersion"
	RegU3VCapability                    = "U3VCapability"
	RegMaximumCommandTransferLength     = "MaximumCommandTransferLength"
	RegMaximumAcknowledgeTransferLength = "MaximumAcknowledgeTransferLength"
	RegNumberOfStreamChannels           = "NumberOfStreamChannels"
	RegSirmAddress                      = "SirmAddress"
)

// SBRMSize is the byte length of the SBRM region laid out here. Unlike the
// ABRM, the SBRM has no externally-pinned offsets beyond being layered at
// SBRMAddress, so registers are placed in declaration order.
const SBRMSize = 0x0040

// SBRMDefaults are the values a concrete device stamps into its SBRM.
type SBRMDefaults struct {
	U3VVersion                       uint32
	U3VCapability                    uint64
	MaximumCommandTransferLength     uint32
	MaximumAcknowledgeTransferLength uint32
	NumberOfStreamChannels           uint32
	SirmAddress                      uint64
}

// BuildSBRM lays out the SBRM register table.
func BuildSBRM(d SBRMDefaults) (*regmap.Table, error) {
	b := regmap.NewBuilder(SBRMSize)
	b.RegAuto(RegU3VVersion, 4, regmap.RO, regmap.LittleEndian, regmap.KindUint32, mustUint32(d.U3VVersion))
	b.RegAuto(RegU3VCapability, 8, regmap.RO, regmap.LittleEndian, regmap.KindUint64, mustUint64(d.U3VCapability))
	b.RegAuto(RegMaximumCommandTransferLength, 4, regmap.RO, regmap.LittleEndian, regmap.KindUint32, mustUint32(d.MaximumCommandTransferLength))
	b.RegAuto(RegMaximumAcknowledgeTransferLength, 4, regmap.RO, regmap.LittleEndian, regmap.KindUint32, mustUint32(d.MaximumAcknowledgeTransferLength))
	b.RegAuto(RegNumberOfStreamChannels, 4, regmap.RO, regmap.LittleEndian, regmap.KindUint32, mustUint32(d.NumberOfStreamChannels))
	b.RegAuto(RegSirmAddress, 8, regmap.RO, regmap.LittleEndian, regmap.KindUint64, mustUint64(d.SirmAddress))
	return b.Build()
}

func mustUint32(v uint32) []byte {
	b, _ := regmap.SerializeUint(uint64(v), 4, regmap.LittleEndian)
	return b
}

func mustUint64(v uint64) []byte {
	b, _ := regmap.SerializeUint(v, 8, regmap.LittleEndian)
	return b
}
