// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bootstrap

import (
	"reflect"
	"testing"

	"github.com/bytesentinel/go-u3v-vision/pkg/regmap"
)

func TestBuildABRMLayout(t *testing.T) {
	tbl, err := BuildABRM(ABRMDefaults{
		GenCpVersion:     0x00010000,
		ManufacturerName: "Acme",
		ModelName:        "U3V-Test",
	})
	if err != nil {
		t.Fatalf("BuildABRM() error = %v", err)
	}
	testCases := []struct {
		name   string
		reg    string
		offset uint64
		length uint64
	}{
		{"GenCpVersion", RegGenCpVersion, 0x0000, 4},
		{"ManufacturerName", RegManufacturerName, 0x0004, 64},
		{"SBRMAddress", RegSBRMAddress, 0x01D8, 8},
		{"TimestampLatch", RegTimestampLatch, 0x01F8, 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, ok := tbl.Lookup(tc.reg)
			if !ok {
				t.Fatalf("Lookup(%s) missing", tc.reg)
			}
			if d.Offset != tc.offset || d.Length != tc.length {
				t.Errorf("%s offset/length = %#x/%d; want %#x/%d", tc.reg, d.Offset, d.Length, tc.offset, tc.length)
			}
		})
	}
}

func TestABRMAccessRights(t *testing.T) {
	tbl, err := BuildABRM(ABRMDefaults{})
	if err != nil {
		t.Fatalf("BuildABRM() error = %v", err)
	}
	testCases := []struct {
		reg  string
		want regmap.AccessMode
	}{
		{RegGenCpVersion, regmap.RO},
		{RegUserDefinedName, regmap.RW},
		{RegTimestampLatch, regmap.WO},
		{RegDeviceConfiguration, regmap.RW},
	}
	for _, tc := range testCases {
		t.Run(tc.reg, func(t *testing.T) {
			d, ok := tbl.Lookup(tc.reg)
			if !ok {
				t.Fatalf("Lookup(%s) missing", tc.reg)
			}
			if d.Access != tc.want {
				t.Errorf("%s access = %v; want %v", tc.reg, d.Access, tc.want)
			}
		})
	}
}

func TestBuildSBRMLayout(t *testing.T) {
	tbl, err := BuildSBRM(SBRMDefaults{MaximumCommandTransferLength: 1024, MaximumAcknowledgeTransferLength: 1024})
	if err != nil {
		t.Fatalf("BuildSBRM() error = %v", err)
	}
	if _, ok := tbl.Lookup(RegMaximumCommandTransferLength); !ok {
		t.Fatalf("Lookup(%s) missing", RegMaximumCommandTransferLength)
	}
	if _, ok := tbl.Lookup(RegSirmAddress); !ok {
		t.Fatalf("Lookup(%s) missing", RegSirmAddress)
	}
}

func TestManifestEntryRoundTrip(t *testing.T) {
	e := &ManifestEntry{
		FileType:      FileTypeDeviceXml,
		Compression:   CompressionZip,
		SchemaVersion: 0x12,
		FileAddress:   0x10000,
		FileSize:      4096,
	}
	raw := SerializeManifestEntry(e)
	if len(raw) != ManifestEntrySize {
		t.Fatalf("len(raw) = %d; want %d", len(raw), ManifestEntrySize)
	}
	got, err := ParseManifestEntry(raw)
	if err != nil {
		t.Fatalf("ParseManifestEntry() error = %v", err)
	}
	if !reflect.DeepEqual(got, e) {
		t.Errorf("ParseManifestEntry(SerializeManifestEntry(e)) = %+v; want %+v", got, e)
	}
}

func TestManifestEntrySHA1Absent(t *testing.T) {
	e := &ManifestEntry{FileType: FileTypeDeviceXml}
	if e.HasSHA1() {
		t.Errorf("HasSHA1() = true for zero-value hash; want false")
	}
	e.SHA1[0] = 0xAB
	if !e.HasSHA1() {
		t.Errorf("HasSHA1() = false for non-zero hash; want true")
	}
}

func TestManifestTableRoundTrip(t *testing.T) {
	entries := []*ManifestEntry{
		{FileType: FileTypeDeviceXml, Compression: CompressionNone, FileAddress: 0x1000, FileSize: 512},
		{FileType: FileTypeDeviceXml, Compression: CompressionZip, FileAddress: 0x2000, FileSize: 256},
	}
	raw := SerializeManifestTable(entries)
	got, err := ParseManifestTable(raw)
	if err != nil {
		t.Fatalf("ParseManifestTable() error = %v", err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Errorf("ParseManifestTable(SerializeManifestTable(entries)) = %+v; want %+v", got, entries)
	}
}

func TestManifestTableTruncated(t *testing.T) {
	raw := []byte{2, 0, 0, 0, 0, 0, 0, 0} // declares 2 entries, no entry bytes
	if _, err := ParseManifestTable(raw); err == nil {
		t.Errorf("ParseManifestTable() error = nil; want truncation error")
	}
}
