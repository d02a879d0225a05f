// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The manifest table: an on-device catalogue of GenApi XML file locations.

package bootstrap

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bytesentinel/go-u3v-vision/pkg/regmap"
)

// ManifestEntrySize is the fixed per-entry length.
const ManifestEntrySize = 64

// ErrManifestTruncated is returned when a manifest byte region is shorter
// than its declared entry count requires.
var ErrManifestTruncated = errors.New("bootstrap: manifest table truncated")

// FileType identifies the kind of file a manifest entry points at.
type FileType uint8

const (
	FileTypeDeviceXml FileType = 0
	FileTypeBuffer    FileType = 1
)

// CompressionType identifies how a manifest entry's file bytes are stored.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0
	CompressionZip  CompressionType = 1
)

// ManifestEntry is one decoded catalogue entry.
type ManifestEntry struct {
	FileType      FileType
	Compression   CompressionType
	SchemaVersion uint8
	FileAddress   uint64
	FileSize      uint64
	SHA1          [20]byte // all-zero means absent
}

// HasSHA1 reports whether the entry carries a hash that must be verified.
// A 20-byte all-zero field denotes "absent" and verification is skipped.
func (e *ManifestEntry) HasSHA1() bool {
	var zero [20]byte
	return e.SHA1 != zero
}

// The file info word packs file type, compression, and schema version as
// bit-field projections, reusing the same BitField codec the rest of the
// register map runs on rather than hand-rolling shift/mask here too.
var (
	fileInfoParent     = &regmap.Descriptor{Length: 4}
	fileTypeField      = &regmap.BitFieldDescriptor{Parent: fileInfoParent, LSB: 0, MSB: 7}
	compressionField   = &regmap.BitFieldDescriptor{Parent: fileInfoParent, LSB: 10, MSB: 11}
	schemaVersionField = &regmap.BitFieldDescriptor{Parent: fileInfoParent, LSB: 24, MSB: 31}
)

// ParseManifestEntry decodes one fixed 64-byte manifest entry:
// file-info(4) | reserved(4) | file-address(8) | file-size(8) | sha1(20) |
// reserved(20).
func ParseManifestEntry(b []byte) (*ManifestEntry, error) {
	if len(b) != ManifestEntrySize {
		return nil, fmt.Errorf("%w: entry is %d bytes, want %d", ErrManifestTruncated, len(b), ManifestEntrySize)
	}
	fileInfo := b[0:4]
	e := &ManifestEntry{
		FileType:      FileType(regmap.ReadBitField(fileInfo, fileTypeField, regmap.LittleEndian)),
		Compression:   CompressionType(regmap.ReadBitField(fileInfo, compressionField, regmap.LittleEndian)),
		SchemaVersion: uint8(regmap.ReadBitField(fileInfo, schemaVersionField, regmap.LittleEndian)),
		FileAddress:   binary.LittleEndian.Uint64(b[8:16]),
		FileSize:      binary.LittleEndian.Uint64(b[16:24]),
	}
	copy(e.SHA1[:], b[24:44])
	return e, nil
}

// SerializeManifestEntry encodes one entry back to its 64-byte wire form.
func SerializeManifestEntry(e *ManifestEntry) []byte {
	b := make([]byte, ManifestEntrySize)
	fileInfo := make([]byte, 4)
	fileInfo, _ = regmap.WriteBitField(fileInfo, fileTypeField, int64(e.FileType), regmap.LittleEndian)
	fileInfo, _ = regmap.WriteBitField(fileInfo, compressionField, int64(e.Compression), regmap.LittleEndian)
	fileInfo, _ = regmap.WriteBitField(fileInfo, schemaVersionField, int64(e.SchemaVersion), regmap.LittleEndian)
	copy(b[0:4], fileInfo)
	binary.LittleEndian.PutUint64(b[8:16], e.FileAddress)
	binary.LittleEndian.PutUint64(b[16:24], e.FileSize)
	copy(b[24:44], e.SHA1[:])
	return b
}

// ParseManifestTable decodes a count-prefixed (u64 LE count, then count *
// 64-byte entries) manifest table.
func ParseManifestTable(b []byte) ([]*ManifestEntry, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("%w: missing count prefix", ErrManifestTruncated)
	}
	count := binary.LittleEndian.Uint64(b[0:8])
	want := 8 + count*ManifestEntrySize
	if uint64(len(b)) < want {
		return nil, fmt.Errorf("%w: declares %d entries, have %d bytes", ErrManifestTruncated, count, len(b))
	}
	entries := make([]*ManifestEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		off := 8 + i*ManifestEntrySize
		e, err := ParseManifestEntry(b[off : off+ManifestEntrySize])
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// SerializeManifestTable encodes a full count-prefixed manifest table.
func SerializeManifestTable(entries []*ManifestEntry) []byte {
	b := make([]byte, 8+len(entries)*ManifestEntrySize)
	binary.LittleEndian.PutUint64(b[0:8], uint64(len(entries)))
	for i, e := range entries {
		off := 8 + i*ManifestEntrySize
		copy(b[off:off+ManifestEntrySize], SerializeManifestEntry(e))
	}
	return b
}
