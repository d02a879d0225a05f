// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Manifest table and GenApi XML retrieval.

package host

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"io"

	"github.com/bytesentinel/go-u3v-vision/pkg/bootstrap"
	"github.com/bytesentinel/go-u3v-vision/pkg/regmap"
)

// ReadManifest reads and decodes the device's manifest table, located via
// ABRM's ManifestTableAddress.
func (h *Handle) ReadManifest(ctx context.Context) ([]*bootstrap.ManifestEntry, error) {
	desc := h.abrm.MustLookup(bootstrap.RegManifestTableAddress)
	raw := make([]byte, desc.Length)
	if err := h.Read(ctx, desc.Offset, raw); err != nil {
		return nil, fmt.Errorf("host: read ManifestTableAddress: %w", err)
	}
	addr := regmap.ParseUint(raw, desc.Endian)

	countRaw := make([]byte, 8)
	if err := h.Read(ctx, addr, countRaw); err != nil {
		return nil, fmt.Errorf("host: read manifest count: %w", err)
	}
	count := regmap.ParseUint(countRaw, regmap.LittleEndian)

	body := make([]byte, 8+count*bootstrap.ManifestEntrySize)
	copy(body[:8], countRaw)
	if count > 0 {
		if err := h.Read(ctx, addr+8, body[8:]); err != nil {
			return nil, fmt.Errorf("host: read manifest entries: %w", err)
		}
	}

	entries, err := bootstrap.ParseManifestTable(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return entries, nil
}

// errManifestXMLNotFound is returned when no DeviceXml manifest entry exists.
var errManifestXMLNotFound = fmt.Errorf("%w: no DeviceXml manifest entry", ErrInvalidData)

// ReadDeviceXML locates the newest DeviceXml manifest entry, reads its file
// bytes, verifies its SHA-1 when present, decompresses it if declared
// Zip-compressed, and returns the UTF-8 GenApi XML text.
func (h *Handle) ReadDeviceXML(ctx context.Context) (string, error) {
	entries, err := h.ReadManifest(ctx)
	if err != nil {
		return "", err
	}

	var newest *bootstrap.ManifestEntry
	for _, e := range entries {
		if e.FileType != bootstrap.FileTypeDeviceXml {
			continue
		}
		if newest == nil || e.SchemaVersion >= newest.SchemaVersion {
			newest = e
		}
	}
	if newest == nil {
		return "", errManifestXMLNotFound
	}

	raw := make([]byte, newest.FileSize)
	if len(raw) > 0 {
		if err := h.Read(ctx, newest.FileAddress, raw); err != nil {
			return "", fmt.Errorf("host: read device xml file: %w", err)
		}
	}

	if newest.HasSHA1() {
		sum := sha1.Sum(raw)
		if !bytes.Equal(sum[:], newest.SHA1[:]) {
			return "", fmt.Errorf("%w: device xml sha1 mismatch", ErrInvalidData)
		}
	}

	switch newest.Compression {
	case bootstrap.CompressionNone:
		return string(raw), nil
	case bootstrap.CompressionZip:
		return unzipSingleFile(raw)
	default:
		return "", fmt.Errorf("%w: unknown manifest compression %d", ErrInvalidData, newest.Compression)
	}
}

// unzipSingleFile decompresses the sole file of a Zip archive, the shape a
// U3V device's compressed GenApi XML manifest entry takes.
func unzipSingleFile(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("%w: zip: %v", ErrInvalidData, err)
	}
	if len(zr.File) == 0 {
		return "", fmt.Errorf("%w: zip archive is empty", ErrInvalidData)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		return "", fmt.Errorf("%w: zip: %v", ErrInvalidData, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("%w: zip: %v", ErrInvalidData, err)
	}
	return string(data), nil
}
