// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The full GenCP / USB-specific status-code enumeration.

package wire

// Status is the 16-bit ack status code. Bit 15 flags fatal; bits 14-13
// carry the namespace (00 GenCP, 01 USB-specific, 10 device-specific, 11
// invalid).
type Status uint16

const (
	StatusSuccess          Status = 0x0000
	StatusNotImplemented   Status = 0x8001
	StatusInvalidParameter Status = 0x8002
	StatusInvalidAddress   Status = 0x8003
	StatusWriteProtect     Status = 0x8004
	StatusBadAlignment     Status = 0x8005
	StatusAccessDenied     Status = 0x8006
	StatusBusy             Status = 0x8007
	StatusTimeout          Status = 0x800B
	StatusInvalidHeader    Status = 0x800E
	StatusWrongConfig      Status = 0x800F
	StatusGenericError     Status = 0x8FFF

	StatusResendNotSupported    Status = 0xA001
	StatusStreamEndpointHalted  Status = 0xA002
	StatusPayloadSizeNotAligned Status = 0xA003
	StatusInvalidSiState        Status = 0xA004
	StatusEventEndpointHalted   Status = 0xA005
)

// StatusNameMap names the GenCP and USB-specific status codes;
// device-specific codes (namespace 10) are preserved verbatim and render
// as DEVICE_SPECIFIC.
var StatusNameMap = map[Status]string{
	StatusSuccess:          "SUCCESS",
	StatusNotImplemented:   "NOT_IMPLEMENTED",
	StatusInvalidParameter: "INVALID_PARAMETER",
	StatusInvalidAddress:   "INVALID_ADDRESS",
	StatusWriteProtect:     "WRITE_PROTECT",
	StatusBadAlignment:     "BAD_ALIGNMENT",
	StatusAccessDenied:     "ACCESS_DENIED",
	StatusBusy:             "BUSY",
	StatusTimeout:          "TIMEOUT",
	StatusInvalidHeader:    "INVALID_HEADER",
	StatusWrongConfig:      "WRONG_CONFIG",
	StatusGenericError:     "GENERIC_ERROR",

	StatusResendNotSupported:    "RESEND_NOT_SUPPORTED",
	StatusStreamEndpointHalted:  "STREAM_ENDPOINT_HALTED",
	StatusPayloadSizeNotAligned: "PAYLOAD_SIZE_NOT_ALIGNED",
	StatusInvalidSiState:        "INVALID_SI_STATE",
	StatusEventEndpointHalted:   "EVENT_ENDPOINT_HALTED",
}

func (s Status) String() string {
	if name, ok := StatusNameMap[s]; ok {
		return name
	}
	return "DEVICE_SPECIFIC"
}

// Namespace returns the 2-bit namespace carried in bits 14-13.
func (s Status) Namespace() uint8 { return uint8((s >> 13) & 0x3) }

// IsFatal reports whether bit 15 is set.
func (s Status) IsFatal() bool { return s&0x8000 != 0 }

// IsSuccess reports whether the status is the zero value.
func (s Status) IsSuccess() bool { return s == StatusSuccess }
