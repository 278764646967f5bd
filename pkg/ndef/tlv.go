// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ndef

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// TLV type constants per NFC Forum Type 2 Tag specification
const (
	TLVTypeNull          = 0x00 // NULL TLV - padding byte, no length field
	TLVTypeLockControl   = 0x01 // Lock Control TLV - defines lock bit positions
	TLVTypeMemoryControl = 0x02 // Memory Control TLV - defines reserved memory
	TLVTypeNDEF          = 0x03 // NDEF Message TLV - contains NDEF data
	TLVTypeTerminator    = 0xFE // Terminator TLV - end of data area, no length field

	tlvLongLength = 0xFF
)

// TLV parsing errors
var (
	ErrTLVDataTooShort  = errors.New("ndef: TLV data too short")
	ErrTLVInvalidLength = errors.New("ndef: TLV invalid length format")
	ErrTLVNDEFNotFound  = errors.New("ndef: NDEF TLV not found")
)

// TLVLocation is where an NDEF message sits inside a TLV area.
type TLVLocation struct {
	// Offset of the first message byte, after the TLV header.
	Offset int
	// Length of the message in bytes.
	Length int
	// HeaderSize is 2 for the one-byte length format and 4 for the long format.
	HeaderSize int
}

// ScanForNDEFTLV walks the TLV blocks of a Type 2 tag data area and returns
// the location of the first NDEF Message TLV. NULL, lock control, memory
// control and proprietary TLVs are skipped; a terminator ends the scan.
func ScanForNDEFTLV(data []byte) (*TLVLocation, error) {
	if len(data) < 2 {
		return nil, ErrTLVDataTooShort
	}

	offset := 0
	for offset < len(data) {
		switch tlvType := data[offset]; tlvType {
		case TLVTypeNull:
			offset++
		case TLVTypeTerminator:
			return nil, ErrTLVNDEFNotFound
		case TLVTypeNDEF:
			return readTLVHeader(data, offset)
		default:
			// 0xFF is erased memory rather than a TLV
			if tlvType == tlvLongLength {
				return nil, ErrTLVNDEFNotFound
			}
			loc, err := readTLVHeader(data, offset)
			if err != nil {
				return nil, err
			}
			offset = loc.Offset + loc.Length
		}
	}

	return nil, ErrTLVNDEFNotFound
}

// readTLVHeader parses the length field of the TLV at offset.
func readTLVHeader(data []byte, offset int) (*TLVLocation, error) {
	if offset+1 >= len(data) {
		return nil, ErrTLVDataTooShort
	}

	if data[offset+1] != tlvLongLength {
		return &TLVLocation{
			Offset:     offset + 2,
			Length:     int(data[offset+1]),
			HeaderSize: 2,
		}, nil
	}

	if offset+3 >= len(data) {
		return nil, fmt.Errorf("%w: incomplete long length at offset %d", ErrTLVInvalidLength, offset)
	}

	return &TLVLocation{
		Offset:     offset + 4,
		Length:     int(binary.BigEndian.Uint16(data[offset+2 : offset+4])),
		HeaderSize: 4,
	}, nil
}

// ExtractNDEFFromTLV returns the NDEF message bytes from a TLV area.
func ExtractNDEFFromTLV(data []byte) ([]byte, error) {
	loc, err := ScanForNDEFTLV(data)
	if err != nil {
		return nil, err
	}

	if loc.Offset+loc.Length > len(data) {
		return nil, fmt.Errorf("%w: NDEF length %d exceeds data size %d",
			ErrTLVInvalidLength, loc.Length, len(data)-loc.Offset)
	}

	return data[loc.Offset : loc.Offset+loc.Length], nil
}

// TLVDebugInfo describes the TLV blocks in data, one per line.
func TLVDebugInfo(data []byte) string {
	if len(data) == 0 {
		return "empty data"
	}

	var sb strings.Builder
	offset := 0
	for offset < len(data) {
		tlvType := data[offset]
		switch tlvType {
		case TLVTypeNull:
			_, _ = fmt.Fprintf(&sb, "[%d] NULL\n", offset)
			offset++
			continue
		case TLVTypeTerminator:
			_, _ = fmt.Fprintf(&sb, "[%d] TERMINATOR\n", offset)
			return sb.String()
		case tlvLongLength:
			_, _ = fmt.Fprintf(&sb, "[%d] ERASED\n", offset)
			return sb.String()
		}

		loc, err := readTLVHeader(data, offset)
		if err != nil {
			_, _ = fmt.Fprintf(&sb, "[%d] %s (parse error: %v)\n", offset, tlvName(tlvType), err)
			return sb.String()
		}
		_, _ = fmt.Fprintf(&sb, "[%d] %s len=%d\n", offset, tlvName(tlvType), loc.Length)
		offset = loc.Offset + loc.Length
	}

	return sb.String()
}

func tlvName(tlvType byte) string {
	switch tlvType {
	case TLVTypeNDEF:
		return "NDEF"
	case TLVTypeLockControl:
		return "LOCK_CONTROL"
	case TLVTypeMemoryControl:
		return "MEMORY_CONTROL"
	default:
		return fmt.Sprintf("PROPRIETARY(0x%02X)", tlvType)
	}
}
