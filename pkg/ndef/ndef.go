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

// Package ndef encodes URIs as NDEF URI records laid out the way NFC Forum
// Type 2 tags store them, and decodes them back from raw tag memory.
package ndef

import (
	"errors"
)

// TNF (Type Name Format) values as defined by NFC Forum.
const (
	TNFEmpty     byte = 0x00 // Empty record
	TNFWellKnown byte = 0x01 // NFC Forum well-known type
	TNFReserved  byte = 0x07 // Reserved
	tnfMask      byte = 0x07
	flagMB       byte = 0x80
	flagME       byte = 0x40
	flagCF       byte = 0x20
	flagSR       byte = 0x10
	flagIL       byte = 0x08

	// recordHeaderLength is flags, type length and the one-byte payload
	// length of a short record.
	recordHeaderLength = 3
	shortRecordMaxLen  = 255
)

// Record errors.
var (
	ErrInvalidRecord   = errors.New("ndef: invalid record")
	ErrTruncatedRecord = errors.New("ndef: truncated record data")
	ErrInvalidTNF      = errors.New("ndef: invalid TNF value")
	ErrChunkedRecord   = errors.New("ndef: chunked records not supported")
	ErrLongRecord      = errors.New("ndef: payload too long for a short record")
)

// Record is a single short NDEF record without an ID field. It is always
// written as the only record of its message, so MB and ME are both set.
type Record struct {
	Type    string
	Payload []byte
	TNF     byte
}

// Len returns the marshalled size of the record.
func (r *Record) Len() int {
	return recordHeaderLength + len(r.Type) + len(r.Payload)
}

// Marshal serializes the record as a single-record message.
func (r *Record) Marshal() ([]byte, error) {
	if r.TNF >= TNFReserved {
		return nil, ErrInvalidTNF
	}
	if len(r.Payload) > shortRecordMaxLen {
		return nil, ErrLongRecord
	}
	if len(r.Type) > 0xFF {
		return nil, ErrInvalidRecord
	}

	out := make([]byte, 0, r.Len())
	out = append(out,
		flagMB|flagME|flagSR|(r.TNF&tnfMask),
		byte(len(r.Type)),
		byte(len(r.Payload)),
	)
	out = append(out, r.Type...)
	out = append(out, r.Payload...)
	return out, nil
}

// Unmarshal parses a short record and returns the number of bytes consumed.
// Long, chunked and ID-carrying records are rejected.
func (r *Record) Unmarshal(data []byte) (int, error) {
	if len(data) < recordHeaderLength {
		return 0, ErrTruncatedRecord
	}

	flags := data[0]
	switch {
	case flags&flagCF != 0:
		return 0, ErrChunkedRecord
	case flags&flagSR == 0, flags&flagIL != 0:
		return 0, ErrInvalidRecord
	case flags&tnfMask >= TNFReserved:
		return 0, ErrInvalidTNF
	}

	typeLen := int(data[1])
	payloadLen := int(data[2])
	total := recordHeaderLength + typeLen + payloadLen
	if total > len(data) {
		return 0, ErrTruncatedRecord
	}

	r.TNF = flags & tnfMask
	r.Type = string(data[recordHeaderLength : recordHeaderLength+typeLen])
	r.Payload = make([]byte, payloadLen)
	copy(r.Payload, data[recordHeaderLength+typeLen:total])

	return total, nil
}
