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
	"errors"
	"fmt"
)

const (
	// HeaderLength is the number of image bytes in front of the
	// abbreviated URI: TLV type, TLV length, record flags, type length,
	// payload length, record type and identifier code.
	HeaderLength = 7

	// FillerByte pads the unused tail of the last page.
	FillerByte = 0xFF

	// tlvShortMaxLen is the largest length the one-byte TLV length field holds.
	tlvShortMaxLen = 0xFE

	// MaxAbbreviatedLength is the longest abbreviated URI whose record
	// still fits a one-byte TLV length.
	MaxAbbreviatedLength = tlvShortMaxLen - recordHeaderLength - len(URIRecordType) - 1
)

// Encoding errors.
var (
	ErrEmptyURI             = errors.New("ndef: empty URI")
	ErrUnrecognizedEncoding = errors.New("ndef: URI contains bytes outside 7-bit ASCII")
	ErrURITooLong           = errors.New("ndef: URI too long for a short NDEF record")
	ErrNotURIRecord         = errors.New("ndef: record is not a well-known URI record")
)

// EncodeError reports why a URI could not be encoded.
type EncodeError struct {
	Err    error
	URI    string
	Offset int
	Byte   byte
}

func (e *EncodeError) Error() string {
	if errors.Is(e.Err, ErrUnrecognizedEncoding) {
		return fmt.Sprintf("%v: byte 0x%02X at offset %d", e.Err, e.Byte, e.Offset)
	}
	if errors.Is(e.Err, ErrURITooLong) {
		return fmt.Sprintf("%v: %d bytes after abbreviation, max %d", e.Err, e.Offset, MaxAbbreviatedLength)
	}
	return e.Err.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// URIRecord is an NDEF URI record wrapped in an NDEF Message TLV, ready to
// be written from the first user page of a Type 2 tag. It is immutable.
type URIRecord struct {
	uri         string
	abbreviated string
	image       []byte
	code        byte
}

// Encode builds the tag image for uri:
//
//	03 LL D1 01 PL 55 IC <abbreviated URI>
//
// LL is the NDEF message length and PL the URI payload length; both are
// derived from the abbreviated URI.
func Encode(uri string) (*URIRecord, error) {
	if uri == "" {
		return nil, &EncodeError{Err: ErrEmptyURI}
	}
	for i := range len(uri) {
		if c := uri[i]; c == 0x00 || c > 0x7F {
			return nil, &EncodeError{Err: ErrUnrecognizedEncoding, URI: uri, Offset: i, Byte: c}
		}
	}

	code, rest := MatchURIPrefix(uri)
	if len(rest) > MaxAbbreviatedLength {
		return nil, &EncodeError{Err: ErrURITooLong, URI: uri, Offset: len(rest)}
	}

	rec := &Record{
		TNF:     TNFWellKnown,
		Type:    URIRecordType,
		Payload: EncodeURIPayload(uri),
	}
	message, err := rec.Marshal()
	if err != nil {
		return nil, &EncodeError{Err: err, URI: uri}
	}

	image := make([]byte, 0, 2+len(message))
	image = append(image, TLVTypeNDEF, byte(len(message)))
	image = append(image, message...)

	return &URIRecord{
		uri:         uri,
		abbreviated: rest,
		image:       image,
		code:        code,
	}, nil
}

// URI returns the URI the record was encoded from.
func (r *URIRecord) URI() string { return r.uri }

// IdentifierCode returns the URI identifier code chosen for the prefix.
func (r *URIRecord) IdentifierCode() byte { return r.code }

// Abbreviated returns the URI with the abbreviated prefix removed.
func (r *URIRecord) Abbreviated() string { return r.abbreviated }

// PayloadLength is the identifier code byte plus the abbreviated URI.
func (r *URIRecord) PayloadLength() int { return 1 + len(r.abbreviated) }

// MessageLength is the value of the TLV length field: the record header,
// the record type and the payload.
func (r *URIRecord) MessageLength() int {
	return recordHeaderLength + len(URIRecordType) + r.PayloadLength()
}

// Len returns the image length without filler.
func (r *URIRecord) Len() int { return len(r.image) }

// Bytes returns a copy of the image without filler.
func (r *URIRecord) Bytes() []byte {
	out := make([]byte, len(r.image))
	copy(out, r.image)
	return out
}

// PageCount returns how many pages of pageSize bytes the image occupies.
func (r *URIRecord) PageCount(pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (len(r.image) + pageSize - 1) / pageSize
}

// Pages splits the image into pages of pageSize bytes. The unused tail of
// the last page is filled with FillerByte.
func (r *URIRecord) Pages(pageSize int) [][]byte {
	count := r.PageCount(pageSize)
	pages := make([][]byte, count)
	for i := range count {
		page := make([]byte, pageSize)
		n := copy(page, r.image[i*pageSize:])
		for j := n; j < pageSize; j++ {
			page[j] = FillerByte
		}
		pages[i] = page
	}
	return pages
}

// Decode reads the first NDEF message of a Type 2 tag data area and
// returns the URI of its record. Bytes after the message, filler
// included, are ignored.
func Decode(data []byte) (string, error) {
	message, err := ExtractNDEFFromTLV(data)
	if err != nil {
		return "", err
	}

	var rec Record
	if _, err := rec.Unmarshal(message); err != nil {
		return "", err
	}
	if rec.TNF != TNFWellKnown || rec.Type != URIRecordType {
		return "", fmt.Errorf("%w: TNF %d type %q", ErrNotURIRecord, rec.TNF, rec.Type)
	}

	return ParseURIPayload(rec.Payload)
}
