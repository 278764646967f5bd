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
	"bytes"
	"errors"
	"strings"
	"testing"
)

//nolint:funlen // comprehensive table-driven test
func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		uri       string
		want      []byte
		wantPages int
		wantCode  byte
	}{
		{
			name: "https www prefix",
			uri:  "https://www.hackaday.com",
			want: append([]byte{0x03, 0x11, 0xD1, 0x01, 0x0D, 0x55, 0x02},
				"hackaday.com"...),
			wantCode:  0x02,
			wantPages: 5,
		},
		{
			name: "short link",
			uri:  "https://www.bit.ly/3mzlLb1",
			want: append([]byte{0x03, 0x13, 0xD1, 0x01, 0x0F, 0x55, 0x02},
				"bit.ly/3mzlLb1"...),
			wantCode:  0x02,
			wantPages: 6,
		},
		{
			name: "no matching prefix",
			uri:  "bit.ly/3mzlLb1",
			want: append([]byte{0x03, 0x13, 0xD1, 0x01, 0x0F, 0x55, 0x00},
				"bit.ly/3mzlLb1"...),
			wantCode:  0x00,
			wantPages: 6,
		},
		{
			name:      "prefix only",
			uri:       "tel:",
			want:      []byte{0x03, 0x05, 0xD1, 0x01, 0x01, 0x55, 0x05},
			wantCode:  0x05,
			wantPages: 2,
		},
		{
			name: "urn epc class",
			uri:  "urn:epc:class:123",
			want: append([]byte{0x03, 0x0E, 0xD1, 0x01, 0x0A, 0x55, 0x22},
				"class:123"...),
			wantCode:  0x22,
			wantPages: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, err := Encode(tt.uri)
			if err != nil {
				t.Fatalf("Encode(%q) error: %v", tt.uri, err)
			}

			if got := rec.Bytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("Bytes() = % X, want % X", got, tt.want)
			}
			if rec.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", rec.Len(), len(tt.want))
			}
			if rec.IdentifierCode() != tt.wantCode {
				t.Errorf("IdentifierCode() = 0x%02X, want 0x%02X", rec.IdentifierCode(), tt.wantCode)
			}
			if rec.URI() != tt.uri {
				t.Errorf("URI() = %q, want %q", rec.URI(), tt.uri)
			}
			if rec.Len() != HeaderLength+len(rec.Abbreviated()) {
				t.Errorf("Len() = %d, want header plus %d", rec.Len(), len(rec.Abbreviated()))
			}
			if rec.MessageLength() != int(tt.want[1]) {
				t.Errorf("MessageLength() = %d, want %d", rec.MessageLength(), tt.want[1])
			}
			if rec.PayloadLength() != int(tt.want[4]) {
				t.Errorf("PayloadLength() = %d, want %d", rec.PayloadLength(), tt.want[4])
			}
			if rec.PageCount(4) != tt.wantPages {
				t.Errorf("PageCount(4) = %d, want %d", rec.PageCount(4), tt.wantPages)
			}
		})
	}
}

func TestURIRecordPages(t *testing.T) {
	t.Parallel()

	rec, err := Encode("https://www.hackaday.com")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	pages := rec.Pages(4)
	if len(pages) != 5 {
		t.Fatalf("got %d pages, want 5", len(pages))
	}

	want := [][]byte{
		{0x03, 0x11, 0xD1, 0x01},
		{0x0D, 0x55, 0x02, 'h'},
		{'a', 'c', 'k', 'a'},
		{'d', 'a', 'y', '.'},
		{'c', 'o', 'm', FillerByte},
	}
	for i := range want {
		if !bytes.Equal(pages[i], want[i]) {
			t.Errorf("page %d = % X, want % X", i, pages[i], want[i])
		}
	}

	// Pages must not alias the record image
	pages[0][0] = 0x00
	if rec.Bytes()[0] != TLVTypeNDEF {
		t.Error("modifying a page changed the record")
	}

	if rec.PageCount(0) != 0 || len(rec.Pages(0)) != 0 {
		t.Error("zero page size should yield no pages")
	}
}

func TestURIRecordBytesIsCopy(t *testing.T) {
	t.Parallel()

	rec, err := Encode("https://example.com")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	b := rec.Bytes()
	b[0] = 0x00
	if rec.Bytes()[0] != TLVTypeNDEF {
		t.Error("Bytes() returned the internal image")
	}
}

//nolint:funlen // comprehensive table-driven test
func TestEncodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr    error
		name       string
		uri        string
		wantOffset int
		wantByte   byte
	}{
		{
			name:    "empty",
			uri:     "",
			wantErr: ErrEmptyURI,
		},
		{
			name:       "non-ascii",
			uri:        "https://exämple.com",
			wantErr:    ErrUnrecognizedEncoding,
			wantOffset: 10,
			wantByte:   0xC3,
		},
		{
			name:       "embedded NUL",
			uri:        "https://a\x00b",
			wantErr:    ErrUnrecognizedEncoding,
			wantOffset: 9,
			wantByte:   0x00,
		},
		{
			name:       "too long",
			uri:        strings.Repeat("a", MaxAbbreviatedLength+1),
			wantErr:    ErrURITooLong,
			wantOffset: MaxAbbreviatedLength + 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, err := Encode(tt.uri)
			if err == nil {
				t.Fatalf("Encode(%q) = %v, want error", tt.uri, rec)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}

			var encErr *EncodeError
			if !errors.As(err, &encErr) {
				t.Fatalf("error %T is not *EncodeError", err)
			}
			if encErr.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", encErr.Offset, tt.wantOffset)
			}
			if encErr.Byte != tt.wantByte {
				t.Errorf("Byte = 0x%02X, want 0x%02X", encErr.Byte, tt.wantByte)
			}
		})
	}
}

func TestEncodeLongestAllowed(t *testing.T) {
	t.Parallel()

	uri := "https://" + strings.Repeat("a", MaxAbbreviatedLength)
	rec, err := Encode(uri)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if rec.MessageLength() != tlvShortMaxLen {
		t.Errorf("MessageLength() = %d, want %d", rec.MessageLength(), tlvShortMaxLen)
	}
	if got := rec.Bytes()[1]; got != tlvShortMaxLen {
		t.Errorf("TLV length byte = 0x%02X, want 0x%02X", got, tlvShortMaxLen)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	rec, err := Encode("https://www.hackaday.com")
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	var memory []byte
	for _, page := range rec.Pages(4) {
		memory = append(memory, page...)
	}
	// Trailing pages of stale data after the message
	memory = append(memory, 0xDE, 0xAD, 0xBE, 0xEF)

	uri, err := Decode(memory)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if uri != "https://www.hackaday.com" {
		t.Errorf("Decode = %q, want %q", uri, "https://www.hackaday.com")
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		name    string
		data    []byte
	}{
		{
			name:    "blank tag",
			data:    []byte{0xFF, 0xFF, 0xFF, 0xFF},
			wantErr: ErrTLVNDEFNotFound,
		},
		{
			name:    "empty NDEF message",
			data:    []byte{0x03, 0x00, 0xFE, 0x00},
			wantErr: ErrTruncatedRecord,
		},
		{
			name:    "text record",
			data:    []byte{0x03, 0x08, 0xD1, 0x01, 0x04, 'T', 0x02, 'e', 'n', 'x'},
			wantErr: ErrNotURIRecord,
		},
		{
			name:    "message overruns data",
			data:    []byte{0x03, 0x20, 0xD1, 0x01, 0x04},
			wantErr: ErrTLVInvalidLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
