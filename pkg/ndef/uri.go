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
	"slices"
	"strings"
)

// URIRecordType is the well-known record type of a URI record ("U").
const URIRecordType = "U"

// URI record errors.
var (
	ErrURIPayloadTooShort   = errors.New("ndef: URI payload too short")
	ErrURIInvalidPrefixCode = errors.New("ndef: invalid URI prefix code")
)

// URIPrefix is one entry of the NFC Forum URI identifier code table.
type URIPrefix struct {
	Prefix string
	Code   byte
}

// uriPrefixes is the URI identifier code table of the NFC Forum URI RTD.
// Code 0x00 means the URI follows literally.
var uriPrefixes = []URIPrefix{
	{Code: 0x00, Prefix: ""},
	{Code: 0x01, Prefix: "http://www."},
	{Code: 0x02, Prefix: "https://www."},
	{Code: 0x03, Prefix: "http://"},
	{Code: 0x04, Prefix: "https://"},
	{Code: 0x05, Prefix: "tel:"},
	{Code: 0x06, Prefix: "mailto:"},
	{Code: 0x07, Prefix: "ftp://anonymous:anonymous@"},
	{Code: 0x08, Prefix: "ftp://ftp."},
	{Code: 0x09, Prefix: "ftps://"},
	{Code: 0x0A, Prefix: "sftp://"},
	{Code: 0x0B, Prefix: "smb://"},
	{Code: 0x0C, Prefix: "nfs://"},
	{Code: 0x0D, Prefix: "ftp://"},
	{Code: 0x0E, Prefix: "dav://"},
	{Code: 0x0F, Prefix: "news:"},
	{Code: 0x10, Prefix: "telnet://"},
	{Code: 0x11, Prefix: "imap:"},
	{Code: 0x12, Prefix: "rtsp://"},
	{Code: 0x13, Prefix: "urn:"},
	{Code: 0x14, Prefix: "pop:"},
	{Code: 0x15, Prefix: "sip:"},
	{Code: 0x16, Prefix: "sips:"},
	{Code: 0x17, Prefix: "tftp:"},
	{Code: 0x18, Prefix: "btspp://"},
	{Code: 0x19, Prefix: "btl2cap://"},
	{Code: 0x1A, Prefix: "btgoep://"},
	{Code: 0x1B, Prefix: "tcpobex://"},
	{Code: 0x1C, Prefix: "irdaobex://"},
	{Code: 0x1D, Prefix: "file://"},
	{Code: 0x1E, Prefix: "urn:epc:id:"},
	{Code: 0x1F, Prefix: "urn:epc:tag:"},
	{Code: 0x20, Prefix: "urn:epc:pat:"},
	{Code: 0x21, Prefix: "urn:epc:raw:"},
	{Code: 0x22, Prefix: "urn:epc:"},
	{Code: 0x23, Prefix: "urn:nfc:"},
}

// prefixesByLength holds the non-empty prefixes, longest first. Ties keep
// table order.
var prefixesByLength = func() []URIPrefix {
	sorted := slices.Clone(uriPrefixes[1:])
	slices.SortStableFunc(sorted, func(a, b URIPrefix) int {
		return len(b.Prefix) - len(a.Prefix)
	})
	return sorted
}()

// URIPrefixes returns a copy of the URI identifier code table in code order.
func URIPrefixes() []URIPrefix {
	return slices.Clone(uriPrefixes)
}

// MatchURIPrefix returns the identifier code of the longest table prefix
// that uri starts with, and uri with that prefix removed. When nothing
// matches the code is 0x00 and the URI is returned unchanged.
func MatchURIPrefix(uri string) (code byte, rest string) {
	for _, p := range prefixesByLength {
		if strings.HasPrefix(uri, p.Prefix) {
			return p.Code, uri[len(p.Prefix):]
		}
	}
	return 0x00, uri
}

// EncodeURIPayload creates a URI record payload with optimal prefix compression.
func EncodeURIPayload(uri string) []byte {
	code, rest := MatchURIPrefix(uri)
	payload := make([]byte, 1+len(rest))
	payload[0] = code
	copy(payload[1:], rest)
	return payload
}

// ParseURIPayload rebuilds the full URI from a URI record payload.
func ParseURIPayload(payload []byte) (string, error) {
	if len(payload) < 1 {
		return "", ErrURIPayloadTooShort
	}

	prefixCode := int(payload[0])
	if prefixCode >= len(uriPrefixes) {
		return "", ErrURIInvalidPrefixCode
	}

	return uriPrefixes[prefixCode].Prefix + string(payload[1:]), nil
}

// URIPrefixCode returns the prefix code for a given URI prefix string.
// Returns 0 if no match is found.
func URIPrefixCode(prefix string) byte {
	for _, p := range uriPrefixes {
		if p.Prefix == prefix {
			return p.Code
		}
	}
	return 0
}

// URIPrefixString returns the prefix string for a given code.
// Returns empty string for invalid codes.
func URIPrefixString(code byte) string {
	if int(code) < len(uriPrefixes) {
		return uriPrefixes[code].Prefix
	}
	return ""
}
