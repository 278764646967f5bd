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

package urltag

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-urltag/pkg/ndef"
)

// Dump is the tag contents read back at the end of a session.
type Dump struct {
	// DecodeErr is why the user area holds no readable URI record.
	DecodeErr error
	// InteropErr is why the record failed the independent parse.
	InteropErr error
	URI        string
	Pages      [][]byte
	userData   []byte
	// Verified is set when a completed write reads back byte for byte.
	Verified bool
	// Interop is set when an independent NDEF parser reads the same URI.
	Interop bool
}

func newDump(pages [][]byte, g TagGeometry, record *ndef.URIRecord, written bool) *Dump {
	d := &Dump{Pages: pages}

	for i := g.FirstWritablePage; i <= g.LastWritablePage && i < len(pages); i++ {
		d.userData = append(d.userData, pages[i]...)
	}

	d.URI, d.DecodeErr = ndef.Decode(d.userData)
	if d.DecodeErr == nil {
		d.Interop, d.InteropErr = interopCheck(d.userData, d.URI)
	}

	if written && record != nil {
		d.Verified = bytes.HasPrefix(d.userData, record.Bytes())
	}

	return d
}

// UserData returns the bytes of the writable page range that were read back.
func (d *Dump) UserData() []byte {
	out := make([]byte, len(d.userData))
	copy(out, d.userData)
	return out
}

// String formats the dump as a page table with an ASCII column.
func (d *Dump) String() string {
	var sb strings.Builder
	for i, page := range d.Pages {
		_, _ = fmt.Fprintf(&sb, "Page %02d: % X |%s|\n", i, page, printable(page))
	}
	if d.DecodeErr != nil {
		_, _ = fmt.Fprintf(&sb, "NDEF: %v\n", d.DecodeErr)
	} else {
		_, _ = fmt.Fprintf(&sb, "NDEF: %s\n", d.URI)
	}
	return sb.String()
}

func printable(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		if b >= 0x20 && b < 0x7F {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
