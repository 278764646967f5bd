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

// Package testing provides an in-memory Type 2 tag that implements the
// session transport, for tests that should not need a reader.
package testing

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-urltag/internal/syncutil"
)

const pageSize = 4

// Virtual tag errors
var (
	ErrTagNotPresent   = errors.New("virtual tag not present")
	ErrPageOutOfRange  = errors.New("page out of range")
	ErrReadOnlyPage    = errors.New("page is read-only")
	ErrInvalidPageSize = errors.New("page data must be 4 bytes")
)

var (
	// TestUltralightUID is a sample MIFARE Ultralight UID
	TestUltralightUID = []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}

	// TestNTAG213UID is a sample NTAG213 UID
	TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}
)

// VirtualTag is a simulated Type 2 tag sitting on a simulated reader. All
// methods are safe for concurrent use.
type VirtualTag struct {
	writeFailures map[int]error
	detectErr     error
	selectErr     error
	dumpErr       error
	releaseErr    error
	Type          string
	UID           []byte
	memory        [][]byte
	writes        []int
	detectCalls   int
	releases      int
	mu            syncutil.Mutex
	present       bool
	selected      bool
	rejectSelect  bool
}

// NewVirtualUltralight creates a blank MIFARE Ultralight: 16 pages, user
// memory in pages 4-15.
func NewVirtualUltralight(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestUltralightUID
	}
	tag := newVirtualTag("Ultralight", uid, 16)
	// CC: NDEF 1.0, 48 bytes of data area, read/write
	copy(tag.memory[3], []byte{0xE1, 0x10, 0x06, 0x00})
	return tag
}

// NewVirtualNTAG213 creates a blank NTAG213: 45 pages, user memory in pages
// 4-39.
func NewVirtualNTAG213(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestNTAG213UID
	}
	tag := newVirtualTag("NTAG213", uid, 45)
	copy(tag.memory[3], []byte{0xE1, 0x10, 0x12, 0x00})
	return tag
}

func newVirtualTag(tagType string, uid []byte, pages int) *VirtualTag {
	tag := &VirtualTag{
		Type:          tagType,
		UID:           uid,
		memory:        make([][]byte, pages),
		writeFailures: make(map[int]error),
		present:       true,
	}
	for i := range tag.memory {
		tag.memory[i] = make([]byte, pageSize)
	}

	// Pages 0-2: UID with check bytes, internal byte and lock bytes
	serial := make([]byte, 9)
	copy(serial, uid)
	copy(tag.memory[0], serial[0:3])
	copy(tag.memory[1], serial[3:7])
	tag.memory[0][3] = 0x88 ^ serial[0] ^ serial[1] ^ serial[2]
	tag.memory[2][0] = serial[3] ^ serial[4] ^ serial[5] ^ serial[6]

	// Empty NDEF message followed by a terminator
	copy(tag.memory[4], []byte{0x03, 0x00, 0xFE, 0x00})
	return tag
}

// GetUIDString returns the UID as a hex string
func (v *VirtualTag) GetUIDString() string {
	return hex.EncodeToString(v.UID)
}

// TagUID reports the UID of the selected tag.
func (v *VirtualTag) TagUID() string {
	return v.GetUIDString()
}

// DetectTag reports whether the tag is in the field.
func (v *VirtualTag) DetectTag(_ context.Context) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.detectCalls++
	if v.detectErr != nil {
		return false, v.detectErr
	}
	return v.present, nil
}

// SelectTag selects the tag if it is present.
func (v *VirtualTag) SelectTag(_ context.Context) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.selectErr != nil {
		return false, v.selectErr
	}
	if !v.present || v.rejectSelect {
		return false, nil
	}
	v.selected = true
	return true, nil
}

// WritePage stores one page. Pages 0-2 are read-only.
func (v *VirtualTag) WritePage(_ context.Context, page int, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.writes = append(v.writes, page)

	if !v.present {
		return ErrTagNotPresent
	}
	if err, ok := v.writeFailures[page]; ok {
		return err
	}
	if page < 0 || page >= len(v.memory) {
		return fmt.Errorf("%w: %d", ErrPageOutOfRange, page)
	}
	if page < 3 {
		return fmt.Errorf("%w: %d", ErrReadOnlyPage, page)
	}
	if len(data) != pageSize {
		return fmt.Errorf("%w: got %d", ErrInvalidPageSize, len(data))
	}

	copy(v.memory[page], data)
	return nil
}

// DumpAll returns a copy of every page.
func (v *VirtualTag) DumpAll(_ context.Context) ([][]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dumpErr != nil {
		return nil, v.dumpErr
	}
	if !v.present {
		return nil, ErrTagNotPresent
	}
	return v.snapshot(), nil
}

// Release halts the tag.
func (v *VirtualTag) Release(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.releases++
	v.selected = false
	return v.releaseErr
}

// Remove takes the tag out of the field
func (v *VirtualTag) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = false
	v.selected = false
}

// Insert puts the tag back in the field
func (v *VirtualTag) Insert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = true
}

// FailWriteAt makes writes to the absolute page address fail with err.
func (v *VirtualTag) FailWriteAt(page int, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeFailures[page] = err
}

// SetDetectError makes DetectTag fail with err; nil clears it.
func (v *VirtualTag) SetDetectError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.detectErr = err
}

// SetSelectError makes SelectTag fail with err; nil clears it.
func (v *VirtualTag) SetSelectError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selectErr = err
}

// RejectSelect makes SelectTag report no tag without an error.
func (v *VirtualTag) RejectSelect(reject bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rejectSelect = reject
}

// SetDumpError makes DumpAll fail with err; nil clears it.
func (v *VirtualTag) SetDumpError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dumpErr = err
}

// SetReleaseError makes Release fail with err; nil clears it.
func (v *VirtualTag) SetReleaseError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.releaseErr = err
}

// SetPage overwrites a page directly, bypassing read-only checks.
func (v *VirtualTag) SetPage(page int, data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	copy(v.memory[page], data)
}

// Page returns a copy of one page.
func (v *VirtualTag) Page(page int) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]byte, pageSize)
	copy(out, v.memory[page])
	return out
}

// PageCount returns the number of pages of the tag.
func (v *VirtualTag) PageCount() int {
	return len(v.memory)
}

// Memory returns a copy of every page.
func (v *VirtualTag) Memory() [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot()
}

// Writes returns the page addresses of every write attempt, in order.
func (v *VirtualTag) Writes() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]int, len(v.writes))
	copy(out, v.writes)
	return out
}

// DetectCalls returns the number of DetectTag calls.
func (v *VirtualTag) DetectCalls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.detectCalls
}

// Releases returns the number of Release calls.
func (v *VirtualTag) Releases() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.releases
}

// Selected reports whether the tag is selected and not yet released.
func (v *VirtualTag) Selected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

func (v *VirtualTag) snapshot() [][]byte {
	out := make([][]byte, len(v.memory))
	for i, page := range v.memory {
		out[i] = make([]byte, pageSize)
		copy(out[i], page)
	}
	return out
}
