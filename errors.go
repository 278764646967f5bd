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
	"context"
	"errors"
	"fmt"
)

// Error categories for session outcomes and caller retry decisions
var (
	// Capacity errors - reported before any I/O
	ErrRecordTooLarge  = errors.New("record too large for tag")
	ErrInvalidGeometry = errors.New("invalid tag geometry")

	// Write errors - fatal to the current session, not retried
	ErrWriteFailed    = errors.New("tag write failed")
	ErrVerifyMismatch = errors.New("read-back does not match record")

	// Transport errors - adapters wrap their failures with these
	ErrTagLost      = errors.New("tag left the field")
	ErrReaderGone   = errors.New("reader disconnected")
	ErrShortRead    = errors.New("short page read")
	ErrInvalidPage  = errors.New("invalid page data")
	ErrNotSupported = errors.New("tag type not supported")
	ErrNoTransport  = errors.New("no transport configured")
)

// Stage names the session step an error was raised in.
type Stage string

const (
	StageDetect  Stage = "detect"
	StageSelect  Stage = "select"
	StageWrite   Stage = "write"
	StageDump    Stage = "dump"
	StageVerify  Stage = "verify"
	StageRelease Stage = "release"
)

// StageError wraps a transport error with the session stage it occurred in
type StageError struct {
	Err   error
	Stage Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// WriteError reports the first page write the tag rejected. Pages before
// PageIndex were written and remain on the tag.
type WriteError struct {
	Err       error
	PageIndex int // index into the record pages
	Page      int // absolute tag page address
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write page %d (record page %d): %v", e.Page, e.PageIndex, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is makes every WriteError match ErrWriteFailed.
func (*WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

// CapacityError reports a record that does not fit the writable area.
type CapacityError struct {
	RecordLength int
	Capacity     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%v: record is %d bytes, tag holds %d", ErrRecordTooLarge, e.RecordLength, e.Capacity)
}

// Is makes every CapacityError match ErrRecordTooLarge.
func (*CapacityError) Is(target error) bool {
	return target == ErrRecordTooLarge
}

// IsTransient returns true if the error is expected to clear on the next
// poll: no tag, a failed select, a tag pulled away mid-operation or a
// timeout.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrReaderGone) {
		return false
	}

	var se *StageError
	if errors.As(err, &se) {
		if se.Stage == StageDetect || se.Stage == StageSelect {
			return true
		}
	}

	switch {
	case errors.Is(err, ErrTagLost),
		errors.Is(err, ErrShortRead),
		errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}

// IsFatal returns true if the reader is gone and polling should stop.
func IsFatal(err error) bool {
	return errors.Is(err, ErrReaderGone) || errors.Is(err, ErrNoTransport)
}
