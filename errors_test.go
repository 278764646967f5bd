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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	nak := errors.New("NAK")

	assert.Equal(t, "write page 7 (record page 3): NAK",
		(&WriteError{PageIndex: 3, Page: 7, Err: nak}).Error())
	assert.Equal(t, "dump: NAK", (&StageError{Stage: StageDump, Err: nak}).Error())
	assert.Equal(t, "record too large for tag: record is 45 bytes, tag holds 44",
		(&CapacityError{RecordLength: 45, Capacity: 44}).Error())
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "detect stage", err: &StageError{Stage: StageDetect, Err: errors.New("x")}, want: true},
		{name: "select stage", err: &StageError{Stage: StageSelect, Err: errors.New("x")}, want: true},
		{name: "dump stage", err: &StageError{Stage: StageDump, Err: errors.New("x")}, want: false},
		{name: "tag lost", err: fmt.Errorf("read: %w", ErrTagLost), want: true},
		{name: "short read", err: ErrShortRead, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "reader gone", err: &StageError{Stage: StageDetect, Err: ErrReaderGone}, want: false},
		{name: "write", err: &WriteError{Err: ErrTagLost}, want: true},
		{name: "capacity", err: &CapacityError{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	assert.True(t, IsFatal(&StageError{Stage: StageDetect, Err: ErrReaderGone}))
	assert.True(t, IsFatal(ErrNoTransport))
	assert.False(t, IsFatal(ErrTagLost))
	assert.False(t, IsFatal(nil))
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, &WriteError{Err: errors.New("x")}, ErrWriteFailed)
	assert.ErrorIs(t, &CapacityError{}, ErrRecordTooLarge)
	assert.NotErrorIs(t, &StageError{Stage: StageDump, Err: errors.New("x")}, ErrWriteFailed)
}
