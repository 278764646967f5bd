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

// State is a step of the write/verify session.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateSelected
	StateWriting
	StateWriteFailed
	StateWriteComplete
	StateDumping
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateSelected:
		return "selected"
	case StateWriting:
		return "writing"
	case StateWriteFailed:
		return "write_failed"
	case StateWriteComplete:
		return "write_complete"
	case StateDumping:
		return "dumping"
	case StateHalted:
		return "halted"
	default:
		return "unknown"
	}
}

// Status is the result of one session.
type Status int

const (
	// StatusNoTag means nothing was detected or selected; poll again.
	StatusNoTag Status = iota
	// StatusWritten means every record page was written.
	StatusWritten
	// StatusWriteFailed means a page write was rejected.
	StatusWriteFailed
	// StatusReadOnly means writing was disabled and the tag was only dumped.
	StatusReadOnly
)

func (s Status) String() string {
	switch s {
	case StatusNoTag:
		return "no_tag"
	case StatusWritten:
		return "written"
	case StatusWriteFailed:
		return "write_failed"
	case StatusReadOnly:
		return "read_only"
	default:
		return "unknown"
	}
}

// Transition is one entry of the session's state history. PageIndex is only
// meaningful for StateWriting.
type Transition struct {
	State     State
	PageIndex int
}
