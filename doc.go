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

// Package urltag writes NDEF URI records to NFC Forum Type 2 tags such as
// MIFARE Ultralight and NTAG21x.
//
// A Writer encodes a URL with pkg/ndef, checks it fits the tag geometry and
// runs one Session per poll. A Session is a small state machine:
//
//	Idle -> Detecting -> Selected -> Writing(i) -> WriteFailed | WriteComplete -> Dumping -> Halted
//
// Each Step performs one transition, so the caller owns scheduling and
// cancellation. Page writes are fail-fast: the first rejected page ends
// the write phase and earlier pages stay on the tag.
//
// Readers plug in through the Transport interface; see reader/pn532 and
// reader/libnfc.
package urltag
