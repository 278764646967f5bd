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

import "context"

// Transport is the reader side of a session. Implementations own one reader
// and address one tag at a time.
type Transport interface {
	// DetectTag makes a single non-blocking attempt to find a tag. No tag
	// is (false, nil).
	DetectTag(ctx context.Context) (bool, error)

	// SelectTag addresses the detected tag for page I/O.
	SelectTag(ctx context.Context) (bool, error)

	// WritePage writes one 4-byte page at the absolute page address.
	WritePage(ctx context.Context, page int, data []byte) error

	// DumpAll reads every page the tag exposes, starting at page 0.
	DumpAll(ctx context.Context) ([][]byte, error)

	// Release halts the tag so a new presentation can be detected.
	Release(ctx context.Context) error
}

// UIDReporter is implemented by transports that know the selected tag's UID.
type UIDReporter interface {
	TagUID() string
}
