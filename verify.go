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
	"fmt"

	"github.com/ZaparooProject/go-urltag/pkg/ndef"
	gondef "github.com/hsanjuan/go-ndef"
)

// interopCheck parses the user area with go-ndef, the parser used by the
// rest of the Zaparoo stack, and reports whether it yields the same URI.
func interopCheck(userData []byte, want string) (bool, error) {
	message, err := ndef.ExtractNDEFFromTLV(userData)
	if err != nil {
		return false, err
	}

	msg := &gondef.Message{}
	if _, err := msg.Unmarshal(message); err != nil {
		return false, fmt.Errorf("failed to parse NDEF message: %w", err)
	}
	if len(msg.Records) != 1 {
		return false, fmt.Errorf("%w: %d records", ndef.ErrNotURIRecord, len(msg.Records))
	}

	rec := msg.Records[0]
	if rec.TNF() != gondef.NFCForumWellKnownType || rec.Type() != ndef.URIRecordType {
		return false, fmt.Errorf("%w: TNF %d type %q", ndef.ErrNotURIRecord, rec.TNF(), rec.Type())
	}

	payload, err := rec.Payload()
	if err != nil {
		return false, fmt.Errorf("failed to get NDEF record payload: %w", err)
	}
	uri, err := ndef.ParseURIPayload(payload.Marshal())
	if err != nil {
		return false, err
	}
	if uri != want {
		return false, fmt.Errorf("%w: go-ndef read %q", ErrVerifyMismatch, uri)
	}
	return true, nil
}
