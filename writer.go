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
	"fmt"

	"github.com/ZaparooProject/go-urltag/pkg/ndef"
)

// Writer writes URI records to tags presented to one transport.
type Writer struct {
	transport Transport
	cfg       config
}

// NewWriter creates a writer with the given transport and options
func NewWriter(transport Transport, opts ...Option) (*Writer, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Writer{transport: transport, cfg: cfg}, nil
}

// Geometry returns the configured tag geometry.
func (w *Writer) Geometry() TagGeometry {
	return w.cfg.geometry
}

// Prepare encodes url and checks it fits the configured geometry.
func (w *Writer) Prepare(url string) (*ndef.URIRecord, error) {
	record, err := ndef.Encode(url)
	if err != nil {
		return nil, fmt.Errorf("failed to encode URL: %w", err)
	}
	if err := Validate(record, w.cfg.geometry); err != nil {
		return nil, err
	}
	return record, nil
}

// Poll runs one session against whatever tag is in the field. It returns
// after a single detection attempt when no tag is present.
func (w *Writer) Poll(ctx context.Context, record *ndef.URIRecord, writeEnabled bool) (*Outcome, error) {
	s, err := newSession(w.transport, record, writeEnabled, w.cfg)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx), nil
}

// WriteURLToTag encodes url and runs one poll. Encoding and capacity
// errors are returned before any reader I/O.
func (w *Writer) WriteURLToTag(ctx context.Context, url string, writeEnabled bool) (*Outcome, error) {
	record, err := w.Prepare(url)
	if err != nil {
		return nil, err
	}
	return w.Poll(ctx, record, writeEnabled)
}

// TagPresent makes one detection attempt without selecting the tag.
func (w *Writer) TagPresent(ctx context.Context) (bool, error) {
	present, err := w.transport.DetectTag(ctx)
	if err != nil {
		return false, &StageError{Stage: StageDetect, Err: err}
	}
	return present, nil
}
