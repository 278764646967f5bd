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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/go-urltag"
	"github.com/ZaparooProject/go-urltag/pkg/ndef"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

var (
	errWriteFailed  = errors.New("tag write failed")
	errVerifyFailed = errors.New("tag read-back did not match")
)

type loopConfig struct {
	clock    clockwork.Clock
	out      io.Writer
	record   *ndef.URIRecord
	log      zerolog.Logger
	interval time.Duration
	once     bool
	write    bool
}

// runLoop polls for tags until ctx is cancelled. After a tag is handled it
// waits for that tag to leave the field before polling for the next one.
func runLoop(ctx context.Context, w *urltag.Writer, lc *loopConfig) error {
	ticker := lc.clock.NewTicker(lc.interval)
	defer ticker.Stop()

	waitRemoval := false
	for {
		if waitRemoval {
			present, err := w.TagPresent(ctx)
			switch {
			case err != nil && urltag.IsFatal(err):
				return err
			case err != nil:
				lc.log.Debug().Err(err).Msg("presence check failed")
			case !present:
				waitRemoval = false
				lc.log.Info().Msg("tag removed, ready for next tag")
			}
		} else {
			outcome, err := w.Poll(ctx, lc.record, lc.write)
			if err != nil {
				return err
			}
			if err := fatalError(outcome); err != nil {
				return err
			}
			if outcome.Status != urltag.StatusNoTag {
				report(lc, outcome)
				if lc.once {
					return outcomeError(outcome)
				}
				waitRemoval = true
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
		}
	}
}

func fatalError(o *urltag.Outcome) error {
	for _, err := range []error{o.DetectErr, o.Err, o.DumpErr, o.ReleaseErr} {
		if urltag.IsFatal(err) {
			return err
		}
	}
	return nil
}

// outcomeError maps a handled tag to the result of a -once run.
func outcomeError(o *urltag.Outcome) error {
	switch {
	case o.Status == urltag.StatusWriteFailed:
		return fmt.Errorf("%w: %w", errWriteFailed, o.Err)
	case errors.Is(o.DumpErr, urltag.ErrVerifyMismatch):
		return errVerifyFailed
	default:
		return nil
	}
}

func report(lc *loopConfig, o *urltag.Outcome) {
	ev := lc.log.Info()
	if o.Status == urltag.StatusWriteFailed {
		ev = lc.log.Error().Err(o.Err)
	}
	ev.Str("uid", o.UID).
		Stringer("status", o.Status).
		Int("pages_written", o.PagesWritten).
		Msg("tag handled")

	if o.DumpErr != nil {
		lc.log.Warn().Err(o.DumpErr).Msg("tag dump")
	}
	if o.ReleaseErr != nil {
		lc.log.Warn().Err(o.ReleaseErr).Msg("tag release")
	}
	if o.Dump != nil && lc.out != nil {
		_, _ = fmt.Fprintln(lc.out, o.Dump.String())
	}
}
