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
	"github.com/rs/zerolog"
)

// Outcome reports what one session did to one tag presentation.
type Outcome struct {
	// Err is a *WriteError when a page write was rejected.
	Err error
	// DetectErr is a detection or select failure. Poll again.
	DetectErr  error
	DumpErr    error
	ReleaseErr error
	Dump       *Dump
	UID        string
	// Transitions lists every state the session entered, in order.
	Transitions  []Transition
	PagesWritten int
	Status       Status
}

// Session drives one tag presentation through detect, select, write, dump
// and release. It is not safe for concurrent use.
type Session struct {
	transport Transport
	record    *ndef.URIRecord
	outcome   *Outcome
	pages     [][]byte
	log       zerolog.Logger
	cfg       config
	state     State
	page      int
	write     bool
	done      bool
}

// NewSession creates a session for one poll. record may be nil when
// writeEnabled is false.
func NewSession(transport Transport, record *ndef.URIRecord, writeEnabled bool, opts ...Option) (*Session, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return newSession(transport, record, writeEnabled, cfg)
}

func newSession(transport Transport, record *ndef.URIRecord, writeEnabled bool, cfg config) (*Session, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}

	s := &Session{
		transport: transport,
		record:    record,
		cfg:       cfg,
		log:       cfg.logger.With().Str("component", "session").Logger(),
		write:     writeEnabled,
		outcome:   &Outcome{Status: StatusNoTag},
	}

	if writeEnabled {
		if record == nil {
			return nil, fmt.Errorf("%w: no record to write", ErrWriteFailed)
		}
		if err := Validate(record, cfg.geometry); err != nil {
			return nil, err
		}
		s.pages = record.Pages(cfg.geometry.PageSize)
	}

	s.outcome.Transitions = append(s.outcome.Transitions, Transition{State: StateIdle})
	return s, nil
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// PageIndex returns the record page the session writes next.
func (s *Session) PageIndex() int {
	return s.page
}

// Done reports whether the session has ended.
func (s *Session) Done() bool {
	return s.done
}

// Outcome returns the session result so far.
func (s *Session) Outcome() *Outcome {
	return s.outcome
}

// Run steps the session until it ends and returns the outcome.
func (s *Session) Run(ctx context.Context) *Outcome {
	for s.Step(ctx) {
	}
	return s.outcome
}

// Step performs exactly one transition and reports whether another step
// is needed.
//
//nolint:gocyclo,revive // one case per state
func (s *Session) Step(ctx context.Context) bool {
	if s.done {
		return false
	}

	switch s.state {
	case StateIdle:
		present, err := s.transport.DetectTag(ctx)
		if err != nil {
			s.outcome.DetectErr = &StageError{Stage: StageDetect, Err: err}
			s.log.Debug().Err(err).Msg("tag detection failed")
			return s.end()
		}
		if !present {
			return s.end()
		}
		s.enter(StateDetecting)

	case StateDetecting:
		selected, err := s.transport.SelectTag(ctx)
		if err != nil {
			s.outcome.DetectErr = &StageError{Stage: StageSelect, Err: err}
			s.log.Debug().Err(err).Msg("tag select failed")
			return s.end()
		}
		if !selected {
			return s.end()
		}
		if r, ok := s.transport.(UIDReporter); ok {
			s.outcome.UID = r.TagUID()
		}
		s.log.Debug().Str("uid", s.outcome.UID).Msg("tag selected")
		s.enter(StateSelected)

	case StateSelected:
		if s.write {
			s.enter(StateWriting)
			break
		}
		s.outcome.Status = StatusReadOnly
		if s.cfg.dump {
			s.enter(StateDumping)
		} else {
			s.enter(StateHalted)
		}

	case StateWriting:
		s.writePage(ctx)

	case StateWriteFailed:
		if s.cfg.dump && s.cfg.dumpOnFailure {
			s.enter(StateDumping)
		} else {
			s.enter(StateHalted)
		}

	case StateWriteComplete:
		if s.cfg.dump {
			s.enter(StateDumping)
		} else {
			s.enter(StateHalted)
		}

	case StateDumping:
		s.dump(ctx)
		s.enter(StateHalted)

	case StateHalted:
		if err := s.transport.Release(ctx); err != nil {
			s.outcome.ReleaseErr = &StageError{Stage: StageRelease, Err: err}
			s.log.Warn().Err(err).Msg("tag release failed")
		}
		return s.end()
	}

	return true
}

func (s *Session) writePage(ctx context.Context) {
	i := s.page
	addr := s.cfg.geometry.FirstWritablePage + i

	if err := s.transport.WritePage(ctx, addr, s.pages[i]); err != nil {
		s.outcome.Err = &WriteError{PageIndex: i, Page: addr, Err: err}
		s.outcome.Status = StatusWriteFailed
		s.log.Error().Err(err).
			Int("page", addr).
			Int("index", i).
			Int("written", s.outcome.PagesWritten).
			Msg("page write failed")
		s.enter(StateWriteFailed)
		return
	}

	s.outcome.PagesWritten++
	s.log.Trace().Int("page", addr).Hex("data", s.pages[i]).Msg("page written")

	if i+1 == len(s.pages) {
		s.outcome.Status = StatusWritten
		s.log.Info().
			Str("uri", s.record.URI()).
			Int("pages", len(s.pages)).
			Msg("record written")
		s.enter(StateWriteComplete)
		return
	}

	s.page = i + 1
	s.enter(StateWriting)
}

func (s *Session) dump(ctx context.Context) {
	pages, err := s.transport.DumpAll(ctx)
	if err != nil {
		s.outcome.DumpErr = &StageError{Stage: StageDump, Err: err}
		s.log.Warn().Err(err).Msg("tag dump failed")
		return
	}

	d := newDump(pages, s.cfg.geometry, s.record, s.outcome.Status == StatusWritten)
	s.outcome.Dump = d

	if s.outcome.Status == StatusWritten && !d.Verified {
		s.outcome.DumpErr = &StageError{Stage: StageVerify, Err: ErrVerifyMismatch}
		s.log.Warn().Msg("read-back does not match written record")
	}
	if d.InteropErr != nil {
		s.log.Debug().Err(d.InteropErr).Msg("go-ndef could not parse record")
	}
}

// enter records a transition. Writing(i) is recorded once per page.
func (s *Session) enter(next State) {
	from := s.state
	s.state = next
	t := Transition{State: next}
	if next == StateWriting {
		t.PageIndex = s.page
	}
	s.outcome.Transitions = append(s.outcome.Transitions, t)

	s.log.Trace().Stringer("from", from).Stringer("to", next).Msg("state transition")
	if s.cfg.onTransition != nil {
		s.cfg.onTransition(from, t)
	}
}

func (s *Session) end() bool {
	s.done = true
	return false
}
