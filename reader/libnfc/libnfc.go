//go:build linux

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

// Package libnfc connects the URL writer to any reader libnfc supports,
// writing MIFARE Ultralight tags through libfreefare.
package libnfc

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-urltag"
	"github.com/ZaparooProject/go-urltag/internal/syncutil"
	"github.com/clausecker/freefare"
	"github.com/clausecker/nfc/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Page counts of the freefare Ultralight variants
const (
	ultralightPages  = 16
	ultralightCPages = 48
)

// DriverName is the driver name the CLI uses for libnfc readers.
const DriverName = "libnfc"

// ultralightTag is the subset of freefare.UltralightTag the transport uses.
type ultralightTag interface {
	UID() string
	Connect() error
	Disconnect() error
	ReadPage(page byte) ([4]byte, error)
	WritePage(page byte, data [4]byte) error
}

type foundTag struct {
	tag   ultralightTag
	pages int
}

// Transport drives MIFARE Ultralight tags through libnfc.
type Transport struct {
	listTags  func() ([]foundTag, error)
	closeFn   func() error
	tag       ultralightTag
	log       zerolog.Logger
	name      string
	pages     int
	mu        syncutil.Mutex
	connected bool
}

// ListDevices returns the connection strings libnfc knows about.
func ListDevices() ([]string, error) {
	devices, err := nfc.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list NFC devices: %w", err)
	}
	return devices, nil
}

// Option configures a Transport
type Option func(*Transport)

// WithLogger sets the logger used for reader diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transport) {
		t.log = logger
	}
}

// Open opens a libnfc device. An empty connstring picks the first device.
func Open(connstring string, opts ...Option) (*Transport, error) {
	dev, err := nfc.Open(connstring)
	if err != nil {
		return nil, fmt.Errorf("failed to open NFC device %q: %w", connstring, err)
	}
	if err := dev.InitiatorInit(); err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("failed to initialize NFC device: %w", err)
	}

	t := &Transport{
		name:    dev.String(),
		log:     log.Logger,
		closeFn: dev.Close,
		listTags: func() ([]foundTag, error) {
			tags, err := freefare.GetTags(dev)
			if err != nil {
				return nil, err
			}
			var found []foundTag
			for _, tag := range tags {
				ul, ok := tag.(freefare.UltralightTag)
				if !ok {
					continue
				}
				pages := ultralightPages
				if ul.Type() == freefare.UltralightC {
					pages = ultralightCPages
				}
				found = append(found, foundTag{tag: ul, pages: pages})
			}
			return found, nil
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log.Info().Str("device", t.name).Msg("libnfc reader connected")
	return t, nil
}

// String returns the libnfc device name.
func (t *Transport) String() string {
	return t.name
}

// DetectTag polls once for Ultralight tags and keeps the first one.
func (t *Transport) DetectTag(_ context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.disconnect(); err != nil {
		t.log.Debug().Err(err).Msg("stale tag disconnect failed")
	}
	t.tag = nil

	found, err := t.listTags()
	if err != nil {
		return false, fmt.Errorf("freefare poll: %w", err)
	}
	if len(found) == 0 {
		return false, nil
	}

	t.tag = found[0].tag
	t.pages = found[0].pages
	t.log.Debug().Str("uid", t.tag.UID()).Int("pages", t.pages).Msg("detected Ultralight tag")
	return true, nil
}

// SelectTag connects to the detected tag.
func (t *Transport) SelectTag(_ context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tag == nil {
		return false, nil
	}
	if err := t.tag.Connect(); err != nil {
		return false, fmt.Errorf("%w: connect: %w", urltag.ErrTagLost, err)
	}
	t.connected = true
	return true, nil
}

// WritePage writes one page of the connected tag.
func (t *Transport) WritePage(_ context.Context, page int, data []byte) error {
	if len(data) != urltag.PageSize {
		return fmt.Errorf("%w: %d bytes", urltag.ErrInvalidPage, len(data))
	}
	if page < 0 || page > 0xFF {
		return fmt.Errorf("%w: page %d", urltag.ErrInvalidPage, page)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return urltag.ErrTagLost
	}

	var buf [4]byte
	copy(buf[:], data)
	if err := t.tag.WritePage(byte(page), buf); err != nil {
		return fmt.Errorf("freefare write page %d: %w", page, err)
	}
	return nil
}

// DumpAll reads every page of the connected tag.
func (t *Transport) DumpAll(_ context.Context) ([][]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return nil, urltag.ErrTagLost
	}

	pages := make([][]byte, 0, t.pages)
	for page := range t.pages {
		data, err := t.tag.ReadPage(byte(page))
		if err != nil {
			return nil, fmt.Errorf("freefare read page %d: %w", page, err)
		}
		pages = append(pages, data[:])
	}
	return pages, nil
}

// Release disconnects from the tag.
func (t *Transport) Release(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.disconnect()
	t.tag = nil
	return err
}

// TagUID returns the UID of the detected tag.
func (t *Transport) TagUID() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tag == nil {
		return ""
	}
	return t.tag.UID()
}

// Close releases any tag and closes the device.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	discErr := t.disconnect()
	var closeErr error
	if t.closeFn != nil {
		closeErr = t.closeFn()
	}
	return errors.Join(discErr, closeErr)
}

func (t *Transport) disconnect() error {
	if !t.connected {
		return nil
	}
	t.connected = false
	if err := t.tag.Disconnect(); err != nil {
		return fmt.Errorf("freefare disconnect: %w", err)
	}
	return nil
}
