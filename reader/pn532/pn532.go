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

// Package pn532 connects the URL writer to PN532 readers over SPI, UART or
// I2C.
package pn532

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZaparooProject/go-pn532"
	"github.com/ZaparooProject/go-pn532/transport/i2c"
	"github.com/ZaparooProject/go-pn532/transport/spi"
	"github.com/ZaparooProject/go-pn532/transport/uart"
	"github.com/ZaparooProject/go-urltag"
	"github.com/ZaparooProject/go-urltag/internal/syncutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// Type 2 tag commands sent through InDataExchange
	cmdRead  = 0x30
	cmdWrite = 0xA2

	// READ returns four pages per call
	pagesPerRead = 4

	// The PN532 numbers listed targets from 1
	targetNumber = 1

	deviceTimeout = 5 * time.Second
)

// Device abstracts the subset of *pn532.Device the transport uses.
type Device interface {
	DetectTagContext(ctx context.Context) (*pn532.DetectedTag, error)
	InSelectContext(ctx context.Context, targetNumber byte) error
	SendDataExchangeContext(ctx context.Context, data []byte) ([]byte, error)
	InReleaseContext(ctx context.Context, targetNumber byte) error
	Close() error
}

// Option configures a Transport
type Option func(*Transport)

// WithPageCount sets how many pages DumpAll reads.
func WithPageCount(pages int) Option {
	return func(t *Transport) {
		t.pageCount = pages
	}
}

// WithLogger sets the logger used for reader diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transport) {
		t.log = logger
	}
}

// Transport drives a Type 2 tag through a PN532. It implements
// urltag.Transport and urltag.UIDReporter.
type Transport struct {
	device    Device
	tag       *pn532.DetectedTag
	log       zerolog.Logger
	name      string
	pageCount int
	mu        syncutil.Mutex
}

// New wraps an initialised device.
func New(device Device, opts ...Option) *Transport {
	t := &Transport{
		device:    device,
		log:       log.Logger,
		pageCount: urltag.GeometryUltralight.PageCount(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Drivers lists the driver names Open accepts.
func Drivers() []string {
	return []string{"pn532_spi", "pn532_uart", "pn532_i2c"}
}

// IsDriver reports whether driver names a PN532 connection.
func IsDriver(driver string) bool {
	return strings.HasPrefix(driver, "pn532")
}

// newTransport creates the go-pn532 transport for a driver name such as
// "pn532_uart". A bare "pn532" picks the bus from the device path.
func newTransport(driver, path string) (pn532.Transport, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}

	bus := strings.TrimPrefix(driver, "pn532_")
	if bus == driver {
		pathLower := strings.ToLower(path)
		switch {
		case strings.Contains(pathLower, "i2c"):
			bus = "i2c"
		case strings.Contains(pathLower, "spi"):
			bus = "spi"
		default:
			bus = "uart"
		}
	}

	switch bus {
	case "uart":
		transport, err := uart.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create UART transport: %w", err)
		}
		return transport, nil
	case "i2c":
		transport, err := i2c.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return transport, nil
	case "spi":
		transport, err := spi.New(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SPI transport: %w", err)
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", bus)
	}
}

// Open connects to a PN532 on path and initialises it.
func Open(driver, path string, opts ...Option) (*Transport, error) {
	transport, err := newTransport(driver, path)
	if err != nil {
		return nil, err
	}

	device, err := pn532.New(transport)
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("failed to create PN532 device: %w", err)
	}

	if err := device.Init(); err != nil {
		_ = device.Close()
		return nil, fmt.Errorf("failed to initialize PN532: %w", err)
	}
	if err := device.SetTimeout(deviceTimeout); err != nil {
		_ = device.Close()
		return nil, fmt.Errorf("failed to set PN532 timeout: %w", err)
	}

	t := New(device, opts...)
	t.name = driver + ":" + path
	t.log.Info().Str("device", t.name).Msg("PN532 reader connected")
	return t, nil
}

// String returns the connection string of the reader.
func (t *Transport) String() string {
	return t.name
}

// DetectTag makes one InListPassiveTarget attempt.
func (t *Transport) DetectTag(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tag, err := t.device.DetectTagContext(ctx)
	if errors.Is(err, pn532.ErrNoTagDetected) {
		t.tag = nil
		return false, nil
	}
	if err != nil {
		t.tag = nil
		return false, classify(err)
	}

	t.tag = tag
	t.log.Debug().
		Str("uid", tag.UID).
		Str("type", string(tag.Type)).
		Msgf("detected tag, SAK 0x%02X", tag.SAK)
	return true, nil
}

// SelectTag selects the detected tag. Only Type 2 tags can be written.
func (t *Transport) SelectTag(ctx context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tag == nil {
		return false, nil
	}
	if t.tag.Type != pn532.TagTypeNTAG {
		return false, fmt.Errorf("%w: %s", urltag.ErrNotSupported, t.tag.Type)
	}
	if err := t.device.InSelectContext(ctx, targetNumber); err != nil {
		return false, classify(err)
	}
	return true, nil
}

// WritePage sends a Type 2 WRITE for one page.
func (t *Transport) WritePage(ctx context.Context, page int, data []byte) error {
	if len(data) != urltag.PageSize {
		return fmt.Errorf("%w: %d bytes", urltag.ErrInvalidPage, len(data))
	}
	if page < 0 || page > 0xFF {
		return fmt.Errorf("%w: page %d", urltag.ErrInvalidPage, page)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cmd := make([]byte, 0, 2+len(data))
	cmd = append(cmd, cmdWrite, byte(page))
	cmd = append(cmd, data...)

	if _, err := t.device.SendDataExchangeContext(ctx, cmd); err != nil {
		return classify(err)
	}
	return nil
}

// DumpAll reads the tag four pages at a time.
func (t *Transport) DumpAll(ctx context.Context) ([][]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pages := make([][]byte, 0, t.pageCount)
	for page := 0; page < t.pageCount; page += pagesPerRead {
		data, err := t.device.SendDataExchangeContext(ctx, []byte{cmdRead, byte(page)})
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", page, classify(err))
		}
		if len(data) < pagesPerRead*urltag.PageSize {
			return nil, fmt.Errorf("%w: page %d returned %d bytes", urltag.ErrShortRead, page, len(data))
		}
		for i := 0; i < pagesPerRead && page+i < t.pageCount; i++ {
			chunk := make([]byte, urltag.PageSize)
			copy(chunk, data[i*urltag.PageSize:])
			pages = append(pages, chunk)
		}
	}
	return pages, nil
}

// Release sends InRelease for the selected target.
func (t *Transport) Release(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tag = nil
	if err := t.device.InReleaseContext(ctx, targetNumber); err != nil {
		return classify(err)
	}
	return nil
}

// TagUID returns the UID of the last detected tag.
func (t *Transport) TagUID() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tag == nil {
		return ""
	}
	return t.tag.UID
}

// Close closes the reader.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.device.Close(); err != nil {
		return fmt.Errorf("failed to close PN532: %w", err)
	}
	return nil
}

// classify maps go-pn532 errors onto the session error categories.
func classify(err error) error {
	switch {
	case pn532.IsFatal(err):
		return fmt.Errorf("%w: %w", urltag.ErrReaderGone, err)
	case errors.Is(err, pn532.ErrTagNotFound), errors.Is(err, pn532.ErrTransportTimeout):
		return fmt.Errorf("%w: %w", urltag.ErrTagLost, err)
	default:
		return err
	}
}
