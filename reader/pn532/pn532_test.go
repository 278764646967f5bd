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

package pn532

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ZaparooProject/go-pn532"
	"github.com/ZaparooProject/go-urltag"
	testutil "github.com/ZaparooProject/go-urltag/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice answers Type 2 commands from a virtual tag.
type fakeDevice struct {
	tag        *testutil.VirtualTag
	detectErr  error
	selectErr  error
	releaseErr error
	tagType    pn532.TagType
	commands   [][]byte
	selects    int
	releases   int
	closed     bool
}

func newFakeDevice(tag *testutil.VirtualTag) *fakeDevice {
	return &fakeDevice{tag: tag, tagType: pn532.TagTypeNTAG}
}

func (f *fakeDevice) DetectTagContext(ctx context.Context) (*pn532.DetectedTag, error) {
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	present, _ := f.tag.DetectTag(ctx)
	if !present {
		return nil, pn532.ErrNoTagDetected
	}
	return &pn532.DetectedTag{
		UID:      f.tag.GetUIDString(),
		UIDBytes: f.tag.UID,
		Type:     f.tagType,
		SAK:      0x00,
	}, nil
}

func (f *fakeDevice) InSelectContext(_ context.Context, target byte) error {
	f.selects++
	if target != targetNumber {
		return fmt.Errorf("unknown target %d", target)
	}
	return f.selectErr
}

func (f *fakeDevice) SendDataExchangeContext(ctx context.Context, data []byte) ([]byte, error) {
	f.commands = append(f.commands, append([]byte(nil), data...))

	switch data[0] {
	case cmdWrite:
		if err := f.tag.WritePage(ctx, int(data[1]), data[2:]); err != nil {
			return nil, err
		}
		return []byte{}, nil
	case cmdRead:
		pages, err := f.tag.DumpAll(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, 16)
		// Reads past the end wrap around to page 0
		for i := range 4 {
			out = append(out, pages[(int(data[1])+i)%len(pages)]...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected command 0x%02X", data[0])
	}
}

func (f *fakeDevice) InReleaseContext(_ context.Context, _ byte) error {
	f.releases++
	return f.releaseErr
}

func (f *fakeDevice) Close() error {
	f.closed = true
	return nil
}

func TestTransportWritesURL(t *testing.T) {
	t.Parallel()

	tag := testutil.NewVirtualUltralight(nil)
	dev := newFakeDevice(tag)
	transport := New(dev, WithLogger(zerolog.Nop()))

	w, err := urltag.NewWriter(transport, urltag.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	outcome, err := w.WriteURLToTag(context.Background(), "https://www.hackaday.com", true)
	require.NoError(t, err)

	assert.Equal(t, urltag.StatusWritten, outcome.Status)
	assert.Equal(t, tag.GetUIDString(), outcome.UID)
	require.NotNil(t, outcome.Dump)
	assert.True(t, outcome.Dump.Verified)
	assert.Len(t, outcome.Dump.Pages, 16)
	assert.Equal(t, 1, dev.selects)
	assert.Equal(t, 1, dev.releases)

	assert.Equal(t, []byte{cmdWrite, 4, 0x03, 0x11, 0xD1, 0x01}, dev.commands[0])
	assert.Equal(t, []byte{cmdRead, 0}, dev.commands[5])
	assert.Equal(t, []byte{cmdRead, 12}, dev.commands[8])
	assert.Empty(t, transport.TagUID(), "release forgets the tag")
}

func TestTransportDumpPageCount(t *testing.T) {
	t.Parallel()

	tag := testutil.NewVirtualNTAG213(nil)
	transport := New(newFakeDevice(tag), WithPageCount(45), WithLogger(zerolog.Nop()))

	pages, err := transport.DumpAll(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 45)
	assert.Equal(t, tag.Page(44), pages[44])
	assert.Equal(t, tag.Page(3), pages[3])
}

func TestTransportNoTag(t *testing.T) {
	t.Parallel()

	tag := testutil.NewVirtualUltralight(nil)
	tag.Remove()
	transport := New(newFakeDevice(tag), WithLogger(zerolog.Nop()))

	present, err := transport.DetectTag(context.Background())
	require.NoError(t, err)
	assert.False(t, present)

	selected, err := transport.SelectTag(context.Background())
	require.NoError(t, err)
	assert.False(t, selected)
}

func TestTransportRejectsNonType2(t *testing.T) {
	t.Parallel()

	dev := newFakeDevice(testutil.NewVirtualUltralight(nil))
	dev.tagType = pn532.TagTypeMIFARE
	transport := New(dev, WithLogger(zerolog.Nop()))

	present, err := transport.DetectTag(context.Background())
	require.NoError(t, err)
	require.True(t, present)

	_, err = transport.SelectTag(context.Background())
	require.ErrorIs(t, err, urltag.ErrNotSupported)
	assert.Equal(t, 0, dev.selects)
}

func TestTransportErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err     error
		wantIs  error
		name    string
		fatal   bool
		transit bool
	}{
		{
			name:    "transport closed",
			err:     fmt.Errorf("detect: %w", pn532.ErrTransportClosed),
			wantIs:  urltag.ErrReaderGone,
			fatal:   true,
			transit: false,
		},
		{
			name:    "timeout",
			err:     pn532.ErrTransportTimeout,
			wantIs:  urltag.ErrTagLost,
			transit: true,
		},
		{
			name:   "other",
			err:    errors.New("odd"),
			wantIs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dev := newFakeDevice(testutil.NewVirtualUltralight(nil))
			dev.detectErr = tt.err
			transport := New(dev, WithLogger(zerolog.Nop()))

			_, err := transport.DetectTag(context.Background())
			require.ErrorIs(t, err, tt.err)
			if tt.wantIs != nil {
				require.ErrorIs(t, err, tt.wantIs)
			}
			assert.Equal(t, tt.fatal, urltag.IsFatal(err))
			assert.Equal(t, tt.transit, urltag.IsTransient(err))
		})
	}
}

func TestTransportWritePageValidation(t *testing.T) {
	t.Parallel()

	transport := New(newFakeDevice(testutil.NewVirtualUltralight(nil)), WithLogger(zerolog.Nop()))

	err := transport.WritePage(context.Background(), 4, []byte{1, 2, 3})
	require.ErrorIs(t, err, urltag.ErrInvalidPage)

	err = transport.WritePage(context.Background(), 256, []byte{1, 2, 3, 4})
	require.ErrorIs(t, err, urltag.ErrInvalidPage)
}

func TestTransportClose(t *testing.T) {
	t.Parallel()

	dev := newFakeDevice(testutil.NewVirtualUltralight(nil))
	transport := New(dev, WithLogger(zerolog.Nop()))
	require.NoError(t, transport.Close())
	assert.True(t, dev.closed)
}

func TestNewTransportRejectsUnknownBus(t *testing.T) {
	t.Parallel()

	_, err := newTransport("pn532_usb", "/dev/ttyUSB0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type: usb")

	_, err = newTransport("pn532_uart", "")
	require.Error(t, err)

	assert.True(t, IsDriver("pn532_spi"))
	assert.False(t, IsDriver("libnfc"))
	assert.Equal(t, []string{"pn532_spi", "pn532_uart", "pn532_i2c"}, Drivers())
}
