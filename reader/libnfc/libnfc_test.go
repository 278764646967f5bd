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

package libnfc

import (
	"context"
	"errors"
	"testing"

	"github.com/ZaparooProject/go-urltag"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUltralight struct {
	failWrite   map[byte]error
	uid         string
	memory      [][4]byte
	connects    int
	disconnects int
}

func newFakeUltralight() *fakeUltralight {
	return &fakeUltralight{
		uid:       "04112233445566",
		memory:    make([][4]byte, ultralightPages),
		failWrite: make(map[byte]error),
	}
}

func (f *fakeUltralight) UID() string { return f.uid }

func (f *fakeUltralight) Connect() error {
	f.connects++
	return nil
}

func (f *fakeUltralight) Disconnect() error {
	f.disconnects++
	return nil
}

func (f *fakeUltralight) ReadPage(page byte) ([4]byte, error) {
	if int(page) >= len(f.memory) {
		return [4]byte{}, errors.New("read out of range")
	}
	return f.memory[page], nil
}

func (f *fakeUltralight) WritePage(page byte, data [4]byte) error {
	if err, ok := f.failWrite[page]; ok {
		return err
	}
	f.memory[page] = data
	return nil
}

func newTestTransport(tags ...*fakeUltralight) *Transport {
	return &Transport{
		log: zerolog.Nop(),
		listTags: func() ([]foundTag, error) {
			found := make([]foundTag, 0, len(tags))
			for _, tag := range tags {
				found = append(found, foundTag{tag: tag, pages: ultralightPages})
			}
			return found, nil
		},
	}
}

func TestTransportWritesURL(t *testing.T) {
	t.Parallel()

	tag := newFakeUltralight()
	tr := newTestTransport(tag)

	w, err := urltag.NewWriter(tr, urltag.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	outcome, err := w.WriteURLToTag(context.Background(), "https://www.hackaday.com", true)
	require.NoError(t, err)

	assert.Equal(t, urltag.StatusWritten, outcome.Status)
	assert.Equal(t, "04112233445566", outcome.UID)
	require.NotNil(t, outcome.Dump)
	assert.True(t, outcome.Dump.Verified)
	assert.Equal(t, [4]byte{0x03, 0x11, 0xD1, 0x01}, tag.memory[4])
	assert.Equal(t, 1, tag.connects)
	assert.Equal(t, 1, tag.disconnects)
}

func TestTransportNoTag(t *testing.T) {
	t.Parallel()

	tr := newTestTransport()

	present, err := tr.DetectTag(context.Background())
	require.NoError(t, err)
	assert.False(t, present)

	selected, err := tr.SelectTag(context.Background())
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Empty(t, tr.TagUID())
}

func TestTransportRequiresSelect(t *testing.T) {
	t.Parallel()

	tr := newTestTransport(newFakeUltralight())

	err := tr.WritePage(context.Background(), 4, []byte{1, 2, 3, 4})
	require.ErrorIs(t, err, urltag.ErrTagLost)

	_, err = tr.DumpAll(context.Background())
	require.ErrorIs(t, err, urltag.ErrTagLost)

	err = tr.WritePage(context.Background(), 4, []byte{1, 2})
	require.ErrorIs(t, err, urltag.ErrInvalidPage)
}

func TestTransportWriteFailure(t *testing.T) {
	t.Parallel()

	tag := newFakeUltralight()
	tag.failWrite[6] = errors.New("NAK")
	tr := newTestTransport(tag)

	w, err := urltag.NewWriter(tr, urltag.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	outcome, err := w.WriteURLToTag(context.Background(), "https://www.hackaday.com", true)
	require.NoError(t, err)

	var writeErr *urltag.WriteError
	require.ErrorAs(t, outcome.Err, &writeErr)
	assert.Equal(t, 2, writeErr.PageIndex)
	assert.Equal(t, 1, tag.disconnects)
}

func TestTransportPollError(t *testing.T) {
	t.Parallel()

	tr := &Transport{
		log: zerolog.Nop(),
		listTags: func() ([]foundTag, error) {
			return nil, errors.New("device gone")
		},
	}

	_, err := tr.DetectTag(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "freefare poll")
}

func TestTransportClose(t *testing.T) {
	t.Parallel()

	tag := newFakeUltralight()
	tr := newTestTransport(tag)
	closed := false
	tr.closeFn = func() error {
		closed = true
		return nil
	}

	_, err := tr.DetectTag(context.Background())
	require.NoError(t, err)
	_, err = tr.SelectTag(context.Background())
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	assert.True(t, closed)
	assert.Equal(t, 1, tag.disconnects)
}
