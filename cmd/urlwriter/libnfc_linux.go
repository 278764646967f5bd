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

//go:build linux

package main

import (
	"github.com/ZaparooProject/go-urltag/reader/libnfc"
	"github.com/rs/zerolog"
)

func libnfcDevices() ([]string, error) {
	return libnfc.ListDevices()
}

func openLibnfc(device string, logger zerolog.Logger) (reader, error) {
	t, err := libnfc.Open(device, libnfc.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return t, nil
}
