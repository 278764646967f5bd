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
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

type portLister struct {
	serial func() ([]string, error)
	spi    func() ([]string, error)
	libnfc func() ([]string, error)
}

func defaultPortLister() portLister {
	return portLister{
		serial: serial.GetPortsList,
		spi:    spiPorts,
		libnfc: libnfcDevices,
	}
}

func spiPorts() ([]string, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	var ports []string
	for _, ref := range spireg.All() {
		name := ref.Name
		if len(ref.Aliases) > 0 {
			name += " (" + strings.Join(ref.Aliases, ", ") + ")"
		}
		ports = append(ports, name)
	}
	return ports, nil
}

// listPorts prints candidate devices for every driver. A failing source
// is reported inline and does not stop the others.
func listPorts(w io.Writer, pl portLister) {
	sections := []struct {
		list  func() ([]string, error)
		title string
		hint  string
	}{
		{title: "Serial ports", hint: "pn532_uart", list: pl.serial},
		{title: "SPI ports", hint: "pn532_spi", list: pl.spi},
		{title: "libnfc devices", hint: "libnfc", list: pl.libnfc},
	}

	for _, s := range sections {
		_, _ = fmt.Fprintf(w, "%s (-driver %s):\n", s.title, s.hint)
		ports, err := s.list()
		switch {
		case err != nil:
			_, _ = fmt.Fprintf(w, "  error: %v\n", err)
		case len(ports) == 0:
			_, _ = fmt.Fprintln(w, "  none found")
		default:
			for _, p := range ports {
				_, _ = fmt.Fprintf(w, "  %s\n", p)
			}
		}
	}
}
