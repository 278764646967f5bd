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

// Command urlwriter writes a URL as an NDEF URI record to every NFC tag
// presented to the reader, then dumps the tag to confirm the write.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ZaparooProject/go-urltag"
	"github.com/ZaparooProject/go-urltag/internal/config"
	"github.com/ZaparooProject/go-urltag/pkg/ndef"
	pn532reader "github.com/ZaparooProject/go-urltag/reader/pn532"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// reader is a tag transport that owns a device connection.
type reader interface {
	urltag.Transport
	Close() error
}

type cliFlags struct {
	set        map[string]bool
	url        string
	driver     string
	device     string
	geometry   string
	configPath string
	interval   string
	logFile    string
	write      bool
	once       bool
	debug      bool
	list       bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("urlwriter", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.url, "url", "", "URL to write to each presented tag")
	fs.BoolVar(&f.write, "write", true, "Write the URL; false only dumps presented tags")
	fs.StringVar(&f.driver, "driver", "", "Reader driver: pn532_uart, pn532_spi, pn532_i2c or libnfc")
	fs.StringVar(&f.device, "device", "", "Device path, or libnfc connection string")
	fs.StringVar(&f.geometry, "geometry", "",
		"Tag geometry: "+strings.Join(urltag.GeometryNames(), ", "))
	fs.StringVar(&f.configPath, "config", "", "Path to a TOML config file")
	fs.BoolVar(&f.once, "once", false, "Exit after the first handled tag")
	fs.StringVar(&f.interval, "interval", "", "Poll interval, e.g. 250ms")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug output")
	fs.StringVar(&f.logFile, "log-file", "", "Also log to this file, rotated at 1MB")
	fs.BoolVar(&f.list, "list", false, "List candidate reader devices and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply overrides config values with the flags given on the command line.
func (f *cliFlags) apply(vals *config.Values) {
	if f.set["url"] {
		vals.URL = f.url
	}
	if f.set["write"] {
		vals.Write = f.write
	}
	if f.set["driver"] {
		vals.Reader.Driver = f.driver
	}
	if f.set["device"] {
		vals.Reader.Device = f.device
	}
	if f.set["geometry"] {
		vals.Tag.Geometry = f.geometry
	}
	if f.set["once"] {
		vals.Poll.Once = f.once
	}
	if f.set["interval"] {
		vals.Poll.Interval = f.interval
	}
	if f.set["log-file"] {
		vals.Log.File = f.logFile
	}
}

func resolveConfig(f *cliFlags) (config.Values, error) {
	vals, err := config.Load(f.configPath)
	if err != nil {
		return config.Values{}, err
	}
	f.apply(&vals)
	if err := config.Validate(&vals); err != nil {
		return config.Values{}, err
	}
	if vals.Write && vals.URL == "" {
		return config.Values{}, errors.New("a URL is required unless -write=false")
	}
	return vals, nil
}

func openReader(vals *config.Values, g urltag.TagGeometry, logger zerolog.Logger) (reader, error) {
	if vals.Reader.Driver == "libnfc" {
		return openLibnfc(vals.Reader.Device, logger)
	}
	if !pn532reader.IsDriver(vals.Reader.Driver) {
		return nil, fmt.Errorf("%w: driver %q", urltag.ErrNotSupported, vals.Reader.Driver)
	}
	t, err := pn532reader.Open(vals.Reader.Driver, vals.Reader.Device,
		pn532reader.WithPageCount(g.PageCount()),
		pn532reader.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// serve encodes the configured URL and polls transport until ctx ends.
func serve(
	ctx context.Context,
	transport urltag.Transport,
	vals *config.Values,
	logger zerolog.Logger,
	out io.Writer,
	clock clockwork.Clock,
) error {
	g, err := vals.Geometry()
	if err != nil {
		return err
	}

	w, err := urltag.NewWriter(transport,
		urltag.WithGeometry(g),
		urltag.WithLogger(logger),
		urltag.WithDump(vals.Tag.Dump),
		urltag.WithDumpOnFailure(vals.Tag.DumpOnFailure),
	)
	if err != nil {
		return err
	}

	var record *ndef.URIRecord
	if vals.Write {
		record, err = w.Prepare(vals.URL)
		if err != nil {
			return err
		}
		logger.Info().
			Str("uri", record.URI()).
			Int("bytes", record.Len()).
			Stringer("geometry", g).
			Msg("waiting for tags to write")
	} else {
		logger.Info().Msg("writing disabled, dumping presented tags")
	}

	return runLoop(ctx, w, &loopConfig{
		clock:    clock,
		out:      out,
		record:   record,
		log:      logger,
		interval: vals.PollInterval(),
		once:     vals.Poll.Once,
		write:    vals.Write,
	})
}

func run(ctx context.Context, vals *config.Values, logger zerolog.Logger, out io.Writer) error {
	g, err := vals.Geometry()
	if err != nil {
		return err
	}

	rd, err := openReader(vals, g, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rd.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close reader")
		}
	}()

	return serve(ctx, rd, vals, logger, out, clockwork.NewRealClock())
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:], os.Stdout, os.Stderr))
}

func mainWithExitCode(args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if f.list {
		listPorts(stdout, defaultPortLister())
		return exitOK
	}

	vals, err := resolveConfig(f)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger, closeLog, err := initLogging(stderr, vals.Log.Level, vals.Log.File, f.debug)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer func() {
		_ = closeLog()
	}()

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Info().Msg("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := run(ctx, &vals, logger, stdout); err != nil {
		if errors.Is(err, context.Canceled) {
			return exitOK
		}
		logger.Error().Err(err).Msg("urlwriter failed")
		return exitError
	}
	return exitOK
}
