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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TransitionFunc is called after every session state change.
type TransitionFunc func(from State, to Transition)

type config struct {
	logger        zerolog.Logger
	onTransition  TransitionFunc
	geometry      TagGeometry
	dump          bool
	dumpOnFailure bool
}

func defaultConfig() config {
	return config{
		logger:   log.Logger,
		geometry: GeometryUltralight,
		dump:     true,
	}
}

// Option is a functional option for configuring a Writer or Session
type Option func(*config) error

// WithGeometry sets the writable page range of the target tags
func WithGeometry(g TagGeometry) Option {
	return func(c *config) error {
		if err := g.Check(); err != nil {
			return err
		}
		c.geometry = g
		return nil
	}
}

// WithLogger sets the logger. The global zerolog logger is used otherwise.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithDump enables or disables the read-back pass after a complete write
// and in read-only sessions
func WithDump(enabled bool) Option {
	return func(c *config) error {
		c.dump = enabled
		return nil
	}
}

// WithDumpOnFailure also dumps the tag after a failed page write
func WithDumpOnFailure(enabled bool) Option {
	return func(c *config) error {
		c.dumpOnFailure = enabled
		return nil
	}
}

// WithTransitionHook registers a callback for state changes
func WithTransitionHook(fn TransitionFunc) Option {
	return func(c *config) error {
		c.onTransition = fn
		return nil
	}
}

func buildConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}
	return cfg, nil
}
