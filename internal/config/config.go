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

// Package config loads the URL writer's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ZaparooProject/go-urltag"
	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

const SchemaVersion = 1

// ErrSchemaMismatch is returned for config files written for another schema.
var ErrSchemaMismatch = errors.New("config schema version mismatch")

type Values struct {
	URL          string `toml:"url" validate:"omitempty,printascii,max=1024"`
	Reader       Reader `toml:"reader"`
	Tag          Tag    `toml:"tag"`
	Poll         Poll   `toml:"poll"`
	Log          Log    `toml:"log"`
	ConfigSchema int    `toml:"config_schema"`
	Write        bool   `toml:"write"`
}

type Reader struct {
	Driver string `toml:"driver" validate:"oneof=pn532 pn532_spi pn532_uart pn532_i2c libnfc"`
	Device string `toml:"device"`
}

type Tag struct {
	Geometry      string `toml:"geometry" validate:"geometry"`
	FirstPage     int    `toml:"first_page,omitempty" validate:"omitempty,min=4,max=255"`
	LastPage      int    `toml:"last_page,omitempty" validate:"omitempty,min=4,max=255"`
	Dump          bool   `toml:"dump"`
	DumpOnFailure bool   `toml:"dump_on_failure"`
}

type Poll struct {
	Interval string `toml:"interval" validate:"required,duration"`
	Once     bool   `toml:"once"`
}

type Log struct {
	Level string `toml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	File  string `toml:"file,omitempty"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Write:        true,
	Reader: Reader{
		Driver: "pn532_uart",
	},
	Tag: Tag{
		Geometry: urltag.GeometryUltralight.Name,
		Dump:     true,
	},
	Poll: Poll{
		Interval: "250ms",
	},
	Log: Log{
		Level: "info",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", validateDuration)
	_ = v.RegisterValidation("geometry", validateGeometry)
	return v
}

// validateDuration checks if string is a valid positive duration.
func validateDuration(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	d, err := time.ParseDuration(val)
	return err == nil && d > 0
}

// validateGeometry checks the string names a tag geometry preset.
func validateGeometry(fl validator.FieldLevel) bool {
	_, ok := urltag.GeometryByName(fl.Field().String())
	return ok
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Values, error) {
	vals := BaseDefaults
	if path == "" {
		return vals, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Values{}, fmt.Errorf("failed to read config file: %w", err)
	}

	// Fields missing from the file keep their defaults
	if err := toml.Unmarshal(data, &vals); err != nil {
		return Values{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if vals.ConfigSchema != SchemaVersion {
		return Values{}, fmt.Errorf("%w: got %d, expecting %d", ErrSchemaMismatch, vals.ConfigSchema, SchemaVersion)
	}

	if err := Validate(&vals); err != nil {
		return Values{}, err
	}
	return vals, nil
}

// Validate checks field constraints and the custom page range.
func Validate(vals *Values) error {
	if err := validate.Struct(vals); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	g, err := vals.Geometry()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return g.Check()
}

// Marshal encodes the values as TOML.
func Marshal(vals *Values) ([]byte, error) {
	data, err := toml.Marshal(vals)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Geometry resolves the preset and applies any page overrides.
func (v *Values) Geometry() (urltag.TagGeometry, error) {
	g, ok := urltag.GeometryByName(v.Tag.Geometry)
	if !ok {
		return urltag.TagGeometry{}, fmt.Errorf("%w: unknown preset %q", urltag.ErrInvalidGeometry, v.Tag.Geometry)
	}
	if v.Tag.FirstPage == 0 && v.Tag.LastPage == 0 {
		return g, nil
	}

	g.Name = ""
	if v.Tag.FirstPage != 0 {
		g.FirstWritablePage = v.Tag.FirstPage
	}
	if v.Tag.LastPage != 0 {
		g.LastWritablePage = v.Tag.LastPage
	}
	if g.TotalPages <= g.LastWritablePage {
		g.TotalPages = 0
	}
	return g, nil
}

// PollInterval returns the parsed poll interval.
func (v *Values) PollInterval() time.Duration {
	d, err := time.ParseDuration(v.Poll.Interval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(BaseDefaults.Poll.Interval)
	}
	return d
}
