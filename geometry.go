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
	"fmt"
	"sort"
	"strings"

	"github.com/ZaparooProject/go-urltag/pkg/ndef"
)

const (
	// PageSize is the write unit of Type 2 tags.
	PageSize = 4

	// FirstUserPage is the first page after UID, lock bytes and the
	// capability container.
	FirstUserPage = 4
)

// TagGeometry describes the writable page range of a tag. LastWritablePage
// is inclusive. TotalPages counts every page including configuration
// pages; zero means the tag ends after LastWritablePage.
type TagGeometry struct {
	Name              string
	PageSize          int
	FirstWritablePage int
	LastWritablePage  int
	TotalPages        int
}

// Geometry presets
var (
	// GeometryUltralight is 11 pages of user memory, 37 characters after
	// prefix abbreviation.
	GeometryUltralight = TagGeometry{
		Name: "ultralight", PageSize: PageSize, FirstWritablePage: 4, LastWritablePage: 14, TotalPages: 16,
	}
	GeometryNTAG213 = TagGeometry{
		Name: "ntag213", PageSize: PageSize, FirstWritablePage: 4, LastWritablePage: 39, TotalPages: 45,
	}
	GeometryNTAG215 = TagGeometry{
		Name: "ntag215", PageSize: PageSize, FirstWritablePage: 4, LastWritablePage: 129, TotalPages: 135,
	}
	GeometryNTAG216 = TagGeometry{
		Name: "ntag216", PageSize: PageSize, FirstWritablePage: 4, LastWritablePage: 225, TotalPages: 231,
	}
)

var geometries = map[string]TagGeometry{
	GeometryUltralight.Name: GeometryUltralight,
	GeometryNTAG213.Name:    GeometryNTAG213,
	GeometryNTAG215.Name:    GeometryNTAG215,
	GeometryNTAG216.Name:    GeometryNTAG216,
}

// GeometryByName returns the preset with the given name, case-insensitively.
func GeometryByName(name string) (TagGeometry, bool) {
	g, ok := geometries[strings.ToLower(strings.TrimSpace(name))]
	return g, ok
}

// GeometryNames lists the preset names in sorted order.
func GeometryNames() []string {
	names := make([]string, 0, len(geometries))
	for name := range geometries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WritablePages returns the number of pages in the writable range.
func (g TagGeometry) WritablePages() int {
	return g.LastWritablePage - g.FirstWritablePage + 1
}

// CapacityBytes returns the size of the writable range in bytes.
func (g TagGeometry) CapacityBytes() int {
	return g.PageSize * g.WritablePages()
}

// PageCount returns the number of pages a full dump reads.
func (g TagGeometry) PageCount() int {
	if g.TotalPages > g.LastWritablePage {
		return g.TotalPages
	}
	return g.LastWritablePage + 1
}

// MaxAbbreviatedLength returns the longest abbreviated URI that fits.
func (g TagGeometry) MaxAbbreviatedLength() int {
	return g.CapacityBytes() - ndef.HeaderLength
}

// Check reports whether the geometry describes a usable Type 2 user area.
func (g TagGeometry) Check() error {
	switch {
	case g.PageSize != PageSize:
		return fmt.Errorf("%w: page size %d, want %d", ErrInvalidGeometry, g.PageSize, PageSize)
	case g.FirstWritablePage < FirstUserPage:
		return fmt.Errorf("%w: first writable page %d is below user memory", ErrInvalidGeometry, g.FirstWritablePage)
	case g.LastWritablePage < g.FirstWritablePage:
		return fmt.Errorf("%w: empty page range %d-%d", ErrInvalidGeometry, g.FirstWritablePage, g.LastWritablePage)
	case g.LastWritablePage > 0xFF:
		return fmt.Errorf("%w: last page %d not addressable", ErrInvalidGeometry, g.LastWritablePage)
	case g.TotalPages != 0 && g.TotalPages <= g.LastWritablePage:
		return fmt.Errorf("%w: %d pages cannot hold page %d", ErrInvalidGeometry, g.TotalPages, g.LastWritablePage)
	}
	return nil
}

func (g TagGeometry) String() string {
	name := g.Name
	if name == "" {
		name = "custom"
	}
	return fmt.Sprintf("%s (pages %d-%d, %d bytes)", name, g.FirstWritablePage, g.LastWritablePage, g.CapacityBytes())
}

// Validate checks that record fits the writable area of g. A record of
// exactly CapacityBytes is accepted.
func Validate(record *ndef.URIRecord, g TagGeometry) error {
	if err := g.Check(); err != nil {
		return err
	}
	if record.Len() > g.CapacityBytes() {
		return &CapacityError{RecordLength: record.Len(), Capacity: g.CapacityBytes()}
	}
	return nil
}
