// Package swapchain classifies swapchain image formats for scenarios that
// create or render into swapchains. Tables are data: one embedded YAML file
// per graphics API.
package swapchain

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed formats/*.yaml
var formatFiles embed.FS

// GraphicsAPI names a graphics binding with a format table.
type GraphicsAPI string

const (
	GraphicsAPIVulkan GraphicsAPI = "vulkan"
	GraphicsAPIOpenGL GraphicsAPI = "opengl"
)

type tableFile struct {
	API     GraphicsAPI `yaml:"api"`
	Default string      `yaml:"default"`
	Formats []Format    `yaml:"formats"`
}

// Table is the read-only format classification for one graphics API.
type Table struct {
	api     GraphicsAPI
	def     int64
	formats []Parameters
	byID    map[int64]int
	byName  map[string]int
}

// APIs lists the graphics APIs with an embedded table.
func APIs() []GraphicsAPI {
	entries, err := formatFiles.ReadDir("formats")
	if err != nil {
		return nil
	}
	apis := make([]GraphicsAPI, 0, len(entries))
	for _, e := range entries {
		apis = append(apis, GraphicsAPI(strings.TrimSuffix(e.Name(), ".yaml")))
	}
	sort.Slice(apis, func(i, j int) bool { return apis[i] < apis[j] })
	return apis
}

// Load parses and validates the embedded table for api.
func Load(api GraphicsAPI) (*Table, error) {
	data, err := formatFiles.ReadFile(path.Join("formats", string(api)+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("no format table for graphics API %q", api)
	}
	return Parse(data)
}

// Parse builds and validates a table from YAML.
func Parse(data []byte) (*Table, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f tableFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse format table: %w", err)
	}

	t := &Table{
		api:    f.API,
		byID:   make(map[int64]int, len(f.Formats)),
		byName: make(map[string]int, len(f.Formats)),
	}
	for _, format := range f.Formats {
		t.formats = append(t.formats, deriveParameters(format))
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("format table %q: %w", f.API, err)
	}
	for i, p := range t.formats {
		t.byID[p.ID] = i
		t.byName[p.Name] = i
	}
	if f.Default != "" {
		p, ok := t.LookupName(f.Default)
		if !ok {
			return nil, fmt.Errorf("format table %q: default format %q is not listed", f.API, f.Default)
		}
		t.def = p.ID
	}
	return t, nil
}

// Validate checks the invariants every record must hold.
func (t *Table) Validate() error {
	var errs error
	ids := make(map[int64]string, len(t.formats))
	names := make(map[string]bool, len(t.formats))
	for _, p := range t.formats {
		if p.Name == "" {
			errs = errors.Join(errs, fmt.Errorf("format %d has no name", p.ID))
		}
		if other, dup := ids[p.ID]; dup {
			errs = errors.Join(errs, fmt.Errorf("%s: id %d already used by %s", p.Name, p.ID, other))
		}
		if names[p.Name] {
			errs = errors.Join(errs, fmt.Errorf("%s: duplicate name", p.Name))
		}
		ids[p.ID] = p.Name
		names[p.Name] = true

		if p.IntegerRange.IsInteger() && !p.Color {
			errs = errors.Join(errs, fmt.Errorf("%s: integer range %s on a non-color format", p.Name, p.IntegerRange))
		}
		if p.Mutable && !p.SupportsMutable {
			errs = errors.Join(errs, fmt.Errorf("%s: mutable format must support mutable usage", p.Name))
		}
		if p.Compressed && p.Renderable {
			errs = errors.Join(errs, fmt.Errorf("%s: compressed format cannot be renderable", p.Name))
		}
		if p.Color && (p.Depth || p.Stencil) {
			errs = errors.Join(errs, fmt.Errorf("%s: color format cannot be a depth or stencil buffer", p.Name))
		}
		if p.Color && p.Components == 0 {
			errs = errors.Join(errs, fmt.Errorf("%s: color format stores no components", p.Name))
		}
		if !p.Color && p.Components != 0 {
			errs = errors.Join(errs, fmt.Errorf("%s: non-color format lists color components", p.Name))
		}
		if !p.Color && !p.Depth && !p.Stencil {
			errs = errors.Join(errs, fmt.Errorf("%s: non-color format is neither depth nor stencil", p.Name))
		}
	}
	return errs
}

// API returns the graphics API the table describes.
func (t *Table) API() GraphicsAPI {
	return t.api
}

// Default returns the format scenarios use when they need any renderable
// color format.
func (t *Table) Default() (Parameters, bool) {
	return t.Lookup(t.def)
}

// Formats returns every record in table order.
func (t *Table) Formats() []Parameters {
	return append([]Parameters(nil), t.formats...)
}

// Lookup returns the record for a graphics-API format id.
func (t *Table) Lookup(id int64) (Parameters, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Parameters{}, false
	}
	return t.formats[i], true
}

// LookupName returns the record with the given identifier name.
func (t *Table) LookupName(name string) (Parameters, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Parameters{}, false
	}
	return t.formats[i], true
}

// Classify splits formats enumerated by a runtime into those the table knows
// and those it does not, preserving order.
func (t *Table) Classify(ids []int64) (known []Parameters, unknown []int64) {
	for _, id := range ids {
		if p, ok := t.Lookup(id); ok {
			known = append(known, p)
		} else {
			unknown = append(unknown, id)
		}
	}
	return known, unknown
}

// RenderComparisonCandidates returns the enumerated formats that can be
// rendered to and compared visually: renderable color formats that do not
// sample as integers.
func (t *Table) RenderComparisonCandidates(ids []int64) []Parameters {
	known, _ := t.Classify(ids)
	var out []Parameters
	for _, p := range known {
		if p.Renderable && p.Color && !p.IntegerRange.IsInteger() {
			out = append(out, p)
		}
	}
	return out
}
