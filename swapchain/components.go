package swapchain

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// RawColorComponents is the set of components a format actually stores.
// Components outside the set sample as their default value.
type RawColorComponents uint8

const (
	ComponentR RawColorComponents = 1 << iota
	ComponentG
	ComponentB
	ComponentA

	ComponentsRGBA = ComponentR | ComponentG | ComponentB | ComponentA
	ComponentsRGB  = ComponentR | ComponentG | ComponentB
)

const componentLetters = "rgba"

// Has reports whether every component in c is present.
func (rc RawColorComponents) Has(c RawColorComponents) bool {
	return rc&c == c
}

// String lists the stored components, e.g. "rgb". The empty set prints as "-".
func (rc RawColorComponents) String() string {
	var b strings.Builder
	for i := range componentLetters {
		if rc&(1<<i) != 0 {
			b.WriteByte(componentLetters[i])
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

// ParseRawColorComponents parses a string such as "rgba" or "r".
func ParseRawColorComponents(s string) (RawColorComponents, error) {
	if s == "" || s == "-" {
		return 0, nil
	}
	var rc RawColorComponents
	for _, ch := range strings.ToLower(s) {
		i := strings.IndexRune(componentLetters, ch)
		if i < 0 {
			return 0, fmt.Errorf("unknown color component %q in %q", ch, s)
		}
		bit := RawColorComponents(1 << i)
		if rc&bit != 0 {
			return 0, fmt.Errorf("duplicate color component %q in %q", ch, s)
		}
		rc |= bit
	}
	return rc, nil
}

func (rc *RawColorComponents) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseRawColorComponents(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*rc = parsed
	return nil
}
