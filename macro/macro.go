// Package macro derives the geometry parameters of an SRAM macro from its
// compact name, for example sram22_64x32m4w8.
package macro

import (
	"fmt"
	"math/bits"
	"regexp"
	"strconv"
)

var namePattern = regexp.MustCompile(
	`^([^_]+)_(\d+)x(\d+)m(\d+)w(\d+)$`)

// Config holds the parameters of an SRAM macro.
type Config struct {
	Name       string
	Words      int
	DataWidth  int
	Mux        int
	WriteSize  int
	AddrWidth  int
	WMaskWidth int
}

// Define is a single preprocessor define passed to the RTL.
type Define struct {
	Key   string
	Value string
}

// String returns the define in KEY=VALUE form.
func (d Define) String() string {
	return d.Key + "=" + d.Value
}

// FormatError is returned when a macro name does not follow the
// prefix_{words}x{bits}m{mux}w{writeSize} layout.
type FormatError struct {
	Name   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed macro name %q: %s", e.Name, e.Reason)
}

// DomainError is returned when a macro name is well formed but describes an
// impossible geometry.
type DomainError struct {
	Name   string
	Reason string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("invalid macro geometry %q: %s", e.Name, e.Reason)
}

// Parse derives the macro parameters from a macro name.
func Parse(name string) (Config, error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return Config{}, &FormatError{
			Name:   name,
			Reason: "expected prefix_{words}x{bits}m{mux}w{writeSize}",
		}
	}

	fields := make([]int, 4)
	for i, s := range m[2:] {
		v, err := strconv.Atoi(s)
		if err != nil {
			return Config{}, &FormatError{Name: name, Reason: err.Error()}
		}

		fields[i] = v
	}

	c := Config{
		Name:      name,
		Words:     fields[0],
		DataWidth: fields[1],
		Mux:       fields[2],
		WriteSize: fields[3],
	}

	if err := c.check(); err != nil {
		return Config{}, err
	}

	c.AddrWidth = log2Ceil(c.Words)
	c.WMaskWidth = c.DataWidth / c.WriteSize

	return c, nil
}

// MustParse is like Parse but panics on error.
func MustParse(name string) Config {
	c, err := Parse(name)
	if err != nil {
		panic(err)
	}

	return c
}

func (c Config) check() error {
	switch {
	case c.Words <= 0:
		return &DomainError{Name: c.Name, Reason: "word count must be positive"}
	case c.DataWidth <= 0:
		return &DomainError{Name: c.Name, Reason: "data width must be positive"}
	case c.Mux <= 0:
		return &DomainError{Name: c.Name, Reason: "column mux must be positive"}
	case c.WriteSize <= 0:
		return &DomainError{Name: c.Name, Reason: "write size must be positive"}
	case c.DataWidth%c.WriteSize != 0:
		return &DomainError{
			Name: c.Name,
			Reason: fmt.Sprintf("write size %d does not divide data width %d",
				c.WriteSize, c.DataWidth),
		}
	}

	return nil
}

// Defines returns the preprocessor defines that parameterize the testbench.
func (c Config) Defines() []Define {
	return []Define{
		{Key: "SRAM", Value: c.Name},
		{Key: "DATA_WIDTH", Value: strconv.Itoa(c.DataWidth)},
		{Key: "ADDR_WIDTH", Value: strconv.Itoa(c.AddrWidth)},
		{Key: "WMASK_WIDTH", Value: strconv.Itoa(c.WMaskWidth)},
	}
}

// log2Ceil returns ceil(log2(n)) for n >= 1.
func log2Ceil(n int) int {
	return bits.Len(uint(n - 1))
}
