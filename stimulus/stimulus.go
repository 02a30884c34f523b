// Package stimulus models the read/write sequences fed to the SRAM testbench
// and the plain-text file format the testbench reads them from.
package stimulus

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/sramchar/macro"
)

// Op is the operation applied to the macro in one cycle.
type Op uint8

// Operations understood by the testbench.
const (
	Read  Op = 0
	Write Op = 1
)

func (o Op) String() string {
	switch o {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// Field limits of the default testbench.
const (
	DataMax  uint64 = 1<<32 - 1
	AddrOne  uint64 = 1
	AddrMax  uint64 = 1<<6 - 1
	WMaskMax uint64 = 1<<4 - 1
)

// Tuple is the stimulus of one cycle.
type Tuple struct {
	Op     Op
	DataIn uint64
	Addr   uint64
	WMask  uint64
}

// Vector is an ordered sequence of tuples, one per simulated cycle.
type Vector []Tuple

// Bounds are the bit widths of the data, address, and write mask fields.
type Bounds struct {
	DataWidth  int
	AddrWidth  int
	WMaskWidth int
}

// DefaultBounds returns the field widths of the 64x32 testbench.
func DefaultBounds() Bounds {
	return Bounds{DataWidth: 32, AddrWidth: 6, WMaskWidth: 4}
}

// BoundsFor returns the field widths of a macro.
func BoundsFor(c macro.Config) Bounds {
	return Bounds{
		DataWidth:  c.DataWidth,
		AddrWidth:  c.AddrWidth,
		WMaskWidth: c.WMaskWidth,
	}
}

// DataMax returns the largest data value.
func (b Bounds) DataMax() uint64 { return maxOf(b.DataWidth) }

// AddrMax returns the largest address.
func (b Bounds) AddrMax() uint64 { return maxOf(b.AddrWidth) }

// WMaskMax returns the write mask with every bit set.
func (b Bounds) WMaskMax() uint64 { return maxOf(b.WMaskWidth) }

func maxOf(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}

	return 1<<uint(width) - 1
}

// Validate checks that every tuple fits the given bounds.
func (v Vector) Validate(b Bounds) error {
	for i, t := range v {
		switch {
		case t.Op != Read && t.Op != Write:
			return fmt.Errorf("cycle %d: unknown op %d", i, t.Op)
		case t.DataIn > b.DataMax():
			return fmt.Errorf("cycle %d: data %#x exceeds %d bits",
				i, t.DataIn, b.DataWidth)
		case t.Addr > b.AddrMax():
			return fmt.Errorf("cycle %d: address %d exceeds %d bits",
				i, t.Addr, b.AddrWidth)
		case t.WMask > b.WMaskMax():
			return fmt.Errorf("cycle %d: write mask %#x exceeds %d bits",
				i, t.WMask, b.WMaskWidth)
		}
	}

	return nil
}

// WriteTo writes one line per tuple. Each field is a binary number with no
// padding, fields are separated by a single space.
func (v Vector) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)

	var n int64
	for _, t := range v {
		line := strings.Join([]string{
			strconv.FormatUint(uint64(t.Op), 2),
			strconv.FormatUint(t.DataIn, 2),
			strconv.FormatUint(t.Addr, 2),
			strconv.FormatUint(t.WMask, 2),
		}, " ") + "\n"

		c, err := bw.WriteString(line)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}

	return n, bw.Flush()
}

// ReadVector parses a stimulus file written by WriteTo.
func ReadVector(r io.Reader) (Vector, error) {
	v := Vector{}
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: expected 4 fields, got %d",
				lineNo, len(fields))
		}

		values := [4]uint64{}
		for i, f := range fields {
			x, err := strconv.ParseUint(f, 2, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}

			values[i] = x
		}

		v = append(v, Tuple{
			Op:     Op(values[0]),
			DataIn: values[1],
			Addr:   values[2],
			WMask:  values[3],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return v, nil
}
