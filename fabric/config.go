// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fabric

import (
	"github.com/pkg/errors"
)

// ErrConfig is the cause of all errors returned by Config.Validate.
//
var ErrConfig = errors.New("invalid fabric configuration")

// Frame field widths and limits.
//
const (
	SelectBits = 10 // width of the select field
	AddrBits   = 4  // width of the row address and unit strap
	MaxColumns = 32 // 4 bits group index, two columns per group
	MaxWidth   = 64 // spine frames are packed into uint64 values
)

// Config holds the parameters of a row unit. All units on a spine share the
// same configuration.
//
type Config struct {
	Columns      int  // slot columns; two rows per column
	Outputs      int  // dedicated outputs per slot
	Inputs       int  // dedicated inputs per slot
	IOs          int  // bidirectional pins per slot (output, output enable and input)
	GateOnEnable bool // gate the row decode with the spine enable bit
}

// DefaultConfig returns a 16 columns configuration with 8 outputs, 8 inputs
// and 8 bidirectional pins per slot.
//
func DefaultConfig() Config {
	return Config{Columns: 16, Outputs: 8, Inputs: 8, IOs: 8}
}

// Slots returns the number of slots in a unit.
//
func (c Config) Slots() int { return 2 * c.Columns }

// Groups returns the number of 4 slots groups in a unit.
//
func (c Config) Groups() int { return c.Columns / 2 }

// OutWidth returns the width of a slot output vector, which is also the width
// of the outward user field.
//
func (c Config) OutWidth() int { return c.Outputs + 2*c.IOs }

// InWidth returns the width of a slot input vector, which is also the width
// of the inward payload.
//
func (c Config) InWidth() int { return c.Inputs + c.IOs }

// SpineOutWidth returns the width of the outward spine frame: the user field
// framed by two sentinels.
//
func (c Config) SpineOutWidth() int { return c.OutWidth() + 2 }

// SpineInWidth returns the width of the inward spine frame: payload, select
// field and enable bit framed by two sentinels.
//
func (c Config) SpineInWidth() int { return c.InWidth() + SelectBits + 3 }

// Validate checks that c describes a buildable unit.
//
func (c Config) Validate() error {
	switch {
	case c.Columns <= 0 || c.Columns > MaxColumns:
		return errors.Wrapf(ErrConfig, "%d columns, must be in [2, %d]", c.Columns, MaxColumns)
	case c.Columns%2 != 0:
		return errors.Wrapf(ErrConfig, "%d columns, must be even", c.Columns)
	case c.Outputs < 0 || c.Inputs < 0 || c.IOs < 0:
		return errors.Wrapf(ErrConfig, "negative pin count (outputs %d, inputs %d, ios %d)", c.Outputs, c.Inputs, c.IOs)
	case c.OutWidth() == 0:
		return errors.Wrap(ErrConfig, "slots have no outputs")
	case c.InWidth() == 0:
		return errors.Wrap(ErrConfig, "slots have no inputs")
	case c.SpineOutWidth() > MaxWidth:
		return errors.Wrapf(ErrConfig, "outward spine is %d bits wide, max is %d", c.SpineOutWidth(), MaxWidth)
	case c.SpineInWidth() > MaxWidth:
		return errors.Wrapf(ErrConfig, "inward spine is %d bits wide, max is %d", c.SpineInWidth(), MaxWidth)
	}
	return nil
}

// mask returns a mask of the n low bits.
//
func mask(n int) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(n) - 1
}
