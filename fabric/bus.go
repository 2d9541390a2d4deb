// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fabric

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// A Bus is the value of a tri-state net: either driven with a value or
// floating. The zero value is Floating.
//
type Bus struct {
	v      uint64
	driven bool
}

// Floating is the value of a net with no active driver.
//
var Floating = Bus{}

// Driven returns a bus driven with v.
//
func Driven(v uint64) Bus { return Bus{v, true} }

// Value returns the value driven on b. ok is false if b is floating.
//
func (b Bus) Value() (v uint64, ok bool) { return b.v, b.driven }

// IsDriven returns true if b is not floating.
//
func (b Bus) IsDriven() bool { return b.driven }

func (b Bus) String() string {
	if !b.driven {
		return "z"
	}
	return fmt.Sprintf("%#x", b.v)
}

// A Driver is a named contribution to a shared net.
//
type Driver struct {
	Name string
	Bus  Bus
}

// A ContentionError reports more than one active driver on a shared net.
//
type ContentionError struct {
	Drivers []string // sorted names of the active drivers
}

func (e *ContentionError) Error() string {
	return "bus contention between " + strings.Join(e.Drivers, ", ")
}

// Resolve merges the contributions of several tri-state drivers to a net.
// The result is the only driven contribution, or Floating if there is none.
// If more than one driver is active, Resolve returns Floating and a
// *ContentionError; values are never merged.
//
func Resolve(drivers ...Driver) (Bus, error) {
	var active []string
	out := Floating
	for _, d := range drivers {
		if d.Bus.IsDriven() {
			active = append(active, d.Name)
			out = d.Bus
		}
	}
	if len(active) > 1 {
		slices.Sort(active)
		return Floating, &ContentionError{Drivers: active}
	}
	return out, nil
}
