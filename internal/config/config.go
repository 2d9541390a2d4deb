// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads spine descriptions from TOML files.
//
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/db47h/spinesim/fabric"
	"github.com/pkg/errors"
)

// A Spine describes a chain of units and how to simulate it.
//
type Spine struct {
	Fabric      fabric.Config
	Units       []fabric.Address // unit straps in spine order
	Workers     int              // circuit worker goroutines, 0 for GOMAXPROCS
	SettleLimit int              // maximum steps per gate-level evaluation
}

type fileConfig struct {
	Columns      int   `toml:"columns"`
	Outputs      int   `toml:"outputs"`
	Inputs       int   `toml:"inputs"`
	IOs          int   `toml:"ios"`
	GateOnEnable bool  `toml:"gate_on_enable"`
	Units        []int `toml:"units"`
	Workers      int   `toml:"workers"`
	SettleLimit  int   `toml:"settle_limit"`
}

// Default returns a chain of four units strapped 0 to 3 with the default
// fabric configuration.
//
func Default() Spine {
	return Spine{
		Fabric:      fabric.DefaultConfig(),
		Units:       []fabric.Address{0, 1, 2, 3},
		SettleLimit: fabric.DefaultSettleLimit,
	}
}

// Load reads the spine description in the TOML file at path. Keys missing
// from the file keep their Default value.
//
func Load(path string) (Spine, error) {
	s := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Spine{}, errors.Wrap(err, "load spine config")
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return Spine{}, errors.Errorf("load spine config: unknown key %q", undec[0].String())
	}

	if meta.IsDefined("columns") {
		s.Fabric.Columns = raw.Columns
	}
	if meta.IsDefined("outputs") {
		s.Fabric.Outputs = raw.Outputs
	}
	if meta.IsDefined("inputs") {
		s.Fabric.Inputs = raw.Inputs
	}
	if meta.IsDefined("ios") {
		s.Fabric.IOs = raw.IOs
	}
	if meta.IsDefined("gate_on_enable") {
		s.Fabric.GateOnEnable = raw.GateOnEnable
	}
	if meta.IsDefined("units") {
		s.Units = s.Units[:0]
		for i, u := range raw.Units {
			if u < 0 || u > int(fabric.MaxAddress) {
				return Spine{}, errors.Errorf("units[%d]: invalid address %d", i, u)
			}
			s.Units = append(s.Units, fabric.Address(u))
		}
	}
	if meta.IsDefined("workers") {
		s.Workers = raw.Workers
	}
	if meta.IsDefined("settle_limit") {
		s.SettleLimit = raw.SettleLimit
	}

	if err = s.Validate(); err != nil {
		return Spine{}, errors.Wrap(err, path)
	}
	return s, nil
}

// Validate checks the fabric configuration and the chain. Duplicate straps
// are not an error here; the simulation reports them as contention.
//
func (s Spine) Validate() error {
	if err := s.Fabric.Validate(); err != nil {
		return err
	}
	if len(s.Units) == 0 {
		return errors.New("no units")
	}
	if s.Workers < 0 {
		return errors.Errorf("invalid worker count %d", s.Workers)
	}
	if s.SettleLimit <= 0 {
		return errors.Errorf("invalid settle limit %d", s.SettleLimit)
	}
	return nil
}
