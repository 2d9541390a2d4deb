package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/db47h/spinesim/fabric"
	"github.com/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spine.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesOverrides(t *testing.T) {
	path := writeConfig(t, `
columns = 4
outputs = 2
inputs = 3
ios = 1
gate_on_enable = true
units = [7, 3]
workers = 2
settle_limit = 32
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	exp := Spine{
		Fabric:      fabric.Config{Columns: 4, Outputs: 2, Inputs: 3, IOs: 1, GateOnEnable: true},
		Units:       []fabric.Address{7, 3},
		Workers:     2,
		SettleLimit: 32,
	}
	if !reflect.DeepEqual(s, exp) {
		t.Fatalf("got %+v, expected %+v", s, exp)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "columns = 8\n")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	exp := Default()
	exp.Fabric.Columns = 8
	if !reflect.DeepEqual(s, exp) {
		t.Fatalf("got %+v, expected %+v", s, exp)
	}
}

func TestLoadErrors(t *testing.T) {
	td := []struct {
		name string
		body string
	}{
		{"syntax", "columns = \n"},
		{"unknown_key", "rows = 2\n"},
		{"bad_address", "units = [1, 16]\n"},
		{"negative_address", "units = [-1]\n"},
		{"no_units", "units = []\n"},
		{"bad_limit", "settle_limit = 0\n"},
		{"bad_workers", "workers = -1\n"},
	}
	for _, d := range td {
		d := d
		t.Run(d.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, d.body)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadInvalidFabric(t *testing.T) {
	_, err := Load(writeConfig(t, "columns = 5\n"))
	if errors.Cause(err) != fabric.ErrConfig {
		t.Fatalf("got error %v, expected cause %v", err, fabric.ErrConfig)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected an error")
	}
}
