package spinesim_test

import (
	"reflect"
	"testing"

	hw "github.com/db47h/spinesim"
)

func TestIO(t *testing.T) {
	got := hw.IO(" a, sel[2] ,b")
	exp := []string{"a", "sel[0]", "sel[1]", "b"}
	if !reflect.DeepEqual(got, exp) {
		t.Errorf("got %v, expected %v", got, exp)
	}
	if got := hw.IO(""); got != nil {
		t.Errorf("got %v for an empty spec", got)
	}
}

func TestParseConnections(t *testing.T) {
	c := func(pp, cp string) hw.Connection { return hw.Connection{PP: pp, CP: cp} }
	td := []struct {
		in  string
		exp []hw.Connection
		err string
	}{
		{"", nil, ""},
		{"a=b", []hw.Connection{c("a", "b")}, ""},
		{"in[0..1] = x[2..3], out=y", []hw.Connection{c("in[0]", "x[2]"), c("in[1]", "x[3]"), c("out", "y")}, ""},
		{"out=o[0..2]", []hw.Connection{c("out", "o[0]"), c("out", "o[1]"), c("out", "o[2]")}, ""},
		{"b[0..1]=en", []hw.Connection{c("b[0]", "en"), c("b[1]", "en")}, ""},
		{"in[3]=true", []hw.Connection{c("in[3]", "true")}, ""},
		{"a[0..1]=b[0..2]", nil, "in \"a[0..1]=b[0..2]\" at pos 16: pin count mismatch in pin mapping"},
		{"a[2..1]=b", nil, "in \"a[2..1]=b\" at pos 8: descending bus range"},
		{"a[0.1]=b", nil, "in \"a[0.1]=b\" at pos 5: invalid range operator"},
		{"a[0=b", nil, "in \"a[0=b\" at pos 4: no terminating ] in bus range"},
		{"a b", nil, "in \"a b\" at pos 3: expected '='"},
		{"a=b c=d", nil, "in \"a=b c=d\" at pos 5: expected comma or end of input"},
		{"=b", nil, "in \"=b\" at pos 1: expected pin name"},
	}
	for _, d := range td {
		got, err := hw.ParseConnections(d.in)
		if err != nil {
			if err.Error() != d.err {
				t.Errorf("%q: got error %q, expected %q", d.in, err, d.err)
			}
			continue
		}
		if d.err != "" {
			t.Errorf("%q: no error, expected %q", d.in, d.err)
			continue
		}
		if !reflect.DeepEqual(got, d.exp) {
			t.Errorf("%q: got %v, expected %v", d.in, got, d.exp)
		}
	}
}
