// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spinesim

import (
	"strconv"
	"unicode"

	"github.com/pkg/errors"
)

// A Connection connects a part's pin (PP) to a pin in its host chip (CP).
//
type Connection struct {
	PP string
	CP string
}

// IO parses the pin specification string and returns individual pin
// names in a slice, also expanding bus declarations to individual pin names.
// For example:
//
//	IO("in[2], sel") // returns []string{"in[0]", "in[1]", "sel"}
//
// IO panics if the specification is invalid.
//
func IO(spec string) []string {
	pins, err := parseIOspec(spec)
	if err != nil {
		panic(err)
	}
	return pins
}

func parseIOspec(names string) ([]string, error) {
	var out []string
	sc := &scanner{in: names}

	if sc.skipSpace(); sc.eof() {
		return nil, nil
	}
	for {
		name, err := sc.ident()
		if err != nil {
			return nil, err
		}
		if sc.skipSpace(); sc.accept('[') {
			sc.skipSpace()
			cnt, err := sc.int()
			if err != nil {
				return nil, err
			}
			if cnt <= 0 {
				return nil, sc.errorf("invalid bus size")
			}
			if sc.skipSpace(); !sc.accept(']') {
				return nil, sc.errorf("missing close bracket")
			}
			for i := 0; i < cnt; i++ {
				out = append(out, BusPinName(name, i))
			}
		} else {
			out = append(out, name)
		}
		if sc.skipSpace(); sc.eof() {
			return out, nil
		}
		if !sc.accept(',') {
			return nil, sc.errorf("expected comma or end of input")
		}
		sc.skipSpace()
	}
}

// ParseConnections parses a connection configuration like
// "a=x, b[0..3]=y[4..7]" and returns the list of individual pin connections.
//
// Each side of a connection is either a pin name, a bus pin (bus[i]) or a bus
// range (bus[i..j]). Ranges are expanded pin by pin and must have the same
// length on both sides, except that:
//
//	out=a[0..3]      // a part output can feed several chip pins
//	in[0..3]=en      // several part inputs can read the same chip pin
//
// The same part pin may appear several times (fanout of an output).
//
func ParseConnections(c string) ([]Connection, error) {
	var conns []Connection
	sc := &scanner{in: c}

	if sc.skipSpace(); sc.eof() {
		return nil, nil
	}
	for {
		ks, err := sc.pinRange()
		if err != nil {
			return nil, err
		}
		if sc.skipSpace(); !sc.accept('=') {
			return nil, sc.errorf("expected '='")
		}
		sc.skipSpace()
		vs, err := sc.pinRange()
		if err != nil {
			return nil, err
		}
		switch {
		case len(ks) == len(vs):
			for i := range ks {
				conns = append(conns, Connection{ks[i], vs[i]})
			}
		case len(ks) == 1:
			for _, v := range vs {
				conns = append(conns, Connection{ks[0], v})
			}
		case len(vs) == 1:
			for _, k := range ks {
				conns = append(conns, Connection{k, vs[0]})
			}
		default:
			return nil, sc.errorf("pin count mismatch in pin mapping")
		}
		if sc.skipSpace(); sc.eof() {
			return conns, nil
		}
		if !sc.accept(',') {
			return nil, sc.errorf("expected comma or end of input")
		}
		sc.skipSpace()
	}
}

type scanner struct {
	in  string
	pos int
}

func (s *scanner) eof() bool { return s.pos >= len(s.in) }

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.in[s.pos]
}

func (s *scanner) accept(b byte) bool {
	if s.peek() == b && !s.eof() {
		s.pos++
		return true
	}
	return false
}

func (s *scanner) skipSpace() {
	for !s.eof() && unicode.IsSpace(rune(s.in[s.pos])) {
		s.pos++
	}
}

func isIdentByte(b byte, first bool) bool {
	switch {
	case b == '_', 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z':
		return true
	case '0' <= b && b <= '9':
		return !first
	}
	return false
}

func (s *scanner) ident() (string, error) {
	start := s.pos
	if s.eof() || !isIdentByte(s.peek(), true) {
		return "", s.errorf("expected pin name")
	}
	for !s.eof() && isIdentByte(s.peek(), s.pos == start) {
		s.pos++
	}
	return s.in[start:s.pos], nil
}

func (s *scanner) int() (int, error) {
	start := s.pos
	for !s.eof() && '0' <= s.peek() && s.peek() <= '9' {
		s.pos++
	}
	if start == s.pos {
		return 0, s.errorf("expected integer")
	}
	return strconv.Atoi(s.in[start:s.pos])
}

// pinRange parses name, name[i] or name[i..j].
//
func (s *scanner) pinRange() ([]string, error) {
	name, err := s.ident()
	if err != nil {
		return nil, err
	}
	if !s.accept('[') {
		return []string{name}, nil
	}
	s.skipSpace()
	start, err := s.int()
	if err != nil {
		return nil, err
	}
	end := start
	if s.skipSpace(); s.accept('.') {
		if !s.accept('.') {
			return nil, s.errorf("invalid range operator")
		}
		s.skipSpace()
		if end, err = s.int(); err != nil {
			return nil, err
		}
		s.skipSpace()
	}
	if !s.accept(']') {
		return nil, s.errorf("no terminating ] in bus range")
	}
	if end < start {
		return nil, s.errorf("descending bus range")
	}
	r := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		r = append(r, BusPinName(name, i))
	}
	return r, nil
}

func (s *scanner) errorf(msg string) error {
	return errors.Errorf("in %q at pos %d: %s", s.in, s.pos+1, msg)
}
