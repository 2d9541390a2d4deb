// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fabric

import (
	"github.com/db47h/spinesim"
	"github.com/pkg/errors"
)

// Tie-off levels. Sentinels and every default that must not float are tied to
// one of these.
//
const (
	TieLo = spinesim.Low
	TieHi = spinesim.High
)

// Inward frame layout, lsb first.
//
const (
	inLowSentinel = 0
	inEnable      = 1
	inSelect      = 2
	inPayload     = inSelect + SelectBits
)

// An InFrame is the decoded inward spine frame.
//
type InFrame struct {
	HighSentinel spinesim.Level
	Payload      uint64
	Select       SelectCode
	Enable       bool
	LowSentinel  spinesim.Level
}

// An OutFrame is the decoded outward spine frame. User is Floating when no
// unit drives the spine.
//
type OutFrame struct {
	HighSentinel spinesim.Level
	User         Bus
	LowSentinel  spinesim.Level
}

func bit(v uint64, n int) bool { return v&(1<<uint(n)) != 0 }

func setBit(b bool, n int) uint64 {
	if b {
		return 1 << uint(n)
	}
	return 0
}

// PackIn returns the inward spine vector for f. Payload bits beyond
// InWidth are dropped.
//
func (c Config) PackIn(f InFrame) uint64 {
	return setBit(f.LowSentinel == spinesim.High, inLowSentinel) |
		setBit(f.Enable, inEnable) |
		uint64(f.Select&selMask)<<inSelect |
		(f.Payload&mask(c.InWidth()))<<inPayload |
		setBit(f.HighSentinel == spinesim.High, c.SpineInWidth()-1)
}

// UnpackIn decodes an inward spine vector.
//
func (c Config) UnpackIn(v uint64) InFrame {
	return InFrame{
		HighSentinel: spinesim.LevelOf(bit(v, c.SpineInWidth()-1)),
		Payload:      v >> inPayload & mask(c.InWidth()),
		Select:       SelectCode(v>>inSelect) & selMask,
		Enable:       bit(v, inEnable),
		LowSentinel:  spinesim.LevelOf(bit(v, inLowSentinel)),
	}
}

// PackOut returns the levels of the outward spine wires for f, lsb first.
// A floating user field yields Z on every user wire.
//
func (c Config) PackOut(f OutFrame) []spinesim.Level {
	w := c.OutWidth()
	ls := make([]spinesim.Level, w+2)
	ls[0], ls[w+1] = f.LowSentinel, f.HighSentinel
	v, ok := f.User.Value()
	for i := 0; i < w; i++ {
		if !ok {
			ls[i+1] = spinesim.Z
			continue
		}
		ls[i+1] = spinesim.LevelOf(bit(v, i))
	}
	return ls
}

// UnpackOut decodes the levels of the outward spine wires. It fails if the
// user field is only partially driven, which no valid unit produces.
//
func (c Config) UnpackOut(ls []spinesim.Level) (OutFrame, error) {
	w := c.OutWidth()
	if len(ls) != w+2 {
		return OutFrame{}, errors.Errorf("outward frame has %d wires, expected %d", len(ls), w+2)
	}
	f := OutFrame{LowSentinel: ls[0], HighSentinel: ls[w+1]}
	var v uint64
	var z int
	for i, l := range ls[1 : w+1] {
		switch l {
		case spinesim.Z:
			z++
		case spinesim.High:
			v |= 1 << uint(i)
		}
	}
	switch z {
	case 0:
		f.User = Driven(v)
	case w:
		f.User = Floating
	default:
		return f, errors.Errorf("user field %s partially driven", spinesim.FormatLevels(ls[1:w+1]))
	}
	return f, nil
}
