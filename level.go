// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spinesim

// A Level is the state of a wire. A wire is either driven Low, driven High,
// or floating (Z). Wires float until a part drives them, and a disabled
// tri-state driver releases them to Z.
//
type Level uint8

// Wire levels.
//
const (
	Low Level = iota
	High
	Z
)

// LevelOf returns High for true and Low for false.
//
func LevelOf(b bool) Level {
	if b {
		return High
	}
	return Low
}

// Driven returns true if l is not Z.
//
func (l Level) Driven() bool { return l != Z }

func (l Level) String() string {
	switch l {
	case Low:
		return "0"
	case High:
		return "1"
	case Z:
		return "z"
	}
	return "?"
}

// FormatLevels formats a bus with the most significant bit first, the way a
// waveform viewer would print it. For example: "10zz".
//
func FormatLevels(ls []Level) string {
	b := make([]byte, len(ls))
	for i, l := range ls {
		b[len(ls)-1-i] = l.String()[0]
	}
	return string(b)
}
