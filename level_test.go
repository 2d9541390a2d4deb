package spinesim_test

import (
	"testing"

	hw "github.com/db47h/spinesim"
)

func TestLevel(t *testing.T) {
	if hw.LevelOf(true) != hw.High || hw.LevelOf(false) != hw.Low {
		t.Error("LevelOf")
	}
	if hw.Z.Driven() || !hw.Low.Driven() || !hw.High.Driven() {
		t.Error("Driven")
	}
	if s := hw.FormatLevels([]hw.Level{hw.High, hw.Low, hw.Z, hw.Z}); s != "zz01" {
		t.Errorf("FormatLevels: got %q, expected %q", s, "zz01")
	}
}
