package draw

import "testing"

func TestListAppendAndReset(t *testing.T) {
	l := NewList(4)
	l.Clear()
	l.Circle(1, 2, 3, 0.5)
	l.Square(4, 5, 6, 0.25, 0.75)
	l.Diamond(7, 8, 9, 1)
	l.Glow(10, 11, 12, 0.3)

	want := []Kind{KindClear, KindCircle, KindSquare, KindDiamond, KindGlow}
	if l.Len() != len(want) {
		t.Fatalf("expected %d commands, got %d", len(want), l.Len())
	}
	for i, c := range l.Commands() {
		if c.Kind != want[i] {
			t.Errorf("command %d: expected %s, got %s", i, want[i], c.Kind)
		}
	}

	sq := l.Commands()[2]
	if sq.Size != 6 || sq.Rotation != 0.25 || sq.Alpha != 0.75 {
		t.Errorf("square fields not preserved: %+v", sq)
	}

	l.Reset()
	if l.Len() != 0 {
		t.Errorf("expected empty list after reset, got %d", l.Len())
	}
	if cap(l.cmds) < len(want) {
		t.Errorf("reset should keep capacity, got %d", cap(l.cmds))
	}
}

func TestKindString(t *testing.T) {
	if KindDiamond.String() != "diamond" {
		t.Errorf("expected diamond, got %s", KindDiamond)
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("expected unknown, got %s", Kind(99))
	}
}
