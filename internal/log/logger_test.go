package log

import (
	"bytes"
	"strings"
	"testing"
)

// TestMemoryLoggerSequence: events are numbered in arrival order.
func TestMemoryLoggerSequence(t *testing.T) {
	l := NewMemoryLogger()
	l.Log(NewDrawEvent(1, 1, "Stoat", "creature"))
	l.Log(NewPlayEvent(1, 1, "Stoat", 0, []string{"Squirrel"}))
	l.Log(NewDrawEvent(2, 1, "Squirrel", "sacrifice"))

	if len(l.Events()) != 3 {
		t.Fatalf("expected 3 events, got %d", len(l.Events()))
	}
	if got := l.EventsOfType(EventDraw); len(got) != 2 {
		t.Errorf("expected 2 draw events, got %d", len(got))
	}
	last := l.LastEvent()
	if last.Seq != 3 || last.Card != "Squirrel" {
		t.Errorf("unexpected last event %+v", last)
	}
	if !strings.Contains(l.Events()[1].Details, "sacrificed: Squirrel") {
		t.Errorf("play details missing sacrifices: %q", l.Events()[1].Details)
	}
}

// TestTextLoggerWritesLines: each event becomes one formatted line.
func TestTextLoggerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf)
	l.Log(NewEnemyPlaceEvent(0, 0, "Wolf", 2))
	l.Log(NewRoundResultEvent(4, 5, "PlayerWin", 1, 6))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "enemy stages Wolf in lane 3") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "#4") {
		t.Errorf("line 1 should start with the branch: %q", lines[1])
	}
	if len(l.Events()) != 2 {
		t.Error("TextLogger should keep events in memory")
	}
}

// TestFuncLoggerForwards: the callback sees numbered events.
func TestFuncLoggerForwards(t *testing.T) {
	var seen []GameEvent
	l := NewFuncLogger(func(e GameEvent) { seen = append(seen, e) })
	l.Log(NewPromoteEvent(0, 1, "Wolf"))
	l.Log(NewCardKilledEvent(0, 1, SideEnemy, "Wolf"))
	if len(seen) != 2 || seen[1].Seq != 2 {
		t.Fatalf("unexpected forwarded events %+v", seen)
	}
	if l.Events() != nil {
		t.Error("FuncLogger keeps no history")
	}
}
