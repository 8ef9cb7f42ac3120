package queue

import (
	"fmt"
	"testing"

	"github.com/quakeline/quakeline/internal/event"
)

func TestSubmitAndDrain(t *testing.T) {
	q := New(10)

	for i := 0; i < 3; i++ {
		q.Submit(&event.Event{Source: fmt.Sprintf("s%d", i)})
	}
	if q.Len() != 3 {
		t.Errorf("Expected queue length 3, got %d", q.Len())
	}

	out := q.Drain(5)
	if len(out) != 3 {
		t.Fatalf("Expected 3 drained events, got %d", len(out))
	}
	for i, ev := range out {
		want := fmt.Sprintf("s%d", i)
		if ev.Source != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, ev.Source)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Expected empty queue after drain, got %d", q.Len())
	}
}

func TestDrainRespectsBatchLimit(t *testing.T) {
	q := New(10)
	for i := 0; i < 8; i++ {
		q.Submit(&event.Event{Source: fmt.Sprintf("s%d", i)})
	}

	out := q.Drain(5)
	if len(out) != 5 {
		t.Fatalf("Expected 5 drained events, got %d", len(out))
	}
	if out[0].Source != "s0" || out[4].Source != "s4" {
		t.Errorf("Expected s0..s4 in order, got %s..%s", out[0].Source, out[4].Source)
	}

	// The remaining three come out on the next drain.
	out = q.Drain(5)
	if len(out) != 3 {
		t.Fatalf("Expected 3 remaining events, got %d", len(out))
	}
	if out[0].Source != "s5" {
		t.Errorf("Expected s5 first, got %s", out[0].Source)
	}
}

func TestSubmitDropsOldestWhenFull(t *testing.T) {
	q := New(3)
	for i := 0; i < 5; i++ {
		q.Submit(&event.Event{Source: fmt.Sprintf("s%d", i)})
	}

	if q.Len() != 3 {
		t.Fatalf("Expected queue length 3, got %d", q.Len())
	}

	out := q.Drain(10)
	expected := []string{"s2", "s3", "s4"}
	for i, ev := range out {
		if ev.Source != expected[i] {
			t.Errorf("Position %d: expected %s, got %s", i, expected[i], ev.Source)
		}
	}
}

func TestDrainEmpty(t *testing.T) {
	q := New(4)
	if out := q.Drain(5); out != nil {
		t.Errorf("Expected nil from empty drain, got %v", out)
	}
	if out := q.Drain(0); out != nil {
		t.Errorf("Expected nil for zero max, got %v", out)
	}
}

func TestSubmitNil(t *testing.T) {
	q := New(4)
	q.Submit(nil)
	if q.Len() != 0 {
		t.Errorf("Expected nil submit to be ignored, got length %d", q.Len())
	}
}

func TestCapFloor(t *testing.T) {
	q := New(0)
	if q.Cap() != DefaultCapacity {
		t.Errorf("Expected default capacity %d, got %d", DefaultCapacity, q.Cap())
	}
}

func TestWrapAround(t *testing.T) {
	q := New(4)

	// Cycle through the ring a few times.
	for round := 0; round < 3; round++ {
		for i := 0; i < 4; i++ {
			q.Submit(&event.Event{Source: fmt.Sprintf("r%d-%d", round, i)})
		}
		out := q.Drain(4)
		if len(out) != 4 {
			t.Fatalf("Round %d: expected 4 events, got %d", round, len(out))
		}
		if out[0].Source != fmt.Sprintf("r%d-0", round) {
			t.Errorf("Round %d: expected r%d-0 first, got %s", round, round, out[0].Source)
		}
	}
}
