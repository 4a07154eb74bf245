package hub

import (
	"fmt"
	"reflect"
	"testing"
)

func TestLineBufferDrain(t *testing.T) {
	b := newLineBuffer(10)
	b.append("A", "B", "C")

	if got := b.drain(); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("drain = %v, want [A B C]", got)
	}
	if b.size() != 0 {
		t.Errorf("buffer not empty after drain, size = %d", b.size())
	}
	if got := b.drain(); len(got) != 0 || got == nil {
		t.Errorf("drain of empty buffer = %#v, want empty non-nil slice", got)
	}
}

func TestLineBufferPeek(t *testing.T) {
	b := newLineBuffer(10)
	b.append("A", "B", "C")

	tests := []struct {
		n    int
		want []string
	}{
		{1, []string{"C"}},
		{2, []string{"B", "C"}},
		{3, []string{"A", "B", "C"}},
		{5, []string{"A", "B", "C"}},
		{0, []string{}},
		{-1, []string{}},
	}

	for _, tt := range tests {
		if got := b.peek(tt.n); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("peek(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}

	// Peek never mutates.
	if b.size() != 3 {
		t.Errorf("size after peek = %d, want 3", b.size())
	}
}

func TestLineBufferBound(t *testing.T) {
	b := newLineBuffer(100)
	for i := 0; i < 250; i++ {
		b.append(fmt.Sprintf("line-%d", i))
		if b.size() > 100 {
			t.Fatalf("buffer exceeded bound: %d", b.size())
		}
	}

	lines := b.drain()
	if len(lines) != 100 {
		t.Fatalf("expected 100 lines after overflow, got %d", len(lines))
	}
	// Oldest evicted first: the survivors are the most recent 100.
	if lines[0] != "line-150" || lines[99] != "line-249" {
		t.Errorf("unexpected retained range: first=%s last=%s", lines[0], lines[99])
	}
}

func TestLineBufferDefaultBound(t *testing.T) {
	b := newLineBuffer(0)
	if b.max != DefaultBufferLines {
		t.Errorf("expected default bound %d, got %d", DefaultBufferLines, b.max)
	}
}
