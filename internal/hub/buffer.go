package hub

import "sync"

// DefaultBufferLines bounds how many lines a connection retains for devices
// that stream continuously and are never read.
const DefaultBufferLines = 1000

// lineBuffer is a mutex-guarded bounded queue of complete text lines.
// Insertion order is arrival order; overflow evicts the oldest lines first.
type lineBuffer struct {
	mu    sync.Mutex
	max   int
	lines []string
}

func newLineBuffer(max int) *lineBuffer {
	if max <= 0 {
		max = DefaultBufferLines
	}
	return &lineBuffer{max: max}
}

// append adds lines in order, then truncates to the most recent max.
func (b *lineBuffer) append(lines ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = append(b.lines, lines...)
	if n := len(b.lines); n > b.max {
		// Copy instead of re-slicing so evicted lines can be collected.
		kept := make([]string, b.max)
		copy(kept, b.lines[n-b.max:])
		b.lines = kept
	}
}

// drain returns the entire buffer and clears it in the same critical
// section, so each line is delivered at most once.
func (b *lineBuffer) drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	lines := b.lines
	b.lines = nil
	if lines == nil {
		lines = []string{}
	}
	return lines
}

// peek returns the most recent n lines in arrival order without mutating
// the buffer.
func (b *lineBuffer) peek(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(b.lines) {
		n = len(b.lines)
	}
	if n <= 0 {
		return []string{}
	}
	out := make([]string, n)
	copy(out, b.lines[len(b.lines)-n:])
	return out
}

func (b *lineBuffer) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}
