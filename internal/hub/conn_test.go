package hub

import (
	"reflect"
	"testing"
)

// ingest operates only on the buffer, so a bare Conn is enough here.
func testConn() *Conn {
	return &Conn{buf: newLineBuffer(DefaultBufferLines)}
}

func TestIngestSplitsLines(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  []string
	}{
		{"crlf terminated", "A\r\nB\r\n", []string{"A", "B"}},
		{"lf terminated", "A\nB\n", []string{"A", "B"}},
		{"blank lines skipped", "\r\n\nA\n", []string{"A"}},
		{"no terminator dropped", "partial", nil},
		{"trailing fragment dropped", "A\nfragment", []string{"A"}},
		{"bare newline", "\n", nil},
		{"empty chunk", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConn()
			c.ingest([]byte(tt.chunk))
			got := c.buf.drain()
			if len(tt.want) == 0 && len(got) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ingest(%q) buffered %v, want %v", tt.chunk, got, tt.want)
			}
		})
	}
}

func TestIngestDiscardsInvalidUTF8(t *testing.T) {
	c := testConn()
	c.ingest([]byte{0xff, 0xfe, 'A', '\n'})
	if n := c.buf.size(); n != 0 {
		t.Errorf("invalid UTF-8 chunk buffered %d lines, want 0", n)
	}
}

func TestIngestAccumulatesAcrossChunks(t *testing.T) {
	c := testConn()
	c.ingest([]byte("one\n"))
	c.ingest([]byte("two\nthree\n"))

	want := []string{"one", "two", "three"}
	if got := c.buf.drain(); !reflect.DeepEqual(got, want) {
		t.Errorf("buffered %v, want %v", got, want)
	}
}
