package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
)

type rampSource struct {
	next     float32
	finished bool
}

func (s *rampSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = s.next
		s.next += 0.25
	}
}

func (s *rampSource) Finished() bool { return s.finished }

func TestStreamReaderEncodesWholeFrames(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src)
	p := make([]byte, 8*3+5)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 24 {
		t.Fatalf("n = %d, want 24", n)
	}
	for i := 0; i < 6; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if want := float32(i) * 0.25; got != want {
			t.Fatalf("sample %d = %v, want %v", i, got, want)
		}
	}
	if n, err := r.Read(make([]byte, 7)); n != 0 || err != nil {
		t.Fatalf("short read = %d, %v", n, err)
	}
	if got := r.Frames(); got != 3 {
		t.Fatalf("frames = %d, want 3", got)
	}
}

func TestStreamReaderEOF(t *testing.T) {
	src := &rampSource{finished: true}
	r := NewStreamReader(src)
	if n, err := r.Read(make([]byte, 16)); n != 16 || err != io.EOF {
		t.Fatalf("finished source read = %d, %v", n, err)
	}

	r = NewStreamReader(&rampSource{})
	_ = r.Close()
	if _, err := r.Read(make([]byte, 16)); err != io.EOF {
		t.Fatalf("closed reader err = %v, want EOF", err)
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
		ok   bool
	}{
		{"", BackendEbiten, true},
		{"OTO", BackendOto, true},
		{" none ", BackendNone, true},
		{"alsa", "", false},
	}
	for _, tc := range tests {
		got, err := ParseBackend(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("ParseBackend(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestOpenNone(t *testing.T) {
	out, err := Open(BackendNone, 48000, &rampSource{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	out.Play()
	if pos := out.Position(); pos != 0 {
		t.Fatalf("silent output position = %v", pos)
	}
	if err := out.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
