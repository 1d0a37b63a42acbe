package source

import (
	"bytes"
	"testing"

	"github.com/gfxcapture/dxreplay/decode/preload"
)

func TestSourceReadsFileByDefault(t *testing.T) {
	s := New(bytes.NewReader([]byte("abcdef")))

	dst := make([]byte, 3)
	ok, err := s.ReadBytes(dst)
	if err != nil || !ok {
		t.Fatalf("ReadBytes() = %v,%v, want true,nil", ok, err)
	}
	if string(dst) != "abc" {
		t.Fatalf("ReadBytes() = %q, want abc", dst)
	}
	if s.BytesRead() != 3 {
		t.Fatalf("BytesRead() = %d, want 3", s.BytesRead())
	}
}

func TestSourceReplayFallsBackToFileOnExhaustion(t *testing.T) {
	s := New(bytes.NewReader([]byte("XYZ")))

	var buf preload.Buffer
	buf.Write([]byte("ab"))
	s.Replay(&buf)

	dst := make([]byte, 2)
	ok, err := s.ReadBytes(dst)
	if err != nil || !ok || string(dst) != "ab" {
		t.Fatalf("ReadBytes() = %v,%q,%v, want true,ab,nil", ok, dst, err)
	}

	// The buffer is now exhausted; the next read should fall back to the file.
	ok, err = s.ReadBytes(dst)
	if err != nil || !ok || string(dst) != "XY" {
		t.Fatalf("ReadBytes() after buffer exhaustion = %v,%q,%v, want true,XY,nil", ok, dst, err)
	}
}

func TestSourceReadBytesShortReadReturnsFalse(t *testing.T) {
	s := New(bytes.NewReader([]byte("ab")))

	dst := make([]byte, 5)
	ok, err := s.ReadBytes(dst)
	if err != nil {
		t.Fatalf("ReadBytes() error = %v, want nil", err)
	}
	if ok {
		t.Fatalf("ReadBytes() = true on a short read, want false")
	}
}
