// Copyright (C) 2024 The DXReplay Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package source unifies reading trace bytes from the backing file and from
// the preload buffer behind one ReadBytes call, mirroring
// PreloadFileProcessor::ReadBytes: while a Source is in replay mode it reads
// out of the buffer it was recorded into; otherwise it reads the file
// directly.
package source

import (
	"io"

	"github.com/gfxcapture/dxreplay/decode/preload"
)

// Source reads trace bytes either straight from an io.Reader (normal,
// single-pass decoding) or out of a preload.Buffer that was previously
// filled by a record pass over the same file.
type Source struct {
	file      io.Reader
	buf       *preload.Buffer
	replaying bool

	bytesRead int64
}

// New returns a Source reading directly from file. Replay(buf) switches it
// to buffer-backed mode later.
func New(file io.Reader) *Source {
	return &Source{file: file}
}

// Replay switches the source into buffer-backed mode: subsequent ReadBytes
// calls consume buf instead of the file, until buf is exhausted.
func (s *Source) Replay(buf *preload.Buffer) {
	s.buf = buf
	s.replaying = true
}

// BytesRead returns the total number of bytes consumed so far, across both
// file and buffer reads.
func (s *Source) BytesRead() int64 {
	return s.bytesRead
}

// ReadBytes fills dst completely, reading from the buffer if the source is
// in replay mode or from the file otherwise. It returns false (mirroring
// the original's bool-return convention) when fewer bytes than len(dst)
// could be supplied. Exhausting the buffer during a replay-mode read drops
// the source back to file-backed mode for subsequent calls, matching the
// original's transition back to PreloadStatus::kInactive.
func (s *Source) ReadBytes(dst []byte) (bool, error) {
	if s.replaying {
		n := s.buf.Read(dst)
		s.bytesRead += int64(n)
		if s.buf.Exhausted() {
			s.replaying = false
		}
		return n == len(dst), nil
	}

	n, err := io.ReadFull(s.file, dst)
	s.bytesRead += int64(n)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n == len(dst), nil
}

// SkipBytes discards n bytes from whichever source is currently active,
// without copying them anywhere, used for block types the processor has no
// handler for.
func (s *Source) SkipBytes(n int) error {
	if n <= 0 {
		return nil
	}
	_, err := s.ReadBytes(make([]byte, n))
	return err
}
