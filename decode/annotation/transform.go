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

package annotation

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/gfxcapture/dxreplay/format"
)

// editor is the common shape of Editor and ReplayOptionsEditor: something
// that can consume a stream of decoded annotations and, once the input is
// exhausted, flush whatever it deferred.
type editor interface {
	ProcessAnnotation(ctx context.Context, blockIndex uint64, annotationType format.AnnotationType, label, data string) error
	Finish() error
}

// streamWriter writes blocks directly onto an io.Writer, little-endian,
// matching format's on-wire framing. It is the BlockWriter every Editor in
// this package writes new annotations through.
type streamWriter struct {
	w io.Writer
}

// NewStreamWriter returns a BlockWriter appending framed blocks to w.
func NewStreamWriter(w io.Writer) BlockWriter {
	return &streamWriter{w: w}
}

func (s *streamWriter) WriteAnnotation(annotationType format.AnnotationType, label, data string) error {
	payload := EncodePayload(label, data)
	body := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(body[0:4], uint32(annotationType))
	copy(body[4:], payload)
	return s.writeBlock(format.BlockTypeAnnotation, body)
}

func (s *streamWriter) writeBlock(blockType format.BlockType, body []byte) error {
	hdr := make([]byte, format.HeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(blockType))
	binary.LittleEndian.PutUint64(hdr[4:12], uint64(len(body)))
	if _, err := s.w.Write(hdr); err != nil {
		return err
	}
	_, err := s.w.Write(body)
	return err
}

// TransformFile drives ed over every annotation block in src, copying every
// other block through to dst unexamined, mirroring FileTransformer::Process
// driving an AnnotationHandler/AnnotationEditor over one pass of a trace.
// dst must be the same io.Writer ed's BlockWriter was constructed with, so
// edited and passed-through blocks interleave in the order they were
// encountered (plus whatever Finish appends at the end).
func TransformFile(ctx context.Context, src io.Reader, dst io.Writer, ed editor) error {
	sw := &streamWriter{w: dst}
	var blockIndex uint64

	for {
		hdrBytes := make([]byte, format.HeaderSize)
		if _, err := io.ReadFull(src, hdrBytes); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		header := format.BlockHeader{
			Type: format.BlockType(binary.LittleEndian.Uint32(hdrBytes[0:4])),
			Size: binary.LittleEndian.Uint64(hdrBytes[4:12]),
		}

		body := make([]byte, header.Size)
		if _, err := io.ReadFull(src, body); err != nil {
			return err
		}

		if format.RemoveCompressedBit(header.Type) == format.BlockTypeAnnotation {
			if len(body) < 4 {
				return io.ErrUnexpectedEOF
			}
			annotationType := format.AnnotationType(binary.LittleEndian.Uint32(body[0:4]))
			label, data, err := DecodePayload(body[4:])
			if err != nil {
				return err
			}
			if err := ed.ProcessAnnotation(ctx, blockIndex, annotationType, label, data); err != nil {
				return err
			}
		} else {
			if err := sw.writeBlock(header.Type, body); err != nil {
				return err
			}
		}
		blockIndex++
	}

	return ed.Finish()
}
