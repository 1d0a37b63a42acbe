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

// Package processor drives the block loop: for each block it reads a
// header, reads (or, while preloading, buffers) the payload, and dispatches
// it to a Consumer. It is the Go counterpart of PreloadFileProcessor /
// FileProcessor's ProcessBlocks.
package processor

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/gfxcapture/dxreplay/core/config"
	"github.com/gfxcapture/dxreplay/core/log"
	"github.com/gfxcapture/dxreplay/decode/preload"
	"github.com/gfxcapture/dxreplay/decode/source"
	"github.com/gfxcapture/dxreplay/format"

	"context"
)

// Status is the processor's current mode: decoding straight from the file,
// recording blocks into the preload buffer ahead of replay, or replaying
// out of a previously filled buffer.
type Status int

const (
	StatusInactive Status = iota
	StatusRecord
	StatusReplay
)

// Consumer receives decoded blocks from a Processor. A replay consumer
// (replay/consumer.Consumer) implements this by remapping ids and invoking
// the matching driver call; an annotation-only consumer can leave the
// function/method/metadata/marker handlers as no-ops.
type Consumer interface {
	ProcessFunctionCall(ctx context.Context, header format.BlockHeader, callID format.ApiCallId, body []byte) error
	ProcessMethodCall(ctx context.Context, header format.BlockHeader, callID format.ApiCallId, body []byte) error
	ProcessMetaData(ctx context.Context, header format.BlockHeader, metaDataID uint32, body []byte) error
	ProcessStateMarker(ctx context.Context, header format.BlockHeader, markerType format.MarkerType, body []byte) error
	ProcessAnnotation(ctx context.Context, header format.BlockHeader, annotationType format.AnnotationType, body []byte) error

	// IsFrameDelimiter reports whether callID ends a frame (Present,
	// Present1, and the other swapchain presentation entry points).
	IsFrameDelimiter(callID format.ApiCallId) bool
}

// Processor reads a block stream from an io.Reader and dispatches decoded
// blocks to a Consumer, with optional preload-ahead-of-replay buffering.
type Processor struct {
	ctx      context.Context
	src      *source.Source
	consumer Consumer

	status Status
	buf    preload.Buffer

	currentFrameNumber uint64
	preloadFrameNumber uint64
	blockIndex         uint64

	// reopen, if set, returns a fresh reader over the same trace from the
	// beginning, used only by estimateFrameBytes's dry run.
	reopen func() (io.ReadCloser, error)
}

// New returns a Processor reading file and dispatching to consumer.
func New(ctx context.Context, file io.Reader, consumer Consumer) *Processor {
	return &Processor{ctx: ctx, src: source.New(file), consumer: consumer}
}

// SetReopen installs the function PreloadNextFrames' byte estimate uses to
// re-read the trace from the start. Without it, PreloadNextFrames still
// works but reserves no more than one average-frame-size chunk up front.
func (p *Processor) SetReopen(reopen func() (io.ReadCloser, error)) {
	p.reopen = reopen
}

// CurrentFrameNumber returns the zero-based index of the frame currently
// being decoded.
func (p *Processor) CurrentFrameNumber() uint64 {
	return p.currentFrameNumber
}

// Status returns the processor's current mode.
func (p *Processor) Status() Status {
	return p.status
}

// ProcessAll drives the block loop until the source is exhausted, a block
// read fails, or ctx is canceled, returning the first such error (io.EOF is
// not treated as an error: it ends the loop silently, matching end-of-file
// in the original).
func (p *Processor) ProcessAll() error {
	for {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		ok, err := p.processOneBlock()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// ProcessNextFrame processes blocks until a frame-delimiting call has been
// dispatched (or the source ends), mirroring ProcessNextFrame's single-frame
// granularity.
func (p *Processor) ProcessNextFrame() (more bool, err error) {
	for {
		ok, isDelimiter, err := p.processOneBlockFrameAware()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if isDelimiter {
			return true, nil
		}
	}
}

func (p *Processor) processOneBlock() (bool, error) {
	ok, _, err := p.processOneBlockFrameAware()
	return ok, err
}

// processOneBlockFrameAware reads and dispatches one block, reporting
// whether a block was available and whether it was a frame delimiter.
func (p *Processor) processOneBlockFrameAware() (ok bool, isDelimiter bool, err error) {
	header, ok, err := p.readBlockHeader()
	if err != nil || !ok {
		return ok, false, err
	}

	if config.DebugReplay {
		log.I(p.ctx, "block %d type=%s size=%d", p.blockIndex, format.RemoveCompressedBit(header.Type), header.Size)
	}
	if config.LogBlocksToFile != "" {
		if f, err := os.OpenFile(config.LogBlocksToFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err != nil {
			log.W(p.ctx, "opening block log %s: %v", config.LogBlocksToFile, err)
		} else {
			fmt.Fprintf(f, "block %d type=%s size=%d\n", p.blockIndex, format.RemoveCompressedBit(header.Type), header.Size)
			f.Close()
		}
	}

	kind := format.RemoveCompressedBit(header.Type)
	switch kind {
	case format.BlockTypeFunctionCall, format.BlockTypeMethodCall:
		var callID format.ApiCallId
		if err := p.readValue(&callID); err != nil {
			return false, false, log.Err(p.ctx, err, "reading api call id")
		}
		delimiter := p.consumer.IsFrameDelimiter(callID)

		if p.status == StatusRecord {
			if err := p.recordBlock(header, callID); err != nil {
				return false, false, err
			}
		} else {
			body := make([]byte, header.Size-4)
			if err := p.readBody(body); err != nil {
				return false, false, log.Err(p.ctx, err, "reading call body")
			}
			var dispatchErr error
			if kind == format.BlockTypeFunctionCall {
				dispatchErr = p.consumer.ProcessFunctionCall(p.ctx, header, callID, body)
			} else {
				dispatchErr = p.consumer.ProcessMethodCall(p.ctx, header, callID, body)
			}
			if dispatchErr != nil {
				log.E(p.ctx, "dispatching call %d: %v", callID, dispatchErr)
			}
			if delimiter {
				p.currentFrameNumber++
			}
		}
		p.blockIndex++
		return true, delimiter, nil

	case format.BlockTypeMetaData:
		if p.status == StatusRecord {
			if err := p.recordBlock(header, 0); err != nil {
				return false, false, err
			}
		} else {
			var metaDataID uint32
			if err := p.readValue(&metaDataID); err != nil {
				return false, false, log.Err(p.ctx, err, "reading metadata id")
			}
			body := make([]byte, header.Size-4)
			if err := p.readBody(body); err != nil {
				return false, false, log.Err(p.ctx, err, "reading metadata body")
			}
			if err := p.consumer.ProcessMetaData(p.ctx, header, metaDataID, body); err != nil {
				log.E(p.ctx, "dispatching metadata %d: %v", metaDataID, err)
			}
		}
		p.blockIndex++
		return true, false, nil

	case format.BlockTypeStateMarker:
		if p.status == StatusRecord {
			if err := p.recordBlock(header, 0); err != nil {
				return false, false, err
			}
		} else {
			var markerType format.MarkerType
			if err := p.readValue(&markerType); err != nil {
				return false, false, log.Err(p.ctx, err, "reading marker type")
			}
			body := make([]byte, header.Size-4)
			if err := p.readBody(body); err != nil {
				return false, false, log.Err(p.ctx, err, "reading marker body")
			}
			if err := p.consumer.ProcessStateMarker(p.ctx, header, markerType, body); err != nil {
				log.E(p.ctx, "dispatching state marker: %v", err)
			}
		}
		p.blockIndex++
		return true, false, nil

	case format.BlockTypeAnnotation:
		if p.status == StatusRecord {
			if err := p.recordBlock(header, 0); err != nil {
				return false, false, err
			}
		} else {
			var annotationType format.AnnotationType
			if err := p.readValue(&annotationType); err != nil {
				return false, false, log.Err(p.ctx, err, "reading annotation type")
			}
			body := make([]byte, header.Size-4)
			if err := p.readBody(body); err != nil {
				return false, false, log.Err(p.ctx, err, "reading annotation body")
			}
			if err := p.consumer.ProcessAnnotation(p.ctx, header, annotationType, body); err != nil {
				log.E(p.ctx, "dispatching annotation: %v", err)
			}
		}
		p.blockIndex++
		return true, false, nil

	default:
		log.W(p.ctx, "skipping unrecognized block type %d", header.Type)
		if err := p.src.SkipBytes(int(header.Size)); err != nil {
			return false, false, err
		}
		p.blockIndex++
		return true, false, nil
	}
}

// recordBlock buffers header plus the rest of its payload (callID already
// consumed, if any) into the preload buffer verbatim, without decoding or
// dispatching it, matching PreloadBuffer recording in ProcessBlocks.
func (p *Processor) recordBlock(header format.BlockHeader, callID format.ApiCallId) error {
	hdr := make([]byte, format.HeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(header.Type))
	binary.LittleEndian.PutUint64(hdr[4:12], header.Size)
	p.buf.Write(hdr)

	remaining := header.Size
	if callID != 0 {
		idBytes := make([]byte, 4)
		binary.LittleEndian.PutUint32(idBytes, uint32(callID))
		p.buf.Write(idBytes)
		remaining -= 4
	}

	body := make([]byte, remaining)
	if err := p.readBody(body); err != nil {
		return log.Err(p.ctx, err, "reading block body while recording")
	}
	p.buf.Write(body)
	return nil
}

func (p *Processor) readBlockHeader() (format.BlockHeader, bool, error) {
	raw := make([]byte, format.HeaderSize)
	before := p.src.BytesRead()
	ok, err := p.src.ReadBytes(raw)
	if err != nil {
		return format.BlockHeader{}, false, err
	}
	if !ok {
		if p.src.BytesRead() != before {
			return format.BlockHeader{}, false, log.Err(p.ctx, io.ErrUnexpectedEOF, "reading block header")
		}
		return format.BlockHeader{}, false, nil
	}
	return format.BlockHeader{
		Type: format.BlockType(binary.LittleEndian.Uint32(raw[0:4])),
		Size: binary.LittleEndian.Uint64(raw[4:12]),
	}, true, nil
}

func (p *Processor) readValue(v interface{}) error {
	switch ptr := v.(type) {
	case *format.ApiCallId:
		raw := make([]byte, 4)
		ok, err := p.src.ReadBytes(raw)
		if err != nil {
			return err
		}
		if !ok {
			return io.ErrUnexpectedEOF
		}
		*ptr = format.ApiCallId(binary.LittleEndian.Uint32(raw))
		return nil
	case *uint32:
		raw := make([]byte, 4)
		ok, err := p.src.ReadBytes(raw)
		if err != nil {
			return err
		}
		if !ok {
			return io.ErrUnexpectedEOF
		}
		*ptr = binary.LittleEndian.Uint32(raw)
		return nil
	case *format.MarkerType:
		raw := make([]byte, 4)
		ok, err := p.src.ReadBytes(raw)
		if err != nil {
			return err
		}
		if !ok {
			return io.ErrUnexpectedEOF
		}
		*ptr = format.MarkerType(binary.LittleEndian.Uint32(raw))
		return nil
	case *format.AnnotationType:
		raw := make([]byte, 4)
		ok, err := p.src.ReadBytes(raw)
		if err != nil {
			return err
		}
		if !ok {
			return io.ErrUnexpectedEOF
		}
		*ptr = format.AnnotationType(binary.LittleEndian.Uint32(raw))
		return nil
	default:
		return fmt.Errorf("processor: unsupported value type %T", v)
	}
}

func (p *Processor) readBody(dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	ok, err := p.src.ReadBytes(dst)
	if err != nil {
		return err
	}
	if !ok {
		return io.ErrUnexpectedEOF
	}
	return nil
}
