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

package processor

import (
	"github.com/gfxcapture/dxreplay/core/log"
)

const megabyte = 1 << 20

// PreloadNextFrames decodes the next count frames into the preload buffer
// without dispatching them, then switches the processor into replay mode so
// that ProcessNextFrame serves them back out of memory instead of the file.
// This is the Go counterpart of PreloadFileProcessor::PreloadNextFrames: it
// first reserves a dry-run byte estimate for the whole range (if a reopen
// func was installed via SetReopen), then tops up the reservation one
// average-frame-size chunk at a time as it records, halving the chunk on
// allocation failure exactly as the original's GetNextBufferChunkSize /
// Reserve retry loop does.
func (p *Processor) PreloadNextFrames(count uint64) error {
	if needed, ok := p.estimateFrameBytes(count); ok {
		p.buf.Reserve(needed)
		log.I(p.ctx, "preloading reserved %d bytes", needed)
	}

	p.status = StatusRecord
	for p.preloadFrameNumber = 0; p.preloadFrameNumber < count; p.preloadFrameNumber++ {
		if chunk := p.nextBufferChunkSize(); chunk > 0 {
			for chunk > 1 && !p.buf.Reserve(chunk) {
				chunk /= 2
			}
			log.I(p.ctx, "preloading reserved additional %d bytes", chunk)
		}
		if _, err := p.ProcessNextFrame(); err != nil {
			return err
		}
	}

	p.src.Replay(&p.buf)
	p.status = StatusReplay
	return nil
}

// nextBufferChunkSize mirrors GetNextBufferChunkSize: it tops the buffer up
// by one average-frame-size chunk whenever the space left in it drops below
// that average, where the average is bytes read so far divided by frames
// decoded so far (floored at one megabyte, since an empty trace has no
// average to go on yet).
func (p *Processor) nextBufferChunkSize() int {
	framesSoFar := p.currentFrameNumber + p.preloadFrameNumber
	if framesSoFar == 0 {
		framesSoFar = 1
	}
	average := int(uint64(p.src.BytesRead()) / framesSoFar)
	if average < megabyte {
		average = megabyte
	}
	capacityLeft := p.buf.Capacity() - p.buf.Size()
	if capacityLeft < average {
		return average
	}
	return 0
}

// estimateFrameBytes runs a second, throwaway pass over the trace from the
// beginning, counting bytes consumed up through current+count frames, to
// size the preload buffer's initial reservation up front. It reports false
// if no reopen func was installed (PreloadNextFrames still works without
// it, just without the up-front reservation).
func (p *Processor) estimateFrameBytes(count uint64) (int, bool) {
	if p.reopen == nil {
		return 0, false
	}
	r, err := p.reopen()
	if err != nil {
		log.W(p.ctx, "estimating preload size: %v", err)
		return 0, false
	}
	defer r.Close()

	dry := New(p.ctx, r, noopConsumer{delimiter: p.consumer.IsFrameDelimiter})
	target := p.currentFrameNumber + count
	for dry.currentFrameNumber < target {
		if more, err := dry.ProcessNextFrame(); err != nil || !more {
			break
		}
	}
	needed := int(dry.src.BytesRead()) - int(p.src.BytesRead())
	if needed < 0 {
		needed = 0
	}
	return needed, true
}
