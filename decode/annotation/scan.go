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
	"os"
	"strings"

	"github.com/gfxcapture/dxreplay/decode/processor"
	"github.com/gfxcapture/dxreplay/format"
)

// scanConsumer adapts a Handler to processor.Consumer for callers that want
// to scan a trace's annotations without replaying it: every other block
// type is skipped over, counted only so blockIndex matches what a full
// replay would report.
type scanConsumer struct {
	handler    Handler
	blockIndex uint64
}

func (s *scanConsumer) ProcessFunctionCall(context.Context, format.BlockHeader, format.ApiCallId, []byte) error {
	s.blockIndex++
	return nil
}

func (s *scanConsumer) ProcessMethodCall(context.Context, format.BlockHeader, format.ApiCallId, []byte) error {
	s.blockIndex++
	return nil
}

func (s *scanConsumer) ProcessMetaData(context.Context, format.BlockHeader, uint32, []byte) error {
	s.blockIndex++
	return nil
}

func (s *scanConsumer) ProcessStateMarker(context.Context, format.BlockHeader, format.MarkerType, []byte) error {
	s.blockIndex++
	return nil
}

func (s *scanConsumer) ProcessAnnotation(ctx context.Context, header format.BlockHeader, annotationType format.AnnotationType, body []byte) error {
	label, data, err := DecodePayload(body)
	if err != nil {
		return err
	}
	err = s.handler.ProcessAnnotation(ctx, s.blockIndex, annotationType, label, data)
	s.blockIndex++
	return err
}

func (s *scanConsumer) IsFrameDelimiter(format.ApiCallId) bool { return false }

// GetTraceReplayOptions opens filename, scans its full block stream for a
// replay-options annotation, and returns it tokenized on whitespace,
// mirroring GetTraceReplayOptions's std::istream_iterator<std::string>
// split of the retained annotation data.
func GetTraceReplayOptions(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	handler := &ReplayOptionsHandler{}
	proc := processor.New(context.Background(), file, &scanConsumer{handler: handler})
	if err := proc.ProcessAll(); err != nil {
		return nil, err
	}
	return strings.Fields(handler.GetReplayOptions()), nil
}
