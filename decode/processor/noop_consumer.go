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
	"context"

	"github.com/gfxcapture/dxreplay/format"
)

// noopConsumer discards every block it is handed; it exists only to drive
// estimateFrameBytes's byte-counting dry run over a second reader. It
// forwards IsFrameDelimiter to the real consumer so the dry run stops on
// the same frame boundaries replay will, without replaying anything itself.
type noopConsumer struct {
	delimiter func(format.ApiCallId) bool
}

func (noopConsumer) ProcessFunctionCall(context.Context, format.BlockHeader, format.ApiCallId, []byte) error {
	return nil
}
func (noopConsumer) ProcessMethodCall(context.Context, format.BlockHeader, format.ApiCallId, []byte) error {
	return nil
}
func (noopConsumer) ProcessMetaData(context.Context, format.BlockHeader, uint32, []byte) error {
	return nil
}
func (noopConsumer) ProcessStateMarker(context.Context, format.BlockHeader, format.MarkerType, []byte) error {
	return nil
}
func (noopConsumer) ProcessAnnotation(context.Context, format.BlockHeader, format.AnnotationType, []byte) error {
	return nil
}

// IsFrameDelimiter defers to the delimiter func supplied at construction,
// falling back to true (every call ends a frame) if none was given.
func (n noopConsumer) IsFrameDelimiter(id format.ApiCallId) bool {
	if n.delimiter == nil {
		return true
	}
	return n.delimiter(id)
}
