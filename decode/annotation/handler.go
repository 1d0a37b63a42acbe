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

	"github.com/gfxcapture/dxreplay/format"
)

// Handler receives every annotation block a trace contains, identified by
// its decoded label and data, mirroring AnnotationHandler.
type Handler interface {
	ProcessAnnotation(ctx context.Context, blockIndex uint64, annotationType format.AnnotationType, label, data string) error
}

// ReplayOptionsHandler retains the most recently seen replay-options
// annotation, mirroring ReplayOptionsAnnotationHandler. A trace is not
// expected to carry more than one, but if it does, the last one wins.
type ReplayOptionsHandler struct {
	replayOptions string
}

// ProcessAnnotation implements Handler.
func (h *ReplayOptionsHandler) ProcessAnnotation(ctx context.Context, blockIndex uint64, annotationType format.AnnotationType, label, data string) error {
	if label == format.AnnotationLabelReplayOptions {
		h.replayOptions = data
	}
	return nil
}

// GetReplayOptions returns the retained replay-options data verbatim, or
// the empty string if none was seen.
func (h *ReplayOptionsHandler) GetReplayOptions() string {
	return h.replayOptions
}
