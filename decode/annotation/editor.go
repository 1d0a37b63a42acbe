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

// BlockWriter is the seam between Editor and whatever copies the rest of a
// trace's blocks through unchanged. The dxannotate CLI's file-transformer
// wires a raw block writer here so Editor only has to know how to emit
// annotation blocks, not how every other block type is framed.
type BlockWriter interface {
	// WriteAnnotation writes one annotation block.
	WriteAnnotation(annotationType format.AnnotationType, label, data string) error
}

type setEntry struct {
	annotationType format.AnnotationType
	data           string
}

// Editor rewrites or deletes annotations by label as a trace streams past,
// and appends any requested annotation the input never contained, mirroring
// AnnotationEditor.
type Editor struct {
	out     BlockWriter
	pending map[string]setEntry
}

// NewEditor returns an Editor writing through out.
func NewEditor(out BlockWriter) *Editor {
	return &Editor{out: out, pending: make(map[string]setEntry)}
}

// SetAnnotation queues label to be replaced with (annotationType, data) the
// next time it is encountered, or deleted entirely if data is empty. A
// label the input never contains is appended as a new annotation by Finish.
func (e *Editor) SetAnnotation(annotationType format.AnnotationType, label, data string) {
	e.pending[label] = setEntry{annotationType: annotationType, data: data}
}

// ProcessAnnotation mirrors AnnotationEditor::ProcessAnnotation: a label
// with a queued edit is replaced (or dropped, if the edit's data is empty)
// and consumed from the pending set; every other label passes through with
// its original data.
func (e *Editor) ProcessAnnotation(ctx context.Context, blockIndex uint64, annotationType format.AnnotationType, label, data string) error {
	if edit, queued := e.pending[label]; queued {
		delete(e.pending, label)
		if edit.data == "" {
			return nil
		}
		return e.out.WriteAnnotation(edit.annotationType, label, edit.data)
	}
	return e.out.WriteAnnotation(annotationType, label, data)
}

// Finish appends every queued annotation the input never encountered,
// mirroring AnnotationEditor::Process's "add new annotations at the end"
// step. Call it once, after the driving copy loop has processed every
// block in the input.
func (e *Editor) Finish() error {
	for label, edit := range e.pending {
		delete(e.pending, label)
		if edit.data == "" {
			continue
		}
		if err := e.out.WriteAnnotation(edit.annotationType, label, edit.data); err != nil {
			return err
		}
	}
	return nil
}

// ReplayOptionsEditor specializes Editor for the single replay-options
// annotation: it writes the new value up front, so the edit survives even
// if the input carries no existing replay-options annotation to replace,
// then drops every pre-existing replay-options annotation it encounters
// instead of queuing a find-and-replace. This mirrors
// ReplayOptionsEditor::Process writing the annotation before copying the
// rest of the file, and ReplayOptionsEditor::ProcessAnnotation skipping any
// label that matches.
type ReplayOptionsEditor struct {
	out           BlockWriter
	replayOptions string
}

// NewReplayOptionsEditor returns a ReplayOptionsEditor writing through out.
func NewReplayOptionsEditor(out BlockWriter) *ReplayOptionsEditor {
	return &ReplayOptionsEditor{out: out}
}

// SetReplayOptions sets the replay-options data Start will write.
func (e *ReplayOptionsEditor) SetReplayOptions(replayOptions string) {
	e.replayOptions = replayOptions
}

// Start writes the new replay-options annotation, if one was set. It must
// be called before the driving copy loop processes the input's first
// block, mirroring ReplayOptionsEditor::Process writing the annotation
// ahead of FileTransformer::Process.
func (e *ReplayOptionsEditor) Start() error {
	if e.replayOptions == "" {
		return nil
	}
	return e.out.WriteAnnotation(format.AnnotationTypeText, format.AnnotationLabelReplayOptions, e.replayOptions)
}

// ProcessAnnotation drops every pre-existing replay-options annotation
// (Start already wrote its replacement) and passes every other label
// through unchanged.
func (e *ReplayOptionsEditor) ProcessAnnotation(ctx context.Context, blockIndex uint64, annotationType format.AnnotationType, label, data string) error {
	if label == format.AnnotationLabelReplayOptions {
		return nil
	}
	return e.out.WriteAnnotation(annotationType, label, data)
}

// Finish is a no-op: unlike Editor, ReplayOptionsEditor never defers a
// write past the end of the input.
func (e *ReplayOptionsEditor) Finish() error { return nil }
