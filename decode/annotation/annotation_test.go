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
	"testing"

	"github.com/gfxcapture/dxreplay/format"
)

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	body := EncodePayload("replay-options", "--foo --bar")
	label, data, err := DecodePayload(body)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if label != "replay-options" || data != "--foo --bar" {
		t.Fatalf("got label=%q data=%q", label, data)
	}
}

func TestDecodePayloadTooShort(t *testing.T) {
	if _, _, err := DecodePayload([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error decoding a too-short payload")
	}
}

func TestReplayOptionsHandlerRetainsLastLabelMatch(t *testing.T) {
	h := &ReplayOptionsHandler{}
	ctx := context.Background()

	if err := h.ProcessAnnotation(ctx, 0, format.AnnotationTypeText, "other-label", "ignored"); err != nil {
		t.Fatal(err)
	}
	if h.GetReplayOptions() != "" {
		t.Fatalf("unrelated label should not be retained, got %q", h.GetReplayOptions())
	}

	if err := h.ProcessAnnotation(ctx, 1, format.AnnotationTypeText, format.AnnotationLabelReplayOptions, "--preload-frames 10"); err != nil {
		t.Fatal(err)
	}
	if got := h.GetReplayOptions(); got != "--preload-frames 10" {
		t.Fatalf("got %q", got)
	}

	if err := h.ProcessAnnotation(ctx, 2, format.AnnotationTypeText, format.AnnotationLabelReplayOptions, "--preload-frames 20"); err != nil {
		t.Fatal(err)
	}
	if got := h.GetReplayOptions(); got != "--preload-frames 20" {
		t.Fatalf("second replay-options annotation should replace the first, got %q", got)
	}
}

type fakeWriter struct {
	written []format.Block
}

func (w *fakeWriter) WriteAnnotation(annotationType format.AnnotationType, label, data string) error {
	w.written = append(w.written, format.Block{
		Header:  format.BlockHeader{Type: format.BlockTypeAnnotation},
		Payload: append([]byte(label+"\x00"), []byte(data)...),
	})
	w.written[len(w.written)-1].Header.Size = uint64(len(label) + len(data))
	_ = annotationType
	return nil
}

func (w *fakeWriter) labels() []string {
	labels := make([]string, len(w.written))
	for i, b := range w.written {
		labels[i] = string(b.Payload)
	}
	return labels
}

func TestEditorReplacesExistingAndAppendsUnencountered(t *testing.T) {
	out := &fakeWriter{}
	e := NewEditor(out)
	e.SetAnnotation(format.AnnotationTypeText, "replay-options", "--bar --baz")
	e.SetAnnotation(format.AnnotationTypeText, "comment", "")
	e.SetAnnotation(format.AnnotationTypeText, "new-label", "new-data")

	ctx := context.Background()
	if err := e.ProcessAnnotation(ctx, 0, format.AnnotationTypeText, "replay-options", "--foo"); err != nil {
		t.Fatal(err)
	}
	if err := e.ProcessAnnotation(ctx, 1, format.AnnotationTypeText, "comment", "drop me"); err != nil {
		t.Fatal(err)
	}
	if err := e.ProcessAnnotation(ctx, 2, format.AnnotationTypeText, "untouched", "keep me"); err != nil {
		t.Fatal(err)
	}
	if err := e.Finish(); err != nil {
		t.Fatal(err)
	}

	if len(out.written) != 3 {
		t.Fatalf("expected 3 blocks written (replaced, untouched, appended), got %d: %v", len(out.written), out.labels())
	}
	if got := string(out.written[0].Payload); got != "replay-options\x00--bar --baz" {
		t.Fatalf("replaced annotation mismatch: %q", got)
	}
	if got := string(out.written[1].Payload); got != "untouched\x00keep me" {
		t.Fatalf("untouched annotation mismatch: %q", got)
	}
	if got := string(out.written[2].Payload); got != "new-label\x00new-data" {
		t.Fatalf("appended annotation mismatch: %q", got)
	}
}

func TestReplayOptionsEditorWritesFirstAndSuppressesExisting(t *testing.T) {
	out := &fakeWriter{}
	e := NewReplayOptionsEditor(out)
	e.SetReplayOptions("--bar --baz")
	if err := e.Start(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := e.ProcessAnnotation(ctx, 0, format.AnnotationTypeText, "replay-options", "--foo"); err != nil {
		t.Fatal(err)
	}
	if err := e.ProcessAnnotation(ctx, 1, format.AnnotationTypeText, "untouched", "keep me"); err != nil {
		t.Fatal(err)
	}
	if err := e.Finish(); err != nil {
		t.Fatal(err)
	}

	if len(out.written) != 2 {
		t.Fatalf("expected 2 blocks (new replay-options, untouched), got %d: %v", len(out.written), out.labels())
	}
	if got := string(out.written[0].Payload); got != "replay-options\x00--bar --baz" {
		t.Fatalf("first write should be the new replay-options value, got %q", got)
	}
	if got := string(out.written[1].Payload); got != "untouched\x00keep me" {
		t.Fatalf("untouched annotation mismatch: %q", got)
	}
}
