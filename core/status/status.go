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

// Package status brackets units of work with Start/Finish pairs, mirroring
// the status.Start/status.Finish calls in the teacher's gapir client. Spans
// are backed by golang.org/x/net/trace so they show up on the process's
// /debug/requests page without inventing a bespoke tracing format.
package status

import (
	"context"
	"fmt"

	"golang.org/x/net/trace"
)

type traceKey struct{}

type span struct {
	tr     trace.Trace
	parent *span
}

// Start begins a named span, nesting it under any span already active on
// ctx, and returns a context carrying the new span.
func Start(ctx context.Context, name string, args ...interface{}) context.Context {
	family := name
	title := name
	if len(args) > 0 {
		title = fmt.Sprintf(name, args...)
	}
	tr := trace.New(family, title)
	parent, _ := ctx.Value(traceKey{}).(*span)
	return context.WithValue(ctx, traceKey{}, &span{tr: tr, parent: parent})
}

// Finish ends the innermost span started on ctx. It is a no-op if Start was
// never called.
func Finish(ctx context.Context) {
	s, ok := ctx.Value(traceKey{}).(*span)
	if !ok || s == nil {
		return
	}
	s.tr.Finish()
}

// Event records a point-in-time annotation on the innermost active span, or
// does nothing if there is none.
func Event(ctx context.Context, format string, args ...interface{}) {
	s, ok := ctx.Value(traceKey{}).(*span)
	if !ok || s == nil {
		return
	}
	s.tr.LazyPrintf(format, args...)
}

