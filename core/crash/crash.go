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

// Package crash wraps goroutine launches with panic recovery, mirroring
// crash.Go from the teacher's gapir client. The core replay loop (spec.md
// §5) is single-threaded and never uses this; its one caller is the CLI's
// signal-handling goroutine.
package crash

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/gfxcapture/dxreplay/core/log"
)

// Go launches f in a new goroutine. A panic inside f is recovered and
// reported with a stack trace through log.F, which then exits the process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.F(context.Background(), "panic in background task: %v\n%s", r, debug.Stack())
			}
		}()
		f()
	}()
}

// Recoverf returns a deferred recover helper that logs via log.Errf and
// stores the resulting error into *errOut, for goroutines that need to
// report their failure back to a waiting caller instead of dying silently.
func Recoverf(ctx context.Context, errOut *error) func() {
	return func() {
		if r := recover(); r != nil {
			*errOut = log.Errf(ctx, fmt.Errorf("%v", r), "recovered panic")
		}
	}
}
