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

// Package log provides the leveled, context-scoped logger used throughout
// dxreplay. It intentionally stays close to what a command-line graphics
// tool needs: short level-tagged lines to stderr, with an optional scope
// prefix pushed by Enter.
package log

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

type scopeKey struct{}

// Enter pushes a named scope onto the context. Log lines emitted with the
// returned context are prefixed with the scope chain, innermost last.
func Enter(ctx context.Context, name string) context.Context {
	scopes, _ := ctx.Value(scopeKey{}).([]string)
	next := make([]string, len(scopes)+1)
	copy(next, scopes)
	next[len(scopes)] = name
	return context.WithValue(ctx, scopeKey{}, next)
}

func scopePrefix(ctx context.Context) string {
	scopes, _ := ctx.Value(scopeKey{}).([]string)
	if len(scopes) == 0 {
		return ""
	}
	return "[" + strings.Join(scopes, "/") + "] "
}

var mu sync.Mutex

func write(level string, ctx context.Context, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	ts := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "%s %s %s%s\n", ts, level, scopePrefix(ctx), msg)
}

// I logs an informational message.
func I(ctx context.Context, format string, args ...interface{}) {
	write("I", ctx, format, args...)
}

// W logs a warning message.
func W(ctx context.Context, format string, args ...interface{}) {
	write("W", ctx, format, args...)
}

// E logs an error message.
func E(ctx context.Context, format string, args ...interface{}) {
	write("E", ctx, format, args...)
}

// F logs a fatal message and terminates the process. Reserved for
// assertion-class invariant violations (spec.md §7) and CLI top-level
// failures; never called from a path that can instead return an error.
func F(ctx context.Context, format string, args ...interface{}) {
	write("F", ctx, format, args...)
	os.Exit(1)
}

// Err logs err at error level (with an optional message) and returns it
// unchanged, so call sites can write `return log.Err(ctx, err, "reading block")`.
func Err(ctx context.Context, err error, message string) error {
	if err != nil {
		write("E", ctx, "%s: %v", message, err)
	} else {
		write("E", ctx, "%s", message)
	}
	return err
}

// Errf is Err with a formatted message.
func Errf(ctx context.Context, err error, format string, args ...interface{}) error {
	return Err(ctx, err, fmt.Sprintf(format, args...))
}

// Assert fails fast with F if cond is false. Used at the boundary named in
// spec.md §7 for "assertion-class invariants": every override asserts that
// its required object pointers are non-nil.
func Assert(ctx context.Context, cond bool, format string, args ...interface{}) {
	if !cond {
		F(ctx, format, args...)
	}
}
