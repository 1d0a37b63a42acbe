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

// Package config holds process-wide debug toggles, following the pattern of
// gapis/config referenced from the teacher's transform2 package
// (config.DebugReplay, config.LogTransformsToFile). These are flipped by CLI
// flags, never loaded from a config file — file-based configuration is out
// of scope (spec.md §1).
package config

var (
	// DebugReplay logs every block dispatched by the processor.
	DebugReplay = false

	// LogBlocksToFile, when set to a path, makes the processor append a
	// one-line description of every decoded block to that file.
	LogBlocksToFile = ""

	// LogMemoryFills logs every FillMemory write, including ones dropped
	// for an unrecognized mapped-memory id.
	LogMemoryFills = false
)
