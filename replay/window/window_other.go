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

//go:build !windows

package window

// NewFactory returns a Factory whose Create always fails, so that non-
// windows builds can still decode and remap a trace up to (but not
// including) actually presenting to a screen.
func NewFactory() Factory { return noopFactory{} }

type noopFactory struct{}

func (noopFactory) Create(x, y int32, width, height uint32) Window { return nil }
func (noopFactory) Destroy(Window)                                 {}
