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

// Package window creates and tears down the native windows that swapchains
// need an HWND for, mirroring WindowFactory / Window from
// dx12_replay_consumer_base.cpp.
package window

// HandleType identifies which native handle GetNativeHandle should return.
type HandleType int

const (
	// Win32HWnd is the only handle type this replay engine asks for: an
	// HWND suitable for IDXGIFactory{,2}::CreateSwapChain{,ForHwnd}.
	Win32HWnd HandleType = iota
)

// Window is a native on-screen window created to host a swapchain's output.
type Window interface {
	// GetNativeHandle writes the window's native handle to *out and
	// reports whether handleType is supported.
	GetNativeHandle(handleType HandleType, out *uintptr) bool

	// Resize is invoked when a ResizeWindow metadata block replays, and
	// SetFullscreenState / Present1 need the client area up to date.
	Resize(width, height uint32)

	// Destroy releases the window's OS resources. Repeated calls are a
	// no-op, matching window_factory_->Destroy being safe to call once
	// per window from DestroyActiveWindows.
	Destroy()
}

// Factory creates and owns Windows for swapchain creation overrides.
type Factory interface {
	// Create opens a new top-level window at (x, y) sized width by
	// height, or returns nil if window creation failed.
	Create(x, y int32, width, height uint32) Window

	// Destroy tears w down. Passing a nil Window is a no-op.
	Destroy(w Window)
}

const (
	// DefaultPositionX and DefaultPositionY are the screen coordinates
	// every replayed window opens at, matching
	// kDefaultWindowPositionX/Y.
	DefaultPositionX int32 = 0
	DefaultPositionY int32 = 0
)
