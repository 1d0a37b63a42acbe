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

//go:build windows

package window

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	wsOverlappedWindow = 0x00CF0000
	swShow             = 5
	csHRedraw          = 0x0002
	csVRedraw          = 0x0001
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procRegisterClassW = user32.NewProc("RegisterClassW")
	procCreateWindowW  = user32.NewProc("CreateWindowExW")
	procDestroyWindow  = user32.NewProc("DestroyWindow")
	procShowWindow     = user32.NewProc("ShowWindow")
	procSetWindowPos   = user32.NewProc("SetWindowPos")
	procDefWindowProcW = user32.NewProc("DefWindowProcW")

	registerOnce   sync.Once
	windowClassPtr *uint16
)

type wndClassEx struct {
	size       uint32
	style      uint32
	wndProc    uintptr
	clsExtra   int32
	wndExtra   int32
	instance   windows.Handle
	icon       windows.Handle
	cursor     windows.Handle
	background windows.Handle
	menuName   *uint16
	className  *uint16
	iconSm     windows.Handle
}

func defWindowProc(hwnd windows.Handle, msg uint32, wparam, lparam uintptr) uintptr {
	ret, _, _ := procDefWindowProcW.Call(uintptr(hwnd), uintptr(msg), wparam, lparam)
	return ret
}

func registerWindowClass() {
	registerOnce.Do(func() {
		name, _ := windows.UTF16PtrFromString("DxReplayWindow")
		windowClassPtr = name

		wc := wndClassEx{
			style:     csHRedraw | csVRedraw,
			wndProc:   windows.NewCallback(defWindowProc),
			className: name,
		}
		wc.size = uint32(unsafe.Sizeof(wc))
		procRegisterClassW.Call(uintptr(unsafe.Pointer(&wc)))
	})
}

// win32Window is the windows implementation of Window, wrapping one HWND.
type win32Window struct {
	hwnd windows.Handle
}

func (w *win32Window) GetNativeHandle(handleType HandleType, out *uintptr) bool {
	if handleType != Win32HWnd {
		return false
	}
	*out = uintptr(w.hwnd)
	return true
}

func (w *win32Window) Resize(width, height uint32) {
	const swpNoMove, swpNoZOrder = 0x0002, 0x0004
	procSetWindowPos.Call(uintptr(w.hwnd), 0, 0, 0, uintptr(width), uintptr(height), swpNoMove|swpNoZOrder)
}

func (w *win32Window) Destroy() {
	if w.hwnd == 0 {
		return
	}
	procDestroyWindow.Call(uintptr(w.hwnd))
	w.hwnd = 0
}

// win32Factory creates win32Windows via CreateWindowExW, matching the
// WindowFactory collaborator dx12_replay_consumer_base.cpp calls into for
// every swapchain-creation override.
type win32Factory struct{}

// NewFactory returns the windows Factory implementation.
func NewFactory() Factory { return win32Factory{} }

func (win32Factory) Create(x, y int32, width, height uint32) Window {
	registerWindowClass()

	title, _ := windows.UTF16PtrFromString("dxreplay")
	hwnd, _, _ := procCreateWindowW.Call(
		0,
		uintptr(unsafe.Pointer(windowClassPtr)),
		uintptr(unsafe.Pointer(title)),
		uintptr(wsOverlappedWindow),
		uintptr(x), uintptr(y),
		uintptr(width), uintptr(height),
		0, 0, 0, 0,
	)
	if hwnd == 0 {
		return nil
	}
	procShowWindow.Call(hwnd, swShow)
	return &win32Window{hwnd: windows.Handle(hwnd)}
}

func (win32Factory) Destroy(w Window) {
	if w == nil {
		return
	}
	w.Destroy()
}
