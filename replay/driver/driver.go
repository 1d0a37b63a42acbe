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

// Package driver is the thin collaborator the override layer calls into to
// actually talk to D3D12 and DXGI. Every method takes already-remapped
// arguments (object handles resolved, addresses translated) and returns
// exactly what the corresponding COM method returns, so the override layer
// stays free of any platform-specific calling convention.
package driver

import "errors"

// Object is a COM interface pointer. The zero value is a null interface.
type Object uintptr

// Valid reports whether o is non-null.
func (o Object) Valid() bool { return o != 0 }

// GUID mirrors the Win32 GUID / IID layout.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// Box mirrors D3D12_BOX.
type Box struct {
	Left, Top, Front       uint32
	Right, Bottom, Back    uint32
}

// Range mirrors D3D12_RANGE.
type Range struct {
	Begin, End uintptr
}

// DescriptorHeapDesc mirrors D3D12_DESCRIPTOR_HEAP_DESC.
type DescriptorHeapDesc struct {
	Type           uint32
	NumDescriptors uint32
	Flags          uint32
	NodeMask       uint32
}

// SwapChainDesc mirrors DXGI_SWAP_CHAIN_DESC (legacy, used by CreateSwapChain).
type SwapChainDesc struct {
	BufferWidth, BufferHeight uint32
	BufferFormat              uint32
	BufferCount               uint32
	OutputWindow              uintptr
	Windowed                  int32
	SwapEffect                uint32
	Flags                     uint32
}

// SwapChainDesc1 mirrors DXGI_SWAP_CHAIN_DESC1, used by the
// CreateSwapChainForHwnd/ForCoreWindow/ForComposition family.
type SwapChainDesc1 struct {
	Width, Height uint32
	Format        uint32
	Stereo        int32
	BufferCount   uint32
	Scaling       uint32
	SwapEffect    uint32
	AlphaMode     uint32
	Flags         uint32
}

// SwapChainFullscreenDesc mirrors DXGI_SWAP_CHAIN_FULLSCREEN_DESC.
type SwapChainFullscreenDesc struct {
	RefreshRateNumerator, RefreshRateDenominator uint32
	ScanlineOrdering                             uint32
	Scaling                                      uint32
	Windowed                                     int32
}

// ErrUnsupportedPlatform is returned by every Driver method on a build that
// has no native D3D12/DXGI bindings (anything other than windows).
var ErrUnsupportedPlatform = errors.New("driver: D3D12/DXGI replay requires a windows build")

// Driver is the set of D3D12/DXGI entry points the override layer calls
// into. HRESULT-returning methods return it as an int32, per Win32
// convention, so overrides can compare it against the capture-time result
// with CheckReplayResult without a platform-specific type in the override
// package.
type Driver interface {
	D3D12CreateDevice(adapter Object, minimumFeatureLevel uint32, riid GUID) (device Object, hr int32, err error)

	CreateDescriptorHeap(device Object, desc DescriptorHeapDesc, riid GUID) (heap Object, hr int32, err error)
	GetDescriptorHandleIncrementSize(device Object, heapType uint32) (uint32, error)

	GetCPUDescriptorHandleForHeapStart(heap Object) (uint64, error)
	GetGPUDescriptorHandleForHeapStart(heap Object) (uint64, error)

	GetGPUVirtualAddress(resource Object) (uint64, error)
	// GetResourceSizeInBytes returns the resource's Width, the byte size
	// of a buffer or the size of a texture's top mip level, used to
	// register the extent of a GPU virtual address range.
	GetResourceSizeInBytes(resource Object) (uint64, error)
	ResourceMap(resource Object, subresource uint32, readRange *Range) (data uintptr, hr int32, err error)
	ResourceUnmap(resource Object, subresource uint32, writtenRange *Range) error
	WriteToSubresource(resource Object, dstSubresource uint32, dstBox *Box, src []byte, srcRowPitch, srcDepthPitch uint32) (hr int32, err error)
	ReadFromSubresource(resource Object, dst []byte, dstRowPitch, dstDepthPitch uint32, srcSubresource uint32, srcBox *Box) (hr int32, err error)

	CreateSwapChain(factory Object, device Object, desc SwapChainDesc) (swapchain Object, hr int32, err error)
	CreateSwapChainForHwnd(factory Object, device Object, hwnd uintptr, desc SwapChainDesc1, fullscreen *SwapChainFullscreenDesc, restrictToOutput Object) (swapchain Object, hr int32, err error)

	AddRef(object Object) (uint32, error)
	Release(object Object) (uint32, error)
}
