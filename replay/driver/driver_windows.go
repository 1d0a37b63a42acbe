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

package driver

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// COM vtable slot indices, counted from the start of the vtable: the three
// IUnknown entries every interface starts with (QueryInterface, AddRef,
// Release) occupy slots 0-2.
const (
	vtblUnknownAddRef  = 1
	vtblUnknownRelease = 2

	vtblDeviceCreateDescriptorHeap             = 14
	vtblDeviceGetDescriptorHandleIncrementSize = 15

	vtblDescriptorHeapGetCPUDescriptorHandleForHeapStart = 9
	vtblDescriptorHeapGetGPUDescriptorHandleForHeapStart = 10

	vtblResourceMap                 = 8
	vtblResourceUnmap                = 9
	vtblResourceGetDesc              = 10
	vtblResourceWriteToSubresource   = 12
	vtblResourceReadFromSubresource  = 13
	vtblResourceGetGPUVirtualAddress = 11

	vtblFactoryCreateSwapChain        = 10
	vtblFactory2CreateSwapChainForHwnd = 15
)

var (
	d3d12DLL              = windows.NewLazySystemDLL("d3d12.dll")
	procD3D12CreateDevice = d3d12DLL.NewProc("D3D12CreateDevice")
)

// vtblFn resolves the function pointer at slot idx of obj's vtable, the
// same pointer-chasing used throughout DXGI/D3D11 capture tooling to call a
// COM method without a generated proxy.
func vtblFn(obj Object, idx int) uintptr {
	vtable := *(*uintptr)(unsafe.Pointer(uintptr(obj)))
	return *(*uintptr)(unsafe.Pointer(vtable + uintptr(idx)*unsafe.Sizeof(uintptr(0))))
}

type comDriver struct{}

// New returns the Driver implementation backed by real d3d12.dll /
// dxgi.dll COM calls.
func New() Driver { return comDriver{} }

func (comDriver) D3D12CreateDevice(adapter Object, minimumFeatureLevel uint32, riid GUID) (Object, int32, error) {
	var device Object
	hr, _, _ := procD3D12CreateDevice.Call(
		uintptr(adapter),
		uintptr(minimumFeatureLevel),
		uintptr(unsafe.Pointer(&riid)),
		uintptr(unsafe.Pointer(&device)),
	)
	return device, int32(hr), nil
}

func (comDriver) CreateDescriptorHeap(device Object, desc DescriptorHeapDesc, riid GUID) (Object, int32, error) {
	var heap Object
	hr, _, _ := syscall.SyscallN(vtblFn(device, vtblDeviceCreateDescriptorHeap),
		uintptr(device),
		uintptr(unsafe.Pointer(&desc)),
		uintptr(unsafe.Pointer(&riid)),
		uintptr(unsafe.Pointer(&heap)),
	)
	return heap, int32(hr), nil
}

func (comDriver) GetDescriptorHandleIncrementSize(device Object, heapType uint32) (uint32, error) {
	ret, _, _ := syscall.SyscallN(vtblFn(device, vtblDeviceGetDescriptorHandleIncrementSize),
		uintptr(device), uintptr(heapType))
	return uint32(ret), nil
}

func (comDriver) GetCPUDescriptorHandleForHeapStart(heap Object) (uint64, error) {
	var handle uint64
	syscall.SyscallN(vtblFn(heap, vtblDescriptorHeapGetCPUDescriptorHandleForHeapStart),
		uintptr(unsafe.Pointer(&handle)), uintptr(heap))
	return handle, nil
}

func (comDriver) GetGPUDescriptorHandleForHeapStart(heap Object) (uint64, error) {
	var handle uint64
	syscall.SyscallN(vtblFn(heap, vtblDescriptorHeapGetGPUDescriptorHandleForHeapStart),
		uintptr(unsafe.Pointer(&handle)), uintptr(heap))
	return handle, nil
}

func (comDriver) GetGPUVirtualAddress(resource Object) (uint64, error) {
	ret, _, _ := syscall.SyscallN(vtblFn(resource, vtblResourceGetGPUVirtualAddress), uintptr(resource))
	return uint64(ret), nil
}

// resourceDesc mirrors the prefix of D3D12_RESOURCE_DESC this engine reads:
// Dimension padded out to put Width (the field it actually needs) at its
// real offset.
type resourceDesc struct {
	dimension  uint32
	_          uint32
	alignment  uint64
	width      uint64
	rest       [24]byte
}

func (comDriver) GetResourceSizeInBytes(resource Object) (uint64, error) {
	var desc resourceDesc
	syscall.SyscallN(vtblFn(resource, vtblResourceGetDesc), uintptr(unsafe.Pointer(&desc)), uintptr(resource))
	return desc.width, nil
}

func (comDriver) ResourceMap(resource Object, subresource uint32, readRange *Range) (uintptr, int32, error) {
	var data uintptr
	hr, _, _ := syscall.SyscallN(vtblFn(resource, vtblResourceMap),
		uintptr(resource), uintptr(subresource), uintptr(unsafe.Pointer(readRange)), uintptr(unsafe.Pointer(&data)))
	return data, int32(hr), nil
}

func (comDriver) ResourceUnmap(resource Object, subresource uint32, writtenRange *Range) error {
	syscall.SyscallN(vtblFn(resource, vtblResourceUnmap),
		uintptr(resource), uintptr(subresource), uintptr(unsafe.Pointer(writtenRange)))
	return nil
}

func (comDriver) WriteToSubresource(resource Object, dstSubresource uint32, dstBox *Box, src []byte, srcRowPitch, srcDepthPitch uint32) (int32, error) {
	var srcPtr unsafe.Pointer
	if len(src) > 0 {
		srcPtr = unsafe.Pointer(&src[0])
	}
	hr, _, _ := syscall.SyscallN(vtblFn(resource, vtblResourceWriteToSubresource),
		uintptr(resource), uintptr(dstSubresource), uintptr(unsafe.Pointer(dstBox)),
		uintptr(srcPtr), uintptr(srcRowPitch), uintptr(srcDepthPitch))
	return int32(hr), nil
}

func (comDriver) ReadFromSubresource(resource Object, dst []byte, dstRowPitch, dstDepthPitch uint32, srcSubresource uint32, srcBox *Box) (int32, error) {
	var dstPtr unsafe.Pointer
	if len(dst) > 0 {
		dstPtr = unsafe.Pointer(&dst[0])
	}
	hr, _, _ := syscall.SyscallN(vtblFn(resource, vtblResourceReadFromSubresource),
		uintptr(resource), uintptr(dstPtr), uintptr(dstRowPitch), uintptr(dstDepthPitch),
		uintptr(srcSubresource), uintptr(unsafe.Pointer(srcBox)))
	return int32(hr), nil
}

func (comDriver) CreateSwapChain(factory Object, device Object, desc SwapChainDesc) (Object, int32, error) {
	var swapchain Object
	hr, _, _ := syscall.SyscallN(vtblFn(factory, vtblFactoryCreateSwapChain),
		uintptr(factory), uintptr(device), uintptr(unsafe.Pointer(&desc)), uintptr(unsafe.Pointer(&swapchain)))
	return swapchain, int32(hr), nil
}

func (comDriver) CreateSwapChainForHwnd(factory Object, device Object, hwnd uintptr, desc SwapChainDesc1, fullscreen *SwapChainFullscreenDesc, restrictToOutput Object) (Object, int32, error) {
	var swapchain Object
	hr, _, _ := syscall.SyscallN(vtblFn(factory, vtblFactory2CreateSwapChainForHwnd),
		uintptr(factory), uintptr(device), hwnd, uintptr(unsafe.Pointer(&desc)),
		uintptr(unsafe.Pointer(fullscreen)), uintptr(restrictToOutput), uintptr(unsafe.Pointer(&swapchain)))
	return swapchain, int32(hr), nil
}

func (comDriver) AddRef(object Object) (uint32, error) {
	ret, _, _ := syscall.SyscallN(vtblFn(object, vtblUnknownAddRef), uintptr(object))
	return uint32(ret), nil
}

func (comDriver) Release(object Object) (uint32, error) {
	ret, _, _ := syscall.SyscallN(vtblFn(object, vtblUnknownRelease), uintptr(object))
	return uint32(ret), nil
}
