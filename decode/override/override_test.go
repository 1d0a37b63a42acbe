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

package override

import (
	"context"
	"testing"
	"unsafe"

	"github.com/gfxcapture/dxreplay/decode/addressmap"
	"github.com/gfxcapture/dxreplay/decode/objects"
	"github.com/gfxcapture/dxreplay/replay/driver"
	"github.com/gfxcapture/dxreplay/replay/window"
)

// fakeDriver is a minimal in-memory stand-in for a real D3D12/DXGI driver:
// every create call hands back a monotonically increasing fake object
// handle, and GetResourceSizeInBytes / GetGPUVirtualAddress return values
// set on the fakeDriver directly, the way a test double for a COM driver
// has to since there is no real GPU to ask.
type fakeDriver struct {
	nextHandle driver.Object

	resourceSize    uint64
	resourceSizeErr error
	gpuVA           uint64

	mapData uintptr
	mapHR   int32

	writeHR int32
	readHR  int32

	swapchainHR int32
}

func (f *fakeDriver) alloc() driver.Object {
	f.nextHandle++
	return f.nextHandle
}

func (f *fakeDriver) D3D12CreateDevice(adapter driver.Object, minimumFeatureLevel uint32, riid driver.GUID) (driver.Object, int32, error) {
	return f.alloc(), 0, nil
}
func (f *fakeDriver) CreateDescriptorHeap(device driver.Object, desc driver.DescriptorHeapDesc, riid driver.GUID) (driver.Object, int32, error) {
	return f.alloc(), 0, nil
}
func (f *fakeDriver) GetDescriptorHandleIncrementSize(device driver.Object, heapType uint32) (uint32, error) {
	return 32, nil
}
func (f *fakeDriver) GetCPUDescriptorHandleForHeapStart(heap driver.Object) (uint64, error) {
	return 0x1000, nil
}
func (f *fakeDriver) GetGPUDescriptorHandleForHeapStart(heap driver.Object) (uint64, error) {
	return 0x2000, nil
}
func (f *fakeDriver) GetGPUVirtualAddress(resource driver.Object) (uint64, error) {
	return f.gpuVA, nil
}
func (f *fakeDriver) GetResourceSizeInBytes(resource driver.Object) (uint64, error) {
	return f.resourceSize, f.resourceSizeErr
}
func (f *fakeDriver) ResourceMap(resource driver.Object, subresource uint32, readRange *driver.Range) (uintptr, int32, error) {
	return f.mapData, f.mapHR, nil
}
func (f *fakeDriver) ResourceUnmap(resource driver.Object, subresource uint32, writtenRange *driver.Range) error {
	return nil
}
func (f *fakeDriver) WriteToSubresource(resource driver.Object, dstSubresource uint32, dstBox *driver.Box, src []byte, srcRowPitch, srcDepthPitch uint32) (int32, error) {
	return f.writeHR, nil
}
func (f *fakeDriver) ReadFromSubresource(resource driver.Object, dst []byte, dstRowPitch, dstDepthPitch uint32, srcSubresource uint32, srcBox *driver.Box) (int32, error) {
	return f.readHR, nil
}
func (f *fakeDriver) CreateSwapChain(factory, device driver.Object, desc driver.SwapChainDesc) (driver.Object, int32, error) {
	return f.alloc(), f.swapchainHR, nil
}
func (f *fakeDriver) CreateSwapChainForHwnd(factory, device driver.Object, hwnd uintptr, desc driver.SwapChainDesc1, fullscreen *driver.SwapChainFullscreenDesc, restrictToOutput driver.Object) (driver.Object, int32, error) {
	return f.alloc(), f.swapchainHR, nil
}
func (f *fakeDriver) AddRef(object driver.Object) (uint32, error)  { return 2, nil }
func (f *fakeDriver) Release(object driver.Object) (uint32, error) { return 0, nil }

// fakeWindow and fakeWindowFactory are minimal Window/Factory test doubles.
type fakeWindow struct {
	hwnd      uintptr
	destroyed bool
	width     uint32
	height    uint32
}

func (w *fakeWindow) GetNativeHandle(handleType window.HandleType, out *uintptr) bool {
	if handleType != window.Win32HWnd {
		return false
	}
	*out = w.hwnd
	return true
}
func (w *fakeWindow) Resize(width, height uint32) { w.width, w.height = width, height }
func (w *fakeWindow) Destroy()                    { w.destroyed = true }

type fakeWindowFactory struct {
	nextHWND  uintptr
	failNext  bool
	created   []*fakeWindow
}

func (f *fakeWindowFactory) Create(x, y int32, width, height uint32) window.Window {
	if f.failNext {
		f.failNext = false
		return nil
	}
	f.nextHWND++
	w := &fakeWindow{hwnd: f.nextHWND}
	f.created = append(f.created, w)
	return w
}

func (f *fakeWindowFactory) Destroy(w window.Window) {
	if fw, ok := w.(*fakeWindow); ok {
		fw.destroyed = true
	}
}

func newTestOverrides(drv *fakeDriver, windows *fakeWindowFactory) *Overrides {
	return New(
		objects.NewTable(),
		addressmap.NewGPUVAMap(),
		addressmap.NewDescriptorAddresses(),
		addressmap.NewDescriptorAddresses(),
		addressmap.NewMappedMemory(),
		windows,
		drv,
	)
}

func TestCreateDeviceRegistersObject(t *testing.T) {
	ctx := context.Background()
	o := newTestOverrides(&fakeDriver{}, &fakeWindowFactory{})

	if err := o.CreateDevice(ctx, 42, 0, 0xc000, driver.GUID{}); err != nil {
		t.Fatalf("CreateDevice() error = %v", err)
	}

	info := o.Objects.Lookup(42)
	if info == nil {
		t.Fatalf("Lookup(42) = nil, want a registered device")
	}
	if info.ExtraType != objects.ExtraInfoDevice {
		t.Fatalf("ExtraType = %v, want ExtraInfoDevice", info.ExtraType)
	}
}

func TestGetGPUVirtualAddressRegistersRangeOnFirstObservation(t *testing.T) {
	ctx := context.Background()
	drv := &fakeDriver{resourceSize: 4096, gpuVA: 0x7000}
	o := newTestOverrides(drv, &fakeWindowFactory{})

	// CreateDevice is not needed; insert a resource object directly.
	o.Objects.Insert(7, driver.Object(99))

	replay, err := o.GetGPUVirtualAddress(ctx, 7, 0x5000)
	if err != nil {
		t.Fatalf("GetGPUVirtualAddress() error = %v", err)
	}
	if replay != 0x7000 {
		t.Fatalf("replay address = %#x, want 0x7000", replay)
	}

	mapped, ok := o.GPUVA.Map(0x5000 + 100)
	if !ok {
		t.Fatalf("GPUVA.Map(capture+100) ok = false, want true")
	}
	if mapped != 0x7000+100 {
		t.Fatalf("GPUVA.Map(capture+100) = %#x, want %#x", mapped, 0x7000+100)
	}
}

func TestGetGPUVirtualAddressSurvivesSizeLookupFailure(t *testing.T) {
	ctx := context.Background()
	drv := &fakeDriver{resourceSizeErr: driver.ErrUnsupportedPlatform, gpuVA: 0x7000}
	o := newTestOverrides(drv, &fakeWindowFactory{})
	o.Objects.Insert(7, driver.Object(99))

	replay, err := o.GetGPUVirtualAddress(ctx, 7, 0x5000)
	if err != nil {
		t.Fatalf("GetGPUVirtualAddress() error = %v, want nil even when size lookup fails", err)
	}
	if replay != 0x7000 {
		t.Fatalf("replay address = %#x, want 0x7000", replay)
	}
}

func TestMapRecordsMappedMemoryAndUnmapClearsIt(t *testing.T) {
	ctx := context.Background()
	drv := &fakeDriver{mapData: 0xABCD0000, mapHR: 0}
	o := newTestOverrides(drv, &fakeWindowFactory{})
	o.Objects.Insert(11, driver.Object(1))

	if _, err := o.Map(ctx, 11, 0, nil, 500); err != nil {
		t.Fatalf("Map() error = %v", err)
	}
	entry, ok := o.MappedMemory.Get(500)
	if !ok {
		t.Fatalf("MappedMemory.Get(500) ok = false, want true")
	}
	if entry.Pointer != 0xABCD0000 {
		t.Fatalf("entry.Pointer = %#x, want 0xABCD0000", entry.Pointer)
	}

	if err := o.Unmap(ctx, 11, 0, nil); err != nil {
		t.Fatalf("Unmap() error = %v", err)
	}
	if _, ok := o.MappedMemory.Get(500); ok {
		t.Fatalf("MappedMemory.Get(500) ok = true after Unmap, want false")
	}
}

func TestFillMemoryWritesIntoMappedRegion(t *testing.T) {
	ctx := context.Background()
	buf := make([]byte, 16)
	o := newTestOverrides(&fakeDriver{}, &fakeWindowFactory{})
	o.MappedMemory.Set(9, addressmap.MemoryEntry{Pointer: pointerOf(buf)})

	o.FillMemory(ctx, 9, 4, []byte{0xDE, 0xAD, 0xBE, 0xEF})

	if buf[4] != 0xDE || buf[5] != 0xAD || buf[6] != 0xBE || buf[7] != 0xEF {
		t.Fatalf("buf[4:8] = % x, want de ad be ef", buf[4:8])
	}
}

func TestFillMemorySkipsUnknownMemoryID(t *testing.T) {
	ctx := context.Background()
	o := newTestOverrides(&fakeDriver{}, &fakeWindowFactory{})
	// Must not panic when the memory id was never mapped.
	o.FillMemory(ctx, 404, 0, []byte{1, 2, 3})
}

func TestCreateSwapChainForHwndCreatesAndAttachesWindow(t *testing.T) {
	ctx := context.Background()
	drv := &fakeDriver{swapchainHR: 0}
	windows := &fakeWindowFactory{}
	o := newTestOverrides(drv, windows)
	o.Objects.Insert(1, driver.Object(10)) // factory
	o.Objects.Insert(2, driver.Object(20)) // device

	desc := driver.SwapChainDesc1{Width: 640, Height: 480, BufferCount: 2}
	obj, hr, w := o.CreateSwapChainForHwnd(ctx, 1, 2, desc, nil, 0)
	if hr != 0 {
		t.Fatalf("hr = %d, want 0", hr)
	}
	if !obj.Valid() {
		t.Fatalf("swapchain object invalid")
	}
	if w == nil {
		t.Fatalf("window = nil, want a created window")
	}

	o.AttachSwapChainWindow(55, obj, w)
	info := o.Objects.Lookup(55)
	if info == nil {
		t.Fatalf("Lookup(55) = nil after AttachSwapChainWindow")
	}
	sc, ok := info.Extra.(*objects.SwapchainInfo)
	if !ok {
		t.Fatalf("info.Extra is not *SwapchainInfo")
	}
	if sc.Window != w {
		t.Fatalf("sc.Window != w")
	}
}

func TestCreateSwapChainForHwndDestroysWindowOnDriverFailure(t *testing.T) {
	ctx := context.Background()
	drv := &fakeDriver{swapchainHR: -1}
	windows := &fakeWindowFactory{}
	o := newTestOverrides(drv, windows)
	o.Objects.Insert(1, driver.Object(10))
	o.Objects.Insert(2, driver.Object(20))

	_, hr, w := o.CreateSwapChainForHwnd(ctx, 1, 2, driver.SwapChainDesc1{Width: 100, Height: 100}, nil, 0)
	if hr != -1 {
		t.Fatalf("hr = %d, want -1", hr)
	}
	if w != nil {
		t.Fatalf("w != nil on driver failure")
	}
	if len(windows.created) != 1 || !windows.created[0].destroyed {
		t.Fatalf("created window was not destroyed on driver failure")
	}
}

func TestReleaseTearsDownSwapchainWindow(t *testing.T) {
	ctx := context.Background()
	drv := &fakeDriver{}
	windows := &fakeWindowFactory{}
	o := newTestOverrides(drv, windows)

	w := &fakeWindow{hwnd: 1}
	info := o.Objects.Insert(77, driver.Object(30))
	o.setSwapchainWindow(info, w)

	if _, err := o.Release(ctx, 77); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if !w.destroyed {
		t.Fatalf("window not destroyed after final Release")
	}
	if o.Objects.Lookup(77) != nil {
		t.Fatalf("object still present after final Release")
	}
}

func pointerOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
