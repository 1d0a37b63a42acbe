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

package consumer

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/gfxcapture/dxreplay/decode/addressmap"
	"github.com/gfxcapture/dxreplay/decode/objects"
	"github.com/gfxcapture/dxreplay/decode/override"
	"github.com/gfxcapture/dxreplay/format"
	"github.com/gfxcapture/dxreplay/replay/driver"
	"github.com/gfxcapture/dxreplay/replay/window"
)

func bufPointer(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

type fakeDriver struct {
	nextHandle  driver.Object
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
func (f *fakeDriver) GetGPUVirtualAddress(resource driver.Object) (uint64, error) { return 0x7000, nil }
func (f *fakeDriver) GetResourceSizeInBytes(resource driver.Object) (uint64, error) {
	return 256, nil
}
func (f *fakeDriver) ResourceMap(resource driver.Object, subresource uint32, readRange *driver.Range) (uintptr, int32, error) {
	return 0xBEEF, 0, nil
}
func (f *fakeDriver) ResourceUnmap(resource driver.Object, subresource uint32, writtenRange *driver.Range) error {
	return nil
}
func (f *fakeDriver) WriteToSubresource(resource driver.Object, dstSubresource uint32, dstBox *driver.Box, src []byte, srcRowPitch, srcDepthPitch uint32) (int32, error) {
	return 0, nil
}
func (f *fakeDriver) ReadFromSubresource(resource driver.Object, dst []byte, dstRowPitch, dstDepthPitch uint32, srcSubresource uint32, srcBox *driver.Box) (int32, error) {
	return 0, nil
}
func (f *fakeDriver) CreateSwapChain(factory, device driver.Object, desc driver.SwapChainDesc) (driver.Object, int32, error) {
	return f.alloc(), f.swapchainHR, nil
}
func (f *fakeDriver) CreateSwapChainForHwnd(factory, device driver.Object, hwnd uintptr, desc driver.SwapChainDesc1, fullscreen *driver.SwapChainFullscreenDesc, restrictToOutput driver.Object) (driver.Object, int32, error) {
	return f.alloc(), f.swapchainHR, nil
}
func (f *fakeDriver) AddRef(object driver.Object) (uint32, error)  { return 2, nil }
func (f *fakeDriver) Release(object driver.Object) (uint32, error) { return 0, nil }

type fakeWindow struct {
	hwnd      uintptr
	destroyed bool
	width     uint32
	height    uint32
}

func (w *fakeWindow) GetNativeHandle(handleType window.HandleType, out *uintptr) bool {
	*out = w.hwnd
	return true
}
func (w *fakeWindow) Resize(width, height uint32) { w.width, w.height = width, height }
func (w *fakeWindow) Destroy()                    { w.destroyed = true }

type fakeWindowFactory struct{ nextHWND uintptr }

func (f *fakeWindowFactory) Create(x, y int32, width, height uint32) window.Window {
	f.nextHWND++
	return &fakeWindow{hwnd: f.nextHWND}
}
func (f *fakeWindowFactory) Destroy(w window.Window) {
	if fw, ok := w.(*fakeWindow); ok {
		fw.destroyed = true
	}
}

func newTestConsumer(drv *fakeDriver) (*Consumer, *override.Overrides) {
	o := override.New(
		objects.NewTable(),
		addressmap.NewGPUVAMap(),
		addressmap.NewDescriptorAddresses(),
		addressmap.NewDescriptorAddresses(),
		addressmap.NewMappedMemory(),
		&fakeWindowFactory{},
		drv,
	)
	return New(o), o
}

func putU32(buf *bytes.Buffer, v uint32) { binary.Write(buf, binary.LittleEndian, v) }
func putU64(buf *bytes.Buffer, v uint64) { binary.Write(buf, binary.LittleEndian, v) }
func putI32(buf *bytes.Buffer, v int32)  { binary.Write(buf, binary.LittleEndian, v) }

func TestDispatchCreateDevice(t *testing.T) {
	c, o := newTestConsumer(&fakeDriver{})
	var body bytes.Buffer
	putU64(&body, 0)                                   // adapterID
	putU32(&body, 0xc000)                               // minimumFeatureLevel
	body.Write(make([]byte, 16))                        // riid
	putU64(&body, 900)                                  // newDeviceID

	if err := c.dispatch(context.Background(), ApiCallD3D12CreateDevice, body.Bytes()); err != nil {
		t.Fatalf("dispatch() error = %v", err)
	}
	if o.Objects.Lookup(900) == nil {
		t.Fatalf("device object 900 not registered")
	}
}

func TestDispatchResourceMap(t *testing.T) {
	c, o := newTestConsumer(&fakeDriver{})
	o.Objects.Insert(5, driver.Object(1))

	var body bytes.Buffer
	putU64(&body, 5)     // resourceID
	putU32(&body, 0)     // subresource
	putU32(&body, 0)     // readRange nil flag
	putU64(&body, 123)   // memoryID
	putI32(&body, 0)     // captureResult

	if err := c.dispatch(context.Background(), ApiCallResourceMap, body.Bytes()); err != nil {
		t.Fatalf("dispatch() error = %v", err)
	}
	entry, ok := o.MappedMemory.Get(123)
	if !ok {
		t.Fatalf("MappedMemory.Get(123) ok = false")
	}
	if entry.Pointer != 0xBEEF {
		t.Fatalf("entry.Pointer = %#x, want 0xBEEF", entry.Pointer)
	}
}

func TestDispatchCreateSwapChainForHwndAttachesWindow(t *testing.T) {
	c, o := newTestConsumer(&fakeDriver{})
	o.Objects.Insert(1, driver.Object(10)) // factory
	o.Objects.Insert(2, driver.Object(20)) // device

	var body bytes.Buffer
	putU64(&body, 1)   // factoryID
	putU64(&body, 2)   // deviceID
	putU64(&body, 0xCAFE) // capture-time hwnd, unreferenced
	putU32(&body, 640) // desc.Width
	putU32(&body, 480) // desc.Height
	putU32(&body, 0)   // Format
	putI32(&body, 0)   // Stereo
	putU32(&body, 2)   // BufferCount
	putU32(&body, 0)   // Scaling
	putU32(&body, 0)   // SwapEffect
	putU32(&body, 0)   // AlphaMode
	putU32(&body, 0)   // Flags
	putU32(&body, 0)   // fullscreen nil flag
	putU64(&body, 0)   // restrictToOutputID
	putI32(&body, 0)   // captureResult
	putU64(&body, 55)  // newSwapchainID

	if err := c.dispatch(context.Background(), ApiCallFactory2CreateSwapChainForHwnd, body.Bytes()); err != nil {
		t.Fatalf("dispatch() error = %v", err)
	}

	info := o.Objects.Lookup(55)
	if info == nil {
		t.Fatalf("swapchain object 55 not registered")
	}
	sc, ok := info.Extra.(*objects.SwapchainInfo)
	if !ok {
		t.Fatalf("info.Extra is not *SwapchainInfo")
	}
	if sc.Window == nil {
		t.Fatalf("swapchain has no attached window")
	}
}

func TestIsFrameDelimiter(t *testing.T) {
	c, _ := newTestConsumer(&fakeDriver{})
	if !c.IsFrameDelimiter(ApiCallSwapChainPresent) {
		t.Fatalf("IsFrameDelimiter(Present) = false, want true")
	}
	if c.IsFrameDelimiter(ApiCallD3D12CreateDevice) {
		t.Fatalf("IsFrameDelimiter(CreateDevice) = true, want false")
	}
}

func TestProcessMetaDataFillMemory(t *testing.T) {
	c, o := newTestConsumer(&fakeDriver{})
	buf := make([]byte, 8)
	o.MappedMemory.Set(77, addressmap.MemoryEntry{Pointer: bufPointer(buf)})

	var body bytes.Buffer
	putU64(&body, 77) // memoryID
	putU64(&body, 0)  // offset
	putU64(&body, 4)  // data length
	body.Write([]byte{1, 2, 3, 4})

	header := format.BlockHeader{Type: format.BlockTypeMetaData}
	if err := c.ProcessMetaData(context.Background(), header, uint32(format.MetaDataTypeFillMemory), body.Bytes()); err != nil {
		t.Fatalf("ProcessMetaData() error = %v", err)
	}
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 || buf[3] != 4 {
		t.Fatalf("buf[0:4] = %v, want [1 2 3 4]", buf[0:4])
	}
}

func TestProcessMetaDataResizeWindow(t *testing.T) {
	c, o := newTestConsumer(&fakeDriver{})
	w := &fakeWindow{hwnd: 1}
	info := o.Objects.Insert(30, driver.Object(3))
	info.ExtraType = objects.ExtraInfoSwapchain
	info.Extra = &objects.SwapchainInfo{Window: w}

	var body bytes.Buffer
	putU64(&body, 30)  // swapchainID
	putU32(&body, 800) // width
	putU32(&body, 600) // height

	header := format.BlockHeader{Type: format.BlockTypeMetaData}
	if err := c.ProcessMetaData(context.Background(), header, uint32(format.MetaDataTypeResizeWindow), body.Bytes()); err != nil {
		t.Fatalf("ProcessMetaData() error = %v", err)
	}
	if w.width != 800 || w.height != 600 {
		t.Fatalf("window size = %dx%d, want 800x600", w.width, w.height)
	}
}
