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
	"encoding/binary"

	"github.com/gfxcapture/dxreplay/replay/driver"
)

// cursor reads a call's parameter block field by field, the same way
// StructPointerDecoder decodes a fixed-layout struct: no reflection, no
// padding assumptions beyond what each field declares for itself.
type cursor struct {
	buf []byte
	off int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

func (c *cursor) u16() uint16 {
	v := binary.LittleEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v
}

func (c *cursor) u32() uint32 {
	v := binary.LittleEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v
}

func (c *cursor) i32() int32 { return int32(c.u32()) }

func (c *cursor) u64() uint64 {
	v := binary.LittleEndian.Uint64(c.buf[c.off:])
	c.off += 8
	return v
}

func (c *cursor) bytes(n int) []byte {
	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

// byteSlice reads a u32-length-prefixed byte array, the framing used for
// WriteToSubresource's source data.
func (c *cursor) byteSlice() []byte {
	n := c.u32()
	return c.bytes(int(n))
}

// byteSliceU64 reads a u64-length-prefixed byte array, the framing used for
// FillMemory's data field ({memory_id u64, offset u64, size u64, data[size]}).
func (c *cursor) byteSliceU64() []byte {
	n := c.u64()
	return c.bytes(int(n))
}

func (c *cursor) guid() driver.GUID {
	var g driver.GUID
	g.Data1 = c.u32()
	g.Data2 = c.u16()
	g.Data3 = c.u16()
	copy(g.Data4[:], c.bytes(8))
	return g
}

func (c *cursor) rangePtr() *driver.Range {
	if c.u32() == 0 {
		return nil
	}
	return &driver.Range{Begin: uintptr(c.u64()), End: uintptr(c.u64())}
}

func (c *cursor) box() driver.Box {
	return driver.Box{
		Left: c.u32(), Top: c.u32(), Front: c.u32(),
		Right: c.u32(), Bottom: c.u32(), Back: c.u32(),
	}
}

// boxPtr reads a nil-flag-prefixed Box, the framing used for the optional
// dst_box/src_box parameters of WriteToSubresource/ReadFromSubresource.
func (c *cursor) boxPtr() *driver.Box {
	if c.u32() == 0 {
		return nil
	}
	b := c.box()
	return &b
}

func (c *cursor) descriptorHeapDesc() driver.DescriptorHeapDesc {
	return driver.DescriptorHeapDesc{
		Type:           c.u32(),
		NumDescriptors: c.u32(),
		Flags:          c.u32(),
		NodeMask:       c.u32(),
	}
}

func (c *cursor) swapChainDesc() driver.SwapChainDesc {
	return driver.SwapChainDesc{
		BufferWidth:  c.u32(),
		BufferHeight: c.u32(),
		BufferFormat: c.u32(),
		BufferCount:  c.u32(),
		OutputWindow: uintptr(c.u64()),
		Windowed:     c.i32(),
		SwapEffect:   c.u32(),
		Flags:        c.u32(),
	}
}

func (c *cursor) swapChainDesc1() driver.SwapChainDesc1 {
	return driver.SwapChainDesc1{
		Width:       c.u32(),
		Height:      c.u32(),
		Format:      c.u32(),
		Stereo:      c.i32(),
		BufferCount: c.u32(),
		Scaling:     c.u32(),
		SwapEffect:  c.u32(),
		AlphaMode:   c.u32(),
		Flags:       c.u32(),
	}
}

func (c *cursor) swapChainFullscreenDescPtr() *driver.SwapChainFullscreenDesc {
	if c.u32() == 0 {
		return nil
	}
	return &driver.SwapChainFullscreenDesc{
		RefreshRateNumerator:   c.u32(),
		RefreshRateDenominator: c.u32(),
		ScanlineOrdering:       c.u32(),
		Scaling:                c.u32(),
		Windowed:               c.i32(),
	}
}
