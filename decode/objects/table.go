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

// Package objects tracks the mapping from capture-time object ids to the
// replay-time driver objects that were created in their place, together with
// the per-object-type "extra info" dx12_replay_consumer_base.cpp keeps
// alongside each one (device tables, descriptor heap address ranges,
// resource map bookkeeping, swapchain windows).
package objects

import (
	"sync"

	"github.com/gfxcapture/dxreplay/replay/window"
)

// ExtraInfoType discriminates the concrete type stored in Info.Extra,
// mirroring DxObjectInfoType.
type ExtraInfoType int

const (
	ExtraInfoNone ExtraInfoType = iota
	ExtraInfoDevice
	ExtraInfoDescriptorHeap
	ExtraInfoResource
	ExtraInfoSwapchain
)

func (t ExtraInfoType) String() string {
	switch t {
	case ExtraInfoDevice:
		return "Device"
	case ExtraInfoDescriptorHeap:
		return "DescriptorHeap"
	case ExtraInfoResource:
		return "Resource"
	case ExtraInfoSwapchain:
		return "Swapchain"
	default:
		return "None"
	}
}

// Extra is the sum type of per-object-type bookkeeping attached to an Info.
// Exactly one of DeviceInfo, DescriptorHeapInfo, ResourceInfo or
// SwapchainInfo implements it for any given object.
type Extra interface {
	extraInfoType() ExtraInfoType
}

// DeviceInfo is attached to a replayed ID3D12Device. CaptureIncrements and
// ReplayIncrements record GetDescriptorHandleIncrementSize's result per
// heap type, at capture time and replay time respectively, since a
// descriptor heap created from this device needs both to translate its
// handles (the two increments can differ across GPUs).
type DeviceInfo struct {
	CaptureIncrements map[uint32]uint32
	ReplayIncrements  map[uint32]uint32
}

func (*DeviceInfo) extraInfoType() ExtraInfoType { return ExtraInfoDevice }

// DescriptorHeapInfo is attached to a replayed ID3D12DescriptorHeap and
// records the capture-time base addresses the heap's handles were offset
// from, so CPU/GPU handle remapping can find the heap a given capture
// handle belongs to.
type DescriptorHeapInfo struct {
	DescriptorType  uint32
	DescriptorCount uint32

	CaptureIncrement uint32
	ReplayIncrement  uint32

	CaptureCPUAddrBegin uint64
	CaptureGPUAddrBegin uint64
	ReplayCPUAddrBegin  uint64
	ReplayGPUAddrBegin  uint64
}

func (*DescriptorHeapInfo) extraInfoType() ExtraInfoType { return ExtraInfoDescriptorHeap }

// MappedMemoryInfo records one outstanding Map() on a resource's subresource.
type MappedMemoryInfo struct {
	MemoryID    uint64
	Subresource uint32
	MapCount    int
}

// ResourceInfo is attached to a replayed ID3D12Resource. MappedMemory is
// keyed by subresource index, since a resource's subresources can be
// mapped and unmapped independently of one another.
type ResourceInfo struct {
	CaptureAddress uint64 // 0 if the resource has no GPU virtual address (e.g. buffers only)
	MappedMemory   map[uint32]MappedMemoryInfo
}

func (*ResourceInfo) extraInfoType() ExtraInfoType { return ExtraInfoResource }

// SwapchainInfo is attached to a replayed IDXGISwapChain and owns the native
// window that was created for it.
type SwapchainInfo struct {
	Window window.Window
}

func (*SwapchainInfo) extraInfoType() ExtraInfoType { return ExtraInfoSwapchain }

// Info is the record kept for one capture-time object: the replay-time
// object that stands in for it, a reference count mirroring the capture-time
// AddRef/Release traffic, and any type-specific Extra.
type Info struct {
	CaptureID uint64
	Object    interface{}
	RefCount  uint32

	ExtraType ExtraInfoType
	Extra     Extra
}

// Table maps capture-time object ids to Info records. It is not safe for
// concurrent use from multiple goroutines without the caller holding its own
// lock, except that Table itself serializes Insert/Lookup/Release internally
// so a status-reporting goroutine can read it while the single replay
// goroutine mutates it.
type Table struct {
	mu      sync.Mutex
	objects map[uint64]*Info
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{objects: make(map[uint64]*Info)}
}

// Insert records a new object, with an initial reference count of 1, and
// returns its Info.
func (t *Table) Insert(captureID uint64, object interface{}) *Info {
	info := &Info{CaptureID: captureID, Object: object, RefCount: 1}
	t.mu.Lock()
	t.objects[captureID] = info
	t.mu.Unlock()
	return info
}

// Lookup returns the Info for captureID, or nil if it is not present.
func (t *Table) Lookup(captureID uint64) *Info {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.objects[captureID]
}

// AddRef increments info's reference count, mirroring OverrideAddRef.
func (t *Table) AddRef(info *Info) {
	t.mu.Lock()
	info.RefCount++
	t.mu.Unlock()
}

// Release decrements info's reference count and, once it reaches zero, runs
// teardown (to release any Extra-specific resources) and removes info from
// the table, mirroring OverrideRelease's call into RemoveObject. It reports
// whether the object was removed.
func (t *Table) Release(info *Info, teardown func(*Info)) bool {
	t.mu.Lock()
	if info.RefCount > 0 {
		info.RefCount--
	}
	removed := info.RefCount == 0
	if removed {
		delete(t.objects, info.CaptureID)
	}
	t.mu.Unlock()

	if removed && teardown != nil {
		teardown(info)
	}
	return removed
}

// Remove unconditionally drops captureID from the table, regardless of its
// reference count, for the cases (e.g. device-lost teardown) where the
// table itself is being torn down rather than a single object's refcount
// reaching zero.
func (t *Table) Remove(captureID uint64) {
	t.mu.Lock()
	delete(t.objects, captureID)
	t.mu.Unlock()
}

// Len reports how many objects are currently tracked.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.objects)
}
