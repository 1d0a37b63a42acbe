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

	"github.com/gfxcapture/dxreplay/core/log"
	"github.com/gfxcapture/dxreplay/decode/addressmap"
	"github.com/gfxcapture/dxreplay/decode/objects"
	"github.com/gfxcapture/dxreplay/replay/driver"
)

// CreateDevice mirrors OverrideD3D12CreateDevice: it resolves the capture
// adapter id (0 meaning "use the default adapter"), calls through to
// D3D12CreateDevice, and on success records a new object carrying an empty
// DeviceInfo, ready for GetDescriptorHandleIncrementSize to fill in.
func (o *Overrides) CreateDevice(ctx context.Context, captureDeviceID, adapterID uint64, minimumFeatureLevel uint32, riid driver.GUID) error {
	var adapter driver.Object
	if info := o.resolve(ctx, adapterID); info != nil {
		adapter = info.Object.(driver.Object)
	}

	device, _, err := o.Driver.D3D12CreateDevice(adapter, minimumFeatureLevel, riid)
	if err != nil {
		return log.Errf(ctx, err, "D3D12CreateDevice")
	}
	if !device.Valid() {
		return nil
	}

	info := o.Objects.Insert(captureDeviceID, device)
	info.ExtraType = objects.ExtraInfoDevice
	info.Extra = &objects.DeviceInfo{
		CaptureIncrements: make(map[uint32]uint32),
		ReplayIncrements:  make(map[uint32]uint32),
	}
	return nil
}

// CreateDescriptorHeap mirrors OverrideCreateDescriptorHeap: it creates the
// heap through the device it was requested from, then seeds the heap's
// DescriptorHeapInfo with the increment sizes already observed for that
// device (GetDescriptorHandleIncrementSize must have replayed first, which
// every capture does, since a heap's descriptor stride is needed to record
// individual descriptor writes).
func (o *Overrides) CreateDescriptorHeap(ctx context.Context, captureHeapID, deviceID uint64, desc driver.DescriptorHeapDesc, riid driver.GUID) error {
	deviceInfo := o.resolveRequired(ctx, deviceID)

	heap, _, err := o.Driver.CreateDescriptorHeap(deviceInfo.Object.(driver.Object), desc, riid)
	if err != nil {
		return log.Errf(ctx, err, "CreateDescriptorHeap")
	}
	if !heap.Valid() {
		return nil
	}

	heapInfo := &objects.DescriptorHeapInfo{
		DescriptorType:  desc.Type,
		DescriptorCount: desc.NumDescriptors,
	}
	if dev, ok := deviceInfo.Extra.(*objects.DeviceInfo); ok {
		heapInfo.CaptureIncrement = dev.CaptureIncrements[desc.Type]
		heapInfo.ReplayIncrement = dev.ReplayIncrements[desc.Type]
	} else {
		log.E(ctx, "device object has no associated device info")
	}

	info := o.Objects.Insert(captureHeapID, heap)
	info.ExtraType = objects.ExtraInfoDescriptorHeap
	info.Extra = heapInfo
	return nil
}

// GetDescriptorHandleIncrementSize mirrors
// OverrideGetDescriptorHandleIncrementSize: besides returning the replay
// increment, it records both the capture-time value (handed to it by the
// caller, read off the trace) and the replay-time one in the device's
// DeviceInfo for later heaps to pick up.
func (o *Overrides) GetDescriptorHandleIncrementSize(ctx context.Context, deviceID uint64, heapType uint32, captureResult uint32) (uint32, error) {
	info := o.resolveRequired(ctx, deviceID)

	replayResult, err := o.Driver.GetDescriptorHandleIncrementSize(info.Object.(driver.Object), heapType)
	if err != nil {
		return 0, log.Errf(ctx, err, "GetDescriptorHandleIncrementSize")
	}

	dev, ok := info.Extra.(*objects.DeviceInfo)
	if !ok {
		log.E(ctx, "device object has no associated device info")
		return replayResult, nil
	}
	dev.CaptureIncrements[heapType] = captureResult
	dev.ReplayIncrements[heapType] = replayResult
	return replayResult, nil
}

// GetCPUDescriptorHandleForHeapStart mirrors
// OverrideGetCPUDescriptorHandleForHeapStart: the first call for a given
// heap records both base addresses and registers the heap with the CPU
// descriptor address map; later calls are idempotent, matching the
// capture_cpu_addr_begin == 0 guard in the original.
func (o *Overrides) GetCPUDescriptorHandleForHeapStart(ctx context.Context, heapID uint64, captureResult uint64) (uint64, error) {
	info := o.resolveRequired(ctx, heapID)

	replayResult, err := o.Driver.GetCPUDescriptorHandleForHeapStart(info.Object.(driver.Object))
	if err != nil {
		return 0, log.Errf(ctx, err, "GetCPUDescriptorHandleForHeapStart")
	}

	heap, ok := info.Extra.(*objects.DescriptorHeapInfo)
	if !ok {
		log.E(ctx, "descriptor heap object has no associated heap info")
		return replayResult, nil
	}
	if heap.CaptureCPUAddrBegin == 0 {
		heap.CaptureCPUAddrBegin = captureResult
		heap.ReplayCPUAddrBegin = replayResult
		o.DescCPU.Add(addressmap.HeapRange{CaptureBase: captureResult, ReplayBase: replayResult})
	}
	return replayResult, nil
}

// GetGPUDescriptorHandleForHeapStart is GetCPUDescriptorHandleForHeapStart's
// GPU-visible counterpart, mirroring
// OverrideGetGPUDescriptorHandleForHeapStart.
func (o *Overrides) GetGPUDescriptorHandleForHeapStart(ctx context.Context, heapID uint64, captureResult uint64) (uint64, error) {
	info := o.resolveRequired(ctx, heapID)

	replayResult, err := o.Driver.GetGPUDescriptorHandleForHeapStart(info.Object.(driver.Object))
	if err != nil {
		return 0, log.Errf(ctx, err, "GetGPUDescriptorHandleForHeapStart")
	}

	heap, ok := info.Extra.(*objects.DescriptorHeapInfo)
	if !ok {
		log.E(ctx, "descriptor heap object has no associated heap info")
		return replayResult, nil
	}
	if heap.CaptureGPUAddrBegin == 0 {
		heap.CaptureGPUAddrBegin = captureResult
		heap.ReplayGPUAddrBegin = replayResult
		o.DescGPU.Add(addressmap.HeapRange{CaptureBase: captureResult, ReplayBase: replayResult})
	}
	return replayResult, nil
}
