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

// Package override implements the replay-time behavior of every D3D12/DXGI
// call that needs more than "invoke the driver with remapped arguments":
// object lifetime tracking, descriptor and GPU-VA address translation,
// mapped-memory bookkeeping, and swapchain window creation. It is the Go
// counterpart of Dx12ReplayConsumerBase.
//
// Every override follows the same five phases: resolve the capture-time
// object ids named by the call into their replay-time Info records, remap
// any embedded addresses those records imply, invoke the driver, check the
// driver's result against what was recorded at capture time (logged, never
// fatal — a mismatch means the replay device behaves differently, not that
// replay must stop), then post-process the result (record new objects,
// update address maps, create a window).
package override

import (
	"context"

	"github.com/gfxcapture/dxreplay/core/log"
	"github.com/gfxcapture/dxreplay/decode/addressmap"
	"github.com/gfxcapture/dxreplay/decode/objects"
	"github.com/gfxcapture/dxreplay/replay/driver"
	"github.com/gfxcapture/dxreplay/replay/window"
)

// defaultWindowPositionX/Y is where every swapchain-created window opens,
// matching kDefaultWindowPositionX/Y.
const (
	defaultWindowPositionX = window.DefaultPositionX
	defaultWindowPositionY = window.DefaultPositionY
)

// Overrides holds every collaborator the D3D12/DXGI call overrides need:
// the object table, the three address maps, the window factory, and the
// driver that actually issues D3D12/DXGI calls.
type Overrides struct {
	Objects      *objects.Table
	GPUVA        *addressmap.GPUVAMap
	DescCPU      *addressmap.DescriptorAddresses
	DescGPU      *addressmap.DescriptorAddresses
	MappedMemory *addressmap.MappedMemory
	Windows      window.Factory
	Driver       driver.Driver

	activeWindows map[window.Window]struct{}
	external      *externalHandles
}

// New returns an Overrides wired to the given collaborators.
func New(objTable *objects.Table, gpuVA *addressmap.GPUVAMap, descCPU, descGPU *addressmap.DescriptorAddresses, mappedMemory *addressmap.MappedMemory, windows window.Factory, drv driver.Driver) *Overrides {
	return &Overrides{
		Objects:       objTable,
		GPUVA:         gpuVA,
		DescCPU:       descCPU,
		DescGPU:       descGPU,
		MappedMemory:  mappedMemory,
		Windows:       windows,
		Driver:        drv,
		activeWindows: make(map[window.Window]struct{}),
	}
}

// resolve looks up the replay Info for a capture-time object id that is
// legitimately optional (0 meaning "none", or a miss meaning "fall back to
// a default"), logging rather than failing if it is missing.
func (o *Overrides) resolve(ctx context.Context, captureID uint64) *objects.Info {
	if captureID == 0 {
		return nil
	}
	info := o.Objects.Lookup(captureID)
	if info == nil {
		log.W(ctx, "no replay object for capture id %d", captureID)
	}
	return info
}

// resolveRequired looks up the replay Info for a capture-time object id the
// caller cannot proceed without, asserting rather than tolerating a miss:
// a call that references a required object id replay never created means
// the decoded trace itself is corrupt, matching the original's
// assert(replay_object_info != nullptr && ...) guard at the same call
// sites.
func (o *Overrides) resolveRequired(ctx context.Context, captureID uint64) *objects.Info {
	info := o.Objects.Lookup(captureID)
	log.Assert(ctx, info != nil, "no replay object for required capture id %d", captureID)
	return info
}

// CheckReplayResult logs when the replay driver's HRESULT disagrees with
// the one recorded at capture time. It never turns a replay result into an
// error: the trace continues regardless, matching CheckReplayResult's
// log-and-continue behavior. Called by the consumer layer, which is where
// the capture-time HRESULT decoded off the wire is available.
func CheckReplayResult(ctx context.Context, callName string, captureHR, replayHR int32) {
	if captureHR != replayHR {
		log.E(ctx, "%s returned %d, which does not match the value returned at capture (%d)", callName, replayHR, captureHR)
	}
}

// removeObject tears down info's Extra (if any) and the address-map entries
// it implies, mirroring RemoveObject's per-ExtraInfoType teardown. It does
// not touch the object table; its callers drop the entry themselves.
func (o *Overrides) removeObject(info *objects.Info) {
	if info == nil {
		return
	}
	switch info.ExtraType {
	case objects.ExtraInfoResource:
		res := info.Extra.(*objects.ResourceInfo)
		if res.CaptureAddress != 0 {
			o.GPUVA.Remove(info.Object)
		}
		for _, mem := range res.MappedMemory {
			o.MappedMemory.Delete(mem.MemoryID)
		}
	case objects.ExtraInfoDescriptorHeap:
		heap := info.Extra.(*objects.DescriptorHeapInfo)
		o.DescCPU.Remove(heap.CaptureCPUAddrBegin)
		o.DescGPU.Remove(heap.CaptureGPUAddrBegin)
	case objects.ExtraInfoSwapchain:
		sc := info.Extra.(*objects.SwapchainInfo)
		o.Windows.Destroy(sc.Window)
		delete(o.activeWindows, sc.Window)
	case objects.ExtraInfoDevice:
		// No extra teardown beyond dropping the object.
	}
	info.ExtraType = objects.ExtraInfoNone
	info.Extra = nil
}

// Remove unconditionally removes captureID's object, for the (rare) case
// where an object is destroyed without going through AddRef/Release, e.g.
// a device-removed teardown.
func (o *Overrides) Remove(captureID uint64) {
	info := o.Objects.Lookup(captureID)
	o.removeObject(info)
	o.Objects.Remove(captureID)
}

// DestroyActiveWindows tears down every window created for a swapchain
// that is still open, mirroring Dx12ReplayConsumerBase's destructor
// calling DestroyActiveWindows.
func (o *Overrides) DestroyActiveWindows() {
	for w := range o.activeWindows {
		o.Windows.Destroy(w)
	}
	o.activeWindows = make(map[window.Window]struct{})
}

// setSwapchainWindow attaches w to info as its Extra and records it as
// active, mirroring SetSwapchainInfoWindow.
func (o *Overrides) setSwapchainWindow(info *objects.Info, w window.Window) {
	if w == nil {
		return
	}
	if info != nil {
		log.Assert(context.Background(), info.Extra == nil, "swapchain object already has extra info")
		info.ExtraType = objects.ExtraInfoSwapchain
		info.Extra = &objects.SwapchainInfo{Window: w}
	}
	o.activeWindows[w] = struct{}{}
}
