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
	"unsafe"

	"github.com/gfxcapture/dxreplay/core/config"
	"github.com/gfxcapture/dxreplay/core/log"
	"github.com/gfxcapture/dxreplay/decode/addressmap"
	"github.com/gfxcapture/dxreplay/decode/objects"
	"github.com/gfxcapture/dxreplay/replay/driver"
)

// resourceInfo returns resourceID's ResourceInfo, creating one the first
// time either GetGPUVirtualAddress or Map is called on the resource, since
// not every resource has a GPU virtual address (buffers created without
// one never call the allocating path) but every mappable one eventually
// calls Map.
func resourceInfo(info *objects.Info) *objects.ResourceInfo {
	if res, ok := info.Extra.(*objects.ResourceInfo); ok {
		return res
	}
	res := &objects.ResourceInfo{MappedMemory: make(map[uint32]objects.MappedMemoryInfo)}
	info.ExtraType = objects.ExtraInfoResource
	info.Extra = res
	return res
}

// GetGPUVirtualAddress mirrors OverrideGetGpuVirtualAddress: the first
// observation for a resource registers its capture/replay address pair
// with the GPU virtual address map, so later calls that reference an
// offset into the resource (rather than its exact base) can still be
// translated.
func (o *Overrides) GetGPUVirtualAddress(ctx context.Context, resourceID uint64, captureResult uint64) (uint64, error) {
	info := o.resolveRequired(ctx, resourceID)

	replayResult, err := o.Driver.GetGPUVirtualAddress(info.Object.(driver.Object))
	if err != nil {
		return 0, log.Errf(ctx, err, "GetGPUVirtualAddress")
	}

	if captureResult != 0 && replayResult != 0 {
		res := resourceInfo(info)
		if res.CaptureAddress == 0 {
			res.CaptureAddress = captureResult
			size, err := o.Driver.GetResourceSizeInBytes(info.Object.(driver.Object))
			if err != nil {
				log.W(ctx, "could not determine resource size, GPU VA range translation for this resource will only match its base address: %v", err)
				size = 1
			}
			o.GPUVA.Add(info.Object, captureResult, size, replayResult)
		}
	}
	return replayResult, nil
}

// Map mirrors OverrideResourceMap: on success it records the mapping from
// the capture-assigned memory id to the pointer the driver handed back, so
// a later FillMemory metadata block can find it.
func (o *Overrides) Map(ctx context.Context, resourceID uint64, subresource uint32, readRange *driver.Range, memoryID uint64) (int32, error) {
	info := o.resolveRequired(ctx, resourceID)

	data, hr, err := o.Driver.ResourceMap(info.Object.(driver.Object), subresource, readRange)
	if err != nil {
		return 0, log.Errf(ctx, err, "ID3D12Resource::Map")
	}
	if hr >= 0 && memoryID != 0 && data != 0 {
		res := resourceInfo(info)
		entry := res.MappedMemory[subresource]
		entry.MemoryID = memoryID
		entry.Subresource = subresource
		entry.MapCount++
		res.MappedMemory[subresource] = entry

		o.MappedMemory.Set(memoryID, addressmap.MemoryEntry{
			Resource:    info.Object,
			Subresource: subresource,
			Pointer:     data,
		})
	}
	return hr, nil
}

// Unmap mirrors OverrideResourceUnmap: once a subresource's map count
// reaches zero it drops the mapped-memory entry, matching the original's
// erase-on-map_count==0.
func (o *Overrides) Unmap(ctx context.Context, resourceID uint64, subresource uint32, writtenRange *driver.Range) error {
	info := o.resolveRequired(ctx, resourceID)

	if res, ok := info.Extra.(*objects.ResourceInfo); ok {
		if entry, exists := res.MappedMemory[subresource]; exists {
			if entry.MapCount > 0 {
				entry.MapCount--
			}
			if entry.MapCount == 0 {
				o.MappedMemory.Delete(entry.MemoryID)
				delete(res.MappedMemory, subresource)
			} else {
				res.MappedMemory[subresource] = entry
			}
		}
	}

	if err := o.Driver.ResourceUnmap(info.Object.(driver.Object), subresource, writtenRange); err != nil {
		return log.Errf(ctx, err, "ID3D12Resource::Unmap")
	}
	return nil
}

// WriteToSubresource and ReadFromSubresource are implemented as direct
// pass-throughs to the driver call: the trace already supplies exactly the
// bytes and pitches the original call needs, with no capture-time address
// embedded in them to translate.
func (o *Overrides) WriteToSubresource(ctx context.Context, resourceID uint64, dstSubresource uint32, dstBox *driver.Box, src []byte, srcRowPitch, srcDepthPitch uint32) (int32, error) {
	info := o.resolveRequired(ctx, resourceID)
	hr, err := o.Driver.WriteToSubresource(info.Object.(driver.Object), dstSubresource, dstBox, src, srcRowPitch, srcDepthPitch)
	if err != nil {
		return 0, log.Errf(ctx, err, "WriteToSubresource")
	}
	return hr, nil
}

func (o *Overrides) ReadFromSubresource(ctx context.Context, resourceID uint64, dst []byte, dstRowPitch, dstDepthPitch uint32, srcSubresource uint32, srcBox *driver.Box) (int32, error) {
	info := o.resolveRequired(ctx, resourceID)
	hr, err := o.Driver.ReadFromSubresource(info.Object.(driver.Object), dst, dstRowPitch, dstDepthPitch, srcSubresource, srcBox)
	if err != nil {
		return 0, log.Errf(ctx, err, "ReadFromSubresource")
	}
	return hr, nil
}

// FillMemory mirrors ProcessFillMemoryCommand: it copies data into the
// live mapped pointer recorded for memoryID, skipping (with a warning) a
// memory id that no outstanding Map produced — replaying a trace with a
// missing or already-unmapped resource, for instance.
func (o *Overrides) FillMemory(ctx context.Context, memoryID, offset uint64, data []byte) {
	entry, ok := o.MappedMemory.Get(memoryID)
	if !ok {
		log.W(ctx, "skipping memory fill for unrecognized mapped memory object (id=%d)", memoryID)
		return
	}
	if config.LogMemoryFills {
		log.I(ctx, "fill memory id=%d offset=%d size=%d", memoryID, offset, len(data))
	}

	dst := unsafe.Slice((*byte)(unsafe.Pointer(entry.Pointer+uintptr(offset))), len(data))
	copy(dst, data)
}
