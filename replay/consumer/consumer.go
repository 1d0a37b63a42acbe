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

// Package consumer implements decode/processor.Consumer, the glue that
// turns a decoded block's raw bytes into a call to the right
// decode/override function. It is the Go counterpart of the generated
// per-call dispatch Dx12ReplayConsumer subclasses from the decoded call's
// captured parameters and invokes the matching Override* method.
package consumer

import (
	"context"
	"fmt"

	"github.com/gfxcapture/dxreplay/core/log"
	"github.com/gfxcapture/dxreplay/decode/annotation"
	"github.com/gfxcapture/dxreplay/decode/objects"
	"github.com/gfxcapture/dxreplay/decode/override"
	"github.com/gfxcapture/dxreplay/format"
)

// Consumer dispatches decoded blocks to the override layer, implementing
// processor.Consumer.
type Consumer struct {
	Overrides *override.Overrides

	// Annotations, if set, receives every decoded annotation block.
	// Left nil, annotations are silently ignored, matching "no registered
	// handler" in the original block processor.
	Annotations annotation.Handler

	blockIndex uint64
}

// New returns a Consumer dispatching through overrides.
func New(overrides *override.Overrides) *Consumer {
	return &Consumer{Overrides: overrides}
}

// IsFrameDelimiter reports whether callID ends a frame.
func (c *Consumer) IsFrameDelimiter(callID format.ApiCallId) bool {
	return frameDelimiters[callID]
}

// ProcessFunctionCall and ProcessMethodCall both dispatch through the same
// switch: the distinction between a free function (D3D12CreateDevice) and
// a COM method call is carried entirely by which object, if any, the call
// id resolves against, not by anything the dispatcher needs to branch on.
func (c *Consumer) ProcessFunctionCall(ctx context.Context, header format.BlockHeader, callID format.ApiCallId, body []byte) error {
	return c.dispatch(ctx, callID, body)
}

func (c *Consumer) ProcessMethodCall(ctx context.Context, header format.BlockHeader, callID format.ApiCallId, body []byte) error {
	return c.dispatch(ctx, callID, body)
}

func (c *Consumer) dispatch(ctx context.Context, callID format.ApiCallId, body []byte) error {
	o := c.Overrides
	cur := newCursor(body)

	switch callID {
	case ApiCallD3D12CreateDevice:
		adapterID := cur.u64()
		minimumFeatureLevel := cur.u32()
		riid := cur.guid()
		newDeviceID := cur.u64()
		return o.CreateDevice(ctx, newDeviceID, adapterID, minimumFeatureLevel, riid)

	case ApiCallDeviceCreateDescriptorHeap:
		deviceID := cur.u64()
		desc := cur.descriptorHeapDesc()
		riid := cur.guid()
		newHeapID := cur.u64()
		return o.CreateDescriptorHeap(ctx, newHeapID, deviceID, desc, riid)

	case ApiCallDeviceGetDescriptorHandleIncrementSize:
		deviceID := cur.u64()
		heapType := cur.u32()
		captureResult := cur.u32()
		_, err := o.GetDescriptorHandleIncrementSize(ctx, deviceID, heapType, captureResult)
		return err

	case ApiCallDescriptorHeapGetCPUDescriptorHandleForHeapStart:
		heapID := cur.u64()
		captureResult := cur.u64()
		_, err := o.GetCPUDescriptorHandleForHeapStart(ctx, heapID, captureResult)
		return err

	case ApiCallDescriptorHeapGetGPUDescriptorHandleForHeapStart:
		heapID := cur.u64()
		captureResult := cur.u64()
		_, err := o.GetGPUDescriptorHandleForHeapStart(ctx, heapID, captureResult)
		return err

	case ApiCallResourceGetGPUVirtualAddress:
		resourceID := cur.u64()
		captureResult := cur.u64()
		_, err := o.GetGPUVirtualAddress(ctx, resourceID, captureResult)
		return err

	case ApiCallResourceMap:
		resourceID := cur.u64()
		subresource := cur.u32()
		readRange := cur.rangePtr()
		memoryID := cur.u64()
		captureResult := cur.i32()
		hr, err := o.Map(ctx, resourceID, subresource, readRange, memoryID)
		if err != nil {
			return err
		}
		override.CheckReplayResult(ctx, "ID3D12Resource::Map", captureResult, hr)
		return nil

	case ApiCallResourceUnmap:
		resourceID := cur.u64()
		subresource := cur.u32()
		writtenRange := cur.rangePtr()
		return o.Unmap(ctx, resourceID, subresource, writtenRange)

	case ApiCallResourceWriteToSubresource:
		resourceID := cur.u64()
		dstSubresource := cur.u32()
		dstBox := cur.boxPtr()
		src := cur.byteSlice()
		srcRowPitch := cur.u32()
		srcDepthPitch := cur.u32()
		captureResult := cur.i32()
		hr, err := o.WriteToSubresource(ctx, resourceID, dstSubresource, dstBox, src, srcRowPitch, srcDepthPitch)
		if err != nil {
			return err
		}
		override.CheckReplayResult(ctx, "ID3D12Resource::WriteToSubresource", captureResult, hr)
		return nil

	case ApiCallResourceReadFromSubresource:
		resourceID := cur.u64()
		dstSize := cur.u32()
		dstRowPitch := cur.u32()
		dstDepthPitch := cur.u32()
		srcSubresource := cur.u32()
		srcBox := cur.boxPtr()
		captureResult := cur.i32()
		dst := make([]byte, dstSize)
		hr, err := o.ReadFromSubresource(ctx, resourceID, dst, dstRowPitch, dstDepthPitch, srcSubresource, srcBox)
		if err != nil {
			return err
		}
		override.CheckReplayResult(ctx, "ID3D12Resource::ReadFromSubresource", captureResult, hr)
		return nil

	case ApiCallFactoryCreateSwapChain:
		factoryID := cur.u64()
		deviceID := cur.u64()
		desc := cur.swapChainDesc()
		captureResult := cur.i32()
		newSwapchainID := cur.u64()
		obj, hr, w := o.CreateSwapChain(ctx, factoryID, deviceID, desc)
		override.CheckReplayResult(ctx, "IDXGIFactory::CreateSwapChain", captureResult, hr)
		if w != nil {
			o.AttachSwapChainWindow(newSwapchainID, obj, w)
		}
		return nil

	case ApiCallFactory2CreateSwapChainForHwnd:
		factoryID := cur.u64()
		deviceID := cur.u64()
		_ = cur.u64() // capture-time HWND, unreferenced: replay always creates its own window
		desc := cur.swapChainDesc1()
		fullscreen := cur.swapChainFullscreenDescPtr()
		restrictToOutputID := cur.u64()
		captureResult := cur.i32()
		newSwapchainID := cur.u64()
		obj, hr, w := o.CreateSwapChainForHwnd(ctx, factoryID, deviceID, desc, fullscreen, restrictToOutputID)
		override.CheckReplayResult(ctx, "IDXGIFactory2::CreateSwapChainForHwnd", captureResult, hr)
		if w != nil {
			o.AttachSwapChainWindow(newSwapchainID, obj, w)
		}
		return nil

	case ApiCallFactory2CreateSwapChainForCoreWindow:
		factoryID := cur.u64()
		deviceID := cur.u64()
		_ = cur.u64() // capture-time ICoreWindow id, unreferenced
		desc := cur.swapChainDesc1()
		restrictToOutputID := cur.u64()
		captureResult := cur.i32()
		newSwapchainID := cur.u64()
		obj, hr, w := o.CreateSwapChainForCoreWindow(ctx, factoryID, deviceID, desc, restrictToOutputID)
		override.CheckReplayResult(ctx, "IDXGIFactory2::CreateSwapChainForCoreWindow", captureResult, hr)
		if w != nil {
			o.AttachSwapChainWindow(newSwapchainID, obj, w)
		}
		return nil

	case ApiCallFactoryMediaCreateSwapChainForComposition:
		factoryID := cur.u64()
		deviceID := cur.u64()
		desc := cur.swapChainDesc1()
		restrictToOutputID := cur.u64()
		captureResult := cur.i32()
		newSwapchainID := cur.u64()
		obj, hr, w := o.CreateSwapChainForComposition(ctx, factoryID, deviceID, desc, restrictToOutputID)
		override.CheckReplayResult(ctx, "IDXGIFactoryMedia::CreateSwapChainForCompositionSurfaceHandle", captureResult, hr)
		if w != nil {
			o.AttachSwapChainWindow(newSwapchainID, obj, w)
		}
		return nil

	case ApiCallSwapChainPresent:
		// A pure frame delimiter: Present carries no state this engine
		// needs to remap, so there is nothing to decode or forward.
		return nil

	case ApiCallUnknownAddRef:
		captureID := cur.u64()
		_, err := o.AddRef(ctx, captureID)
		return err

	case ApiCallUnknownRelease:
		captureID := cur.u64()
		_, err := o.Release(ctx, captureID)
		return err

	default:
		log.W(ctx, "no override registered for api call %d", callID)
		return nil
	}
}

// ProcessMetaData handles the two metadata commands this engine recognizes:
// a mapped-memory write, and a swapchain window resize.
func (c *Consumer) ProcessMetaData(ctx context.Context, header format.BlockHeader, metaDataID uint32, body []byte) error {
	cur := newCursor(body)

	switch format.MetaDataType(metaDataID) {
	case format.MetaDataTypeFillMemory:
		memoryID := cur.u64()
		offset := cur.u64()
		data := cur.byteSliceU64()
		c.Overrides.FillMemory(ctx, memoryID, offset, data)
		return nil

	case format.MetaDataTypeResizeWindow:
		swapchainID := cur.u64()
		width := cur.u32()
		height := cur.u32()
		info := c.Overrides.Objects.Lookup(swapchainID)
		if info == nil {
			log.W(ctx, "resize requested for unknown swapchain %d", swapchainID)
			return nil
		}
		sc, ok := info.Extra.(*objects.SwapchainInfo)
		if !ok {
			return fmt.Errorf("consumer: object %d is not a swapchain", swapchainID)
		}
		sc.Window.Resize(width, height)
		return nil

	default:
		log.W(ctx, "skipping unrecognized metadata command %d", metaDataID)
		return nil
	}
}

// ProcessStateMarker is a no-op: state markers bound the replay of a single
// frame for tooling (timing, screenshots) that lives outside this engine's
// scope.
func (c *Consumer) ProcessStateMarker(ctx context.Context, header format.BlockHeader, markerType format.MarkerType, body []byte) error {
	return nil
}

// ProcessAnnotation forwards to Annotations, if one is installed.
func (c *Consumer) ProcessAnnotation(ctx context.Context, header format.BlockHeader, annotationType format.AnnotationType, body []byte) error {
	if c.Annotations == nil {
		return nil
	}
	label, data, err := annotation.DecodePayload(body)
	if err != nil {
		return err
	}
	err = c.Annotations.ProcessAnnotation(ctx, c.blockIndex, annotationType, label, data)
	c.blockIndex++
	return err
}
