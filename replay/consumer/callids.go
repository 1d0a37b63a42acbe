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

import "github.com/gfxcapture/dxreplay/format"

// The subset of D3D12/DXGI entry points this engine's override table
// recognizes. A production capture format names every entry point in the
// D3D12/DXGI IDL (several hundred); tools/overridegen generates override
// stubs but not this table. This hand-written switch covers the calls
// decode/override implements, which is the full set spec.md names.
const (
	ApiCallD3D12CreateDevice format.ApiCallId = iota + 1

	ApiCallDeviceCreateDescriptorHeap
	ApiCallDeviceGetDescriptorHandleIncrementSize

	ApiCallDescriptorHeapGetCPUDescriptorHandleForHeapStart
	ApiCallDescriptorHeapGetGPUDescriptorHandleForHeapStart

	ApiCallResourceGetGPUVirtualAddress
	ApiCallResourceMap
	ApiCallResourceUnmap
	ApiCallResourceWriteToSubresource
	ApiCallResourceReadFromSubresource

	ApiCallFactoryCreateSwapChain
	ApiCallFactory2CreateSwapChainForHwnd
	ApiCallFactory2CreateSwapChainForCoreWindow
	ApiCallFactoryMediaCreateSwapChainForComposition

	ApiCallSwapChainPresent

	ApiCallUnknownAddRef
	ApiCallUnknownRelease
)

// frameDelimiters is the fixed set of calls that end a frame, supplied to
// decode/processor via Consumer.IsFrameDelimiter.
var frameDelimiters = map[format.ApiCallId]bool{
	ApiCallSwapChainPresent: true,
}
