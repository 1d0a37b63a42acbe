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
)

// ExternalHandleKind identifies which of the small set of non-driver-object
// OS handles a call parameter carries, mirroring the switch in
// PreProcessExternalObject/PostProcessExternalObject.
type ExternalHandleKind int

const (
	ExternalHandleUnknown ExternalHandleKind = iota
	// ExternalHandleHwnd is IDXGIFactory2::CreateSwapChainForHwnd's hwnd
	// parameter: replaced at replay time with the window this engine
	// creates, never looked up in the object table.
	ExternalHandleHwnd
	// ExternalHandleDC is IDXGISurface1::GetDC's returned HDC.
	ExternalHandleDC
	// ExternalHandleWindowAssociation is IDXGIFactory::GetWindowAssociation's
	// hwnd out-parameter.
	ExternalHandleWindowAssociation
	// ExternalHandleSwapChainHwnd is IDXGISwapChain1::GetHwnd's returned hwnd.
	ExternalHandleSwapChainHwnd
)

// externalHandles records the small number of OS handles this engine has
// handed out for kinds it cannot resolve through the object table (an HDC,
// a window association hwnd), keyed by the capture-time value recorded for
// it so a later call referencing the same handle finds the same recorded
// replay-time value.
type externalHandles struct {
	byCaptureValue map[uint64]uintptr
}

func newExternalHandles() *externalHandles {
	return &externalHandles{byCaptureValue: make(map[uint64]uintptr)}
}

// ResolveExternalHandle translates a capture-time external handle value to
// its replay-time equivalent for kind, logging and passing the value
// through unmapped if kind is not one of the recognized external-handle
// parameters or no replay-time value was ever recorded for it.
func (o *Overrides) ResolveExternalHandle(ctx context.Context, kind ExternalHandleKind, captureValue uint64) uintptr {
	if kind == ExternalHandleUnknown {
		log.W(ctx, "unrecognized external handle kind, passing capture value through unmapped")
		return uintptr(captureValue)
	}
	if o.external == nil {
		o.external = newExternalHandles()
	}
	if replayValue, ok := o.external.byCaptureValue[captureValue]; ok {
		return replayValue
	}
	log.W(ctx, "no recorded replay value for external handle %d (kind %d), passing through unmapped", captureValue, kind)
	return uintptr(captureValue)
}

// RecordExternalHandle remembers that captureValue (the value recorded at
// capture time for some external handle) corresponds to replayValue (what
// the replay-time call actually returned or was given), so a later call
// that references the same capture-time value resolves consistently.
func (o *Overrides) RecordExternalHandle(kind ExternalHandleKind, captureValue uint64, replayValue uintptr) {
	if o.external == nil {
		o.external = newExternalHandles()
	}
	o.external.byCaptureValue[captureValue] = replayValue
}
