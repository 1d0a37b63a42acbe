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
	"github.com/gfxcapture/dxreplay/decode/objects"
	"github.com/gfxcapture/dxreplay/replay/driver"
	"github.com/gfxcapture/dxreplay/replay/window"
)

// CreateSwapChainForHwnd mirrors CreateSwapChainForHwnd: a new window is
// created at the trace's requested size regardless of the capture-time
// HWND (replay never reuses the capturing process' window), and the
// swapchain object is only attached to it once the real call succeeds.
func (o *Overrides) CreateSwapChainForHwnd(ctx context.Context, factoryID, deviceID uint64, desc driver.SwapChainDesc1, fullscreen *driver.SwapChainFullscreenDesc, restrictToOutputID uint64) (driver.Object, int32, window.Window) {
	factoryInfo := o.resolveRequired(ctx, factoryID)

	w := o.Windows.Create(window.DefaultPositionX, window.DefaultPositionY, desc.Width, desc.Height)
	if w == nil {
		log.E(ctx, "failed to create a window, cannot continue")
		return 0, 0, nil
	}

	var hwnd uintptr
	if !w.GetNativeHandle(window.Win32HWnd, &hwnd) {
		log.E(ctx, "failed to retrieve handle from window")
		o.Windows.Destroy(w)
		return 0, 0, nil
	}

	var device driver.Object
	if deviceInfo := o.resolve(ctx, deviceID); deviceInfo != nil {
		device = deviceInfo.Object.(driver.Object)
	}
	var restrictToOutput driver.Object
	if outputInfo := o.resolve(ctx, restrictToOutputID); outputInfo != nil {
		restrictToOutput = outputInfo.Object.(driver.Object)
	}

	swapchain, hr, err := o.Driver.CreateSwapChainForHwnd(factoryInfo.Object.(driver.Object), device, hwnd, desc, fullscreen, restrictToOutput)
	if err != nil {
		log.Errf(ctx, err, "CreateSwapChainForHwnd")
		o.Windows.Destroy(w)
		return 0, 0, nil
	}
	if hr < 0 || !swapchain.Valid() {
		o.Windows.Destroy(w)
		return 0, hr, nil
	}
	return swapchain, hr, w
}

// CreateSwapChainForCoreWindow and CreateSwapChainForComposition both defer
// to CreateSwapChainForHwnd: the original does the same, since every
// replay window is a plain Win32 HWND regardless of which capture-time
// DXGI entry point produced the swapchain.
func (o *Overrides) CreateSwapChainForCoreWindow(ctx context.Context, factoryID, deviceID uint64, desc driver.SwapChainDesc1, restrictToOutputID uint64) (driver.Object, int32, window.Window) {
	return o.CreateSwapChainForHwnd(ctx, factoryID, deviceID, desc, nil, restrictToOutputID)
}

func (o *Overrides) CreateSwapChainForComposition(ctx context.Context, factoryID, deviceID uint64, desc driver.SwapChainDesc1, restrictToOutputID uint64) (driver.Object, int32, window.Window) {
	return o.CreateSwapChainForHwnd(ctx, factoryID, deviceID, desc, nil, restrictToOutputID)
}

// CreateSwapChain mirrors OverrideCreateSwapChain, the legacy
// IDXGIFactory::CreateSwapChain entry point: the window's size comes from
// the descriptor's embedded buffer size instead of a separate width/height
// pair, and the window's HWND is written back into the descriptor's
// OutputWindow field before the call, rather than passed as a parameter.
func (o *Overrides) CreateSwapChain(ctx context.Context, factoryID, deviceID uint64, desc driver.SwapChainDesc) (driver.Object, int32, window.Window) {
	factoryInfo := o.resolveRequired(ctx, factoryID)

	w := o.Windows.Create(window.DefaultPositionX, window.DefaultPositionY, desc.BufferWidth, desc.BufferHeight)
	if w == nil {
		log.E(ctx, "failed to create a window, cannot continue")
		return 0, 0, nil
	}

	var hwnd uintptr
	if !w.GetNativeHandle(window.Win32HWnd, &hwnd) {
		log.E(ctx, "failed to retrieve handle from window")
		o.Windows.Destroy(w)
		return 0, 0, nil
	}
	desc.OutputWindow = hwnd

	var device driver.Object
	if deviceInfo := o.resolve(ctx, deviceID); deviceInfo != nil {
		device = deviceInfo.Object.(driver.Object)
	}

	swapchain, hr, err := o.Driver.CreateSwapChain(factoryInfo.Object.(driver.Object), device, desc)
	if err != nil {
		log.Errf(ctx, err, "CreateSwapChain")
		o.Windows.Destroy(w)
		return 0, 0, nil
	}
	if hr < 0 || !swapchain.Valid() {
		o.Windows.Destroy(w)
		return 0, hr, nil
	}
	return swapchain, hr, w
}

// AttachSwapChainWindow records the object one of the CreateSwapChain*
// overrides above created under its capture-time id and attaches the
// window it was given, mirroring the caller-side pattern (object_info =
// swapchain->GetConsumerData(0); SetSwapchainInfoWindow(object_info,
// window)) that only runs once the capture id the trace assigned the
// swapchain is known to the generated call site.
func (o *Overrides) AttachSwapChainWindow(captureSwapchainID uint64, object driver.Object, w window.Window) *objects.Info {
	info := o.Objects.Insert(captureSwapchainID, object)
	o.setSwapchainWindow(info, w)
	return info
}
