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

//go:build !windows

package driver

// stubDriver implements Driver on platforms with no D3D12/DXGI bindings.
// It lets the decode and override packages (and their tests) build and run
// everywhere; only actually replaying a trace requires a windows build.
type stubDriver struct{}

// New returns a Driver that fails every call with ErrUnsupportedPlatform.
func New() Driver { return stubDriver{} }

func (stubDriver) D3D12CreateDevice(Object, uint32, GUID) (Object, int32, error) {
	return 0, 0, ErrUnsupportedPlatform
}
func (stubDriver) CreateDescriptorHeap(Object, DescriptorHeapDesc, GUID) (Object, int32, error) {
	return 0, 0, ErrUnsupportedPlatform
}
func (stubDriver) GetDescriptorHandleIncrementSize(Object, uint32) (uint32, error) {
	return 0, ErrUnsupportedPlatform
}
func (stubDriver) GetCPUDescriptorHandleForHeapStart(Object) (uint64, error) {
	return 0, ErrUnsupportedPlatform
}
func (stubDriver) GetGPUDescriptorHandleForHeapStart(Object) (uint64, error) {
	return 0, ErrUnsupportedPlatform
}
func (stubDriver) GetGPUVirtualAddress(Object) (uint64, error) {
	return 0, ErrUnsupportedPlatform
}
func (stubDriver) GetResourceSizeInBytes(Object) (uint64, error) {
	return 0, ErrUnsupportedPlatform
}
func (stubDriver) ResourceMap(Object, uint32, *Range) (uintptr, int32, error) {
	return 0, 0, ErrUnsupportedPlatform
}
func (stubDriver) ResourceUnmap(Object, uint32, *Range) error {
	return ErrUnsupportedPlatform
}
func (stubDriver) WriteToSubresource(Object, uint32, *Box, []byte, uint32, uint32) (int32, error) {
	return 0, ErrUnsupportedPlatform
}
func (stubDriver) ReadFromSubresource(Object, []byte, uint32, uint32, uint32, *Box) (int32, error) {
	return 0, ErrUnsupportedPlatform
}
func (stubDriver) CreateSwapChain(Object, Object, SwapChainDesc) (Object, int32, error) {
	return 0, 0, ErrUnsupportedPlatform
}
func (stubDriver) CreateSwapChainForHwnd(Object, Object, uintptr, SwapChainDesc1, *SwapChainFullscreenDesc, Object) (Object, int32, error) {
	return 0, 0, ErrUnsupportedPlatform
}
func (stubDriver) AddRef(Object) (uint32, error)  { return 0, ErrUnsupportedPlatform }
func (stubDriver) Release(Object) (uint32, error) { return 0, ErrUnsupportedPlatform }
