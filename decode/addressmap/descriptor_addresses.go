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

package addressmap

import (
	"sort"
	"sync"
)

// HeapRange is the value side of a DescriptorAddresses entry: the
// capture-time and replay-time base addresses of one descriptor heap, used
// to translate any handle that falls within it.
type HeapRange struct {
	CaptureBase uint64
	ReplayBase  uint64
}

// translate computes the replay-time address for a capture-time handle h
// known to fall at or after r.CaptureBase: replay = replayBase + (h - captureBase),
// mirroring object_mapping::MapCpuDescriptorHandle's offset arithmetic.
func (r HeapRange) translate(h uint64) uint64 {
	return r.ReplayBase + (h - r.CaptureBase)
}

// DescriptorAddresses maps capture-time descriptor handle values to their
// replay-time equivalents. Each entry names the base address of one heap;
// looking up a handle finds the entry with the largest base address not
// exceeding the handle (the heap the handle must belong to, since handles
// are heap-base-relative) and offsets from there, mirroring the
// std::map::upper_bound-then-decrement lookup the original performs over
// descriptor_cpu_addresses_ / descriptor_gpu_addresses_.
type DescriptorAddresses struct {
	mu   sync.Mutex
	keys []uint64 // sorted ascending
	vals map[uint64]HeapRange
}

// NewDescriptorAddresses returns an empty DescriptorAddresses table.
func NewDescriptorAddresses() *DescriptorAddresses {
	return &DescriptorAddresses{vals: make(map[uint64]HeapRange)}
}

// Add registers a heap's capture/replay base addresses.
func (d *DescriptorAddresses) Add(r HeapRange) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.vals[r.CaptureBase]; !exists {
		i := sort.Search(len(d.keys), func(i int) bool { return d.keys[i] >= r.CaptureBase })
		d.keys = append(d.keys, 0)
		copy(d.keys[i+1:], d.keys[i:])
		d.keys[i] = r.CaptureBase
	}
	d.vals[r.CaptureBase] = r
}

// Remove drops the heap whose capture base address is captureBase.
func (d *DescriptorAddresses) Remove(captureBase uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.vals[captureBase]; !exists {
		return
	}
	delete(d.vals, captureBase)
	i := sort.Search(len(d.keys), func(i int) bool { return d.keys[i] >= captureBase })
	if i < len(d.keys) && d.keys[i] == captureBase {
		d.keys = append(d.keys[:i], d.keys[i+1:]...)
	}
}

// Map translates a capture-time handle value to its replay-time
// equivalent. It reports false if h precedes every registered heap's base
// address.
func (d *DescriptorAddresses) Map(h uint64) (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.keys) == 0 {
		return 0, false
	}
	// Largest key <= h: the first key greater than h, stepped back one.
	i := sort.Search(len(d.keys), func(i int) bool { return d.keys[i] > h })
	if i == 0 {
		return 0, false
	}
	r := d.vals[d.keys[i-1]]
	return r.translate(h), true
}

// MapAll translates handles in place, skipping any that cannot be mapped
// (which is logged by the caller, not here, matching the override layer's
// failure handling elsewhere).
func (d *DescriptorAddresses) MapAll(handles []uint64) {
	for i, h := range handles {
		if mapped, ok := d.Map(h); ok {
			handles[i] = mapped
		}
	}
}
