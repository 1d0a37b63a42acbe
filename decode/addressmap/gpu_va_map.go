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

// vaRange is one registered resource's capture-time GPU virtual address
// span. Ranges never overlap: two resources cannot occupy the same capture
// VA at the same time.
type vaRange struct {
	base   uint64
	size   uint64
	object interface{}
	replay uint64
}

func (r vaRange) contains(addr uint64) bool {
	return addr >= r.base && addr-r.base < r.size
}

// GPUVAMap is a range-queryable table from capture-time GPU virtual
// addresses to their replay-time equivalents. Unlike DescriptorAddresses it
// is keyed by resource, not by base address alone, because resources are
// removed by object identity (Remove mirrors gpu_va_map_.Remove(resource)),
// and it resolves arbitrary addresses within a resource's span, not just
// its base (a command may reference resource_base + offset). The binary
// search structure follows the interval algorithms used for GAPID's
// generic U64RangeList: a sorted-by-base slice, located with a single
// sort.Search and then range-containment checked.
type GPUVAMap struct {
	mu     sync.Mutex
	ranges []vaRange // sorted by base
}

// NewGPUVAMap returns an empty GPUVAMap.
func NewGPUVAMap() *GPUVAMap {
	return &GPUVAMap{}
}

// Add registers a resource's GPU virtual address span. replayBase is the
// base address the driver actually assigned the resource on replay.
func (m *GPUVAMap) Add(object interface{}, captureBase, size, replayBase uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := sort.Search(len(m.ranges), func(i int) bool { return m.ranges[i].base >= captureBase })
	r := vaRange{base: captureBase, size: size, object: object, replay: replayBase}
	m.ranges = append(m.ranges, vaRange{})
	copy(m.ranges[i+1:], m.ranges[i:])
	m.ranges[i] = r
}

// Remove drops the range registered for object. It is a no-op if object was
// never added or was already removed.
func (m *GPUVAMap) Remove(object interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.ranges {
		if r.object == object {
			m.ranges = append(m.ranges[:i], m.ranges[i+1:]...)
			return
		}
	}
}

// Map translates a capture-time GPU virtual address that falls within some
// registered resource's span to its replay-time equivalent, reporting
// false if no registered span contains it.
func (m *GPUVAMap) Map(addr uint64) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Largest base <= addr is the only range that could contain it, since
	// ranges never overlap.
	i := sort.Search(len(m.ranges), func(i int) bool { return m.ranges[i].base > addr })
	if i == 0 {
		return 0, false
	}
	r := m.ranges[i-1]
	if !r.contains(addr) {
		return 0, false
	}
	return r.replay + (addr - r.base), true
}

// MapAll translates addresses in place, leaving unmappable ones (addr 0,
// the common sentinel for "no resource bound") untouched.
func (m *GPUVAMap) MapAll(addrs []uint64) {
	for i, a := range addrs {
		if a == 0 {
			continue
		}
		if mapped, ok := m.Map(a); ok {
			addrs[i] = mapped
		}
	}
}
