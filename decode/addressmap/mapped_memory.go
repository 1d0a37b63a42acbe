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

// Package addressmap holds the three capture-to-replay lookup structures
// the override layer consults on every call that carries a descriptor
// handle, a GPU virtual address, or a mapped-memory id:
// DescriptorAddresses, GPUVAMap, and MappedMemory.
package addressmap

import "sync"

// MemoryEntry identifies the resource and subresource a FillMemory block's
// memory id refers to, together with the mapped pointer Map() returned,
// mirroring the value side of Dx12ReplayConsumerBase::mapped_memory_.
type MemoryEntry struct {
	Resource    interface{}
	Subresource uint32
	Pointer     uintptr
}

// MappedMemory is a write-through table from the capture-assigned memory id
// handed out by a Map() call to the resource it was mapped from, consulted
// when a FillMemory metadata block arrives and removed from when the
// matching Unmap() replays.
type MappedMemory struct {
	mu sync.Mutex
	m  map[uint64]MemoryEntry
}

// NewMappedMemory returns an empty MappedMemory table.
func NewMappedMemory() *MappedMemory {
	return &MappedMemory{m: make(map[uint64]MemoryEntry)}
}

// Set records that memoryID refers to entry.
func (mm *MappedMemory) Set(memoryID uint64, entry MemoryEntry) {
	mm.mu.Lock()
	mm.m[memoryID] = entry
	mm.mu.Unlock()
}

// Get returns the entry for memoryID and whether it was found.
func (mm *MappedMemory) Get(memoryID uint64) (MemoryEntry, bool) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	e, ok := mm.m[memoryID]
	return e, ok
}

// Delete removes memoryID, e.g. once the corresponding Unmap has replayed.
func (mm *MappedMemory) Delete(memoryID uint64) {
	mm.mu.Lock()
	delete(mm.m, memoryID)
	mm.mu.Unlock()
}
