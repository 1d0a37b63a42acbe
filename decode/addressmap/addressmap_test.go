package addressmap

import "testing"

func TestMappedMemory(t *testing.T) {
	mm := NewMappedMemory()
	mm.Set(7, MemoryEntry{Resource: "res-a", Subresource: 1})

	entry, ok := mm.Get(7)
	if !ok || entry.Resource != "res-a" {
		t.Fatalf("Get(7) = %v,%v, want res-a,true", entry, ok)
	}

	mm.Delete(7)
	if _, ok := mm.Get(7); ok {
		t.Fatalf("Get(7) after Delete still found")
	}
}

func TestDescriptorAddressesMap(t *testing.T) {
	d := NewDescriptorAddresses()
	d.Add(HeapRange{CaptureBase: 1000, ReplayBase: 5000})
	d.Add(HeapRange{CaptureBase: 2000, ReplayBase: 9000})

	got, ok := d.Map(1010)
	if !ok || got != 5010 {
		t.Fatalf("Map(1010) = %d,%v, want 5010,true", got, ok)
	}

	got, ok = d.Map(2050)
	if !ok || got != 9050 {
		t.Fatalf("Map(2050) = %d,%v, want 9050,true", got, ok)
	}

	if _, ok := d.Map(500); ok {
		t.Fatalf("Map(500) = true, want false for an address before every heap")
	}

	d.Remove(2000)
	if _, ok := d.Map(2050); ok {
		t.Fatalf("Map(2050) = true after Remove(2000), want false")
	}
}

func TestGPUVAMapRangeLookup(t *testing.T) {
	m := NewGPUVAMap()
	resA, resB := "resource-a", "resource-b"
	m.Add(resA, 0x1000, 0x100, 0x9000)
	m.Add(resB, 0x2000, 0x200, 0xA000)

	got, ok := m.Map(0x1050)
	if !ok || got != 0x9050 {
		t.Fatalf("Map(0x1050) = %#x,%v, want 0x9050,true", got, ok)
	}

	got, ok = m.Map(0x2100)
	if !ok || got != 0xA100 {
		t.Fatalf("Map(0x2100) = %#x,%v, want 0xA100,true", got, ok)
	}

	// Inside the gap between the two ranges.
	if _, ok := m.Map(0x1500); ok {
		t.Fatalf("Map(0x1500) = true, want false for an address in no registered range")
	}

	// Past the end of resA's span.
	if _, ok := m.Map(0x1100); ok {
		t.Fatalf("Map(0x1100) = true, want false past the end of the resource's size")
	}

	m.Remove(resA)
	if _, ok := m.Map(0x1050); ok {
		t.Fatalf("Map(0x1050) = true after Remove(resA), want false")
	}
}

func TestGPUVAMapAllSkipsZero(t *testing.T) {
	m := NewGPUVAMap()
	m.Add("res", 0x100, 0x10, 0x900)

	addrs := []uint64{0, 0x105, 0x500}
	m.MapAll(addrs)

	if addrs[0] != 0 {
		t.Fatalf("MapAll() touched the zero sentinel: got %#x", addrs[0])
	}
	if addrs[1] != 0x905 {
		t.Fatalf("MapAll()[1] = %#x, want 0x905", addrs[1])
	}
	if addrs[2] != 0x500 {
		t.Fatalf("MapAll()[2] = %#x, want unchanged 0x500 (unmappable)", addrs[2])
	}
}
