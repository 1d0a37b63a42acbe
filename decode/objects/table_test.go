package objects

import "testing"

func TestInsertLookup(t *testing.T) {
	tbl := NewTable()
	info := tbl.Insert(42, "replay-object")

	if got := tbl.Lookup(42); got != info {
		t.Fatalf("Lookup(42) = %v, want %v", got, info)
	}
	if info.RefCount != 1 {
		t.Fatalf("RefCount = %d, want 1", info.RefCount)
	}
	if tbl.Lookup(99) != nil {
		t.Fatalf("Lookup(99) = non-nil, want nil for unknown id")
	}
}

func TestAddRefReleaseRemovesAtZero(t *testing.T) {
	tbl := NewTable()
	info := tbl.Insert(1, "obj")
	tbl.AddRef(info) // refcount 2

	torndown := false
	if removed := tbl.Release(info, func(*Info) { torndown = true }); removed {
		t.Fatalf("Release() = true after first release with refcount 2, want false")
	}
	if torndown {
		t.Fatalf("teardown ran before refcount reached zero")
	}
	if tbl.Lookup(1) == nil {
		t.Fatalf("object removed from table too early")
	}

	if removed := tbl.Release(info, func(*Info) { torndown = true }); !removed {
		t.Fatalf("Release() = false at refcount 0, want true")
	}
	if !torndown {
		t.Fatalf("teardown did not run when refcount reached zero")
	}
	if tbl.Lookup(1) != nil {
		t.Fatalf("object still present after refcount reached zero")
	}
}

func TestExtraInfoTypes(t *testing.T) {
	var extras = []Extra{
		&DeviceInfo{},
		&DescriptorHeapInfo{},
		&ResourceInfo{},
		&SwapchainInfo{},
	}
	want := []ExtraInfoType{ExtraInfoDevice, ExtraInfoDescriptorHeap, ExtraInfoResource, ExtraInfoSwapchain}
	for i, e := range extras {
		if got := e.extraInfoType(); got != want[i] {
			t.Fatalf("extraInfoType() = %v, want %v", got, want[i])
		}
	}
}
