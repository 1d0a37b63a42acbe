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
	"github.com/gfxcapture/dxreplay/replay/driver"
)

// AddRef mirrors OverrideAddRef: it bumps the tracked reference count
// before issuing the real AddRef, so the two stay in lockstep with the
// capture-time call sequence regardless of what either side's COM runtime
// does internally.
func (o *Overrides) AddRef(ctx context.Context, captureID uint64) (uint32, error) {
	info := o.resolve(ctx, captureID)
	log.Assert(ctx, info != nil, "AddRef on unknown object %d", captureID)

	o.Objects.AddRef(info)
	return o.Driver.AddRef(info.Object.(driver.Object))
}

// Release mirrors OverrideRelease: it drops the tracked reference count
// first and, if that reaches zero, tears the object down before issuing
// the real Release — the table must never hold a dangling Info past the
// point the driver object itself is destroyed.
func (o *Overrides) Release(ctx context.Context, captureID uint64) (uint32, error) {
	info := o.resolve(ctx, captureID)
	log.Assert(ctx, info != nil, "Release on unknown object %d", captureID)

	obj := info.Object.(driver.Object)
	o.Objects.Release(info, o.removeObject)
	return o.Driver.Release(obj)
}
