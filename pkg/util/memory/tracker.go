// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package memory is a minimal leaf-level allocation tracker, adapted
// from the role hashJoinCtxBase.memTracker plays in
// pkg/executor/join/hash_join_base.go: every grow of the Set Store's
// byte-key table (MethodOneString, MethodSerialized) or string pool
// reports its delta here, and the tracker turns an over-limit grow into
// an error instead of letting the process OOM. The swiss.Map tables of
// the fixed-width methods do not report to the tracker.
package memory

import "github.com/pingcap/errors"

// Tracker accounts bytes consumed by a single Set Store instance. It
// is not a tree (TiDB's real memory.Tracker parents/children across a
// whole session); this fragment only needs one flat counter per pair.
type Tracker struct {
	label    string
	limit    int64 // <= 0 means unlimited
	consumed int64
}

// NewTracker returns a Tracker labelled for error messages, with an
// optional byte limit (<=0 disables the limit).
func NewTracker(label string, limitBytes int64) *Tracker {
	return &Tracker{label: label, limit: limitBytes}
}

// Consume records growing usage by delta bytes. A negative delta
// releases memory. Returns an error if the limit would be exceeded.
func (t *Tracker) Consume(delta int64) error {
	t.consumed += delta
	if t.limit > 0 && t.consumed > t.limit {
		return errors.Errorf("setop: %s exceeded memory limit (%d > %d bytes)", t.label, t.consumed, t.limit)
	}
	return nil
}

// BytesConsumed returns the current tracked usage.
func (t *Tracker) BytesConsumed() int64 { return t.consumed }

// Reset zeroes the tracker, used at pair boundaries when the Set Store
// is dropped and re-allocated.
func (t *Tracker) Reset() { t.consumed = 0 }
