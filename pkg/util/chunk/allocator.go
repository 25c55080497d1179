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

package chunk

import "sync"

// Allocator recycles the Chunk wrapper struct; pkg/executor/join's
// SemiJoinExec builds its output chunks through it.
// It never pools column backing arrays: those are immutable and
// reference-shared with upstream/downstream per the operator's
// shared-resource policy, so only the small Chunk struct itself is
// worth reusing. Grounded on the chunk-reuse channel idiom of TiDB's
// hash join executor.
type Allocator struct {
	pool sync.Pool
}

// NewAllocator returns a ready-to-use Allocator.
func NewAllocator() *Allocator {
	a := &Allocator{}
	a.pool.New = func() any { return &Chunk{} }
	return a
}

// Alloc returns a Chunk wrapper (possibly reused) populated with
// columns and numRows. Callers must still treat returned columns as
// immutable; only the wrapper is recycled.
func (a *Allocator) Alloc(columns []Column, numRows int) *Chunk {
	c := a.pool.Get().(*Chunk)
	c.columns = columns
	c.numRows = numRows
	return c
}

// Release returns a Chunk's wrapper struct to the pool once the caller
// is certain nothing downstream still references it. It does not touch
// the columns slice contents, only clears the wrapper's fields.
func (a *Allocator) Release(c *Chunk) {
	if c == nil {
		return
	}
	c.columns = nil
	c.numRows = 0
	a.pool.Put(c)
}
