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

package setstore

import "github.com/flowdb/flowdb/pkg/util/memory"

// defaultSlabSize is the growth increment for the string pool's
// backing slabs, chosen to amortize allocation over many small keys
// without a single pair holding on to one giant buffer.
const defaultSlabSize = 64 * 1024

// stringPool is the arena variable-length key bytes are copied into.
// It is pair-scoped: allocate once, grow freely, drop the whole thing
// when the pair ends (spec.md §9's "equivalent of an arena" note).
type stringPool struct {
	slabs    [][]byte
	cur      []byte
	slabSize int
	tracker  *memory.Tracker
}

func newStringPool(slabSize int, tracker *memory.Tracker) *stringPool {
	if slabSize <= 0 {
		slabSize = defaultSlabSize
	}
	return &stringPool{slabSize: slabSize, tracker: tracker}
}

// put copies b into the arena and returns a stable slice over the
// copy, valid for the remaining lifetime of the pool.
func (p *stringPool) put(b []byte) ([]byte, error) {
	if len(b) > len(p.cur) {
		slabLen := p.slabSize
		if len(b) > slabLen {
			slabLen = len(b)
		}
		if err := p.tracker.Consume(int64(slabLen)); err != nil {
			return nil, err
		}
		p.slabs = append(p.slabs, make([]byte, slabLen))
		p.cur = p.slabs[len(p.slabs)-1]
	}
	dst := p.cur[:len(b):len(b)]
	copy(dst, b)
	p.cur = p.cur[len(b):]
	return dst, nil
}
