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

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-farm"
	"github.com/dolthub/swiss"

	"github.com/flowdb/flowdb/pkg/util/chunk"
	"github.com/flowdb/flowdb/pkg/util/memory"
)

// defaultTableCapacity is the initial size hint handed to swiss.NewMap;
// the table grows past it freely, this only avoids early rehashing for
// the common case.
const defaultTableCapacity = 128

// Store is the Set Store of spec.md §3: a polymorphic hash set of row
// keys, lazily allocated, reset at the start of every pair, holding no
// payload beyond membership. Exactly one of its typed tables is active
// at a time, selected by tag.
type Store struct {
	tag      MethodTag
	keySizes []int

	oneFixed  *swiss.Map[uint64, struct{}]
	keysFixed *swiss.Map[fixedKey, struct{}]
	strings   *byteSet
	pool      *stringPool

	tracker  *memory.Tracker
	slabSize int
}

// fixedKey packs up to maxFixedKeyColumns 8-byte key columns into one
// comparable value usable as a swiss.Map key.
type fixedKey [maxFixedKeyColumns]uint64

// New returns an empty Store; no method is chosen and no table is
// allocated until the first Insert or Probe call. slabSize is the
// growth increment handed to the string pool arena for the
// variable-length methods (MethodOneString, MethodSerialized); <= 0
// uses the pool's own default.
func New(tracker *memory.Tracker, slabSize int) *Store {
	return &Store{tracker: tracker, slabSize: slabSize}
}

// Empty reports whether the Store has not yet chosen a method, i.e.
// whether it was just allocated or just Reset.
func (s *Store) Empty() bool { return s.tag == MethodUnknown }

// Tag returns the chosen method, or MethodUnknown before the first use.
func (s *Store) Tag() MethodTag { return s.tag }

// Reset drops the Store back to its just-allocated state: a fresh pair
// will choose its own method and tables from scratch. Equivalent to
// the source's data.reset() (spec.md §10).
func (s *Store) Reset() {
	s.tag = MethodUnknown
	s.keySizes = nil
	s.oneFixed = nil
	s.keysFixed = nil
	s.strings = nil
	s.pool = nil
	s.tracker.Reset()
}

// ensureMethod chooses a method from keyColumns the first time the
// Store is used in a pair, per spec.md §4.3/§4.4: accumulate and filter
// both call this, so an empty right side still produces a well-defined
// (if untouched) table.
func (s *Store) ensureMethod(keyColumns []chunk.Column) {
	if !s.Empty() {
		return
	}
	tag, sizes := chooseMethod(keyColumns)
	s.tag = tag
	s.keySizes = sizes
	switch tag {
	case MethodOneFixed:
		s.oneFixed = swiss.NewMap[uint64, struct{}](defaultTableCapacity)
	case MethodKeysFixed:
		s.keysFixed = swiss.NewMap[fixedKey, struct{}](defaultTableCapacity)
	case MethodOneString, MethodSerialized:
		s.strings = newByteSet(s.tracker)
		s.pool = newStringPool(s.slabSize, s.tracker)
	}
}

// Insert adds every row's composite key from keyColumns (rows 0..numRows-1)
// into the table, dispatching once to the method's monomorphised loop.
func (s *Store) Insert(keyColumns []chunk.Column, numRows int) error {
	s.ensureMethod(keyColumns)
	switch s.tag {
	case MethodOneFixed:
		insertOneFixed(s.oneFixed, keyColumns[0], numRows)
		return nil
	case MethodKeysFixed:
		insertKeysFixed(s.keysFixed, keyColumns, numRows)
		return nil
	case MethodOneString:
		return insertOneString(s.strings, s.pool, keyColumns[0], numRows)
	case MethodSerialized:
		return insertSerialized(s.strings, s.pool, keyColumns, numRows)
	default:
		return nil
	}
}

// Probe fills filter[0:numRows] with 1 where row i's key is found (if
// !negate) or not found (if negate), and returns the survivor count.
// negate is true for EXCEPT, false for INTERSECT (spec.md §4.4).
func (s *Store) Probe(keyColumns []chunk.Column, numRows int, filter []byte, negate bool) int {
	s.ensureMethod(keyColumns)
	switch s.tag {
	case MethodOneFixed:
		return probeOneFixed(s.oneFixed, keyColumns[0], numRows, filter, negate)
	case MethodKeysFixed:
		return probeKeysFixed(s.keysFixed, keyColumns, numRows, filter, negate)
	case MethodOneString:
		return probeOneString(s.strings, keyColumns[0], numRows, filter, negate)
	case MethodSerialized:
		return probeSerialized(s.strings, keyColumns, numRows, filter, negate)
	default:
		return 0
	}
}

// --- MethodOneFixed ---

func fixedBits(col chunk.Column, row int) uint64 {
	switch c := col.(type) {
	case *chunk.Int64Column:
		return uint64(c.Values[row])
	case *chunk.Float64Column:
		return math.Float64bits(c.Values[row])
	default:
		panic("setstore: fixedBits called on non-fixed-width column")
	}
}

func insertOneFixed(table *swiss.Map[uint64, struct{}], col chunk.Column, numRows int) {
	for i := 0; i < numRows; i++ {
		table.Put(fixedBits(col, i), struct{}{})
	}
}

func probeOneFixed(table *swiss.Map[uint64, struct{}], col chunk.Column, numRows int, filter []byte, negate bool) int {
	survivors := 0
	for i := 0; i < numRows; i++ {
		_, found := table.Get(fixedBits(col, i))
		if found != negate {
			filter[i] = 1
			survivors++
		} else {
			filter[i] = 0
		}
	}
	return survivors
}

// --- MethodKeysFixed ---

func packFixedKey(cols []chunk.Column, row int) fixedKey {
	var key fixedKey
	for j, col := range cols {
		key[j] = fixedBits(col, row)
	}
	return key
}

func insertKeysFixed(table *swiss.Map[fixedKey, struct{}], cols []chunk.Column, numRows int) {
	for i := 0; i < numRows; i++ {
		table.Put(packFixedKey(cols, i), struct{}{})
	}
}

func probeKeysFixed(table *swiss.Map[fixedKey, struct{}], cols []chunk.Column, numRows int, filter []byte, negate bool) int {
	survivors := 0
	for i := 0; i < numRows; i++ {
		_, found := table.Get(packFixedKey(cols, i))
		if found != negate {
			filter[i] = 1
			survivors++
		} else {
			filter[i] = 0
		}
	}
	return survivors
}

// --- MethodOneString ---

func insertOneString(set *byteSet, pool *stringPool, col chunk.Column, numRows int) error {
	c := col.(*chunk.StringColumn)
	for i := 0; i < numRows; i++ {
		b := []byte(c.Values[i])
		h := xxhash.Sum64(b)
		if set.contains(h, b) {
			continue
		}
		stored, err := pool.put(b)
		if err != nil {
			return err
		}
		if err := set.insert(h, stored); err != nil {
			return err
		}
	}
	return nil
}

func probeOneString(set *byteSet, col chunk.Column, numRows int, filter []byte, negate bool) int {
	c := col.(*chunk.StringColumn)
	survivors := 0
	for i := 0; i < numRows; i++ {
		b := []byte(c.Values[i])
		h := xxhash.Sum64(b)
		found := set.contains(h, b)
		if found != negate {
			filter[i] = 1
			survivors++
		} else {
			filter[i] = 0
		}
	}
	return survivors
}

// --- MethodSerialized (generic fallback) ---

// serializeRow appends row's composite key bytes from cols to dst and
// returns the grown slice. Mixed fixed/variable-width columns are
// supported; variable-width values are length-prefixed so two
// different splits can never collide into the same byte stream.
func serializeRow(dst []byte, cols []chunk.Column, row int) []byte {
	var tmp [8]byte
	for _, col := range cols {
		switch c := col.(type) {
		case *chunk.Int64Column:
			binary.LittleEndian.PutUint64(tmp[:], uint64(c.Values[row]))
			dst = append(dst, tmp[:]...)
		case *chunk.Float64Column:
			binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(c.Values[row]))
			dst = append(dst, tmp[:]...)
		case *chunk.StringColumn:
			v := c.Values[row]
			binary.LittleEndian.PutUint32(tmp[:4], uint32(len(v)))
			dst = append(dst, tmp[:4]...)
			dst = append(dst, v...)
		default:
			panic("setstore: serializeRow hit an unsupported column kind")
		}
	}
	return dst
}

func insertSerialized(set *byteSet, pool *stringPool, cols []chunk.Column, numRows int) error {
	scratch := make([]byte, 0, 64)
	for i := 0; i < numRows; i++ {
		scratch = serializeRow(scratch[:0], cols, i)
		h := farm.Hash64(scratch)
		if set.contains(h, scratch) {
			continue
		}
		stored, err := pool.put(scratch)
		if err != nil {
			return err
		}
		if err := set.insert(h, stored); err != nil {
			return err
		}
	}
	return nil
}

func probeSerialized(set *byteSet, cols []chunk.Column, numRows int, filter []byte, negate bool) int {
	scratch := make([]byte, 0, 64)
	survivors := 0
	for i := 0; i < numRows; i++ {
		scratch = serializeRow(scratch[:0], cols, i)
		h := farm.Hash64(scratch)
		found := set.contains(h, scratch)
		if found != negate {
			filter[i] = 1
			survivors++
		} else {
			filter[i] = 0
		}
	}
	return survivors
}
