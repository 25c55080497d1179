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
	"bytes"

	"github.com/flowdb/flowdb/pkg/util/memory"
)

// byteSet is the key-only hash table backing MethodOneString and
// MethodSerialized: entries carry a precomputed ("saved") hash and
// compare by full byte equality on collision, mirroring ClickHouse's
// HashMapWithSavedHash for StringRef keys. Keys are expected to live in
// a stringPool arena, so the table never copies them itself.
type byteSet struct {
	buckets map[uint64][][]byte
	tracker *memory.Tracker
}

func newByteSet(tracker *memory.Tracker) *byteSet {
	return &byteSet{buckets: make(map[uint64][][]byte), tracker: tracker}
}

// contains reports whether key is already present, given its
// precomputed hash.
func (s *byteSet) contains(hash uint64, key []byte) bool {
	for _, k := range s.buckets[hash] {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}

// insert adds key (already arena-backed) under its precomputed hash,
// if not already present.
func (s *byteSet) insert(hash uint64, key []byte) error {
	bucket := s.buckets[hash]
	for _, k := range bucket {
		if bytes.Equal(k, key) {
			return nil
		}
	}
	if err := s.tracker.Consume(int64(len(key))); err != nil {
		return err
	}
	s.buckets[hash] = append(bucket, key)
	return nil
}
