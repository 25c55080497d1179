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

// Package setstore is the polymorphic hash-set build/probe collaborator
// (spec.md §3/§4.3/§4.4/§9): a closed enumeration of hashing strategies
// keyed on the key columns' physical layout, with one monomorphised
// inner loop per method so the row loop never pays a per-row dispatch
// cost. Modeled on ClickHouse's SetVariants/addToSet/buildFilter
// template dispatch (see _examples/original_source), re-expressed as a
// Go tagged-variant switch chosen once per pair.
package setstore

import "github.com/flowdb/flowdb/pkg/util/chunk"

// MethodTag selects the monomorphised hash/equality routine for a
// pair's key columns. The set is closed and code-gen-driven in spirit:
// adding a layout means adding both a tag and its typed insert/probe
// pair, never a generic branch inside the row loop.
type MethodTag uint8

const (
	// MethodUnknown marks a Store that has not chosen a method yet.
	MethodUnknown MethodTag = iota
	// MethodOneFixed: a single fixed-width (int64 or float64) key column.
	MethodOneFixed
	// MethodKeysFixed: 2-4 fixed-width key columns packed into one key.
	MethodKeysFixed
	// MethodOneString: a single variable-length (string) key column.
	MethodOneString
	// MethodSerialized: the generic fallback for any other key-column mix.
	MethodSerialized
)

func (t MethodTag) String() string {
	switch t {
	case MethodOneFixed:
		return "one_fixed"
	case MethodKeysFixed:
		return "keys_fixed"
	case MethodOneString:
		return "one_string"
	case MethodSerialized:
		return "serialized"
	default:
		return "unknown"
	}
}

// maxFixedKeyColumns bounds MethodKeysFixed: beyond this many columns,
// packing into the fixed [4]uint64 key type used by the swiss.Map-backed
// table stops being worthwhile and the generic serialized fallback
// takes over instead.
const maxFixedKeyColumns = 4

// chooseMethod is the pure collaborator function described in spec.md
// §6: it depends only on the key columns' types and widths, never on
// row contents. It returns the chosen tag and the key width in bytes
// per column (0 for a variable-length column).
func chooseMethod(keyColumns []chunk.Column) (MethodTag, []int) {
	keySizes := make([]int, len(keyColumns))
	allFixed := true
	for i, col := range keyColumns {
		w := col.Kind().FixedWidth()
		keySizes[i] = w
		if w == 0 {
			allFixed = false
		}
	}

	switch {
	case len(keyColumns) == 1 && allFixed:
		return MethodOneFixed, keySizes
	case len(keyColumns) == 1:
		return MethodOneString, keySizes
	case allFixed && len(keyColumns) <= maxFixedKeyColumns:
		return MethodKeysFixed, keySizes
	default:
		return MethodSerialized, keySizes
	}
}
