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

// Package types holds the minimal row-schema model the set-combining
// operator needs from the (out of scope) planner: column names and
// their physical kind.
package types

import "github.com/pingcap/errors"

// Kind is the physical layout of a column's values, the same axis
// chooseMethod dispatches on.
type Kind uint8

const (
	KindInt64 Kind = iota
	KindFloat64
	KindString
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// FixedWidth reports the in-memory width of the kind, or 0 when the
// kind is variable-length.
func (k Kind) FixedWidth() int {
	switch k {
	case KindInt64, KindFloat64:
		return 8
	default:
		return 0
	}
}

// FieldType describes one column of a Schema.
type FieldType struct {
	Name string
	Kind Kind
}

// Schema is the row layout shared by every input and the output of the
// set-combining operator. It is fixed at construction.
type Schema struct {
	fields []FieldType
	byName map[string]int
}

// NewSchema builds a Schema from one FieldType (name and kind) per
// column.
func NewSchema(fields []FieldType) (*Schema, error) {
	if len(fields) == 0 {
		return nil, errors.New("setop: schema must have at least one column")
	}
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, errors.Errorf("setop: column %d has an empty name", i)
		}
		if _, ok := byName[f.Name]; ok {
			return nil, errors.Errorf("setop: duplicate column name %q", f.Name)
		}
		byName[f.Name] = i
	}
	return &Schema{fields: append([]FieldType(nil), fields...), byName: byName}, nil
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.fields) }

// Field returns the field description at pos.
func (s *Schema) Field(pos int) FieldType { return s.fields[pos] }

// ColumnIndex looks up a column's position by name.
func (s *Schema) ColumnIndex(name string) (int, bool) {
	pos, ok := s.byName[name]
	return pos, ok
}

// AllColumnIndexes returns 0..Len()-1, used when no explicit key
// columns were supplied (spec default: every column is a key column).
func (s *Schema) AllColumnIndexes() []int {
	idx := make([]int, s.Len())
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Equal reports whether two schemas have the same column kinds in the
// same order; names are allowed to differ between inputs and output.
func (s *Schema) Equal(other *Schema) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, f := range s.fields {
		if f.Kind != other.fields[i].Kind {
			return false
		}
	}
	return true
}
