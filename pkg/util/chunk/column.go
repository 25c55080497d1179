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

// Package chunk implements the immutable, reference-shared columnar
// value model the set-combining operator is handed by its upstream
// collaborators: a Chunk is a bundle of equal-length Columns, and a
// Column supports filter(mask, hint) -> Column.
package chunk

import "github.com/flowdb/flowdb/pkg/types"

// NoHint is passed to Column.Filter when the surviving row count is
// not known in advance.
const NoHint = -1

// Column is an immutable, reference-shared sequence of typed values.
// Implementations are closed: Int64Column, Float64Column, StringColumn.
type Column interface {
	// Len returns the number of rows in the column.
	Len() int
	// Kind reports the column's physical layout, the axis chooseMethod
	// dispatches on.
	Kind() types.Kind
	// Filter returns a new column containing only the rows where mask
	// is nonzero. hint, when >= 0, is the caller's known surviving row
	// count and may be used to presize the result.
	Filter(mask []byte, hint int) Column
}

// Int64Column is a fixed-width column of int64 values.
type Int64Column struct {
	Values []int64
	Nulls  []bool // nil means no nulls present
}

func NewInt64Column(values []int64) *Int64Column {
	return &Int64Column{Values: values}
}

func (c *Int64Column) Len() int { return len(c.Values) }

func (c *Int64Column) Kind() types.Kind { return types.KindInt64 }

func (c *Int64Column) Filter(mask []byte, hint int) Column {
	out := &Int64Column{Values: make([]int64, 0, filterCap(len(c.Values), hint))}
	var nulls []bool
	if c.Nulls != nil {
		nulls = make([]bool, 0, cap(out.Values))
	}
	for i, v := range c.Values {
		if mask[i] == 0 {
			continue
		}
		out.Values = append(out.Values, v)
		if c.Nulls != nil {
			nulls = append(nulls, c.Nulls[i])
		}
	}
	out.Nulls = nulls
	return out
}

// Float64Column is a fixed-width column of float64 values.
type Float64Column struct {
	Values []float64
	Nulls  []bool
}

func NewFloat64Column(values []float64) *Float64Column {
	return &Float64Column{Values: values}
}

func (c *Float64Column) Len() int { return len(c.Values) }

func (c *Float64Column) Kind() types.Kind { return types.KindFloat64 }

func (c *Float64Column) Filter(mask []byte, hint int) Column {
	out := &Float64Column{Values: make([]float64, 0, filterCap(len(c.Values), hint))}
	var nulls []bool
	if c.Nulls != nil {
		nulls = make([]bool, 0, cap(out.Values))
	}
	for i, v := range c.Values {
		if mask[i] == 0 {
			continue
		}
		out.Values = append(out.Values, v)
		if c.Nulls != nil {
			nulls = append(nulls, c.Nulls[i])
		}
	}
	out.Nulls = nulls
	return out
}

// StringColumn is a variable-length column of string values.
type StringColumn struct {
	Values []string
	Nulls  []bool
}

func NewStringColumn(values []string) *StringColumn {
	return &StringColumn{Values: values}
}

func (c *StringColumn) Len() int { return len(c.Values) }

func (c *StringColumn) Kind() types.Kind { return types.KindString }

func (c *StringColumn) Filter(mask []byte, hint int) Column {
	out := &StringColumn{Values: make([]string, 0, filterCap(len(c.Values), hint))}
	var nulls []bool
	if c.Nulls != nil {
		nulls = make([]bool, 0, cap(out.Values))
	}
	for i, v := range c.Values {
		if mask[i] == 0 {
			continue
		}
		out.Values = append(out.Values, v)
		if c.Nulls != nil {
			nulls = append(nulls, c.Nulls[i])
		}
	}
	out.Nulls = nulls
	return out
}

func filterCap(total, hint int) int {
	if hint >= 0 && hint <= total {
		return hint
	}
	return total
}
