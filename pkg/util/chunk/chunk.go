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

import "github.com/pingcap/errors"

// Chunk is an immutable, reference-shared bundle of equal-length
// columns flowing through the pipeline as one unit.
type Chunk struct {
	columns []Column
	numRows int
}

// New builds a Chunk from columns plus an explicit row count. All
// columns must have exactly numRows rows.
func New(columns []Column, numRows int) (*Chunk, error) {
	for i, c := range columns {
		if c.Len() != numRows {
			return nil, errors.Errorf("setop: column %d has %d rows, chunk declares %d", i, c.Len(), numRows)
		}
	}
	return &Chunk{columns: columns, numRows: numRows}, nil
}

// NumRows returns the chunk's row count.
func (c *Chunk) NumRows() int { return c.numRows }

// NumCols returns the number of columns.
func (c *Chunk) NumCols() int { return len(c.columns) }

// Column returns the column at pos without transferring ownership.
func (c *Chunk) Column(pos int) Column { return c.columns[pos] }

// Columns returns the backing column slice without transferring
// ownership over the slice header; callers must not mutate it.
func (c *Chunk) Columns() []Column { return c.columns }

// Detach transfers ownership of the chunk's columns to the caller.
// The Chunk itself should not be used afterwards.
func (c *Chunk) Detach() []Column {
	cols := c.columns
	c.columns = nil
	c.numRows = 0
	return cols
}

// KeyColumns extracts the columns at the given positions, used to hand
// the Set Store exactly the key columns without copying values.
func (c *Chunk) KeyColumns(positions []int) []Column {
	out := make([]Column, len(positions))
	for i, pos := range positions {
		out[i] = c.columns[pos]
	}
	return out
}
