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

package setop

import (
	"errors"

	"github.com/pingcap/failpoint"

	"github.com/flowdb/flowdb/pkg/util/chunk"
)

// errOOMInjected is the cause attached to failpoint-triggered resource
// exhaustion errors, used only by tests.
var errOOMInjected = errors.New("injected out-of-memory for testing")

// filterChunk is the probe phase (spec.md §4.4): it extracts the key
// columns, probes the Set Store per row to build a selection mask, and
// rebuilds every column of the chunk by applying that mask.
func (p *Processor) filterChunk(c *chunk.Chunk) (*chunk.Chunk, error) {
	keyCols := c.KeyColumns(p.keyColumnPos)
	numRows := c.NumRows()
	mask := make([]byte, numRows)

	failpoint.Inject("setopFilterOOM", func() {
		failpoint.Return(nil, newResourceError(p.operators[p.currentOperatorPos], errOOMInjected))
	})

	negate := p.operators[p.currentOperatorPos] == Except
	survivors := p.store.Probe(keyCols, numRows, mask, negate)

	cols := c.Detach()
	outCols := make([]chunk.Column, len(cols))
	for i, col := range cols {
		outCols[i] = col.Filter(mask, survivors)
	}
	out, err := chunk.New(outCols, survivors)
	if err != nil {
		return nil, newInvariantError(p.operators[p.currentOperatorPos], err)
	}
	p.stats.RowsFiltered += int64(numRows)
	p.stats.RowsEmitted += int64(survivors)
	return out, nil
}
