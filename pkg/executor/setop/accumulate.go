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
	"github.com/pingcap/failpoint"

	"github.com/flowdb/flowdb/pkg/util/chunk"
)

// accumulate is the build phase (spec.md §4.3): it extracts the key
// columns by their fixed positions and inserts every row's composite
// key into the Set Store. It produces no output.
func (p *Processor) accumulate(c *chunk.Chunk) error {
	keyCols := c.KeyColumns(p.keyColumnPos)

	failpoint.Inject("setopAccumulateOOM", func() {
		failpoint.Return(newResourceError(p.operators[p.currentOperatorPos], errOOMInjected))
	})

	if err := p.store.Insert(keyCols, c.NumRows()); err != nil {
		return newResourceError(p.operators[p.currentOperatorPos], err)
	}
	p.stats.RowsAccumulated += int64(c.NumRows())
	return nil
}
