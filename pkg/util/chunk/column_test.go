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

package chunk_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowdb/flowdb/pkg/types"
	"github.com/flowdb/flowdb/pkg/util/chunk"
)

func TestInt64ColumnFilter(t *testing.T) {
	col := chunk.NewInt64Column([]int64{10, 20, 30, 40})
	mask := []byte{1, 0, 1, 0}

	out := col.Filter(mask, chunk.NoHint)
	require.Equal(t, types.KindInt64, out.Kind())
	require.Equal(t, 2, out.Len())
	require.Equal(t, []int64{10, 30}, out.(*chunk.Int64Column).Values)
}

func TestStringColumnFilterWithHint(t *testing.T) {
	col := chunk.NewStringColumn([]string{"a", "b", "c"})
	mask := []byte{0, 1, 1}

	out := col.Filter(mask, 2)
	require.Equal(t, 2, out.Len())
	require.Equal(t, []string{"b", "c"}, out.(*chunk.StringColumn).Values)
}

func TestColumnFilterAllExcluded(t *testing.T) {
	col := chunk.NewFloat64Column([]float64{1.5, 2.5})
	out := col.Filter([]byte{0, 0}, chunk.NoHint)
	require.Equal(t, 0, out.Len())
}

func TestChunkNewRejectsMismatchedRowCounts(t *testing.T) {
	cols := []chunk.Column{
		chunk.NewInt64Column([]int64{1, 2, 3}),
		chunk.NewStringColumn([]string{"x", "y"}),
	}
	_, err := chunk.New(cols, 3)
	require.Error(t, err)
}

func TestChunkKeyColumnsAndDetach(t *testing.T) {
	cols := []chunk.Column{
		chunk.NewInt64Column([]int64{1, 2}),
		chunk.NewStringColumn([]string{"a", "b"}),
	}
	c, err := chunk.New(cols, 2)
	require.NoError(t, err)

	key := c.KeyColumns([]int{1})
	require.Len(t, key, 1)
	require.Equal(t, types.KindString, key[0].Kind())

	detached := c.Detach()
	require.Len(t, detached, 2)
	require.Equal(t, 0, c.NumRows())
}

func TestAllocatorReusesWrapper(t *testing.T) {
	alloc := chunk.NewAllocator()
	c1 := alloc.Alloc([]chunk.Column{chunk.NewInt64Column([]int64{1})}, 1)
	alloc.Release(c1)
	c2 := alloc.Alloc([]chunk.Column{chunk.NewInt64Column([]int64{2})}, 1)
	require.Equal(t, 1, c2.NumRows())
}
