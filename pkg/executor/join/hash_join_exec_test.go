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

package join_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowdb/flowdb/pkg/executor/join"
	"github.com/flowdb/flowdb/pkg/util/chunk"
	"github.com/flowdb/flowdb/pkg/util/memory"
)

func chunkOf(vals ...int64) *chunk.Chunk {
	c, err := chunk.New([]chunk.Column{chunk.NewInt64Column(vals)}, len(vals))
	if err != nil {
		panic(err)
	}
	return c
}

func sourceOf(chunks ...*chunk.Chunk) join.ChannelSource {
	ch := make(chan *chunk.Chunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return join.ChannelSource{Chunks: ch}
}

// collect drains exec.Run's result channel into a flat slice of ids,
// failing the test on the first error result.
func collect(t *testing.T, results <-chan *join.JoinResult) []int64 {
	t.Helper()
	var got []int64
	for res := range results {
		require.NoError(t, res.Err)
		got = append(got, res.Chunk.Column(0).(*chunk.Int64Column).Values...)
	}
	return got
}

func TestSemiJoinExecFiltersToMatchingKeys(t *testing.T) {
	build := sourceOf(chunkOf(2, 3, 4))
	probe := sourceOf(chunkOf(1, 2, 3))

	tracker := memory.NewTracker("join-test", 0)
	exec := join.NewSemiJoinExec(build, probe, []int{0}, []int{0}, false, 2, tracker)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.ElementsMatch(t, []int64{2, 3}, collect(t, exec.Run(ctx)))
}

func TestSemiJoinExecNegateIsAntiSemiJoin(t *testing.T) {
	build := sourceOf(chunkOf(2, 3))
	probe := sourceOf(chunkOf(1, 2, 3, 4))

	tracker := memory.NewTracker("join-test", 0)
	exec := join.NewSemiJoinExec(build, probe, []int{0}, []int{0}, true, 1, tracker)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.ElementsMatch(t, []int64{1, 4}, collect(t, exec.Run(ctx)))
}

func TestSemiJoinExecEmptyBuildSideAntiJoinPassesEverything(t *testing.T) {
	build := sourceOf()
	probe := sourceOf(chunkOf(1, 2))

	tracker := memory.NewTracker("join-test", 0)
	exec := join.NewSemiJoinExec(build, probe, []int{0}, []int{0}, true, 3, tracker)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.ElementsMatch(t, []int64{1, 2}, collect(t, exec.Run(ctx)))
}

func TestSemiJoinExecConcurrentMultiChunkProbe(t *testing.T) {
	build := sourceOf(chunkOf(10, 20, 30))
	probe := sourceOf(chunkOf(10, 11), chunkOf(20, 21), chunkOf(30, 31))

	tracker := memory.NewTracker("join-test", 0)
	exec := join.NewSemiJoinExec(build, probe, []int{0}, []int{0}, false, 4, tracker)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.ElementsMatch(t, []int64{10, 20, 30}, collect(t, exec.Run(ctx)))
}
