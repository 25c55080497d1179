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

package setop_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowdb/flowdb/pkg/executor/setop"
	"github.com/flowdb/flowdb/pkg/util/chunk"
)

// fakeInput is a port whose chunks are all known up front: once its
// queue drains, it is finished, never waiting for more to arrive. This
// is enough to drive the scheduler end to end without ever observing
// setop.NeedData.
type fakeInput struct {
	queue []*chunk.Chunk
}

func (f *fakeInput) IsFinished() bool  { return len(f.queue) == 0 }
func (f *fakeInput) SetNeeded()        {}
func (f *fakeInput) SetNotNeeded()     {}
func (f *fakeInput) HasData() bool     { return len(f.queue) > 0 }
func (f *fakeInput) Close()            {}
func (f *fakeInput) Pull() *chunk.Chunk {
	c := f.queue[0]
	f.queue = f.queue[1:]
	return c
}

type fakeOutput struct {
	pushed   []*chunk.Chunk
	finished bool
}

func (f *fakeOutput) IsFinished() bool      { return false }
func (f *fakeOutput) CanPush() bool         { return true }
func (f *fakeOutput) Push(c *chunk.Chunk)   { f.pushed = append(f.pushed, c) }
func (f *fakeOutput) Finish()               { f.finished = true }

func ints(vals ...int64) *chunk.Chunk {
	c, err := chunk.New([]chunk.Column{chunk.NewInt64Column(vals)}, len(vals))
	if err != nil {
		panic(err)
	}
	return c
}

func input(chunks ...*chunk.Chunk) *fakeInput {
	return &fakeInput{queue: append([]*chunk.Chunk(nil), chunks...)}
}

func collectIDs(out *fakeOutput) []int64 {
	ids := []int64{}
	for _, c := range out.pushed {
		ids = append(ids, c.Column(0).(*chunk.Int64Column).Values...)
	}
	return ids
}

// drive runs Prepare/Work to completion. Tests using it supply only
// fakeInputs whose entire contents are known up front, so NeedData and
// PortFull should never legitimately occur.
func drive(t *testing.T, p *setop.Processor) {
	t.Helper()
	for i := 0; i < 10_000; i++ {
		switch status := p.Prepare(); status {
		case setop.Finished:
			return
		case setop.Ready:
			require.NoError(t, p.Work())
		default:
			t.Fatalf("unexpected status %s with fully-preloaded fake ports", status)
		}
	}
	t.Fatal("processor did not reach Finished within the iteration budget")
}
