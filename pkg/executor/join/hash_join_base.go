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

// Package join provides a concurrent, goroutine/channel based
// build-then-probe hash operator sitting alongside pkg/executor/setop's
// single-threaded cooperative one: a join's build and probe phases are
// separated by a single wait point, so plain fan-out workers apply
// where setop's interleaved pair sequencing does not.
package join

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pingcap/errors"

	"github.com/flowdb/flowdb/pkg/util/chunk"
	"github.com/flowdb/flowdb/pkg/util/memory"
)

// RowSource is the pull contract a join's build and probe sides are
// read through: repeated Next calls until a nil or zero-row chunk
// signals end of input.
type RowSource interface {
	Next(ctx context.Context) (*chunk.Chunk, error)
}

// ChannelSource adapts a channel of chunks into a RowSource safe for
// concurrent Next calls from multiple probe workers, playing the role
// ProbeSideExec's per-worker probeResultChs played in the original
// executor, minus the per-worker channel fan-out: here every worker
// pulls from the same channel instead, since chunks in this module are
// immutable and safe to hand to whichever worker reads them first.
type ChannelSource struct {
	Chunks <-chan *chunk.Chunk
}

// Next returns the next chunk from the channel, or nil once closed.
func (s ChannelSource) Next(ctx context.Context) (*chunk.Chunk, error) {
	select {
	case chk, ok := <-s.Chunks:
		if !ok {
			return nil, nil
		}
		return chk, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// JoinResult carries one produced chunk back to Run's caller, or a
// terminal error, mirroring the teacher's hashjoinWorkerResult (minus
// its chunk-reuse `src` field: this module's chunks aren't mutated in
// place, so there's nothing to hand back for reuse).
type JoinResult struct {
	Chunk *chunk.Chunk
	Err   error
}

// hashJoinCtxBase holds the state every build/probe goroutine shares:
// a result channel, a close signal, a finished flag, and a handoff
// channel announcing when the build side is ready to be probed.
// Adapted from the teacher's hashJoinCtxBase, with SessCtx/disk
// tracker/spill fields dropped (no session, no spilling here).
type hashJoinCtxBase struct {
	Alloc         *chunk.Allocator
	Concurrency   uint
	joinResultCh  chan *JoinResult
	closeCh       chan struct{}
	finished      atomic.Bool
	buildFinished chan error
	memTracker    *memory.Tracker
}

func (ctx *hashJoinCtxBase) sendError(err error) {
	select {
	case ctx.joinResultCh <- &JoinResult{Err: err}:
	case <-ctx.closeCh:
	}
}

// recoverAsJoinError converts a panic inside a worker goroutine into an
// error pushed onto joinResultCh, mirroring util.GetRecoverError's use
// around the teacher's fetcher and worker goroutines.
func (ctx *hashJoinCtxBase) recoverAsJoinError() {
	if r := recover(); r != nil {
		var err error
		if e, ok := r.(error); ok {
			err = e
		} else {
			err = errors.Errorf("%v", r)
		}
		ctx.sendError(err)
	}
}

func syncerAdd(wg *sync.WaitGroup) {
	if wg != nil {
		wg.Add(1)
	}
}

func syncerDone(wg *sync.WaitGroup) {
	if wg != nil {
		wg.Done()
	}
}
