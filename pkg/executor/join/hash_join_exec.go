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

package join

import (
	"context"
	"sync"

	"github.com/pingcap/errors"
	"github.com/pingcap/failpoint"

	"github.com/flowdb/flowdb/pkg/setstore"
	"github.com/flowdb/flowdb/pkg/util/chunk"
	"github.com/flowdb/flowdb/pkg/util/memory"
)

// SemiJoinExec is a concurrent build/probe hash operator: a single
// build goroutine accumulates BuildSide's key columns into a Set
// Store, then Concurrency probe workers fan out across ProbeSide,
// each independently probing the now-read-only store and emitting
// surviving rows. Negate selects anti semi join (NOT EXISTS) over
// semi join (EXISTS), reusing the same found/negate convention
// pkg/setstore.Store.Probe uses for INTERSECT/EXCEPT.
type SemiJoinExec struct {
	hashJoinCtxBase

	BuildSide   RowSource
	ProbeSide   RowSource
	BuildKeyPos []int
	ProbeKeyPos []int
	Negate      bool

	store *setstore.Store
}

// NewSemiJoinExec wires a SemiJoinExec over the given sides and key
// column positions. concurrency below 1 is treated as 1.
func NewSemiJoinExec(buildSide, probeSide RowSource, buildKeyPos, probeKeyPos []int, negate bool, concurrency uint, tracker *memory.Tracker) *SemiJoinExec {
	if concurrency == 0 {
		concurrency = 1
	}
	return &SemiJoinExec{
		hashJoinCtxBase: hashJoinCtxBase{
			Alloc:         chunk.NewAllocator(),
			Concurrency:   concurrency,
			joinResultCh:  make(chan *JoinResult, concurrency),
			closeCh:       make(chan struct{}),
			buildFinished: make(chan error, 1),
			memTracker:    tracker,
		},
		BuildSide:   buildSide,
		ProbeSide:   probeSide,
		BuildKeyPos: buildKeyPos,
		ProbeKeyPos: probeKeyPos,
		Negate:      negate,
		store:       setstore.New(tracker, 0),
	}
}

// Run starts the build goroutine, waits for it to finish, then starts
// Concurrency probe workers, streaming results on the returned channel
// until every worker is done, at which point the channel is closed.
func (e *SemiJoinExec) Run(ctx context.Context) <-chan *JoinResult {
	go e.fetchBuildSide(ctx)

	go func() {
		defer close(e.joinResultCh)

		if err := <-e.buildFinished; err != nil {
			e.sendError(err)
			return
		}

		var wg sync.WaitGroup
		for i := uint(0); i < e.Concurrency; i++ {
			syncerAdd(&wg)
			go e.probeWorker(ctx, &wg)
		}
		wg.Wait()
	}()

	return e.joinResultCh
}

// Close signals every in-flight goroutine to stop at its next
// opportunity; Run's channel closes once they unwind.
func (e *SemiJoinExec) Close() {
	if e.finished.CompareAndSwap(false, true) {
		close(e.closeCh)
	}
}

func (e *SemiJoinExec) fetchBuildSide(ctx context.Context) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%v", r)
		}
		e.buildFinished <- err
	}()

	for {
		select {
		case <-e.closeCh:
			return
		default:
		}

		chk, nextErr := e.BuildSide.Next(ctx)
		if nextErr != nil {
			err = nextErr
			return
		}
		if chk == nil || chk.NumRows() == 0 {
			return
		}

		failpoint.Inject("semiJoinBuildOOM", func() {
			err = errors.New("injected out-of-memory building semi join table")
		})
		if err != nil {
			return
		}

		keyCols := chk.KeyColumns(e.BuildKeyPos)
		if insErr := e.store.Insert(keyCols, chk.NumRows()); insErr != nil {
			err = insErr
			return
		}
	}
}

func (e *SemiJoinExec) probeWorker(ctx context.Context, wg *sync.WaitGroup) {
	defer syncerDone(wg)
	defer e.recoverAsJoinError()

	for {
		select {
		case <-e.closeCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		chk, err := e.ProbeSide.Next(ctx)
		if err != nil {
			e.sendError(err)
			return
		}
		if chk == nil || chk.NumRows() == 0 {
			return
		}

		keyCols := chk.KeyColumns(e.ProbeKeyPos)
		numRows := chk.NumRows()
		mask := make([]byte, numRows)
		survivors := e.store.Probe(keyCols, numRows, mask, e.Negate)
		if survivors == 0 {
			continue
		}

		cols := chk.Detach()
		outCols := make([]chunk.Column, len(cols))
		for i, col := range cols {
			outCols[i] = col.Filter(mask, survivors)
		}
		out := e.Alloc.Alloc(outCols, survivors)

		select {
		case e.joinResultCh <- &JoinResult{Chunk: out}:
		case <-e.closeCh:
			return
		}
	}
}
