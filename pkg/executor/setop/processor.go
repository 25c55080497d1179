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
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/flowdb/flowdb/pkg/types"
	"github.com/flowdb/flowdb/pkg/util/chunk"
	"github.com/flowdb/flowdb/pkg/util/memory"
	"github.com/flowdb/flowdb/pkg/setstore"
)

// Config holds construction-time tunables. The zero value is a
// reasonable default (spec.md's construction interface takes none of
// these; they exist purely as ambient knobs, mirroring small tunables
// TiDB threads through sessionctx.Context).
type Config struct {
	// MaxStringPoolSlab is the size in bytes of each arena slab; a key
	// longer than that gets a slab of its own length. 0 uses setstore's
	// internal default.
	MaxStringPoolSlab int64
	// MemoryLimitBytes caps the Set Store's tracked allocation; <= 0
	// disables the limit.
	MemoryLimitBytes int64
}

// stats are lifetime counters, logged once when the last pair completes
// (not when Finished follows a closed output), never on a hot
// per-tick path (spec.md §5 requires ticks stay allocation/syscall free).
type stats struct {
	PairsCompleted  int64
	RowsAccumulated int64
	RowsFiltered    int64
	RowsEmitted     int64
}

// Processor is the streaming INTERSECT/EXCEPT operator: N+1 inputs,
// one output, a Port State Machine (spec.md §4.1) driving an
// Accumulator (§4.3) / Filter Engine (§4.4) pair through a sequence of
// pairs (§4.5).
type Processor struct {
	schema       *types.Schema
	operators    []Operator
	keyColumnPos []int

	inputs []InputPort
	output OutputPort

	store   *setstore.Store
	tracker *memory.Tracker
	cfg     Config

	// Current State (spec.md §3).
	currentOperatorPos  int
	secondInputIdx      int
	finishedSecondInput bool
	useAccumulatedInput bool
	hasInput            bool
	currentInputChunk   *chunk.Chunk

	// leftQueue holds chunks already produced by the previous pair,
	// waiting to be staged as this (internal) pair's left-side input.
	// nextLeftQueue accumulates the current (non-final) pair's filtered
	// chunks for the pair after it. See DESIGN.md for why this is a
	// queue rather than the single slot spec.md's prose describes: a
	// single slot cannot carry more than one chunk of hand-off between
	// a non-final pair and the next while also honoring "Set Store
	// never outlives its pair" and "current_operator_pos never revisited".
	leftQueue     []*chunk.Chunk
	nextLeftQueue []*chunk.Chunk
	pendingPush   []*chunk.Chunk

	closed bool
	stats  stats
}

// New validates header/operators/keyColumnNames and returns a ready
// Processor. Structural errors (spec.md §7) are returned here, never
// from Prepare/Work.
func New(schema *types.Schema, operators []Operator, keyColumnNames []string, inputs []InputPort, output OutputPort, cfg Config) (*Processor, error) {
	if len(operators) == 0 {
		return nil, newStructuralError(errors.New("setop: operator list must have at least one operator"))
	}
	if len(inputs) != len(operators)+1 {
		return nil, newStructuralError(errors.Errorf(
			"setop: expected %d inputs for %d operators, got %d", len(operators)+1, len(operators), len(inputs)))
	}
	if output == nil {
		return nil, newStructuralError(errors.New("setop: output port is required"))
	}

	var keyPos []int
	if len(keyColumnNames) == 0 {
		keyPos = schema.AllColumnIndexes()
	} else {
		keyPos = make([]int, len(keyColumnNames))
		for i, name := range keyColumnNames {
			pos, ok := schema.ColumnIndex(name)
			if !ok {
				return nil, newStructuralError(errors.Errorf("setop: unknown key column %q", name))
			}
			keyPos[i] = pos
		}
	}

	tracker := memory.NewTracker("setop.store", cfg.MemoryLimitBytes)
	return &Processor{
		schema:         schema,
		operators:      operators,
		keyColumnPos:   keyPos,
		inputs:         inputs,
		output:         output,
		store:          setstore.New(tracker, int(cfg.MaxStringPoolSlab)),
		tracker:        tracker,
		cfg:            cfg,
		secondInputIdx: 1,
	}, nil
}

func (p *Processor) isFinalPair() bool { return p.secondInputIdx == len(p.inputs)-1 }

func (p *Processor) closeAllInputs() {
	for _, in := range p.inputs {
		in.Close()
	}
	p.closed = true
}

// Prepare implements the Port State Machine, spec.md §4.1.
func (p *Processor) Prepare() Status {
	if p.closed {
		return Finished
	}

	if p.output.IsFinished() {
		p.closeAllInputs()
		return Finished
	}

	if !p.output.CanPush() {
		for _, in := range p.inputs {
			in.SetNotNeeded()
		}
		return PortFull
	}

	// Flush any chunk the final pair has already produced. This is a
	// side effect of this tick, not a terminal status: the rest of the
	// state machine still runs below to figure out what to do next.
	if len(p.pendingPush) > 0 {
		p.output.Push(p.pendingPush[0])
		p.pendingPush = p.pendingPush[1:]
	}

	var leftExhausted bool
	if !p.useAccumulatedInput {
		leftExhausted = p.inputs[0].IsFinished()
	} else {
		leftExhausted = len(p.leftQueue) == 0
	}

	if p.finishedSecondInput && leftExhausted {
		p.secondInputIdx++
		p.stats.PairsCompleted++

		if p.secondInputIdx >= len(p.inputs) {
			if len(p.pendingPush) > 0 {
				p.output.Push(p.pendingPush[0])
				p.pendingPush = nil
			}
			p.output.Finish()
			p.closeAllInputs()
			log.Info("setop: finished", zap.Int64("pairsCompleted", p.stats.PairsCompleted),
				zap.Int64("rowsAccumulated", p.stats.RowsAccumulated),
				zap.Int64("rowsFiltered", p.stats.RowsFiltered),
				zap.Int64("rowsEmitted", p.stats.RowsEmitted))
			return Finished
		}

		if p.currentOperatorPos >= len(p.operators)-1 {
			panic(errors.Errorf("setop: current_operator_pos overrun: %d >= %d", p.currentOperatorPos, len(p.operators)))
		}
		p.currentOperatorPos++
		p.useAccumulatedInput = true
		p.store.Reset()
		p.finishedSecondInput = false
		p.leftQueue = p.nextLeftQueue
		p.nextLeftQueue = nil
	} else if !p.finishedSecondInput && p.inputs[p.secondInputIdx].IsFinished() {
		p.finishedSecondInput = true
	}

	if !p.hasInput {
		switch {
		case p.finishedSecondInput && p.useAccumulatedInput:
			if len(p.leftQueue) == 0 {
				return NeedData
			}
			p.currentInputChunk = p.leftQueue[0]
			p.leftQueue = p.leftQueue[1:]
			p.hasInput = true
		case p.finishedSecondInput:
			in := p.inputs[0]
			in.SetNeeded()
			if !in.HasData() {
				return NeedData
			}
			p.currentInputChunk = in.Pull()
			p.hasInput = true
		default:
			in := p.inputs[p.secondInputIdx]
			in.SetNeeded()
			if !in.HasData() {
				return NeedData
			}
			p.currentInputChunk = in.Pull()
			p.hasInput = true
		}
	}

	return Ready
}

// Work implements spec.md §4.2: route the staged chunk to the
// Accumulator or the Filter Engine depending on which phase of the
// current pair we're in.
func (p *Processor) Work() (err error) {
	defer recoverAsInvariantError(p.operators[p.currentOperatorPos], &err)

	c := p.currentInputChunk
	p.currentInputChunk = nil
	p.hasInput = false

	if !p.finishedSecondInput {
		return p.accumulate(c)
	}

	out, ferr := p.filterChunk(c)
	if ferr != nil {
		return ferr
	}
	if p.isFinalPair() {
		p.pendingPush = append(p.pendingPush, out)
	} else {
		p.nextLeftQueue = append(p.nextLeftQueue, out)
	}
	return nil
}
