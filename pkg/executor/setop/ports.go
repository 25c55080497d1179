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

// Package setop implements the streaming INTERSECT/EXCEPT operator: a
// multi-input processor driven by a non-blocking cooperative scheduler
// through the Prepare/Work contract (spec.md §4, §5, §6).
package setop

import "github.com/flowdb/flowdb/pkg/util/chunk"

// InputPort is the scheduler's contract for one input of the operator.
type InputPort interface {
	// IsFinished reports whether upstream has no more chunks to give.
	IsFinished() bool
	// SetNeeded tells the scheduler this port wants to be woken with data.
	SetNeeded()
	// SetNotNeeded tells the scheduler this port can be left alone.
	SetNotNeeded()
	// HasData reports whether a chunk is already buffered and ready to Pull.
	HasData() bool
	// Pull takes ownership of the buffered chunk.
	Pull() *chunk.Chunk
	// Close unconditionally releases the port, letting upstream unwind.
	Close()
}

// OutputPort is the scheduler's contract for the operator's single output.
type OutputPort interface {
	// IsFinished reports whether the downstream consumer has gone away.
	IsFinished() bool
	// CanPush reports whether a chunk can be accepted right now.
	CanPush() bool
	// Push hands a chunk to the downstream consumer.
	Push(*chunk.Chunk)
	// Finish marks the output closed; no further Push calls will occur.
	Finish()
}

// Operator is one binary set operation applied between two inputs.
type Operator uint8

const (
	Intersect Operator = iota
	Except
)

func (o Operator) String() string {
	if o == Except {
		return "EXCEPT"
	}
	return "INTERSECT"
}

// Status is the result of one Prepare() call, the four outcomes
// spec.md §4.1 defines.
type Status uint8

const (
	Finished Status = iota
	PortFull
	NeedData
	Ready
)

func (s Status) String() string {
	switch s {
	case Finished:
		return "Finished"
	case PortFull:
		return "PortFull"
	case NeedData:
		return "NeedData"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}
