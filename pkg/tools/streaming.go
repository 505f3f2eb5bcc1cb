// Copyright 2026 Athena Law
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

package tools

import "context"

// StreamOrchestrator coordinates a streaming execution: it owns the
// event channel, runs the handler in its own goroutine, and forwards
// events to the caller until the handler returns. Cancellation wins
// over pending events.
type StreamOrchestrator struct {
	bufferSize int
}

func NewStreamOrchestrator(bufferSize int) *StreamOrchestrator {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &StreamOrchestrator{bufferSize: bufferSize}
}

// EventEmitter forwards one event to the consumer. Returning an error
// aborts forwarding; the handler is still waited on via the context.
type EventEmitter func(StreamEvent) error

// Execute runs the handler and forwards every event it emits, in
// order, to the emitter. The handler's final result and error are
// returned once it completes. Events buffered when the handler
// finishes are drained before returning.
func (o *StreamOrchestrator) Execute(
	ctx context.Context,
	handler StreamingHandler,
	operation string,
	args map[string]any,
	emit EventEmitter,
) (*Result, error) {
	events := make(chan StreamEvent, o.bufferSize)

	var (
		finalResult *Result
		execErr     error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(events)
		finalResult, execErr = handler.ExecuteStream(ctx, operation, args, events)
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				<-done
				return finalResult, execErr
			}
			if err := emit(ev); err != nil {
				o.drain(events)
				return nil, err
			}
		case <-ctx.Done():
			o.drain(events)
			return nil, ctx.Err()
		}
	}
}

// drain keeps consuming events so an abandoned handler never blocks on
// a full channel. The handler still owns closing via its goroutine.
func (o *StreamOrchestrator) drain(events <-chan StreamEvent) {
	go func() {
		for range events {
		}
	}()
}
