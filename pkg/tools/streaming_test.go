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

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStreamOrchestrator_ForwardsEventsInOrder(t *testing.T) {
	handler := &fakeStreamingHandler{
		events: []StreamEvent{
			{Type: "progress", Text: "a"},
			{Type: "progress", Text: "b"},
			{Type: "progress", Text: "c"},
		},
		final: TextResult("done"),
	}

	var seen []string
	orchestrator := NewStreamOrchestrator(2)
	result, err := orchestrator.Execute(context.Background(), handler, "op", nil, func(ev StreamEvent) error {
		seen = append(seen, ev.Text)
		return nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Text() != "done" {
		t.Errorf("Text() = %q, want done", result.Text())
	}
	if len(seen) != 3 || seen[0] != "a" || seen[1] != "b" || seen[2] != "c" {
		t.Errorf("events = %v, want [a b c]", seen)
	}
}

func TestStreamOrchestrator_HandlerError(t *testing.T) {
	wantErr := errors.New("crawl failed")
	handler := &fakeStreamingHandler{
		events: []StreamEvent{{Type: "progress", Text: "page 1"}},
		err:    wantErr,
	}

	orchestrator := NewStreamOrchestrator(1)
	_, err := orchestrator.Execute(context.Background(), handler, "op", nil, func(StreamEvent) error {
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute() error = %v, want %v", err, wantErr)
	}
}

func TestStreamOrchestrator_EmitterErrorAborts(t *testing.T) {
	handler := &fakeStreamingHandler{
		events: []StreamEvent{
			{Type: "progress", Text: "a"},
			{Type: "progress", Text: "b"},
		},
		final: TextResult("done"),
	}

	wantErr := errors.New("consumer gone")
	orchestrator := NewStreamOrchestrator(1)
	_, err := orchestrator.Execute(context.Background(), handler, "op", nil, func(StreamEvent) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute() error = %v, want %v", err, wantErr)
	}
}

func TestStreamOrchestrator_ContextCancellation(t *testing.T) {
	blocking := &blockingStreamHandler{release: make(chan struct{})}
	defer close(blocking.release)

	ctx, cancel := context.WithCancel(context.Background())
	orchestrator := NewStreamOrchestrator(1)

	errCh := make(chan error, 1)
	go func() {
		_, err := orchestrator.Execute(ctx, blocking, "op", nil, func(StreamEvent) error {
			return nil
		})
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Execute() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Execute() did not return after cancellation")
	}
}

type blockingStreamHandler struct {
	release chan struct{}
}

func (h *blockingStreamHandler) Capabilities() []CapabilityDescriptor {
	return []CapabilityDescriptor{{Name: "blocking"}}
}

func (h *blockingStreamHandler) Execute(ctx context.Context, operation string, args map[string]any) (*Result, error) {
	return h.ExecuteStream(ctx, operation, args, make(chan<- StreamEvent, 1))
}

func (h *blockingStreamHandler) ExecuteStream(ctx context.Context, operation string, args map[string]any, events chan<- StreamEvent) (*Result, error) {
	select {
	case <-h.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return TextResult("released"), nil
}
