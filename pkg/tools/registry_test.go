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
	"fmt"
	"testing"

	"github.com/athenalaw/lexgate/pkg/config"
)

type fakeHandler struct {
	caps    []CapabilityDescriptor
	execute func(ctx context.Context, operation string, args map[string]any) (*Result, error)
}

func (h *fakeHandler) Capabilities() []CapabilityDescriptor {
	return h.caps
}

func (h *fakeHandler) Execute(ctx context.Context, operation string, args map[string]any) (*Result, error) {
	if h.execute != nil {
		return h.execute(ctx, operation, args)
	}
	return TextResult("ok: " + operation), nil
}

type fakeStreamingHandler struct {
	fakeHandler
	events []StreamEvent
	final  *Result
	err    error
}

func (h *fakeStreamingHandler) ExecuteStream(ctx context.Context, operation string, args map[string]any, events chan<- StreamEvent) (*Result, error) {
	for _, ev := range h.events {
		select {
		case events <- ev:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return h.final, h.err
}

func newHandler(names ...string) *fakeHandler {
	h := &fakeHandler{}
	for _, name := range names {
		h.caps = append(h.caps, CapabilityDescriptor{Name: name, Description: name})
	}
	return h
}

func TestRegistry_RegisterHandler(t *testing.T) {
	reg := NewRegistry(nil)

	if err := reg.RegisterHandler(newHandler("court_search")); err != nil {
		t.Fatalf("RegisterHandler() error = %v", err)
	}

	route, exists := reg.Resolve("court_search")
	if !exists {
		t.Fatal("expected a route for court_search")
	}
	if !route.Local {
		t.Error("expected a local route")
	}
	if route.Provider != LocalProvider {
		t.Errorf("Provider = %q, want %q", route.Provider, LocalProvider)
	}
}

func TestRegistry_RegisterHandler_Duplicate(t *testing.T) {
	reg := NewRegistry(nil)

	if err := reg.RegisterHandler(newHandler("court_search")); err != nil {
		t.Fatalf("first RegisterHandler() error = %v", err)
	}
	if err := reg.RegisterHandler(newHandler("court_search")); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegistry_RegisterHandler_NoCapabilities(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.RegisterHandler(&fakeHandler{}); err == nil {
		t.Fatal("expected registration of an empty handler to fail")
	}
}

func TestRegistry_MustRegisterHandler_PanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry(nil)
	reg.MustRegisterHandler(newHandler("court_search"))

	defer func() {
		if recover() == nil {
			t.Fatal("expected MustRegisterHandler to panic on duplicate")
		}
	}()
	reg.MustRegisterHandler(newHandler("court_search"))
}

func TestRegistry_RegisterRemoteRoute(t *testing.T) {
	reg := NewRegistry(nil)

	if err := reg.RegisterRemoteRoute("openreyestr_search_entities", "openreyestr"); err != nil {
		t.Fatalf("RegisterRemoteRoute() error = %v", err)
	}

	route, exists := reg.Resolve("openreyestr_search_entities")
	if !exists {
		t.Fatal("expected a route")
	}
	if route.Local {
		t.Error("expected a remote route")
	}
	if route.Provider != "openreyestr" {
		t.Errorf("Provider = %q, want openreyestr", route.Provider)
	}
}

func TestRegistry_RegisterRemoteRoute_Conflicts(t *testing.T) {
	reg := NewRegistry(nil)
	reg.MustRegisterHandler(newHandler("court_search"))

	if err := reg.RegisterRemoteRoute("court_search", "rada"); err == nil {
		t.Fatal("expected conflict with local capability to fail")
	}
	if err := reg.RegisterRemoteRoute("anything", LocalProvider); err == nil {
		t.Fatal("expected local provider on a remote route to fail")
	}
}

func TestRegistry_ExecuteTool_Local(t *testing.T) {
	reg := NewRegistry(nil)
	h := newHandler("court_search")
	h.execute = func(ctx context.Context, operation string, args map[string]any) (*Result, error) {
		if operation != "court_search" {
			t.Errorf("operation = %q, want court_search", operation)
		}
		if args["query"] != "позов" {
			t.Errorf("args[query] = %v, want позов", args["query"])
		}
		return TextResult("3 documents"), nil
	}
	reg.MustRegisterHandler(h)

	result, err := reg.ExecuteTool(context.Background(), "court_search", map[string]any{"query": "позов"})
	if err != nil {
		t.Fatalf("ExecuteTool() error = %v", err)
	}
	if got := result.Text(); got != "3 documents" {
		t.Errorf("Text() = %q, want %q", got, "3 documents")
	}
}

func TestRegistry_ExecuteTool_NotFound(t *testing.T) {
	reg := NewRegistry(nil)

	_, err := reg.ExecuteTool(context.Background(), "no_such_tool", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRegistry_ExecuteTool_HandlerError(t *testing.T) {
	reg := NewRegistry(nil)
	h := newHandler("court_search")
	wantErr := fmt.Errorf("upstream unavailable")
	h.execute = func(ctx context.Context, operation string, args map[string]any) (*Result, error) {
		return nil, wantErr
	}
	reg.MustRegisterHandler(h)

	_, err := reg.ExecuteTool(context.Background(), "court_search", nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected handler error to pass through, got %v", err)
	}
}

func TestRegistry_ExecuteTool_RemoteNotConfigured(t *testing.T) {
	remote := NewRemoteClient(map[string]*config.ProviderConfig{
		"openreyestr": {},
	})
	reg := NewRegistry(remote)
	if err := reg.RegisterRemoteRoute("openreyestr_search_entities", "openreyestr"); err != nil {
		t.Fatalf("RegisterRemoteRoute() error = %v", err)
	}

	_, err := reg.ExecuteTool(context.Background(), "openreyestr_search_entities", nil)
	if !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}

func TestRegistry_ExecuteTool_NilRemoteClient(t *testing.T) {
	reg := NewRegistry(nil)
	if err := reg.RegisterRemoteRoute("rada_search_bills", "rada"); err != nil {
		t.Fatalf("RegisterRemoteRoute() error = %v", err)
	}

	_, err := reg.ExecuteTool(context.Background(), "rada_search_bills", nil)
	if !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}

func TestRegistry_SupportsStreaming(t *testing.T) {
	reg := NewRegistry(nil)
	reg.MustRegisterHandler(newHandler("court_search"))

	streaming := &fakeStreamingHandler{}
	streaming.caps = []CapabilityDescriptor{{Name: "bulk_ingest_court_decisions"}}
	streaming.final = TextResult("done")
	reg.MustRegisterHandler(streaming)

	if reg.SupportsStreaming("court_search") {
		t.Error("plain handler should not report streaming")
	}
	if !reg.SupportsStreaming("bulk_ingest_court_decisions") {
		t.Error("streaming handler should report streaming")
	}
	if reg.SupportsStreaming("no_such_tool") {
		t.Error("unknown operation should not report streaming")
	}
}

func TestRegistry_ExecuteToolStream(t *testing.T) {
	reg := NewRegistry(nil)

	streaming := &fakeStreamingHandler{}
	streaming.caps = []CapabilityDescriptor{{Name: "bulk_ingest_court_decisions"}}
	streaming.events = []StreamEvent{
		{Type: "progress", Text: "page 1"},
		{Type: "progress", Text: "page 2"},
	}
	streaming.final = TextResult("ingested 50 documents")
	reg.MustRegisterHandler(streaming)

	var seen []StreamEvent
	result, err := reg.ExecuteToolStream(context.Background(), "bulk_ingest_court_decisions", nil, func(ev StreamEvent) {
		seen = append(seen, ev)
	})
	if err != nil {
		t.Fatalf("ExecuteToolStream() error = %v", err)
	}
	if got := result.Text(); got != "ingested 50 documents" {
		t.Errorf("Text() = %q, want final result text", got)
	}
	if len(seen) != 2 {
		t.Fatalf("got %d events, want 2", len(seen))
	}
	if seen[0].Text != "page 1" || seen[1].Text != "page 2" {
		t.Errorf("events out of order: %+v", seen)
	}
}

func TestRegistry_ExecuteToolStream_Unsupported(t *testing.T) {
	reg := NewRegistry(nil)
	reg.MustRegisterHandler(newHandler("court_search"))
	if err := reg.RegisterRemoteRoute("rada_search_bills", "rada"); err != nil {
		t.Fatalf("RegisterRemoteRoute() error = %v", err)
	}

	_, err := reg.ExecuteToolStream(context.Background(), "court_search", nil, func(StreamEvent) {})
	if !errors.Is(err, ErrStreamingUnsupported) {
		t.Fatalf("expected ErrStreamingUnsupported for plain handler, got %v", err)
	}

	_, err = reg.ExecuteToolStream(context.Background(), "rada_search_bills", nil, func(StreamEvent) {})
	if !errors.Is(err, ErrStreamingUnsupported) {
		t.Fatalf("expected ErrStreamingUnsupported for remote route, got %v", err)
	}

	_, err = reg.ExecuteToolStream(context.Background(), "no_such_tool", nil, func(StreamEvent) {})
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRegistry_Routes_Sorted(t *testing.T) {
	reg := NewRegistry(nil)
	reg.MustRegisterHandler(newHandler("court_search", "case_documents_chain"))
	if err := reg.RegisterRemoteRoute("rada_search_bills", "rada"); err != nil {
		t.Fatalf("RegisterRemoteRoute() error = %v", err)
	}

	routes := reg.Routes()
	if len(routes) != 3 {
		t.Fatalf("got %d routes, want 3", len(routes))
	}
	for i := 1; i < len(routes); i++ {
		if routes[i-1].Operation > routes[i].Operation {
			t.Errorf("routes not sorted: %q before %q", routes[i-1].Operation, routes[i].Operation)
		}
	}
}

func TestRegistry_AllCapabilities_LocalOnly(t *testing.T) {
	reg := NewRegistry(NewRemoteClient(nil))
	reg.MustRegisterHandler(newHandler("court_search"))
	reg.MustRegisterHandler(newHandler("case_documents_chain"))

	caps := reg.AllCapabilities(context.Background())
	if len(caps) != 2 {
		t.Fatalf("got %d capabilities, want 2", len(caps))
	}
	if caps[0].Name != "case_documents_chain" || caps[1].Name != "court_search" {
		t.Errorf("capabilities not sorted by name: %+v", caps)
	}
}
