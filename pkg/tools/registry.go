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
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/athenalaw/lexgate/pkg/observability"
	"github.com/athenalaw/lexgate/pkg/registry"
)

// HandlerEntry binds one operation name to the handler that serves it.
type HandlerEntry struct {
	Handler   Handler
	Operation string
}

// Registry is the single entry point for executing any named
// operation, hiding whether it runs in-process or on a remote
// provider. Routes are created at startup and immutable afterwards;
// lookups are read-only and safely shared across requests.
type Registry struct {
	entries *registry.BaseRegistry[HandlerEntry]
	routes  *registry.BaseRegistry[Route]
	remote  *RemoteClient
	catalog *remoteCatalog

	mu       sync.RWMutex
	handlers []Handler
}

func NewRegistry(remote *RemoteClient) *Registry {
	return &Registry{
		entries: registry.NewBaseRegistry[HandlerEntry](),
		routes:  registry.NewBaseRegistry[Route](),
		remote:  remote,
		catalog: newRemoteCatalog(remote),
	}
}

// RegisterHandler records every capability the handler declares and
// derives a local route for each. Two handlers claiming the same name
// is a configuration bug surfaced as an error, never last-writer-wins.
func (r *Registry) RegisterHandler(h Handler) error {
	caps := h.Capabilities()
	if len(caps) == 0 {
		return fmt.Errorf("handler declares no capabilities")
	}

	for _, cap := range caps {
		if cap.Name == "" {
			return fmt.Errorf("handler declares a capability with an empty name")
		}
		if _, exists := r.entries.Get(cap.Name); exists {
			return fmt.Errorf("capability %q is already registered", cap.Name)
		}
		if _, exists := r.routes.Get(cap.Name); exists {
			return fmt.Errorf("capability %q conflicts with an existing route", cap.Name)
		}
	}

	for _, cap := range caps {
		if err := r.entries.Register(cap.Name, HandlerEntry{Handler: h, Operation: cap.Name}); err != nil {
			return err
		}
		if err := r.routes.Register(cap.Name, Route{Operation: cap.Name, Provider: LocalProvider, Local: true}); err != nil {
			return err
		}
	}

	r.mu.Lock()
	r.handlers = append(r.handlers, h)
	r.mu.Unlock()

	return nil
}

// MustRegisterHandler is RegisterHandler for startup wiring: a
// duplicate capability name is a programming error and panics.
func (r *Registry) MustRegisterHandler(h Handler) {
	if err := r.RegisterHandler(h); err != nil {
		panic(fmt.Sprintf("tool registration failed: %v", err))
	}
}

// RegisterRemoteRoute declares a static route to a remote provider.
// Declared at startup, immutable afterwards.
func (r *Registry) RegisterRemoteRoute(operation, provider string) error {
	if provider == LocalProvider {
		return fmt.Errorf("remote route %q cannot use the local provider", operation)
	}
	if _, exists := r.entries.Get(operation); exists {
		return fmt.Errorf("route %q conflicts with a local capability", operation)
	}
	return r.routes.Register(operation, Route{Operation: operation, Provider: provider, Local: false})
}

// Resolve returns the route for an operation name.
func (r *Registry) Resolve(name string) (Route, bool) {
	return r.routes.Get(name)
}

// Routes returns every route, sorted by operation name.
func (r *Registry) Routes() []Route {
	routes := r.routes.List()
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].Operation < routes[j].Operation
	})
	return routes
}

// SupportsStreaming reports whether the named operation resolves to a
// local handler with incremental emission. Pure query, no side
// effects.
func (r *Registry) SupportsStreaming(name string) bool {
	entry, exists := r.entries.Get(name)
	if !exists {
		return false
	}
	_, ok := entry.Handler.(StreamingHandler)
	return ok
}

// ExecuteTool resolves and executes one named operation. Unknown names
// return ErrToolNotFound; callers must treat that as a normal outcome.
func (r *Registry) ExecuteTool(ctx context.Context, name string, args map[string]any) (*Result, error) {
	startTime := time.Now()

	tracer := observability.GetTracer("lexgate.tools")
	ctx, span := tracer.Start(ctx, observability.SpanToolExecution,
		trace.WithAttributes(
			attribute.String(observability.AttrToolName, name),
		),
	)
	defer span.End()

	result, err := r.execute(ctx, name, args, span)

	duration := time.Since(startTime)
	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordToolExecution(ctx, name, duration, err)
	}
	span.SetAttributes(
		attribute.Bool("tool.success", err == nil),
		attribute.Int64("tool.duration_ms", duration.Milliseconds()),
	)

	return result, err
}

func (r *Registry) execute(ctx context.Context, name string, args map[string]any, span trace.Span) (*Result, error) {
	// Local handlers win; a static remote route is the fallback.
	if entry, exists := r.entries.Get(name); exists {
		result, err := entry.Handler.Execute(ctx, name, args)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return result, err
		}
		span.SetStatus(codes.Ok, "success")
		return result, nil
	}

	route, exists := r.routes.Get(name)
	if !exists || route.Local {
		span.SetStatus(codes.Error, "tool not found")
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	span.SetAttributes(attribute.String(observability.AttrProvider, route.Provider))

	if r.remote == nil {
		err := fmt.Errorf("%w: %s (no remote client)", ErrProviderNotConfigured, route.Provider)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result, err := r.remote.Call(ctx, route.Provider, StripPrefix(route.Provider, name), args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "success")
	return result, nil
}

// ExecuteToolStream is ExecuteTool with incremental emission. It only
// succeeds when the resolved local handler supports streaming; remote
// routes never stream.
func (r *Registry) ExecuteToolStream(ctx context.Context, name string, args map[string]any, onEvent func(StreamEvent)) (*Result, error) {
	entry, exists := r.entries.Get(name)
	if !exists {
		if _, routed := r.routes.Get(name); routed {
			return nil, fmt.Errorf("%w: %s resolves to a remote provider", ErrStreamingUnsupported, name)
		}
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	streaming, ok := entry.Handler.(StreamingHandler)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStreamingUnsupported, name)
	}

	startTime := time.Now()
	orchestrator := NewStreamOrchestrator(16)
	result, err := orchestrator.Execute(ctx, streaming, name, args, func(ev StreamEvent) error {
		onEvent(ev)
		return nil
	})

	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordToolExecution(ctx, name, time.Since(startTime), err)
	}
	return result, err
}

// AllCapabilities aggregates local descriptors, recomputed from live
// handlers, with the memoized remote catalog. Remote catalog failures
// degrade to zero contributions, never an error.
func (r *Registry) AllCapabilities(ctx context.Context) []CapabilityDescriptor {
	r.mu.RLock()
	handlers := make([]Handler, len(r.handlers))
	copy(handlers, r.handlers)
	r.mu.RUnlock()

	var all []CapabilityDescriptor
	for _, h := range handlers {
		all = append(all, h.Capabilities()...)
	}

	all = append(all, r.catalog.Get(ctx)...)

	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})
	return all
}
