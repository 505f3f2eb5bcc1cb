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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/athenalaw/lexgate/pkg/chain"
	"github.com/athenalaw/lexgate/pkg/config"
	"github.com/athenalaw/lexgate/pkg/courtapi"
	"github.com/athenalaw/lexgate/pkg/handlers"
	"github.com/athenalaw/lexgate/pkg/ingest"
	"github.com/athenalaw/lexgate/pkg/observability"
	"github.com/athenalaw/lexgate/pkg/server"
	"github.com/athenalaw/lexgate/pkg/storage"
	"github.com/athenalaw/lexgate/pkg/tools"
)

// staticRemoteRoutes declares the remote operations known at startup,
// keyed by aggregate name. The catalog cache discovers the rest for
// introspection; only these names are executable by route.
var staticRemoteRoutes = map[string]string{
	"rada_search_bills":           config.ProviderRada,
	"rada_bill_details":           config.ProviderRada,
	"rada_deputy_info":            config.ProviderRada,
	"openreyestr_search_entities": config.ProviderOpenReyestr,
	"openreyestr_entity_details":  config.ProviderOpenReyestr,
}

// runtime holds everything a command needs after wiring.
type runtime struct {
	cfg      *config.Config
	registry *tools.Registry
	pool     *config.DBPool
}

func (r *runtime) Close() {
	if r.pool != nil {
		_ = r.pool.Close()
	}
}

// buildRuntime loads configuration and assembles the registry with all
// local handlers and static remote routes.
func buildRuntime(cli *CLI) (*runtime, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}

	metrics, err := observability.InitMetrics(observability.MetricsConfig{Enabled: cfg.Metrics.Enabled})
	if err != nil {
		return nil, err
	}
	observability.SetGlobalMetrics(metrics)

	if _, err := observability.InitGlobalTracer(context.Background(), observability.TracerConfig{
		Enabled:      cfg.Tracing.Enabled,
		Endpoint:     cfg.Tracing.Endpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		ServiceName:  cfg.Tracing.ServiceName,
	}); err != nil {
		return nil, err
	}

	remote := tools.NewRemoteClient(cfg.Providers)
	registry := tools.NewRegistry(remote)

	rt := &runtime{cfg: cfg, registry: registry}

	if cfg.CourtAPI.BaseURL != "" {
		client, err := courtapi.NewClient(cfg.CourtAPI)
		if err != nil {
			return nil, err
		}

		rt.pool = config.NewDBPool()
		store, err := storage.NewSQLDocumentStoreFromConfig(&cfg.Database, rt.pool)
		if err != nil {
			rt.Close()
			return nil, err
		}

		pipeline := ingest.NewPipeline(client, store, cfg.Ingest)
		registry.MustRegisterHandler(handlers.NewCourtHandler(client, pipeline))
		registry.MustRegisterHandler(handlers.NewChainHandler(chain.NewBuilder(client)))
		registry.MustRegisterHandler(handlers.NewSectionsHandler(client))
	} else {
		// Sectioning still works on caller-supplied text.
		slog.Warn("Court API is not configured, court tools are disabled")
		registry.MustRegisterHandler(handlers.NewSectionsHandler(nil))
	}

	for operation, provider := range staticRemoteRoutes {
		if err := registry.RegisterRemoteRoute(operation, provider); err != nil {
			rt.Close()
			return nil, err
		}
	}

	return rt, nil
}

// ServeCmd starts the HTTP gateway.
type ServeCmd struct {
	Host string `help:"Server host address (overrides config)." placeholder:"HOST"`
	Port int    `help:"HTTP server port (overrides config)." placeholder:"PORT"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	rt, err := buildRuntime(cli)
	if err != nil {
		return err
	}
	defer rt.Close()

	if c.Host != "" {
		rt.cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		rt.cfg.Server.Port = c.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(rt.registry, rt.cfg.Server, rt.cfg.Metrics)
	return srv.Start(ctx)
}

// ToolsCmd lists the aggregate capability catalog.
type ToolsCmd struct{}

func (c *ToolsCmd) Run(cli *CLI) error {
	rt, err := buildRuntime(cli)
	if err != nil {
		return err
	}
	defer rt.Close()

	capabilities := rt.registry.AllCapabilities(context.Background())
	for _, cap := range capabilities {
		fmt.Printf("%-40s %s\n", cap.Name, cap.Description)
	}
	fmt.Printf("\n%d tools available\n", len(capabilities))
	return nil
}

// CallCmd executes one tool by name with JSON arguments.
type CallCmd struct {
	Name string `arg:"" help:"Tool name." placeholder:"NAME"`
	Args string `arg:"" optional:"" help:"JSON-encoded arguments." placeholder:"JSON"`
}

func (c *CallCmd) Run(cli *CLI) error {
	rt, err := buildRuntime(cli)
	if err != nil {
		return err
	}
	defer rt.Close()

	args := map[string]any{}
	if c.Args != "" {
		if err := json.Unmarshal([]byte(c.Args), &args); err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}
	}

	result, err := rt.registry.ExecuteTool(context.Background(), c.Name, args)
	if err != nil {
		return err
	}
	fmt.Println(result.Text())
	return nil
}

// IngestCmd runs a bulk ingestion from the command line, streaming
// page progress to stderr.
type IngestCmd struct {
	Query            string `arg:"" help:"Free-text search query." placeholder:"QUERY"`
	DateFrom         string `name:"date-from" help:"Lower date bound (YYYY-MM-DD)."`
	DateTo           string `name:"date-to" help:"Upper date bound (YYYY-MM-DD)."`
	MaxDocs          int    `name:"max-docs" help:"Unique-document ceiling."`
	MaxPages         int    `name:"max-pages" help:"Page ceiling."`
	SupremeCourtOnly bool   `name:"supreme-court-only" help:"Bias results toward the supreme court tier."`
}

func (c *IngestCmd) Run(cli *CLI) error {
	rt, err := buildRuntime(cli)
	if err != nil {
		return err
	}
	defer rt.Close()

	args := map[string]any{
		"query":              c.Query,
		"max_docs":           c.MaxDocs,
		"max_pages":          c.MaxPages,
		"supreme_court_only": c.SupremeCourtOnly,
	}
	if c.DateFrom != "" {
		args["date_from"] = c.DateFrom
	}
	if c.DateTo != "" {
		args["date_to"] = c.DateTo
	}

	result, err := rt.registry.ExecuteToolStream(context.Background(),
		"bulk_ingest_court_decisions", args,
		func(ev tools.StreamEvent) {
			fmt.Fprintln(os.Stderr, ev.Text)
		})
	if err != nil {
		return err
	}
	fmt.Println(result.Text())
	return nil
}

// ChainCmd builds the document chain of one case.
type ChainCmd struct {
	CaseNumber string `arg:"" help:"Case number, e.g. 757/1234/24." placeholder:"CASE"`
	Group      bool   `help:"Group documents by judicial instance."`
}

func (c *ChainCmd) Run(cli *CLI) error {
	rt, err := buildRuntime(cli)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.registry.ExecuteTool(context.Background(), "case_documents_chain", map[string]any{
		"case_number":       c.CaseNumber,
		"group_by_instance": c.Group,
	})
	if err != nil {
		return err
	}
	fmt.Println(result.Text())
	return nil
}
