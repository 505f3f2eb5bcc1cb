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

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/athenalaw/lexgate/pkg/config"
	"github.com/athenalaw/lexgate/pkg/courtapi"
	"github.com/athenalaw/lexgate/pkg/observability"
)

// SearchClient is the paginated search surface the pipeline crawls.
type SearchClient interface {
	Search(ctx context.Context, req courtapi.SearchRequest) (*courtapi.SearchPage, error)
	PageSize() int
}

// Store receives deduplicated pages. Upserts must be idempotent on the
// document id; the pipeline may hand over the same document again on a
// later run.
type Store interface {
	UpsertDocuments(ctx context.Context, docs []courtapi.CaseDocument) error
}

// supremeCourtHints biases the crawl toward the top judicial tier when
// the caller opts in.
var supremeCourtHints = []string{"верховний суд", "велика палата"}

// Params configures one ingestion run. Zero values fall back to the
// configured defaults.
type Params struct {
	Query string

	// DateFrom defaults to now minus the configured lookback. DateTo
	// is open-ended when zero.
	DateFrom time.Time
	DateTo   time.Time

	MaxDocs  int
	MaxPages int

	// SupremeCourtOnly appends hint terms to the query to bias results
	// toward the supreme court tier.
	SupremeCourtOnly bool
}

// Summary is the result of one run. Warning reports partial-result
// conditions; a run that hit a ceiling is a success with a warning,
// never an error.
type Summary struct {
	RunID         string  `json:"run_id"`
	Query         string  `json:"query"`
	PagesFetched  int     `json:"pages_fetched"`
	UniqueCount   int     `json:"unique_count"`
	EstimatedCost float64 `json:"estimated_cost"`
	Warning       string  `json:"warning,omitempty"`
}

// Progress is reported once per fetched page.
type Progress struct {
	Page        int `json:"page"`
	PageItems   int `json:"page_items"`
	UniqueCount int `json:"unique_count"`
}

// ProgressFunc receives per-page progress during a run. May be nil.
type ProgressFunc func(Progress)

// Pipeline crawls the external search API page by page, filters by
// date locally, deduplicates by document id and persists each page.
// Pages are fetched strictly in sequence; the search API is
// offset-based and order-sensitive.
type Pipeline struct {
	client SearchClient
	store  Store
	cfg    config.IngestConfig
	logger *slog.Logger
	newID  func() string
}

func NewPipeline(client SearchClient, store Store, cfg config.IngestConfig) *Pipeline {
	cfg.SetDefaults()
	return &Pipeline{
		client: client,
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
		newID:  newRunID,
	}
}

// Run executes one ingestion run to completion or ceiling. A failed
// page fetch aborts the run and returns the partial summary alongside
// the error; pages already persisted stay persisted.
func (p *Pipeline) Run(ctx context.Context, params Params, onProgress ProgressFunc) (*Summary, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	tracer := observability.GetTracer("lexgate.ingest")
	ctx, span := tracer.Start(ctx, observability.SpanIngestRun,
		trace.WithAttributes(attribute.String("ingest.query", params.Query)),
	)
	defer span.End()

	run := p.newRun(params)

	p.logger.Info("Starting ingestion run",
		"run_id", run.id,
		"query", run.query,
		"date_from", run.dateFrom.Format("2006-01-02"),
		"max_docs", run.maxDocs,
		"max_pages", run.maxPages)

	summary, err := p.crawl(ctx, run, onProgress)

	if metrics := observability.GetGlobalMetrics(); metrics != nil {
		metrics.RecordIngestRun(ctx, summary.PagesFetched, summary.UniqueCount, err)
	}
	span.SetAttributes(
		attribute.Int("ingest.pages_fetched", summary.PagesFetched),
		attribute.Int("ingest.unique_count", summary.UniqueCount),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error("Ingestion run aborted",
			"run_id", run.id,
			"pages_fetched", summary.PagesFetched,
			"unique_count", summary.UniqueCount,
			"error", err)
		return summary, err
	}

	span.SetStatus(codes.Ok, "success")
	p.logger.Info("Ingestion run finished",
		"run_id", run.id,
		"pages_fetched", summary.PagesFetched,
		"unique_count", summary.UniqueCount,
		"estimated_cost", summary.EstimatedCost,
		"warning", summary.Warning)
	return summary, nil
}

func newRunID() string {
	return uuid.NewString()
}

// ingestionRun is the per-run mutable state, discarded when the run
// returns.
type ingestionRun struct {
	id       string
	query    string
	dateFrom time.Time
	dateTo   time.Time
	maxDocs  int
	maxPages int

	pagesFetched int
	seenIDs      map[int64]struct{}
}

func (p *Pipeline) newRun(params Params) *ingestionRun {
	query := strings.TrimSpace(params.Query)
	if params.SupremeCourtOnly {
		query = query + " " + strings.Join(supremeCourtHints, " ")
	}

	dateFrom := params.DateFrom
	if dateFrom.IsZero() {
		dateFrom = time.Now().Add(-p.cfg.DefaultLookback)
	}

	maxDocs := params.MaxDocs
	if maxDocs <= 0 {
		maxDocs = p.cfg.MaxDocs
	}
	maxPages := params.MaxPages
	if maxPages <= 0 {
		maxPages = p.cfg.MaxPages
	}

	return &ingestionRun{
		id:       p.newID(),
		query:    query,
		dateFrom: dateFrom,
		dateTo:   params.DateTo,
		maxDocs:  maxDocs,
		maxPages: maxPages,
		seenIDs:  make(map[int64]struct{}),
	}
}

func (p *Pipeline) crawl(ctx context.Context, run *ingestionRun, onProgress ProgressFunc) (*Summary, error) {
	pageSize := p.client.PageSize()

	var warning string
	for {
		if err := ctx.Err(); err != nil {
			return p.summary(run, warning), err
		}
		if run.pagesFetched >= run.maxPages {
			if warning == "" {
				warning = fmt.Sprintf("page ceiling of %d reached; results may be incomplete", run.maxPages)
			}
			break
		}

		page, err := p.client.Search(ctx, courtapi.SearchRequest{
			Query:  run.query,
			Offset: run.pagesFetched * pageSize,
			Limit:  pageSize,
		})
		if err != nil {
			return p.summary(run, warning), fmt.Errorf("page %d fetch failed: %w", run.pagesFetched+1, err)
		}
		run.pagesFetched++

		if len(page.Items) == 0 {
			break
		}

		batch := p.filterPage(run, page.Items)
		if len(batch) > 0 {
			if err := p.store.UpsertDocuments(ctx, batch); err != nil {
				return p.summary(run, warning), fmt.Errorf("persisting page %d failed: %w", run.pagesFetched, err)
			}
		}

		p.logger.Debug("Fetched page",
			"run_id", run.id,
			"page", run.pagesFetched,
			"page_items", len(page.Items),
			"kept", len(batch),
			"unique_count", len(run.seenIDs))

		if onProgress != nil {
			onProgress(Progress{
				Page:        run.pagesFetched,
				PageItems:   len(page.Items),
				UniqueCount: len(run.seenIDs),
			})
		}

		if len(run.seenIDs) >= run.maxDocs {
			warning = fmt.Sprintf("document ceiling of %d reached; results may be incomplete", run.maxDocs)
			break
		}
	}

	return p.summary(run, warning), nil
}

// filterPage applies the date window locally, skips already-seen ids
// and caps the batch at the run's document ceiling.
func (p *Pipeline) filterPage(run *ingestionRun, items []courtapi.CaseDocument) []courtapi.CaseDocument {
	var batch []courtapi.CaseDocument
	for _, doc := range items {
		if len(run.seenIDs) >= run.maxDocs {
			break
		}
		if !p.inWindow(run, doc.Date) {
			continue
		}
		if _, seen := run.seenIDs[doc.DocID]; seen {
			continue
		}
		run.seenIDs[doc.DocID] = struct{}{}
		batch = append(batch, doc)
	}
	return batch
}

func (p *Pipeline) inWindow(run *ingestionRun, date time.Time) bool {
	if date.Before(run.dateFrom) {
		return false
	}
	if !run.dateTo.IsZero() && date.After(run.dateTo) {
		return false
	}
	return true
}

func (p *Pipeline) summary(run *ingestionRun, warning string) *Summary {
	return &Summary{
		RunID:         run.id,
		Query:         run.query,
		PagesFetched:  run.pagesFetched,
		UniqueCount:   len(run.seenIDs),
		EstimatedCost: float64(run.pagesFetched) * p.cfg.CostPerPage,
		Warning:       warning,
	}
}
