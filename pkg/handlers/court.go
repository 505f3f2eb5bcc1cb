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

package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/athenalaw/lexgate/pkg/courtapi"
	"github.com/athenalaw/lexgate/pkg/ingest"
	"github.com/athenalaw/lexgate/pkg/tools"
)

const (
	opCourtSearch  = "court_search"
	opBulkIngest   = "bulk_ingest_court_decisions"
	opCountByParty = "count_court_cases_by_party"
)

// CourtHandler serves court-decision retrieval: one-shot search, bulk
// ingestion and party case counting. Bulk ingestion streams one
// progress event per fetched page.
type CourtHandler struct {
	client   *courtapi.Client
	pipeline *ingest.Pipeline
}

func NewCourtHandler(client *courtapi.Client, pipeline *ingest.Pipeline) *CourtHandler {
	return &CourtHandler{client: client, pipeline: pipeline}
}

func (h *CourtHandler) Capabilities() []tools.CapabilityDescriptor {
	return []tools.CapabilityDescriptor{
		{
			Name:        opCourtSearch,
			Description: "Search court decisions by free text and return the first page of matches",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Free-text search query"},
					"limit": map[string]any{"type": "integer", "description": "Maximum results to return"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        opBulkIngest,
			Description: "Crawl the court registry for a query and persist all unique matching decisions",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":              map[string]any{"type": "string", "description": "Free-text search query"},
					"date_from":          map[string]any{"type": "string", "description": "Lower date bound (YYYY-MM-DD), default 3 years back"},
					"date_to":            map[string]any{"type": "string", "description": "Upper date bound (YYYY-MM-DD)"},
					"max_docs":           map[string]any{"type": "integer", "description": "Unique-document ceiling"},
					"max_pages":          map[string]any{"type": "integer", "description": "Page ceiling"},
					"supreme_court_only": map[string]any{"type": "boolean", "description": "Bias results toward the supreme court tier"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        opCountByParty,
			Description: "Count distinct court cases naming a party",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"party":       map[string]any{"type": "string", "description": "Party name"},
					"date_from":   map[string]any{"type": "string", "description": "Lower date bound (YYYY-MM-DD)"},
					"date_to":     map[string]any{"type": "string", "description": "Upper date bound (YYYY-MM-DD)"},
					"limit":       map[string]any{"type": "integer", "description": "Count ceiling, capped by the configured hard limit"},
					"sample_size": map[string]any{"type": "integer", "description": "Return up to this many matching case numbers"},
				},
				"required": []string{"party"},
			},
		},
	}
}

func (h *CourtHandler) Execute(ctx context.Context, operation string, args map[string]any) (*tools.Result, error) {
	switch operation {
	case opCourtSearch:
		return h.search(ctx, args)
	case opBulkIngest:
		return h.bulkIngest(ctx, args, nil)
	case opCountByParty:
		return h.countByParty(ctx, args)
	default:
		return nil, fmt.Errorf("%w: %s", tools.ErrToolNotFound, operation)
	}
}

func (h *CourtHandler) ExecuteStream(ctx context.Context, operation string, args map[string]any, events chan<- tools.StreamEvent) (*tools.Result, error) {
	if operation != opBulkIngest {
		return h.Execute(ctx, operation, args)
	}
	return h.bulkIngest(ctx, args, events)
}

func (h *CourtHandler) search(ctx context.Context, args map[string]any) (*tools.Result, error) {
	query := strings.TrimSpace(stringArg(args, "query"))
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	limit := intArg(args, "limit")
	if limit <= 0 || limit > h.client.PageSize() {
		limit = 20
	}

	page, err := h.client.Search(ctx, courtapi.SearchRequest{Query: query, Limit: limit})
	if err != nil {
		return nil, err
	}

	return tools.JSONResult(map[string]any{
		"query": query,
		"total": page.Total,
		"items": page.Items,
	})
}

func (h *CourtHandler) bulkIngest(ctx context.Context, args map[string]any, events chan<- tools.StreamEvent) (*tools.Result, error) {
	params, err := ingestParams(args)
	if err != nil {
		return nil, err
	}

	var onProgress ingest.ProgressFunc
	if events != nil {
		onProgress = func(p ingest.Progress) {
			select {
			case events <- tools.StreamEvent{
				Type: "progress",
				Text: fmt.Sprintf("page %d: %d results, %d unique so far", p.Page, p.PageItems, p.UniqueCount),
				Data: map[string]any{
					"page":         p.Page,
					"page_items":   p.PageItems,
					"unique_count": p.UniqueCount,
				},
			}:
			case <-ctx.Done():
			}
		}
	}

	summary, err := h.pipeline.Run(ctx, params, onProgress)
	if err != nil {
		return nil, err
	}
	return tools.JSONResult(summary)
}

func (h *CourtHandler) countByParty(ctx context.Context, args map[string]any) (*tools.Result, error) {
	party := strings.TrimSpace(stringArg(args, "party"))
	if party == "" {
		return nil, fmt.Errorf("party is required")
	}

	dateFrom, err := dateArg(args, "date_from")
	if err != nil {
		return nil, err
	}
	dateTo, err := dateArg(args, "date_to")
	if err != nil {
		return nil, err
	}

	result, err := h.pipeline.CountByParty(ctx, ingest.CountParams{
		Party:      party,
		DateFrom:   dateFrom,
		DateTo:     dateTo,
		Limit:      intArg(args, "limit"),
		SampleSize: intArg(args, "sample_size"),
	})
	if err != nil {
		return nil, err
	}
	return tools.JSONResult(result)
}

func ingestParams(args map[string]any) (ingest.Params, error) {
	query := strings.TrimSpace(stringArg(args, "query"))
	if query == "" {
		return ingest.Params{}, fmt.Errorf("query is required")
	}

	dateFrom, err := dateArg(args, "date_from")
	if err != nil {
		return ingest.Params{}, err
	}
	dateTo, err := dateArg(args, "date_to")
	if err != nil {
		return ingest.Params{}, err
	}

	return ingest.Params{
		Query:            query,
		DateFrom:         dateFrom,
		DateTo:           dateTo,
		MaxDocs:          intArg(args, "max_docs"),
		MaxPages:         intArg(args, "max_pages"),
		SupremeCourtOnly: boolArg(args, "supreme_court_only"),
	}, nil
}
