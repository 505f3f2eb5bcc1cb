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
	"strings"
	"time"

	"github.com/athenalaw/lexgate/pkg/courtapi"
)

// CountParams configures one count-by-party scan.
type CountParams struct {
	// Party is the party name to count cases for.
	Party string

	// DateFrom/DateTo filter locally, like the ingestion pipeline.
	// Supplying either activates the tighter page ceiling.
	DateFrom time.Time
	DateTo   time.Time

	// Limit caps the count. The configured hard ceiling applies on top
	// of it regardless of what the caller asks for.
	Limit int

	// SampleSize returns up to that many matching case numbers
	// alongside the count. Zero disables the sample.
	SampleSize int
}

// CountResult is the scalar answer plus crawl accounting.
type CountResult struct {
	Party         string   `json:"party"`
	Count         int      `json:"count"`
	PagesFetched  int      `json:"pages_fetched"`
	EstimatedCost float64  `json:"estimated_cost"`
	Warning       string   `json:"warning,omitempty"`
	SampleCases   []string `json:"sample_cases,omitempty"`
}

// CountByParty scans search results for a party name and counts
// distinct cases. The crawl shape matches Run, tuned for a scalar
// answer: the hard document ceiling holds regardless of the caller's
// limit, and an active date filter adds a tighter page ceiling because
// date filtering is local and each page wastes proportionally more of
// the scan.
func (p *Pipeline) CountByParty(ctx context.Context, params CountParams) (*CountResult, error) {
	party := strings.TrimSpace(params.Party)
	if party == "" {
		return nil, fmt.Errorf("party is required")
	}

	limit := params.Limit
	if limit <= 0 || limit > p.cfg.CountHardCeiling {
		limit = p.cfg.CountHardCeiling
	}

	dateFiltered := !params.DateFrom.IsZero() || !params.DateTo.IsZero()
	maxPages := p.cfg.CountHardCeiling/p.client.PageSize() + 1
	if dateFiltered {
		maxPages = p.cfg.CountDatePagesCeiling
	}

	run := &ingestionRun{
		id:       p.newID(),
		query:    party,
		dateFrom: params.DateFrom,
		dateTo:   params.DateTo,
		maxDocs:  limit,
		maxPages: maxPages,
		seenIDs:  make(map[int64]struct{}),
	}
	pageSize := p.client.PageSize()
	seenCases := make(map[string]struct{})
	var sample []string
	var warning string

	for {
		if err := ctx.Err(); err != nil {
			return p.countResult(run, party, seenCases, sample, warning), err
		}
		if run.pagesFetched >= run.maxPages {
			if dateFiltered {
				warning = fmt.Sprintf(
					"stopped after %d pages: date filtering is applied locally, so deep scans with a date filter are capped; the count may be incomplete",
					run.maxPages)
			} else if warning == "" {
				warning = fmt.Sprintf("page ceiling of %d reached; the count may be incomplete", run.maxPages)
			}
			break
		}

		page, err := p.client.Search(ctx, courtapi.SearchRequest{
			Query:  run.query,
			Offset: run.pagesFetched * pageSize,
			Limit:  pageSize,
		})
		if err != nil {
			return p.countResult(run, party, seenCases, sample, warning),
				fmt.Errorf("page %d fetch failed: %w", run.pagesFetched+1, err)
		}
		run.pagesFetched++

		if len(page.Items) == 0 {
			break
		}

		for _, doc := range page.Items {
			if len(run.seenIDs) >= run.maxDocs {
				break
			}
			if !p.countInWindow(run, doc.Date, dateFiltered) {
				continue
			}
			if _, seen := run.seenIDs[doc.DocID]; seen {
				continue
			}
			run.seenIDs[doc.DocID] = struct{}{}

			if doc.CaseNumber != "" {
				if _, seen := seenCases[doc.CaseNumber]; !seen {
					seenCases[doc.CaseNumber] = struct{}{}
					if params.SampleSize > 0 && len(sample) < params.SampleSize {
						sample = append(sample, doc.CaseNumber)
					}
				}
			}
		}

		if len(run.seenIDs) >= run.maxDocs {
			warning = fmt.Sprintf("document ceiling of %d reached; the count may be incomplete", run.maxDocs)
			break
		}
	}

	return p.countResult(run, party, seenCases, sample, warning), nil
}

func (p *Pipeline) countInWindow(run *ingestionRun, date time.Time, dateFiltered bool) bool {
	if !dateFiltered {
		return true
	}
	if !run.dateFrom.IsZero() && date.Before(run.dateFrom) {
		return false
	}
	if !run.dateTo.IsZero() && date.After(run.dateTo) {
		return false
	}
	return true
}

func (p *Pipeline) countResult(run *ingestionRun, party string, seenCases map[string]struct{}, sample []string, warning string) *CountResult {
	return &CountResult{
		Party:         party,
		Count:         len(seenCases),
		PagesFetched:  run.pagesFetched,
		EstimatedCost: float64(run.pagesFetched) * p.cfg.CostPerPage,
		Warning:       warning,
		SampleCases:   sample,
	}
}
