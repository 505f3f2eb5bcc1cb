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

package chain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/athenalaw/lexgate/pkg/courtapi"
)

// earlyExitThreshold stops trying further variants once more than this
// many confirmed matches have accumulated. Further variants rarely add
// documents and each one costs a remote call.
const earlyExitThreshold = 10

// defaultVariantLimit bounds a single title search.
const defaultVariantLimit = 50

// TitleSearcher is the title-indexed search surface the builder crawls.
type TitleSearcher interface {
	SearchByTitle(ctx context.Context, query string, limit int) ([]courtapi.CaseDocument, error)
}

// Params configures one chain build.
type Params struct {
	CaseNumber string

	// GroupByInstance buckets the chain by judicial tier, dropping
	// empty buckets.
	GroupByInstance bool
}

// SearchStrategy traces the heuristic search. The title index is
// lossy, so callers audit what was tried and what was discarded; this
// is part of the response, not incidental logging.
type SearchStrategy struct {
	VariantsTried []string `json:"variants_tried"`
	Matched       int      `json:"matched"`
	Duplicates    int      `json:"duplicates"`
	FilteredOut   int      `json:"filtered_out"`
}

// Summary counts the chain by tier and document type.
type Summary struct {
	Total      int                           `json:"total"`
	ByInstance map[courtapi.Instance]int     `json:"by_instance"`
	ByType     map[courtapi.DocumentType]int `json:"by_type"`
}

// Chain is the full set of judicial documents belonging to one case,
// classified and sorted by date ascending.
type Chain struct {
	CaseNumber     string                                        `json:"case_number"`
	Documents      []courtapi.CaseDocument                       `json:"documents"`
	Groups         map[courtapi.Instance][]courtapi.CaseDocument `json:"groups,omitempty"`
	Summary        Summary                                       `json:"summary"`
	SearchStrategy SearchStrategy                                `json:"search_strategy"`
}

// Builder finds every document of one case across all judicial
// instances via variant title searches.
type Builder struct {
	searcher     TitleSearcher
	variantLimit int
	logger       *slog.Logger
}

func NewBuilder(searcher TitleSearcher) *Builder {
	return &Builder{
		searcher:     searcher,
		variantLimit: defaultVariantLimit,
		logger:       slog.Default(),
	}
}

// Build runs the variant searches in order, keeps exact case-number
// matches only and classifies what survives. Variants are searched
// strictly in sequence.
func (b *Builder) Build(ctx context.Context, params Params) (*Chain, error) {
	caseNumber := strings.TrimSpace(params.CaseNumber)
	if caseNumber == "" {
		return nil, fmt.Errorf("case number is required")
	}

	variants := GenerateVariants(caseNumber)
	variantSet := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		variantSet[normalizeCaseNumber(v)] = struct{}{}
	}

	strategy := SearchStrategy{}
	seen := make(map[int64]struct{})
	var docs []courtapi.CaseDocument

	for _, variant := range variants {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strategy.Matched > earlyExitThreshold {
			break
		}
		strategy.VariantsTried = append(strategy.VariantsTried, variant)

		results, err := b.searcher.SearchByTitle(ctx, variant, b.variantLimit)
		if err != nil {
			return nil, fmt.Errorf("title search for %q failed: %w", variant, err)
		}

		for _, doc := range results {
			if _, dup := seen[doc.DocID]; dup {
				strategy.Duplicates++
				continue
			}
			// A title search over-matches on partial text; only
			// results whose own case number is one of the variants
			// count.
			if _, ok := variantSet[normalizeCaseNumber(doc.CaseNumber)]; !ok {
				strategy.FilteredOut++
				continue
			}
			seen[doc.DocID] = struct{}{}
			strategy.Matched++
			docs = append(docs, doc)
		}

		b.logger.Debug("Chain variant searched",
			"case_number", caseNumber,
			"variant", variant,
			"results", len(results),
			"matched", strategy.Matched,
			"filtered_out", strategy.FilteredOut)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Date.Before(docs[j].Date)
	})

	for i := range docs {
		if docs[i].Type == "" || docs[i].Type == courtapi.TypeUnknown {
			docs[i].Type = ClassifyDocumentType(docs[i].Form, docs[i].Snippet, docs[i].FullText)
		}
		if docs[i].Instance == "" || docs[i].Instance == courtapi.InstanceUnknown {
			docs[i].Instance = ClassifyInstance(docs[i].Chamber, docs[i].Court)
		}
	}

	chain := &Chain{
		CaseNumber:     caseNumber,
		Documents:      docs,
		Summary:        summarize(docs),
		SearchStrategy: strategy,
	}
	if params.GroupByInstance {
		chain.Groups = groupByInstance(docs)
	}
	return chain, nil
}

func summarize(docs []courtapi.CaseDocument) Summary {
	s := Summary{
		Total:      len(docs),
		ByInstance: make(map[courtapi.Instance]int),
		ByType:     make(map[courtapi.DocumentType]int),
	}
	for _, doc := range docs {
		s.ByInstance[doc.Instance]++
		s.ByType[doc.Type]++
	}
	return s
}

// groupByInstance buckets documents by tier, dropping empty buckets.
func groupByInstance(docs []courtapi.CaseDocument) map[courtapi.Instance][]courtapi.CaseDocument {
	groups := make(map[courtapi.Instance][]courtapi.CaseDocument)
	for _, doc := range docs {
		groups[doc.Instance] = append(groups[doc.Instance], doc)
	}
	return groups
}
