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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athenalaw/lexgate/pkg/config"
	"github.com/athenalaw/lexgate/pkg/courtapi"
)

type fakeSearchClient struct {
	pageSize int
	pages    [][]courtapi.CaseDocument
	failPage int // 1-based page index that fails, 0 disables
	calls    int
}

func (c *fakeSearchClient) PageSize() int {
	if c.pageSize > 0 {
		return c.pageSize
	}
	return 100
}

func (c *fakeSearchClient) Search(ctx context.Context, req courtapi.SearchRequest) (*courtapi.SearchPage, error) {
	c.calls++
	if c.failPage > 0 && c.calls == c.failPage {
		return nil, fmt.Errorf("upstream returned 500")
	}
	page := c.calls - 1
	if page >= len(c.pages) {
		return &courtapi.SearchPage{}, nil
	}
	return &courtapi.SearchPage{Items: c.pages[page]}, nil
}

type fakeStore struct {
	upserts [][]courtapi.CaseDocument
	failErr error
}

func (s *fakeStore) UpsertDocuments(ctx context.Context, docs []courtapi.CaseDocument) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.upserts = append(s.upserts, docs)
	return nil
}

func (s *fakeStore) allDocs() []courtapi.CaseDocument {
	var all []courtapi.CaseDocument
	for _, batch := range s.upserts {
		all = append(all, batch...)
	}
	return all
}

func doc(id int64, date time.Time) courtapi.CaseDocument {
	return courtapi.CaseDocument{
		DocID:      id,
		CaseNumber: fmt.Sprintf("757/%d/24", id),
		Date:       date,
	}
}

func newTestPipeline(client SearchClient, store Store) *Pipeline {
	p := NewPipeline(client, store, config.IngestConfig{})
	p.newID = func() string { return "test-run" }
	return p
}

func TestPipeline_CapsAtMaxDocs(t *testing.T) {
	// One page of 80 results: 60 inside the date window, and 10 of
	// those carry duplicated ids. maxDocs=50 caps the run at 50 unique
	// documents from that single page.
	inWindow := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	outOfWindow := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	var page []courtapi.CaseDocument
	for i := int64(1); i <= 50; i++ {
		page = append(page, doc(i, inWindow))
	}
	for i := int64(41); i <= 50; i++ { // duplicated ids
		page = append(page, doc(i, inWindow))
	}
	for i := int64(51); i <= 70; i++ { // outside the window
		page = append(page, doc(i, outOfWindow))
	}
	require.Len(t, page, 80)

	client := &fakeSearchClient{pages: [][]courtapi.CaseDocument{page}}
	store := &fakeStore{}
	p := newTestPipeline(client, store)

	summary, err := p.Run(context.Background(), Params{
		Query:    "поставки",
		DateFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxDocs:  50,
		MaxPages: 1,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 50, summary.UniqueCount)
	assert.Equal(t, 1, summary.PagesFetched)
	assert.NotEmpty(t, summary.Warning)

	// No docId is persisted twice.
	seen := make(map[int64]bool)
	for _, d := range store.allDocs() {
		assert.False(t, seen[d.DocID], "doc %d persisted twice", d.DocID)
		seen[d.DocID] = true
	}
	assert.Len(t, seen, 50)
}

func TestPipeline_StopsOnEmptyPage(t *testing.T) {
	when := time.Now()
	client := &fakeSearchClient{pages: [][]courtapi.CaseDocument{
		{doc(1, when), doc(2, when)},
		{}, // crawl exhausted
	}}
	store := &fakeStore{}
	p := newTestPipeline(client, store)

	summary, err := p.Run(context.Background(), Params{Query: "оренда"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.PagesFetched)
	assert.Equal(t, 2, summary.UniqueCount)
	assert.Empty(t, summary.Warning)
}

func TestPipeline_StopsAtMaxPages(t *testing.T) {
	when := time.Now()
	pages := make([][]courtapi.CaseDocument, 10)
	for i := range pages {
		pages[i] = []courtapi.CaseDocument{doc(int64(i+1), when)}
	}
	client := &fakeSearchClient{pages: pages}
	p := newTestPipeline(client, &fakeStore{})

	summary, err := p.Run(context.Background(), Params{Query: "кредит", MaxPages: 3, MaxDocs: 1000}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.PagesFetched)
	assert.Equal(t, 3, summary.UniqueCount)
	assert.NotEmpty(t, summary.Warning)
}

func TestPipeline_DedupAcrossPages(t *testing.T) {
	when := time.Now()
	client := &fakeSearchClient{pages: [][]courtapi.CaseDocument{
		{doc(1, when), doc(2, when)},
		{doc(2, when), doc(3, when)},
	}}
	store := &fakeStore{}
	p := newTestPipeline(client, store)

	summary, err := p.Run(context.Background(), Params{Query: "іпотека"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.UniqueCount)
	assert.Len(t, store.allDocs(), 3)
}

func TestPipeline_EstimatedCost(t *testing.T) {
	when := time.Now()
	client := &fakeSearchClient{pages: [][]courtapi.CaseDocument{
		{doc(1, when)},
		{doc(2, when)},
	}}
	p := NewPipeline(client, &fakeStore{}, config.IngestConfig{CostPerPage: 5.0})
	p.newID = func() string { return "test-run" }

	summary, err := p.Run(context.Background(), Params{Query: "договір"}, nil)
	require.NoError(t, err)

	// Two result pages plus the empty terminator page.
	assert.Equal(t, 3, summary.PagesFetched)
	assert.InDelta(t, 15.0, summary.EstimatedCost, 0.001)
}

func TestPipeline_PageFetchFailureReturnsPartialSummary(t *testing.T) {
	when := time.Now()
	client := &fakeSearchClient{
		pages: [][]courtapi.CaseDocument{
			{doc(1, when), doc(2, when)},
			{doc(3, when)},
		},
		failPage: 2,
	}
	store := &fakeStore{}
	p := newTestPipeline(client, store)

	summary, err := p.Run(context.Background(), Params{Query: "позов"}, nil)
	require.Error(t, err)
	require.NotNil(t, summary)

	// The first page stays persisted; nothing is rolled back.
	assert.Equal(t, 1, summary.PagesFetched)
	assert.Equal(t, 2, summary.UniqueCount)
	assert.Len(t, store.allDocs(), 2)
}

func TestPipeline_StoreFailureAborts(t *testing.T) {
	when := time.Now()
	wantErr := errors.New("disk full")
	client := &fakeSearchClient{pages: [][]courtapi.CaseDocument{{doc(1, when)}}}
	p := newTestPipeline(client, &fakeStore{failErr: wantErr})

	_, err := p.Run(context.Background(), Params{Query: "позов"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestPipeline_ProgressPerPage(t *testing.T) {
	when := time.Now()
	client := &fakeSearchClient{pages: [][]courtapi.CaseDocument{
		{doc(1, when)},
		{doc(2, when)},
	}}
	p := newTestPipeline(client, &fakeStore{})

	var progress []Progress
	_, err := p.Run(context.Background(), Params{Query: "спадщина"}, func(pr Progress) {
		progress = append(progress, pr)
	})
	require.NoError(t, err)

	// One event per non-empty page.
	require.Len(t, progress, 2)
	assert.Equal(t, 1, progress[0].Page)
	assert.Equal(t, 2, progress[1].Page)
	assert.Equal(t, 2, progress[1].UniqueCount)
}

func TestPipeline_CancellationBetweenPages(t *testing.T) {
	when := time.Now()
	pages := make([][]courtapi.CaseDocument, 5)
	for i := range pages {
		pages[i] = []courtapi.CaseDocument{doc(int64(i+1), when)}
	}
	client := &fakeSearchClient{pages: pages}
	p := newTestPipeline(client, &fakeStore{})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := p.Run(ctx, Params{Query: "банкрутство"}, func(Progress) {
		cancel()
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, client.calls)
}

func TestPipeline_SupremeCourtHint(t *testing.T) {
	client := &fakeSearchClient{}
	p := newTestPipeline(client, &fakeStore{})

	summary, err := p.Run(context.Background(), Params{Query: "стягнення", SupremeCourtOnly: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, summary.Query, "верховний суд")
}

func TestPipeline_EmptyQueryRejected(t *testing.T) {
	p := newTestPipeline(&fakeSearchClient{}, &fakeStore{})
	_, err := p.Run(context.Background(), Params{Query: "   "}, nil)
	assert.Error(t, err)
}
