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

package courtapi

import "time"

// DocumentType is the judicial form of a document.
type DocumentType string

const (
	TypeDecision        DocumentType = "decision"
	TypeRuling          DocumentType = "ruling"
	TypeOrder           DocumentType = "order"
	TypeVerdict         DocumentType = "verdict"
	TypeSeparateOpinion DocumentType = "separate_opinion"
	TypeUnknown         DocumentType = "unknown"
)

// Instance is the judicial tier that produced a document.
type Instance string

const (
	InstanceFirst        Instance = "first_instance"
	InstanceAppeal       Instance = "appeal"
	InstanceCassation    Instance = "cassation"
	InstanceGrandChamber Instance = "grand_chamber"
	InstanceUnknown      Instance = "unknown"
)

// CaseDocument is one court document materialized from a search
// response. DocID is the external source's identity and the
// deduplication key; CaseNumber is not unique, it groups documents
// into a chain.
type CaseDocument struct {
	DocID      int64        `json:"doc_id"`
	CaseNumber string       `json:"case_number"`
	Type       DocumentType `json:"document_type,omitempty"`
	Instance   Instance     `json:"instance,omitempty"`
	Chamber    string       `json:"chamber,omitempty"`
	Court      string       `json:"court,omitempty"`
	Judge      string       `json:"judge,omitempty"`
	Form       string       `json:"form,omitempty"`
	Date       time.Time    `json:"adjudication_date"`
	URL        string       `json:"url,omitempty"`
	Snippet    string       `json:"snippet,omitempty"`
	FullText   string       `json:"full_text,omitempty"`
}

// SearchRequest is one page request against the search endpoint.
// The endpoint does not reliably honor date filters server-side, so
// callers filter by date locally after each page.
type SearchRequest struct {
	Query  string `json:"query"`
	Offset int    `json:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty"`

	// TitleOnly restricts matching to the title index.
	TitleOnly bool `json:"title_only,omitempty"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Items []CaseDocument `json:"items"`
	Total int            `json:"total,omitempty"`
}
