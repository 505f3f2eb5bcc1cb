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
	"github.com/athenalaw/lexgate/pkg/tools"
)

const opDocumentSections = "document_sections"

// sectionHeadings is the ordered list of structural headings a
// Ukrainian court decision carries. Order follows the structure of the
// document itself.
var sectionHeadings = []string{
	"вступна частина",
	"описова частина",
	"мотивувальна частина",
	"резолютивна частина",
}

// fallbackSectionTitle names the single section returned when no
// heading is found in the text.
const fallbackSectionTitle = "текст документа"

// Section is one titled slice of a document's full text.
type Section struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// SectionsHandler splits a court document's full text into its
// structural sections by heading keywords.
type SectionsHandler struct {
	client *courtapi.Client
}

func NewSectionsHandler(client *courtapi.Client) *SectionsHandler {
	return &SectionsHandler{client: client}
}

func (h *SectionsHandler) Capabilities() []tools.CapabilityDescriptor {
	return []tools.CapabilityDescriptor{
		{
			Name:        opDocumentSections,
			Description: "Split a court document's full text into titled structural sections",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"doc_id": map[string]any{"type": "integer", "description": "Document id in the court registry"},
					"text":   map[string]any{"type": "string", "description": "Document text, fetched by doc_id when omitted"},
				},
			},
		},
	}
}

func (h *SectionsHandler) Execute(ctx context.Context, operation string, args map[string]any) (*tools.Result, error) {
	if operation != opDocumentSections {
		return nil, fmt.Errorf("%w: %s", tools.ErrToolNotFound, operation)
	}

	text := stringArg(args, "text")
	if text == "" {
		docID := int64(intArg(args, "doc_id"))
		if docID == 0 {
			return nil, fmt.Errorf("either text or doc_id is required")
		}
		if h.client == nil {
			return nil, fmt.Errorf("court API is not configured, pass text directly")
		}
		fetched, err := h.client.DocumentText(ctx, docID)
		if err != nil {
			return nil, err
		}
		text = fetched
	}

	sections := SplitSections(text)
	return tools.JSONResult(map[string]any{
		"sections": sections,
		"count":    len(sections),
	})
}

// SplitSections cuts the text at each structural heading, in document
// order. Text without any recognizable heading comes back as one
// untitled-fallback section.
func SplitSections(text string) []Section {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)

	type cut struct {
		title string
		start int
	}
	var cuts []cut
	searchFrom := 0
	for _, heading := range sectionHeadings {
		idx := strings.Index(lower[searchFrom:], heading)
		if idx < 0 {
			continue
		}
		start := searchFrom + idx
		cuts = append(cuts, cut{title: heading, start: start})
		searchFrom = start + len(heading)
	}

	if len(cuts) == 0 {
		return []Section{{Title: fallbackSectionTitle, Text: text}}
	}

	var sections []Section
	if cuts[0].start > 0 {
		preamble := strings.TrimSpace(text[:cuts[0].start])
		if preamble != "" {
			sections = append(sections, Section{Title: fallbackSectionTitle, Text: preamble})
		}
	}
	for i, c := range cuts {
		end := len(text)
		if i+1 < len(cuts) {
			end = cuts[i+1].start
		}
		body := strings.TrimSpace(text[c.start:end])
		if body != "" {
			sections = append(sections, Section{Title: c.title, Text: body})
		}
	}
	return sections
}
