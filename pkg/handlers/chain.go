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

	"github.com/athenalaw/lexgate/pkg/chain"
	"github.com/athenalaw/lexgate/pkg/tools"
)

const opCaseChain = "case_documents_chain"

// ChainHandler serves the full document chain of one case across all
// judicial instances.
type ChainHandler struct {
	builder *chain.Builder
}

func NewChainHandler(builder *chain.Builder) *ChainHandler {
	return &ChainHandler{builder: builder}
}

func (h *ChainHandler) Capabilities() []tools.CapabilityDescriptor {
	return []tools.CapabilityDescriptor{
		{
			Name:        opCaseChain,
			Description: "Find every judicial document of one case across all instances, classified and sorted",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"case_number":       map[string]any{"type": "string", "description": "Case number, e.g. 757/1234/24"},
					"group_by_instance": map[string]any{"type": "boolean", "description": "Bucket documents by judicial tier"},
				},
				"required": []string{"case_number"},
			},
		},
	}
}

func (h *ChainHandler) Execute(ctx context.Context, operation string, args map[string]any) (*tools.Result, error) {
	if operation != opCaseChain {
		return nil, fmt.Errorf("%w: %s", tools.ErrToolNotFound, operation)
	}

	caseNumber := strings.TrimSpace(stringArg(args, "case_number"))
	if caseNumber == "" {
		return nil, fmt.Errorf("case_number is required")
	}

	result, err := h.builder.Build(ctx, chain.Params{
		CaseNumber:      caseNumber,
		GroupByInstance: boolArg(args, "group_by_instance"),
	})
	if err != nil {
		return nil, err
	}
	return tools.JSONResult(result)
}
