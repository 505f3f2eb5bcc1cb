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
	"strings"

	"github.com/athenalaw/lexgate/pkg/courtapi"
)

// typeRule maps one keyword to a document type. Rules are checked in
// table order and the first match wins. The order carries source-system
// behavior: a text containing both "постанова" and "ухвала" classifies
// as a ruling. Whether that precedence is legally deliberate is a
// domain-review item; do not reorder without one.
type typeRule struct {
	keyword string
	docType courtapi.DocumentType
}

var documentTypeRules = []typeRule{
	{"постанова", courtapi.TypeRuling},
	{"рішення", courtapi.TypeDecision},
	{"ухвала", courtapi.TypeOrder},
	{"вирок", courtapi.TypeVerdict},
	{"окрема думка", courtapi.TypeSeparateOpinion},
}

// ClassifyDocumentType inspects the structured form field first and
// falls back to the free-text title and snippet.
func ClassifyDocumentType(form, title, snippet string) courtapi.DocumentType {
	for _, field := range []string{form, title, snippet} {
		text := strings.ToLower(field)
		if text == "" {
			continue
		}
		for _, rule := range documentTypeRules {
			if strings.Contains(text, rule.keyword) {
				return rule.docType
			}
		}
	}
	return courtapi.TypeUnknown
}

type instanceRule struct {
	keyword  string
	instance courtapi.Instance
}

// instanceRules is checked in order against the combined chamber and
// court text. The named cassation chambers collapse into the generic
// cassation instance; the chamber string stays on the document.
var instanceRules = []instanceRule{
	{"велика палата", courtapi.InstanceGrandChamber},
	{"касаційний цивільний суд", courtapi.InstanceCassation},
	{"касаційний господарський суд", courtapi.InstanceCassation},
	{"касаційний адміністративний суд", courtapi.InstanceCassation},
	{"касаційний кримінальний суд", courtapi.InstanceCassation},
	{"касаційн", courtapi.InstanceCassation},
	{"верховний суд", courtapi.InstanceCassation},
	{"апеляцій", courtapi.InstanceAppeal},
	{"міськрайонний", courtapi.InstanceFirst},
	{"районний", courtapi.InstanceFirst},
	{"міський", courtapi.InstanceFirst},
	{"окружний", courtapi.InstanceFirst},
}

// ClassifyInstance derives the judicial tier from chamber and court
// free text.
func ClassifyInstance(chamber, court string) courtapi.Instance {
	text := strings.ToLower(strings.TrimSpace(chamber + " " + court))
	if text == "" {
		return courtapi.InstanceUnknown
	}
	for _, rule := range instanceRules {
		if strings.Contains(text, rule.keyword) {
			return rule.instance
		}
	}
	return courtapi.InstanceUnknown
}
