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
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GenerateVariants produces the ordered list of plausible alternate
// renderings of one case number. Ukrainian case numbers end in a year
// component that appears both short ("23") and long ("2023") in the
// wild, so both renderings are searched. The input itself is always
// the first variant.
func GenerateVariants(caseNumber string) []string {
	caseNumber = strings.TrimSpace(caseNumber)
	if caseNumber == "" {
		return nil
	}

	variants := []string{caseNumber}
	seen := map[string]struct{}{normalizeCaseNumber(caseNumber): {}}

	add := func(v string) {
		key := normalizeCaseNumber(v)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, v)
	}

	parts := strings.Split(caseNumber, "/")
	if len(parts) >= 2 {
		last := parts[len(parts)-1]
		if year, ok := alternateYear(last); ok {
			alt := make([]string, len(parts))
			copy(alt, parts)
			alt[len(alt)-1] = year
			add(strings.Join(alt, "/"))
		}
	}

	return variants
}

// alternateYear maps a short year to its long form and vice versa.
// "23" -> "2023", "2023" -> "23". Values that do not look like years
// produce no variant.
func alternateYear(s string) (string, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return "", false
	}

	currentYear := time.Now().Year()
	switch len(s) {
	case 2:
		long := 2000 + n
		if long < 1991 || long > currentYear+1 {
			return "", false
		}
		return strconv.Itoa(long), true
	case 4:
		if n < 1991 || n > currentYear+1 {
			return "", false
		}
		return fmt.Sprintf("%02d", n%100), true
	}
	return "", false
}

// normalizeCaseNumber canonicalizes a case number for comparison:
// lowercased, surrounding whitespace stripped, internal whitespace
// removed. Separators are preserved, two case numbers differing only
// in separator are different cases.
func normalizeCaseNumber(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "")
}
