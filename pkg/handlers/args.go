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
	"time"

	"github.com/athenalaw/lexgate/pkg/courtapi"
)

func stringArg(args map[string]any, key string) string {
	val, _ := args[key].(string)
	return val
}

func boolArg(args map[string]any, key string) bool {
	val, _ := args[key].(bool)
	return val
}

// intArg tolerates both JSON numbers (float64 after decoding) and
// native ints.
func intArg(args map[string]any, key string) int {
	switch val := args[key].(type) {
	case float64:
		return int(val)
	case int:
		return val
	case int64:
		return int(val)
	}
	return 0
}

func dateArg(args map[string]any, key string) (time.Time, error) {
	raw := stringArg(args, key)
	if raw == "" {
		return time.Time{}, nil
	}
	return courtapi.ParseDate(raw)
}
