/*
 * Copyright 2024 The FlowGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package str

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/flowgo/flowgo/utils/json"
	"github.com/flowgo/flowgo/utils/maps"
)

// matches ${aa} or ${aa.bb}
var tplVarRegex = regexp.MustCompile(`\$\{ *([^}]+) *\}`)

// ExecuteTemplate replaces ${key} placeholders in original with values from
// dict. Nested keys such as ${metadata.eventName} are supported. Unmatched
// placeholders are kept as-is.
func ExecuteTemplate(original string, dict map[string]interface{}) string {
	return tplVarRegex.ReplaceAllStringFunc(original, func(s string) string {
		matches := tplVarRegex.FindStringSubmatch(s)
		if len(matches) < 2 {
			return s
		}
		v := maps.Get(dict, strings.TrimSpace(matches[1]))
		if v == nil {
			return s
		}
		return ToString(v)
	})
}

// SprintfDict replaces ${key} placeholders in original with values from a
// flat string dict. Unmatched placeholders are kept as-is.
func SprintfDict(original string, dict map[string]string) string {
	return tplVarRegex.ReplaceAllStringFunc(original, func(s string) string {
		matches := tplVarRegex.FindStringSubmatch(s)
		if len(matches) < 2 {
			return s
		}
		result, ok := dict[strings.TrimSpace(matches[1])]
		if !ok {
			return s
		}
		return result
	})
}

// CheckHasVar reports whether str contains a ${} placeholder.
func CheckHasVar(str string) bool {
	return strings.Contains(str, "${") && strings.Contains(str, "}")
}

const randomStrOptions = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const randomStrOptionsLen = len(randomStrOptions)

// RandomStr creates a random string of the given length.
func RandomStr(num int) string {
	var builder strings.Builder
	for i := 0; i < num; i++ {
		builder.WriteByte(randomStrOptions[rand.Intn(randomStrOptionsLen)])
	}
	return builder.String()
}

// ToString converts input to a string, ignoring errors.
func ToString(input interface{}) string {
	if input == nil {
		return ""
	}
	switch v := input.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []byte:
		return string(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		if b, err := json.Marshal(input); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", input)
	}
}

// Contains reports whether target is in list.
func Contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
