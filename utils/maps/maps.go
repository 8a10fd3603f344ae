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

package maps

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Map2Struct decodes an input map into the output struct using reflection.
// output must be a pointer to a map or struct.
func Map2Struct(input interface{}, output interface{}) error {
	return mapstructure.Decode(input, output)
}

// Get resolves a possibly nested key such as "metadata.eventName" from a
// map. Returns nil if any segment is missing or not a map.
func Get(dict map[string]interface{}, key string) interface{} {
	segments := strings.Split(key, ".")
	var current interface{} = dict
	for _, segment := range segments {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = m[segment]
		if !ok {
			return nil
		}
	}
	return current
}
