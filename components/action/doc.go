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

// Package action provides general purpose graph components:
//
// - ScriptNode: transforms a message with a JavaScript handler
// - LogNode: writes a template-expanded line to the configured logger
//
// You can use these components in your graph DSL file by referencing
// their Type. For example:
//
//	  {
//	    "id": "node1",
//	    "type": "action/log",
//	    "name": "trace",
//	    "configuration": {
//			"template": "event=${metadata.eventName}"
//	    }
//	  }
package action

import (
	"github.com/flowgo/flowgo/api/types"
)

// Registry is the component list of this package.
var Registry = new(types.SafeComponentSlice)
