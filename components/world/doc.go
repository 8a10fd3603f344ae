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

// Package world provides components that drive content inside a game
// world, most notably the latent sequence playback node.
//
// You can use these components in your graph DSL file by referencing
// their Type. For example:
//
//	  {
//	    "id": "node1",
//	    "type": "world/playSequence",
//	    "name": "intro cinematic",
//	    "configuration": {
//			"sequence": "/game/cinematics/intro"
//	    }
//	  }
package world

import (
	"github.com/flowgo/flowgo/api/types"
)

// Registry is the component list of this package.
var Registry = new(types.SafeComponentSlice)
