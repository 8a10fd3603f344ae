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

package engine

import (
	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/json"
)

var _ types.Parser = (*JsonParser)(nil)

// JsonParser decodes and encodes graph definitions from the JSON DSL.
type JsonParser struct {
}

func (p *JsonParser) DecodeGraph(config types.Config, dsl []byte) (types.Node, error) {
	var graphDef types.FlowGraph
	if err := json.Unmarshal(dsl, &graphDef); err != nil {
		return nil, err
	}
	return InitGraphCtx(config, &graphDef)
}

func (p *JsonParser) DecodeNode(config types.Config, dsl []byte) (types.Node, error) {
	var nodeDef types.FlowNode
	if err := json.Unmarshal(dsl, &nodeDef); err != nil {
		return nil, err
	}
	return InitNodeCtx(config, &nodeDef)
}

func (p *JsonParser) EncodeGraph(def interface{}) ([]byte, error) {
	return json.Marshal(def)
}

func (p *JsonParser) EncodeNode(def interface{}) ([]byte, error) {
	return json.Marshal(def)
}
