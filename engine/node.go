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

// Package engine instantiates flow graphs from their definitions and routes
// messages through them.
package engine

import (
	"errors"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/str"
)

const defaultNodeIdPrefix = "node"

// FlowNodeCtx is a component instance bound into a graph.
type FlowNodeCtx struct {
	// Node is the component instance.
	types.Node
	// SelfDefinition is the node definition this instance was built from.
	SelfDefinition *types.FlowNode

	config types.Config
}

// InitNodeCtx creates the component named by the definition and initializes
// it with the definition's configuration.
func InitNodeCtx(config types.Config, selfDefinition *types.FlowNode) (*FlowNodeCtx, error) {
	node, err := config.ComponentsRegistry.NewNode(selfDefinition.Type)
	if err != nil {
		return nil, err
	}
	if selfDefinition.Configuration == nil {
		selfDefinition.Configuration = make(types.Configuration)
	}
	if err = node.Init(config, processGlobalPlaceholders(config, selfDefinition.Configuration)); err != nil {
		return nil, err
	}
	return &FlowNodeCtx{
		Node:           node,
		SelfDefinition: selfDefinition,
		config:         config,
	}, nil
}

func (rn *FlowNodeCtx) Config() types.Config {
	return rn.config
}

func (rn *FlowNodeCtx) IsDebugMode() bool {
	return rn.SelfDefinition.DebugMode
}

func (rn *FlowNodeCtx) GetNodeId() types.FlowNodeId {
	return types.FlowNodeId{Id: rn.SelfDefinition.Id, Type: types.NODE}
}

// ReloadSelf rebuilds the component from a new definition, destroying the
// old instance first.
func (rn *FlowNodeCtx) ReloadSelf(def []byte) error {
	node, err := rn.config.Parser.DecodeNode(rn.config, def)
	if err != nil {
		return err
	}
	newCtx, ok := node.(*FlowNodeCtx)
	if !ok {
		return errors.New("parser returned unexpected node context")
	}
	rn.Destroy()
	rn.Node = newCtx.Node
	rn.SelfDefinition = newCtx.SelfDefinition
	return nil
}

func (rn *FlowNodeCtx) GetNodeById(_ types.FlowNodeId) (types.NodeCtx, bool) {
	return nil, false
}

func (rn *FlowNodeCtx) DSL() []byte {
	v, _ := rn.config.Parser.EncodeNode(rn.SelfDefinition)
	return v
}

// processGlobalPlaceholders substitutes ${global.key} values from
// config.Properties into string configuration values.
func processGlobalPlaceholders(config types.Config, configuration types.Configuration) types.Configuration {
	if len(config.Properties.Values()) == 0 {
		return configuration
	}
	result := make(types.Configuration)
	dict := make(map[string]string, len(config.Properties.Values()))
	for k, v := range config.Properties.Values() {
		dict["global."+k] = v
	}
	for key, value := range configuration {
		if strValue, ok := value.(string); ok {
			result[key] = str.SprintfDict(strValue, dict)
		} else {
			result[key] = value
		}
	}
	return result
}
