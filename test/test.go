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

// Package test holds helpers for exercising single node components outside
// a graph.
package test

import (
	"fmt"
	"testing"
	"time"

	"github.com/flowgo/flowgo/api/types"
)

// CreateAndInitNode creates a fresh instance of the component with the
// given type from the registry and initializes it.
func CreateAndInitNode(targetNodeType string, initConfig types.Configuration, registry *types.SafeComponentSlice) (types.Node, error) {
	var nodeFactory types.Node
	for _, component := range registry.Components() {
		if component.Type() == targetNodeType {
			nodeFactory = component
		}
	}
	if nodeFactory == nil {
		return nil, fmt.Errorf("component type=%s not found", targetNodeType)
	}
	node := nodeFactory.New()
	err := node.Init(types.NewConfig(), initConfig)
	return node, err
}

// NodeAndCallback pairs a node with the messages to feed it and the
// callback receiving every routed message.
type NodeAndCallback struct {
	Node     types.Node
	MsgList  []Msg
	Callback func(msg types.FlowMsg, relationType string, err error)
}

// Msg is one test message.
type Msg struct {
	MetaData types.Metadata
	DataType types.DataType
	MsgType  string
	Data     string
	// AfterSleep pauses after the message was sent, giving async nodes
	// time to route.
	AfterSleep time.Duration
}

// NodeOnMsg feeds the messages into the node over a single-node test
// context.
func NodeOnMsg(t *testing.T, node types.Node, msgList []Msg, callback func(msg types.FlowMsg, relationType string, err error)) {
	ctx := NewFlowContextFull(types.NewConfig(), node, callback)
	for _, item := range msgList {
		dataType := types.JSON
		if item.DataType != "" {
			dataType = item.DataType
		}
		msg := types.NewMsg(time.Now().UnixMilli(), item.MsgType, dataType, item.MetaData, item.Data)
		go node.OnMsg(ctx, msg)
		if item.AfterSleep > 0 {
			time.Sleep(item.AfterSleep)
		}
	}
}
