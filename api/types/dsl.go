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

package types

// FlowGraph is the definition of one flow graph asset.
type FlowGraph struct {
	// Graph is the base info of the graph.
	Graph FlowGraphBaseInfo `json:"graph"`
	// Metadata holds the nodes and connections of the graph.
	Metadata FlowGraphMetadata `json:"metadata"`
}

// FlowGraphBaseInfo is the base info of a flow graph.
type FlowGraphBaseInfo struct {
	// ID identifies the graph. Sub graph nodes reference it by this id.
	ID string `json:"id"`
	// Name is the display name of the graph.
	Name string `json:"name"`
	// DebugMode enables the debug callback for every node of the graph.
	// Node-level DebugMode takes precedence.
	DebugMode bool `json:"debugMode"`
	// Root marks the graph as a root graph rather than a nested one.
	Root bool `json:"root"`
	// Configuration holds graph-level configuration values.
	Configuration Configuration `json:"configuration,omitempty"`
	// AdditionalInfo holds extension fields, e.g. editor bookkeeping.
	AdditionalInfo map[string]string `json:"additionalInfo,omitempty"`
}

// FlowGraphMetadata holds the nodes and connections of a flow graph.
type FlowGraphMetadata struct {
	// FirstNodeIndex is the node a message enters the graph through.
	FirstNodeIndex int `json:"firstNodeIndex"`
	// Nodes are the node definitions.
	Nodes []*FlowNode `json:"nodes"`
	// Connections are the edges. Each edge names the output pin
	// (relation type) it is attached to.
	Connections []NodeConnection `json:"connections"`
}

// FlowNode is the definition of one node inside a graph.
type FlowNode struct {
	// Id is unique within the graph.
	Id string `json:"id"`
	// AdditionalInfo carries editor data: comment text and layout position.
	AdditionalInfo NodeAdditionalInfo `json:"additionalInfo,omitempty"`
	// Type selects the registered component, e.g. world/playSequence.
	Type string `json:"type"`
	// Name is the display title of the node.
	Name string `json:"name"`
	// DebugMode enables the debug callback for this node.
	DebugMode bool `json:"debugMode"`
	// Configuration holds the component configuration, decoded by the
	// component's Init.
	Configuration Configuration `json:"configuration"`
}

// NodeAdditionalInfo carries editor-only node data. The search tool matches
// against the comment text.
type NodeAdditionalInfo struct {
	Comment string `json:"comment"`
	LayoutX int    `json:"layoutX"`
	LayoutY int    `json:"layoutY"`
}

// NodeConnection is one edge between two nodes of a graph.
type NodeConnection struct {
	// FromId is the source node id.
	FromId string `json:"fromId"`
	// ToId is the target node id.
	ToId string `json:"toId"`
	// Type is the output pin of the source node this edge hangs off,
	// e.g. Success, Completed, or an authored sequence event name.
	Type string `json:"type"`
}
