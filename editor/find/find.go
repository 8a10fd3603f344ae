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

// Package find locates nodes across a flow graph and its nested sub
// graphs by textual query.
//
// The query is split on spaces into tokens. A node matches when its
// combined search string, built from title, component type, comment and
// description with all spaces removed, contains every token,
// case-insensitive.
package find

import (
	"strings"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/components/flow"
	"github.com/flowgo/flowgo/engine"
)

// NoResultsFound is the value of the synthetic entry returned when a
// search matches nothing.
const NoResultsFound = "No Results found"

// Result is one row of the search result tree. Sub graph matches hang off
// their parent node's result as children.
type Result struct {
	// Value is the node title.
	Value string `json:"value"`
	// Desc is the node description, e.g. the referenced asset name.
	Desc string `json:"desc,omitempty"`
	// NodeTypeText is the component type after the last namespace
	// separator, e.g. playSequence.
	NodeTypeText string `json:"nodeTypeText,omitempty"`
	// Comment is the designer comment on the node.
	Comment string `json:"comment,omitempty"`
	// NodeId identifies the node inside its graph.
	NodeId string `json:"nodeId,omitempty"`
	// GraphId is the graph the node lives in.
	GraphId string `json:"graphId,omitempty"`
	// Children are matches inside the node's target sub graph.
	Children []Result `json:"children,omitempty"`
}

// Options controls a search.
type Options struct {
	// IncludeSubGraphs descends one level into the target graph of every
	// sub graph node.
	IncludeSubGraphs bool
}

// Finder searches the graphs of an engine pool.
type Finder struct {
	pool *engine.GraphPool
}

// NewFinder creates a Finder over the given pool, default
// engine.DefaultGraphPool.
func NewFinder(pool *engine.GraphPool) *Finder {
	if pool == nil {
		pool = engine.DefaultGraphPool
	}
	return &Finder{pool: pool}
}

// Find searches the graph with the given id. Zero matches yield a single
// synthetic NoResultsFound entry.
func (f *Finder) Find(graphId string, query string, opts Options) []Result {
	tokens := tokenize(query)
	var results []Result
	if len(tokens) > 0 {
		if e, ok := f.pool.Get(graphId); ok && e.RootGraphCtx() != nil {
			results = f.findInGraph(e.RootGraphCtx(), tokens, opts.IncludeSubGraphs)
		}
	}
	if len(results) == 0 {
		return []Result{{Value: NoResultsFound}}
	}
	return results
}

// findInGraph matches every node of the graph. descend controls the
// one-level walk into sub graph targets.
func (f *Finder) findInGraph(graphCtx *engine.FlowGraphCtx, tokens []string, descend bool) []Result {
	var results []Result
	def := graphCtx.Definition()
	for _, nodeDef := range def.Metadata.Nodes {
		result := buildResult(graphCtx, nodeDef, def.Graph.ID)
		matched := matches(result, nodeDef.Type, tokens)

		if descend {
			if targetId, ok := subGraphTarget(graphCtx, nodeDef); ok {
				if e, found := f.pool.Get(targetId); found && e.RootGraphCtx() != nil {
					result.Children = f.findInGraph(e.RootGraphCtx(), tokens, false)
				}
			}
		}
		if matched || len(result.Children) > 0 {
			results = append(results, result)
		}
	}
	return results
}

// buildResult collects the searchable fields of one node.
func buildResult(graphCtx *engine.FlowGraphCtx, nodeDef *types.FlowNode, graphId string) Result {
	result := Result{
		Value:        nodeDef.Name,
		NodeTypeText: nodeTypeText(nodeDef.Type),
		Comment:      nodeDef.AdditionalInfo.Comment,
		NodeId:       nodeDef.Id,
		GraphId:      graphId,
	}
	if nodeCtx, ok := graphCtx.GetNodeById(types.FlowNodeId{Id: nodeDef.Id, Type: types.NODE}); ok {
		if fn, ok := nodeCtx.(*engine.FlowNodeCtx); ok {
			if provider, ok := fn.Node.(types.NodeDescriptionProvider); ok {
				result.Desc = provider.NodeDescription()
			}
		}
	}
	return result
}

// subGraphTarget returns the target graph id when the node is a sub graph
// node.
func subGraphTarget(graphCtx *engine.FlowGraphCtx, nodeDef *types.FlowNode) (string, bool) {
	nodeCtx, ok := graphCtx.GetNodeById(types.FlowNodeId{Id: nodeDef.Id, Type: types.NODE})
	if !ok {
		return "", false
	}
	fn, ok := nodeCtx.(*engine.FlowNodeCtx)
	if !ok {
		return "", false
	}
	if subGraph, ok := fn.Node.(*flow.SubGraphNode); ok {
		return subGraph.TargetGraphId(), subGraph.TargetGraphId() != ""
	}
	return "", false
}

// matches reports whether the combined search string contains every token.
func matches(result Result, nodeType string, tokens []string) bool {
	searchString := strings.ToLower(stripSpaces(
		result.Value + nodeType + result.Comment + result.Desc,
	))
	for _, token := range tokens {
		if !strings.Contains(searchString, token) {
			return false
		}
	}
	return true
}

// tokenize splits the query on spaces and lowercases the tokens.
func tokenize(query string) []string {
	fields := strings.Fields(query)
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		tokens = append(tokens, strings.ToLower(field))
	}
	return tokens
}

func stripSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

// nodeTypeText is the component type after the last namespace separator.
func nodeTypeText(nodeType string) string {
	if i := strings.LastIndexByte(nodeType, '/'); i >= 0 {
		return nodeType[i+1:]
	}
	return nodeType
}
