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
	"fmt"
	"sync"

	"github.com/flowgo/flowgo/api/types"
)

var _ types.GraphCtx = (*FlowGraphCtx)(nil)

// FlowGraphCtx is an instantiated flow graph: all nodes created and
// initialized, plus the routing table built from the connections.
type FlowGraphCtx struct {
	// Id of the graph.
	Id types.FlowNodeId
	// SelfDefinition is the graph definition.
	SelfDefinition *types.FlowGraph

	config             types.Config
	initialized        bool
	componentsRegistry types.ComponentRegistry
	nodeIds            []types.FlowNodeId
	nodes              map[types.FlowNodeId]types.NodeCtx
	nodeRoutes         map[types.FlowNodeId][]types.FlowNodeRelation
	rootFlowContext    types.FlowContext
	graphPool          *GraphPool
	destroyed          bool
	sync.RWMutex
}

// InitGraphCtx instantiates every node of the definition and builds the
// route table. Nodes implementing ContentPreloader get PreloadContent
// called once the graph is up.
func InitGraphCtx(config types.Config, graphDef *types.FlowGraph) (*FlowGraphCtx, error) {
	var graphCtx = &FlowGraphCtx{
		Id:                 types.FlowNodeId{Id: graphDef.Graph.ID, Type: types.GRAPH},
		config:             config,
		SelfDefinition:     graphDef,
		nodes:              make(map[types.FlowNodeId]types.NodeCtx),
		nodeRoutes:         make(map[types.FlowNodeId][]types.FlowNodeRelation),
		componentsRegistry: config.ComponentsRegistry,
		initialized:        true,
	}
	nodeLen := len(graphDef.Metadata.Nodes)
	graphCtx.nodeIds = make([]types.FlowNodeId, nodeLen)
	for index, item := range graphDef.Metadata.Nodes {
		if item.Id == "" {
			item.Id = fmt.Sprintf(defaultNodeIdPrefix+"%d", index)
		}
		flowNodeId := types.FlowNodeId{Id: item.Id, Type: types.NODE}
		graphCtx.nodeIds[index] = flowNodeId
		nodeCtx, err := InitNodeCtx(config, item)
		if err != nil {
			return nil, err
		}
		graphCtx.nodes[flowNodeId] = nodeCtx
	}
	for _, item := range graphDef.Metadata.Connections {
		inNodeId := types.FlowNodeId{Id: item.FromId, Type: types.NODE}
		relation := types.FlowNodeRelation{
			InId:         inNodeId,
			OutId:        types.FlowNodeId{Id: item.ToId, Type: types.NODE},
			RelationType: item.Type,
		}
		graphCtx.nodeRoutes[inNodeId] = append(graphCtx.nodeRoutes[inNodeId], relation)
	}

	if firstNode, ok := graphCtx.GetFirstNode(); ok {
		graphCtx.rootFlowContext = NewFlowContext(nil, config, graphCtx, nil, firstNode, config.Pool, nil, nil)
	}
	graphCtx.preloadContent()
	return graphCtx, nil
}

// preloadContent hints every preloading node to warm its content caches.
func (rc *FlowGraphCtx) preloadContent() {
	for _, nodeCtx := range rc.nodes {
		if preloader, ok := underlyingNode(nodeCtx).(types.ContentPreloader); ok {
			preloader.PreloadContent()
		}
	}
}

// underlyingNode unwraps a node context to its component instance so
// optional component interfaces can be asserted.
func underlyingNode(nodeCtx types.NodeCtx) types.Node {
	if fn, ok := nodeCtx.(*FlowNodeCtx); ok {
		return fn.Node
	}
	return nodeCtx
}

func (rc *FlowGraphCtx) Config() types.Config {
	return rc.config
}

func (rc *FlowGraphCtx) GetNodeById(id types.FlowNodeId) (types.NodeCtx, bool) {
	rc.RLock()
	defer rc.RUnlock()
	nodeCtx, ok := rc.nodes[id]
	return nodeCtx, ok
}

func (rc *FlowGraphCtx) GetNodeByIndex(index int) (types.NodeCtx, bool) {
	if index < 0 || index >= len(rc.nodeIds) {
		return nil, false
	}
	return rc.GetNodeById(rc.nodeIds[index])
}

// GetFirstNode returns the node messages enter the graph through, selected
// by firstNodeIndex, default index 0.
func (rc *FlowGraphCtx) GetFirstNode() (types.NodeCtx, bool) {
	return rc.GetNodeByIndex(rc.SelfDefinition.Metadata.FirstNodeIndex)
}

func (rc *FlowGraphCtx) GetNodeRoutes(id types.FlowNodeId) ([]types.FlowNodeRelation, bool) {
	rc.RLock()
	defer rc.RUnlock()
	relations, ok := rc.nodeRoutes[id]
	return relations, ok
}

// GetNextNodes returns the nodes connected to the given node over the given
// relation (output pin).
func (rc *FlowGraphCtx) GetNextNodes(id types.FlowNodeId, relationType string) ([]types.NodeCtx, bool) {
	var nodeCtxList []types.NodeCtx
	relations, ok := rc.GetNodeRoutes(id)
	if !ok {
		return nil, false
	}
	for _, item := range relations {
		if item.RelationType == relationType {
			if nodeCtx, found := rc.GetNodeById(item.OutId); found {
				nodeCtxList = append(nodeCtxList, nodeCtx)
			}
		}
	}
	return nodeCtxList, len(nodeCtxList) > 0
}

// Type of the graph component.
func (rc *FlowGraphCtx) Type() string {
	return "flowGraph"
}

func (rc *FlowGraphCtx) New() types.Node {
	panic("not support this func")
}

// Init rebuilds the graph context from a definition passed under the
// selfDefinition configuration key.
func (rc *FlowGraphCtx) Init(_ types.Config, configuration types.Configuration) error {
	if graphDef, ok := configuration["selfDefinition"]; ok {
		if v, ok := graphDef.(*types.FlowGraph); ok {
			if graphCtx, err := InitGraphCtx(rc.config, v); err == nil {
				rc.Copy(graphCtx)
			} else {
				return err
			}
		}
	}
	return nil
}

// OnMsg delivers the message to the graph's first node.
func (rc *FlowGraphCtx) OnMsg(ctx types.FlowContext, msg types.FlowMsg) {
	rc.RLock()
	rootCtx := rc.rootFlowContext
	rc.RUnlock()
	if rootCtx == nil {
		ctx.TellFailure(msg, fmt.Errorf("graph id=%s has no first node", rc.Id.Id))
		return
	}
	rootCtx.SetEndFunc(ctx.GetEndFunc()).TellNext(msg)
}

// Destroy flushes preloaded content and destroys every node. Idempotent.
func (rc *FlowGraphCtx) Destroy() {
	rc.Lock()
	if rc.destroyed {
		rc.Unlock()
		return
	}
	rc.destroyed = true
	nodes := make([]types.NodeCtx, 0, len(rc.nodes))
	for _, v := range rc.nodes {
		nodes = append(nodes, v)
	}
	rc.Unlock()

	for _, nodeCtx := range nodes {
		if preloader, ok := underlyingNode(nodeCtx).(types.ContentPreloader); ok {
			preloader.FlushContent()
		}
		nodeCtx.Destroy()
	}
}

func (rc *FlowGraphCtx) IsDebugMode() bool {
	return rc.SelfDefinition.Graph.DebugMode
}

func (rc *FlowGraphCtx) GetNodeId() types.FlowNodeId {
	return rc.Id
}

// Definition returns the graph definition.
func (rc *FlowGraphCtx) Definition() *types.FlowGraph {
	return rc.SelfDefinition
}

func (rc *FlowGraphCtx) ReloadSelf(def []byte) error {
	node, err := rc.config.Parser.DecodeGraph(rc.config, def)
	if err != nil {
		return err
	}
	rc.Destroy()
	rc.Copy(node.(*FlowGraphCtx))
	return nil
}

// ReloadChild re-initializes one node of the graph from a new definition.
func (rc *FlowGraphCtx) ReloadChild(nodeId types.FlowNodeId, def []byte) error {
	if node, ok := rc.GetNodeById(nodeId); ok {
		return node.ReloadSelf(def)
	}
	return fmt.Errorf("node id=%s not found", nodeId.Id)
}

func (rc *FlowGraphCtx) DSL() []byte {
	v, _ := rc.config.Parser.EncodeGraph(rc.SelfDefinition)
	return v
}

// SetGraphPool binds the pool nested sub graph executions resolve through.
func (rc *FlowGraphCtx) SetGraphPool(graphPool *GraphPool) {
	rc.Lock()
	rc.graphPool = graphPool
	if rootCtx, ok := rc.rootFlowContext.(*DefaultFlowContext); ok {
		rootCtx.graphPool = graphPool
	}
	rc.Unlock()
}

// Copy replaces this context's state with newCtx's.
func (rc *FlowGraphCtx) Copy(newCtx *FlowGraphCtx) {
	rc.Lock()
	defer rc.Unlock()
	rc.Id = newCtx.Id
	rc.config = newCtx.config
	rc.initialized = newCtx.initialized
	rc.componentsRegistry = newCtx.componentsRegistry
	rc.SelfDefinition = newCtx.SelfDefinition
	rc.nodeIds = newCtx.nodeIds
	rc.nodes = newCtx.nodes
	rc.nodeRoutes = newCtx.nodeRoutes
	rc.rootFlowContext = newCtx.rootFlowContext
	rc.destroyed = false
}
