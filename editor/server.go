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

// Package editor exposes the editor-facing HTTP API: component listing,
// graph DSL access and reload, message injection, node search and a
// websocket stream of node debug events.
package editor

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/editor/find"
	"github.com/flowgo/flowgo/engine"
	"github.com/flowgo/flowgo/utils/json"
)

// Server is the editor API server.
type Server struct {
	// Addr to listen on, e.g. ":9090".
	Addr string

	pool       *engine.GraphPool
	logger     types.Logger
	finder     *find.Finder
	httpServer *http.Server
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer creates an editor server over the given pool, default
// engine.DefaultGraphPool.
func NewServer(addr string, pool *engine.GraphPool, logger types.Logger) *Server {
	if pool == nil {
		pool = engine.DefaultGraphPool
	}
	if logger == nil {
		logger = types.DefaultLogger()
	}
	return &Server{
		Addr:   addr,
		pool:   pool,
		logger: logger,
		finder: find.NewFinder(pool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Start listens and serves until Stop. Blocking.
func (s *Server) Start() error {
	router := httprouter.New()
	router.GET("/api/v1/components", s.listComponents)
	router.GET("/api/v1/graphs/:id", s.getGraph)
	router.PUT("/api/v1/graphs/:id", s.reloadGraph)
	router.POST("/api/v1/graphs/:id/msg/:msgType", s.postMsg)
	router.GET("/api/v1/graphs/:id/search", s.search)
	router.GET("/api/v1/ws/debug", s.debugStream)

	s.httpServer = &http.Server{Addr: s.Addr, Handler: router}
	s.logger.Printf("editor server started on %s", s.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down and closes every debug stream.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.clients {
		_ = conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// componentInfo is one row of the component listing.
type componentInfo struct {
	Type     string `json:"type"`
	Category string `json:"category,omitempty"`
	Desc     string `json:"desc,omitempty"`
}

func (s *Server) listComponents(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	var infos []componentInfo
	for nodeType, node := range engine.Registry.GetComponents() {
		info := componentInfo{Type: nodeType}
		if c, ok := node.(types.CategoryGetter); ok {
			info.Category = c.Category()
		}
		if d, ok := node.(types.DescGetter); ok {
			info.Desc = d.Desc()
		}
		infos = append(infos, info)
	}
	s.writeJSON(w, infos)
}

func (s *Server) getGraph(w http.ResponseWriter, _ *http.Request, params httprouter.Params) {
	e, ok := s.pool.Get(params.ByName("id"))
	if !ok {
		http.Error(w, "graph not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(e.DSL())
}

func (s *Server) reloadGraph(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := params.ByName("id")
	if e, ok := s.pool.Get(id); ok {
		err = e.ReloadSelf(body)
	} else {
		_, err = s.pool.New(id, body, engine.WithConfig(s.debugConfig()))
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) postMsg(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	e, ok := s.pool.Get(params.ByName("id"))
	if !ok {
		http.Error(w, "graph not found", http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	metadata := types.NewMetadata()
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			metadata.PutValue(key, values[0])
		}
	}
	msg := types.NewMsg(0, params.ByName("msgType"), types.JSON, metadata, string(body))
	e.OnMsg(msg)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	query := r.URL.Query().Get("q")
	opts := find.Options{
		IncludeSubGraphs: r.URL.Query().Get("subGraphs") == "true",
	}
	results := s.finder.Find(params.ByName("id"), query, opts)
	s.writeJSON(w, results)
}

// debugStream upgrades the connection and registers it for debug events.
func (s *Server) debugStream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("debug stream upgrade error: %s", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	// drain the connection until the client goes away
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				_ = conn.Close()
				return
			}
		}
	}()
}

// debugEvent is one node in/out event on the debug stream.
type debugEvent struct {
	GraphId      string        `json:"graphId"`
	FlowType     string        `json:"flowType"`
	NodeId       string        `json:"nodeId"`
	RelationType string        `json:"relationType,omitempty"`
	Err          string        `json:"err,omitempty"`
	Msg          types.FlowMsg `json:"msg"`
}

// OnDebug broadcasts a node debug event to every connected client. Wire it
// into the engine configuration:
//
//	config := engine.NewConfig(types.WithOnDebug(server.OnDebug))
func (s *Server) OnDebug(graphId string, flowType string, nodeId string, msg types.FlowMsg, relationType string, err error) {
	event := debugEvent{
		GraphId:      graphId,
		FlowType:     flowType,
		NodeId:       nodeId,
		RelationType: relationType,
		Msg:          msg,
	}
	if err != nil {
		event.Err = err.Error()
	}
	data, jsonErr := json.Marshal(event)
	if jsonErr != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if writeErr := conn.WriteMessage(websocket.TextMessage, data); writeErr != nil {
			delete(s.clients, conn)
			_ = conn.Close()
		}
	}
}

func (s *Server) debugConfig() types.Config {
	return engine.NewConfig(types.WithOnDebug(s.OnDebug))
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
