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

// Package trigger starts graphs on schedules, e.g. playing a LiveOps
// sequence graph every day at a fixed time.
package trigger

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/engine"
)

// CronTrigger injects messages into pooled graphs on cron schedules.
// Specs use the 6-field form with seconds, e.g. "0 0 12 * * *", plus the
// @daily style shortcuts.
type CronTrigger struct {
	cron   *cron.Cron
	pool   *engine.GraphPool
	logger types.Logger
}

// NewCronTrigger creates a trigger over the given pool, default
// engine.DefaultGraphPool.
func NewCronTrigger(pool *engine.GraphPool, logger types.Logger) *CronTrigger {
	if pool == nil {
		pool = engine.DefaultGraphPool
	}
	if logger == nil {
		logger = types.DefaultLogger()
	}
	return &CronTrigger{
		cron:   cron.New(cron.WithSeconds()),
		pool:   pool,
		logger: logger,
	}
}

// AddJob schedules a message into the graph with the given id. The graph
// is resolved at fire time, so jobs survive graph reloads.
func (t *CronTrigger) AddJob(spec string, graphId string, msgType string, data string, metadata map[string]string) (cron.EntryID, error) {
	if graphId == "" {
		return 0, fmt.Errorf("graphId can not be empty")
	}
	return t.cron.AddFunc(spec, func() {
		e, ok := t.pool.Get(graphId)
		if !ok {
			t.logger.Printf("cron trigger: graph id=%s not found", graphId)
			return
		}
		msg := types.NewMsg(0, msgType, types.JSON, types.BuildMetadata(metadata), data)
		e.OnMsg(msg)
	})
}

// RemoveJob cancels a scheduled job.
func (t *CronTrigger) RemoveJob(id cron.EntryID) {
	t.cron.Remove(id)
}

// Start runs the scheduler in its own goroutine.
func (t *CronTrigger) Start() {
	t.cron.Start()
}

// Stop halts the scheduler. Running jobs finish.
func (t *CronTrigger) Stop() {
	t.cron.Stop()
}
