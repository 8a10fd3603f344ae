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

import (
	"time"
)

// Option is a function type that modifies the Config.
type Option func(*Config) error

// WithComponentsRegistry sets the component registry of the Config.
func WithComponentsRegistry(componentsRegistry ComponentRegistry) Option {
	return func(c *Config) error {
		c.ComponentsRegistry = componentsRegistry
		return nil
	}
}

// WithOnDebug sets the node debug callback of the Config.
func WithOnDebug(onDebug func(graphId string, flowType string, nodeId string, msg FlowMsg, relationType string, err error)) Option {
	return func(c *Config) error {
		c.OnDebug = onDebug
		return nil
	}
}

// WithPool sets the goroutine pool of the Config.
func WithPool(pool Pool) Option {
	return func(c *Config) error {
		c.Pool = pool
		return nil
	}
}

// WithScriptMaxExecutionTime sets the script execution bound of the Config.
func WithScriptMaxExecutionTime(scriptMaxExecutionTime time.Duration) Option {
	return func(c *Config) error {
		c.ScriptMaxExecutionTime = scriptMaxExecutionTime
		return nil
	}
}

// WithParser sets the graph definition parser of the Config.
func WithParser(parser Parser) Option {
	return func(c *Config) error {
		c.Parser = parser
		return nil
	}
}

// WithLogger sets the logger of the Config.
func WithLogger(logger Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithCache sets the shared cache of the Config.
func WithCache(cache Cache) Option {
	return func(c *Config) error {
		c.Cache = cache
		return nil
	}
}

// WithWorld sets the game world of the Config.
func WithWorld(world World) Option {
	return func(c *Config) error {
		c.World = world
		return nil
	}
}
