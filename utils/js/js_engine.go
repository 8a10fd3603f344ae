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

// Package js runs JavaScript for script nodes using the goja library.
// Programs are compiled once per node and executed on pooled VMs.
package js

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/flowgo/flowgo/api/types"
)

const (
	// GlobalKey exposes config.Properties to scripts as global.xx
	GlobalKey = "global"
)

// GojaJsEngine executes a compiled JavaScript program on a pool of VMs.
type GojaJsEngine struct {
	vmPool            chan *goja.Runtime
	config            types.Config
	jsScript          *goja.Program
	jsUdfProgramCache map[string]*goja.Program
	fromVars          map[string]interface{}
}

// NewGojaJsEngine compiles jsScript and prepares the VM pool. fromVars are
// variables made visible to the script on every VM.
func NewGojaJsEngine(config types.Config, jsScript string, fromVars map[string]interface{}) (*GojaJsEngine, error) {
	program, err := goja.Compile("", jsScript, true)
	if err != nil {
		return nil, err
	}
	jsEngine := &GojaJsEngine{
		config:   config,
		jsScript: program,
		vmPool:   make(chan *goja.Runtime, 16),
		fromVars: fromVars,
	}
	if err = jsEngine.preCompileUdf(config); err != nil {
		return nil, err
	}
	vm, err := jsEngine.newVm(config, fromVars)
	if err != nil {
		return nil, err
	}
	jsEngine.vmPool <- vm
	return jsEngine, nil
}

// preCompileUdf compiles user defined JavaScript functions from the config.
// Udf entries that are not strings are bound to the VM as Go functions.
func (g *GojaJsEngine) preCompileUdf(config types.Config) error {
	var jsUdfProgramCache = make(map[string]*goja.Program)
	for k, v := range config.Udf {
		if jsFuncStr, ok := v.(string); ok {
			p, err := goja.Compile(k, jsFuncStr, true)
			if err != nil {
				return err
			}
			jsUdfProgramCache[k] = p
		}
	}
	g.jsUdfProgramCache = jsUdfProgramCache
	return nil
}

func (g *GojaJsEngine) newVm(config types.Config, fromVars map[string]interface{}) (*goja.Runtime, error) {
	vm := goja.New()

	for k, v := range fromVars {
		if err := vm.Set(k, v); err != nil {
			return nil, err
		}
	}
	if len(config.Properties.Values()) != 0 {
		if err := vm.Set(GlobalKey, config.Properties.Values()); err != nil {
			return nil, err
		}
	}
	for k, v := range config.Udf {
		var err error
		if _, ok := v.(string); ok {
			if p, exists := g.jsUdfProgramCache[k]; exists {
				_, err = vm.RunProgram(p)
			}
		} else {
			err = vm.Set(k, v)
		}
		if err != nil {
			config.Logger.Printf("parse js udf=%s error: %s", k, err.Error())
		}
	}

	timer := g.startTimeout(vm)
	_, err := vm.RunProgram(g.jsScript)
	g.stopTimeout(timer)
	if err != nil {
		return nil, err
	}
	return vm, nil
}

// Execute runs functionName on a pooled VM with the given arguments.
func (g *GojaJsEngine) Execute(functionName string, argumentList ...interface{}) (out interface{}, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s", caught)
		}
	}()

	vm, err := g.getVm()
	if err != nil {
		return nil, err
	}
	defer g.putVm(vm)

	var timer *time.Timer
	if g.config.ScriptMaxExecutionTime > 0 {
		timer = g.startTimeout(vm)
		defer g.stopTimeout(timer)
	}

	f, ok := goja.AssertFunction(vm.Get(functionName))
	if !ok {
		return nil, errors.New(functionName + " is not a function")
	}

	var params []goja.Value
	if len(argumentList) > 0 {
		params = make([]goja.Value, len(argumentList))
		for i, v := range argumentList {
			params[i] = vm.ToValue(v)
		}
	}

	res, err := f(goja.Undefined(), params...)
	if err != nil {
		return nil, err
	}
	return res.Export(), nil
}

func (g *GojaJsEngine) getVm() (*goja.Runtime, error) {
	select {
	case vm := <-g.vmPool:
		return vm, nil
	default:
		return g.newVm(g.config, g.fromVars)
	}
}

func (g *GojaJsEngine) putVm(vm *goja.Runtime) {
	vm.ClearInterrupt()
	select {
	case g.vmPool <- vm:
	default:
	}
}

func (g *GojaJsEngine) Stop() {
}

// startTimeout interrupts the VM when ScriptMaxExecutionTime elapses.
// Returns nil if no timeout is configured.
func (g *GojaJsEngine) startTimeout(vm *goja.Runtime) *time.Timer {
	if g.config.ScriptMaxExecutionTime <= 0 {
		return nil
	}
	return time.AfterFunc(g.config.ScriptMaxExecutionTime, func() {
		vm.Interrupt("execution timeout")
	})
}

func (g *GojaJsEngine) stopTimeout(timer *time.Timer) {
	if timer != nil {
		timer.Stop()
	}
}
