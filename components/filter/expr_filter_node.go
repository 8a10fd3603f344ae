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

package filter

//node configuration example:
//{
//        "id": "s1",
//        "type": "filter/expr",
//        "name": "gate",
//        "configuration": {
//          "expr": "metadata.eventName == 'BossDoorOpen'"
//        }
//      }
import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/maps"
)

// register the node
func init() {
	Registry.Add(&ExprFilterNode{})
}

// ExprFilterNodeConfiguration is the node configuration.
type ExprFilterNodeConfiguration struct {
	// Expr is the boolean expression evaluated against the message.
	Expr string
}

// ExprFilterNode routes a message over True or False depending on an expr
// expression, or over Failure when evaluation errors.
// The expression sees the variables `id`, `ts`, `data`, `msg` (parsed
// payload for JSON messages, e.g. msg.health > 50), `metadata`
// (e.g. metadata.eventName) and `msgType`.
type ExprFilterNode struct {
	// Config is the node configuration.
	Config  ExprFilterNodeConfiguration
	program *vm.Program
}

// Type of the component.
func (x *ExprFilterNode) Type() string {
	return "filter/expr"
}

func (x *ExprFilterNode) New() types.Node {
	return &ExprFilterNode{}
}

// Init compiles the expression.
func (x *ExprFilterNode) Init(_ types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	program, err := expr.Compile(x.Config.Expr, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return err
	}
	x.program = program
	return nil
}

// OnMsg evaluates the expression and routes the message.
func (x *ExprFilterNode) OnMsg(ctx types.FlowContext, msg types.FlowMsg) {
	env := ctx.GetEnv(msg, false)
	if out, err := vm.Run(x.program, env); err != nil {
		ctx.TellFailure(msg, err)
	} else {
		if result, ok := out.(bool); ok && result {
			ctx.TellNext(msg, types.True)
		} else {
			ctx.TellNext(msg, types.False)
		}
	}
}

// Destroy releases resources.
func (x *ExprFilterNode) Destroy() {
}
