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

package action

//node configuration example:
//{
//   "id": "s3",
//   "type": "action/log",
//   "name": "trace",
//   "configuration": {
//     "template": "sequence event ${metadata.eventName} msg=${msg}"
//   }
// }
import (
	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/maps"
	"github.com/flowgo/flowgo/utils/str"
)

// register the node
func init() {
	Registry.Add(&LogNode{})
}

// LogNodeConfiguration is the node configuration.
type LogNodeConfiguration struct {
	// Template is the log line. ${metadata.key} and ${msg.key}
	// placeholders are expanded from the message.
	Template string
}

// LogNode writes a template-expanded line through the configured Logger
// and forwards the message unchanged over Success.
type LogNode struct {
	// Config is the node configuration.
	Config LogNodeConfiguration

	logger types.Logger
	hasVar bool
}

// Type of the component.
func (x *LogNode) Type() string {
	return "action/log"
}

func (x *LogNode) New() types.Node {
	return &LogNode{Config: LogNodeConfiguration{
		Template: "${msg}",
	}}
}

// Init loads the configuration.
func (x *LogNode) Init(config types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	x.logger = config.Logger
	x.hasVar = str.CheckHasVar(x.Config.Template)
	return err
}

// OnMsg logs the line and forwards the message.
func (x *LogNode) OnMsg(ctx types.FlowContext, msg types.FlowMsg) {
	line := x.Config.Template
	if x.hasVar {
		line = str.ExecuteTemplate(line, ctx.GetEnv(msg, false))
	}
	if x.logger != nil {
		x.logger.Printf("%s", line)
	}
	ctx.TellSuccess(msg)
}

// Destroy releases resources.
func (x *LogNode) Destroy() {
}
