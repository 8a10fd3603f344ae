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
//   "id": "s2",
//   "type": "action/script",
//   "name": "enrich",
//   "configuration": {
//     "jsScript": "metadata['handled']='true';\n return {'msg':msg,'metadata':metadata,'msgType':msgType};"
//   }
// }
import (
	"errors"
	"fmt"
	"strings"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/js"
	"github.com/flowgo/flowgo/utils/json"
	"github.com/flowgo/flowgo/utils/maps"
	"github.com/flowgo/flowgo/utils/str"
)

const (
	// ScriptDefaultScript returns the message unchanged.
	ScriptDefaultScript = "return {'msg':msg,'metadata':metadata,'msgType':msgType};"
	// ScriptFuncTemplate wraps the user script into a full function.
	ScriptFuncTemplate = "function Handler(msg, metadata, msgType) { %s }"
	// ScriptFuncName is the function executed on the JS engine.
	ScriptFuncName = "Handler"
)

// ErrScriptReturnFormat is returned when the script result is not a map of
// the form {'msg':msg,'metadata':metadata,'msgType':msgType}.
var ErrScriptReturnFormat = errors.New("return the value is not a map")

// register the node
func init() {
	Registry.Add(&ScriptNode{})
}

// ScriptNodeConfiguration is the node configuration.
type ScriptNodeConfiguration struct {
	// JsScript is the handler body. It is wrapped as
	// function Handler(msg, metadata, msgType) { ${JsScript} }
	// and must return {'msg':msg,'metadata':metadata,'msgType':msgType}.
	JsScript string
}

// ScriptNode transforms a message with a JavaScript handler. The handler
// receives msg (parsed payload for JSON messages), metadata and msgType
// and returns the updated triple. Success on a well-formed result, Failure
// on script errors.
type ScriptNode struct {
	// Config is the node configuration.
	Config   ScriptNodeConfiguration
	jsEngine *js.GojaJsEngine
	// passThrough skips script execution for the default or empty script.
	passThrough bool
}

// Type of the component.
func (x *ScriptNode) Type() string {
	return "action/script"
}

func (x *ScriptNode) New() types.Node {
	return &ScriptNode{Config: ScriptNodeConfiguration{
		JsScript: ScriptDefaultScript,
	}}
}

// Init compiles the handler script.
func (x *ScriptNode) Init(config types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	script := strings.TrimSpace(x.Config.JsScript)
	if script == "" || script == ScriptDefaultScript {
		x.passThrough = true
		return nil
	}
	jsScript := fmt.Sprintf(ScriptFuncTemplate, x.Config.JsScript)
	x.jsEngine, err = js.NewGojaJsEngine(config, jsScript, nil)
	return err
}

// OnMsg runs the handler and forwards the transformed message.
func (x *ScriptNode) OnMsg(ctx types.FlowContext, msg types.FlowMsg) {
	if x.passThrough {
		ctx.TellSuccess(msg)
		return
	}

	var data interface{} = msg.Data
	if msg.DataType == types.JSON {
		var dataMap interface{}
		if err := json.Unmarshal([]byte(msg.Data), &dataMap); err == nil {
			data = dataMap
		}
	}
	metadataValues := msg.Metadata
	if metadataValues == nil {
		metadataValues = types.NewMetadata()
	}
	out, err := x.jsEngine.Execute(ScriptFuncName, data, metadataValues.Values(), msg.Type)
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}

	formatData, ok := out.(map[string]interface{})
	if !ok {
		ctx.TellFailure(msg, ErrScriptReturnFormat)
		return
	}
	if formatMsgType, ok := formatData[types.MsgTypeKey]; ok {
		msg.Type = str.ToString(formatMsgType)
	}
	if formatMetaData, ok := formatData[types.MetadataKey]; ok {
		msg.Metadata = buildMetadata(formatMetaData)
	}
	if formatMsgData, ok := formatData[types.MsgKey]; ok {
		msg.Data = str.ToString(formatMsgData)
	}
	ctx.TellSuccess(msg)
}

// Destroy releases the JS engine.
func (x *ScriptNode) Destroy() {
	if x.jsEngine != nil {
		x.jsEngine.Stop()
	}
}

func buildMetadata(value interface{}) types.Metadata {
	metadata := types.NewMetadata()
	if m, ok := value.(map[string]interface{}); ok {
		for k, v := range m {
			metadata.PutValue(k, str.ToString(v))
		}
	} else if m, ok := value.(map[string]string); ok {
		return types.BuildMetadata(m)
	}
	return metadata
}
