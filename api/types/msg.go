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

	"github.com/gofrs/uuid/v5"
)

// DataType is the payload encoding of a message.
type DataType string

const (
	JSON   = DataType("JSON")
	TEXT   = DataType("TEXT")
	BINARY = DataType("BINARY")
)

// Keys of the template/script environment built by FlowContext.GetEnv.
const (
	MsgKey      = "msg"
	MetadataKey = "metadata"
	MsgTypeKey  = "msgType"
)

// Metadata is the key-value metadata attached to a message.
type Metadata map[string]string

// NewMetadata creates an empty Metadata instance.
func NewMetadata() Metadata {
	return make(Metadata)
}

// BuildMetadata creates a Metadata instance from an existing map.
func BuildMetadata(data map[string]string) Metadata {
	metadata := make(Metadata)
	for k, v := range data {
		metadata[k] = v
	}
	return metadata
}

// Copy returns an independent copy.
func (md Metadata) Copy() Metadata {
	return BuildMetadata(md)
}

// Has reports whether key exists.
func (md Metadata) Has(key string) bool {
	_, ok := md[key]
	return ok
}

// GetValue returns the value for key, or "".
func (md Metadata) GetValue(key string) string {
	return md[key]
}

// PutValue sets a value. Empty keys are ignored.
func (md Metadata) PutValue(key, value string) {
	if key != "" {
		md[key] = value
	}
}

// Values returns the underlying map.
func (md Metadata) Values() map[string]string {
	return md
}

// Clear removes all entries.
func (md Metadata) Clear() {
	for k := range md {
		delete(md, k)
	}
}

// FlowMsg is the unit of data that activates nodes and travels along graph
// connections. Activating a node's input pin is delivering a FlowMsg to it;
// the relation a node tells the message onward through is its output pin.
type FlowMsg struct {
	// Ts is the creation timestamp in milliseconds.
	Ts int64 `json:"ts"`
	// Id is unique for the whole journey of one message through the graph.
	Id string `json:"id"`
	// DataType is the payload encoding.
	DataType DataType `json:"dataType"`
	// Type classifies the message, e.g. SEQUENCE_EVENT, TIME_DILATION_UPDATE.
	Type string `json:"type"`
	// Data is the payload.
	Data string `json:"data"`
	// Metadata carries auxiliary key-value data.
	Metadata Metadata `json:"metadata"`
}

// NewMsg creates a message with a generated uuid id.
func NewMsg(ts int64, msgType string, dataType DataType, metadata Metadata, data string) FlowMsg {
	uuId, _ := uuid.NewV4()
	return newMsg(uuId.String(), ts, msgType, dataType, metadata, data)
}

func newMsg(id string, ts int64, msgType string, dataType DataType, metadata Metadata, data string) FlowMsg {
	if ts <= 0 {
		ts = time.Now().UnixMilli()
	}
	if id == "" {
		uuId, _ := uuid.NewV4()
		id = uuId.String()
	}
	return FlowMsg{
		Ts:       ts,
		Id:       id,
		Type:     msgType,
		DataType: dataType,
		Data:     data,
		Metadata: metadata,
	}
}

// Copy returns a copy sharing the id but with independent metadata.
func (m *FlowMsg) Copy() FlowMsg {
	return newMsg(m.Id, m.Ts, m.Type, m.DataType, m.Metadata.Copy(), m.Data)
}

// WrapperMsg wraps one branch-end result, used when a sub graph merges the
// results of its end nodes into a single message.
type WrapperMsg struct {
	Msg    FlowMsg `json:"msg"`
	Err    string  `json:"err"`
	NodeId string  `json:"nodeId"`
}
