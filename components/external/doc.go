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

// Package external provides components talking to systems outside the
// graph runtime:
//
// - AnalyticsDbNode: records graph and sequence events to a SQL database
// - MqttPublishNode: publishes graph events to an MQTT broker
package external

import (
	"github.com/flowgo/flowgo/api/types"
)

// Registry is the component list of this package.
var Registry = new(types.SafeComponentSlice)
