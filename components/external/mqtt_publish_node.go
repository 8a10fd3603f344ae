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

package external

//node configuration example:
//{
//        "id": "s1",
//        "type": "external/mqttPublish",
//        "name": "broadcast event",
//        "configuration": {
//			"server": "tcp://127.0.0.1:1883",
//			"topic": "/flow/events/${metadata.eventName}"
//        }
//  }
import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/maps"
	"github.com/flowgo/flowgo/utils/mqtt"
	"github.com/flowgo/flowgo/utils/str"
)

// register the node
func init() {
	Registry.Add(&MqttPublishNode{})
}

// MqttPublishNodeConfiguration is the node configuration.
type MqttPublishNodeConfiguration struct {
	// Topic to publish to. ${metadata.key} and ${msg.key} placeholders
	// are expanded from the message.
	Topic  string
	Server string
	// Username for broker authentication.
	Username string
	// Password for broker authentication.
	Password string
	// MaxReconnectInterval between reconnect attempts, in seconds.
	MaxReconnectInterval int
	QOS                  uint8
	CleanSession         bool
	ClientID             string
	CAFile               string
	CertFile             string
	CertKeyFile          string
}

// MqttPublishNode publishes the message payload to an MQTT broker, e.g.
// to broadcast sequence events as LiveOps telemetry. Success after the
// broker ack, Failure on connection or publish errors.
type MqttPublishNode struct {
	// Config is the node configuration.
	Config MqttPublishNodeConfiguration

	client   *mqtt.Client
	mu       sync.Mutex
	topicTpl bool
}

// Type of the component.
func (x *MqttPublishNode) Type() string {
	return "external/mqttPublish"
}

func (x *MqttPublishNode) New() types.Node {
	return &MqttPublishNode{Config: MqttPublishNodeConfiguration{
		Topic:                "/flow/events",
		Server:               "127.0.0.1:1883",
		QOS:                  0,
		MaxReconnectInterval: 60,
	}}
}

// Init loads the configuration. The broker connection opens lazily on the
// first message.
func (x *MqttPublishNode) Init(_ types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.Topic == "" {
		return errors.New("topic can not be empty")
	}
	x.topicTpl = str.CheckHasVar(x.Config.Topic)
	return nil
}

// OnMsg publishes the payload.
func (x *MqttPublishNode) OnMsg(ctx types.FlowContext, msg types.FlowMsg) {
	client, err := x.getClient()
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	topic := x.Config.Topic
	if x.topicTpl {
		topic = str.ExecuteTemplate(topic, ctx.GetEnv(msg, true))
	}
	if err := client.Publish(topic, x.Config.QOS, []byte(msg.Data)); err != nil {
		ctx.TellFailure(msg, err)
	} else {
		ctx.TellSuccess(msg)
	}
}

// Destroy closes the broker connection.
func (x *MqttPublishNode) Destroy() {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.client != nil {
		_ = x.client.Close()
		x.client = nil
	}
}

func (x *MqttPublishNode) getClient() (*mqtt.Client, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.client != nil {
		return x.client, nil
	}
	ctx, cancel := context.WithTimeout(context.TODO(), 10*time.Second)
	defer cancel()
	client, err := mqtt.NewClient(ctx, mqtt.Config{
		Server:               x.Config.Server,
		Username:             x.Config.Username,
		Password:             x.Config.Password,
		MaxReconnectInterval: time.Duration(x.Config.MaxReconnectInterval) * time.Second,
		QOS:                  x.Config.QOS,
		CleanSession:         x.Config.CleanSession,
		ClientID:             x.Config.ClientID,
		CAFile:               x.Config.CAFile,
		CertFile:             x.Config.CertFile,
		CertKeyFile:          x.Config.CertKeyFile,
	})
	if err != nil {
		return nil, err
	}
	x.client = client
	return x.client, nil
}
