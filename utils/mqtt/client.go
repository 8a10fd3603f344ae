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

// Package mqtt wraps the Paho MQTT client for the mqtt publish node.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/flowgo/flowgo/utils/str"
)

// Config holds the broker connection settings.
type Config struct {
	// Server is the mqtt broker address, e.g. tcp://127.0.0.1:1883
	Server   string
	Username string
	Password string
	// MaxReconnectInterval between reconnect attempts, default 60s.
	MaxReconnectInterval time.Duration
	QOS                  uint8
	CleanSession         bool
	ClientID             string
	CAFile               string
	CertFile             string
	CertKeyFile          string
}

// Client is a thin wrapper around a connected paho client.
type Client struct {
	sync.RWMutex
	client paho.Client
}

// NewClient connects to the broker, retrying until ctx is done.
func NewClient(ctx context.Context, conf Config) (*Client, error) {
	b := Client{}

	opts := paho.NewClientOptions()
	opts.AddBroker(conf.Server)
	opts.SetUsername(conf.Username)
	opts.SetPassword(conf.Password)
	opts.SetCleanSession(conf.CleanSession)
	if conf.ClientID == "" {
		opts.SetClientID("flowgo/" + str.RandomStr(8))
	} else {
		opts.SetClientID(conf.ClientID)
	}
	if conf.MaxReconnectInterval <= 0 {
		conf.MaxReconnectInterval = time.Second * 60
	}
	opts.SetMaxReconnectInterval(conf.MaxReconnectInterval)

	tlsconfig, err := newTLSConfig(conf.CAFile, conf.CertFile, conf.CertKeyFile)
	if err != nil {
		return nil, fmt.Errorf("error loading mqtt certificate files,ca_cert=%s,tls_cert=%s,tls_key=%s", conf.CAFile, conf.CertFile, conf.CertKeyFile)
	}
	if tlsconfig != nil {
		opts.SetTLSConfig(tlsconfig)
	}
	b.client = paho.NewClient(opts)

	for {
		if token := b.client.Connect(); token.Wait() && token.Error() != nil {
			select {
			case <-ctx.Done():
				return nil, token.Error()
			case <-time.After(2 * time.Second):
				// retry
			}
		} else {
			break
		}
	}

	return &b, nil
}

// Publish sends data to a topic, waiting for the broker ack.
func (b *Client) Publish(topic string, qos byte, data []byte) error {
	if token := b.client.Publish(topic, qos, false, data); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (b *Client) Close() error {
	b.client.Disconnect(500)
	return nil
}

func newTLSConfig(CAFile, certFile, certKeyFile string) (*tls.Config, error) {
	if CAFile == "" && certFile == "" && certKeyFile == "" {
		return nil, nil
	}

	tlsConfig := &tls.Config{}

	if CAFile != "" {
		caCert, err := os.ReadFile(CAFile)
		if err != nil {
			return nil, err
		}
		certPool := x509.NewCertPool()
		certPool.AppendCertsFromPEM(caCert)
		tlsConfig.RootCAs = certPool
	}

	if certFile != "" && certKeyFile != "" {
		kp, err := tls.LoadX509KeyPair(certFile, certKeyFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.Certificates = []tls.Certificate{kp}
	}
	return tlsConfig, nil
}
