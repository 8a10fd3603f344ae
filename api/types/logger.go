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
	"log"
	"os"
)

// Logger is the minimal logging surface components depend on.
type Logger interface {
	Printf(format string, v ...interface{})
}

var _ Logger = &log.Logger{}

// DefaultLogger logs to stdout with standard flags.
func DefaultLogger() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags)
}

// NewLogger returns custom when set, otherwise the default logger.
func NewLogger(custom Logger) Logger {
	if custom != nil {
		return custom
	}
	return DefaultLogger()
}
