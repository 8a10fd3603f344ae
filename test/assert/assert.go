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

// Package assert provides minimal test assertions.
package assert

import (
	"reflect"
	"testing"
)

// Equal fails the test when expected and actual are not deeply equal.
func Equal(t *testing.T, expected, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if !objectsAreEqual(expected, actual) {
		t.Errorf("not equal, expected=%v, actual=%v %v", expected, actual, msgAndArgs)
	}
}

// NotEqual fails the test when expected and actual are deeply equal.
func NotEqual(t *testing.T, expected, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if objectsAreEqual(expected, actual) {
		t.Errorf("equal, expected=%v, actual=%v %v", expected, actual, msgAndArgs)
	}
}

// Nil fails the test when the value is not nil.
func Nil(t *testing.T, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if !isNil(object) {
		t.Errorf("expected nil, actual=%v %v", object, msgAndArgs)
	}
}

// NotNil fails the test when the value is nil.
func NotNil(t *testing.T, object interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if isNil(object) {
		t.Errorf("expected not nil %v", msgAndArgs)
	}
}

// True fails the test when the value is false.
func True(t *testing.T, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	if !value {
		t.Errorf("expected true %v", msgAndArgs)
	}
}

// False fails the test when the value is true.
func False(t *testing.T, value bool, msgAndArgs ...interface{}) {
	t.Helper()
	if value {
		t.Errorf("expected false %v", msgAndArgs)
	}
}

func objectsAreEqual(expected, actual interface{}) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}
	if exp, ok := expected.([]byte); ok {
		act, ok := actual.([]byte)
		if !ok {
			return false
		}
		return reflect.DeepEqual(exp, act)
	}
	return reflect.DeepEqual(expected, actual)
}

func isNil(object interface{}) bool {
	if object == nil {
		return true
	}
	value := reflect.ValueOf(object)
	switch value.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return value.IsNil()
	default:
		return false
	}
}
