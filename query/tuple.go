/*
 * Copyright 2025 tomoncle.
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

package query

import (
	"fmt"
	"reflect"
	"strconv"
)

// Tuple is one row of a multi-expression projection. Values are read back
// by the projected expression or by position.
type Tuple struct {
	labels  []string
	sources []Expression
	values  map[string]interface{}
}

// Get returns the raw driver value of o. Drivers differ in the Go types
// they return, so prefer the typed getters. An expression without a label
// is found by its position in the projection.
func (t Tuple) Get(o Operand) interface{} {
	e := o.expression()
	if v, ok := t.values[e.label]; ok && e.label != "" {
		return v
	}
	for i, src := range t.sources {
		if src.query == e.query && reflect.DeepEqual(src.args, e.args) {
			return t.values[t.labels[i]]
		}
	}
	return nil
}

// At returns the value of the i-th projected expression.
func (t Tuple) At(i int) interface{} {
	if i < 0 || i >= len(t.labels) {
		return nil
	}
	return t.values[t.labels[i]]
}

func (t Tuple) Len() int { return len(t.labels) }

func (t Tuple) GetString(o Operand) string {
	switch v := t.Get(o).(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (t Tuple) GetInt64(o Operand) int64 {
	n, _ := toInt64(t.Get(o))
	return n
}

func (t Tuple) GetFloat64(o Operand) float64 {
	f, _ := toFloat64(t.Get(o))
	return f
}

func toInt64(v interface{}) (int64, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, fmt.Errorf("query: cannot convert %T to int64", v)
}

func toFloat64(v interface{}) (float64, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case []byte:
		return strconv.ParseFloat(string(v), 64)
	case string:
		return strconv.ParseFloat(v, 64)
	}
	return 0, fmt.Errorf("query: cannot convert %T to float64", v)
}
