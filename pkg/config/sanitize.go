/*
 * Copyright 2025 Carver Automation Corporation.
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

package config

import (
	"encoding/json"
	"reflect"
	"strings"
)

// redacted replaces fields tagged sensitive:"true".
const redacted = "[redacted]"

// SanitizedJSON renders cfg as JSON with every sensitive:"true" field that
// holds a value replaced, so effective configuration can be logged.
func SanitizedJSON(cfg interface{}) ([]byte, error) {
	return json.Marshal(sanitize(reflect.ValueOf(cfg)))
}

func sanitize(v reflect.Value) interface{} {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}

		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		if _, ok := v.Interface().(json.Marshaler); ok {
			return v.Interface()
		}

		out := make(map[string]interface{}, v.NumField())
		t := v.Type()

		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}

			name, omitEmpty := jsonName(f)
			if name == "-" {
				continue
			}

			fv := v.Field(i)
			if omitEmpty && fv.IsZero() {
				continue
			}

			if f.Tag.Get("sensitive") == "true" && !fv.IsZero() {
				out[name] = redacted
				continue
			}

			out[name] = sanitize(fv)
		}

		return out
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, v.Len())
		for i := range out {
			out[i] = sanitize(v.Index(i))
		}

		return out
	case reflect.Invalid:
		return nil
	default:
		return v.Interface()
	}
}

func jsonName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return f.Name, false
	}

	parts := strings.Split(tag, ",")
	name := parts[0]

	if name == "" {
		name = f.Name
	}

	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			return name, true
		}
	}

	return name, false
}
