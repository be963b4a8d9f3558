// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Get returns the value at key, which is case-insensitive and may use
// dots to reach into nested maps.
func (c *Config) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var current any = c.values
	for part := range strings.SplitSeq(strings.ToLower(key), ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

// String returns the value at key converted with cast, "" when absent.
func (c *Config) String(key string) string {
	v, _ := c.Get(key)
	return cast.ToString(v)
}

// Int returns the value at key converted with cast, 0 when absent.
func (c *Config) Int(key string) int {
	v, _ := c.Get(key)
	return cast.ToInt(v)
}

// Bool returns the value at key converted with cast, false when absent.
func (c *Config) Bool(key string) bool {
	v, _ := c.Get(key)
	return cast.ToBool(v)
}

// Float64 returns the value at key converted with cast, 0 when absent.
func (c *Config) Float64(key string) float64 {
	v, _ := c.Get(key)
	return cast.ToFloat64(v)
}

// Duration returns the value at key converted with cast, 0 when absent.
func (c *Config) Duration(key string) time.Duration {
	v, _ := c.Get(key)
	return cast.ToDuration(v)
}
