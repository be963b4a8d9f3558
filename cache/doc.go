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

// Package cache provides a cache-aside decorator over a key-value [Store].
//
//	store, _ := cache.NewRedis("redis://localhost:6379/0")
//	get := cache.Wrap(store, "quote", svc.Get,
//	    cache.WithTTL(time.Minute),
//	    cache.WithKey(func(id string) string { return "id:" + id }),
//	)
//	q, err := get(ctx, "42") // hits Redis on the second call
//
// A cache failure never reaches the caller: the decorator logs it and calls
// the wrapped function.
package cache
