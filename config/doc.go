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

// Package config loads layered configuration into a tagged struct.
//
// Sources are merged in the order given, later ones overriding earlier
// ones key by key. [LoadSettings] layers them over the `default` tags of
// [Settings]:
//
//	settings, cfg, err := config.LoadSettings(ctx,
//		config.StandardOptions("courier.yaml", ".env")...)
//
// With [StandardOptions] the order, lowest first, is: struct defaults, the
// configuration file (YAML, TOML or JSON by extension), a dotenv file with
// unprefixed keys (APP_NAME=...), then environment variables prefixed with
// COURIER_ (COURIER_APP_NAME=...). Keys are flat and case-insensitive.
//
// Decoding is weakly typed, so "8001" binds to an int and "5s" to a
// time.Duration. Every failed `validate` tag is reported, joined into one
// error whose parts are [*Error] values naming the key.
package config
