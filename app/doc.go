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

// Package app assembles the quote service from [config.Settings]: logger,
// tracer, metrics recorder, cache, repository, route registry, dispatcher
// and middleware chain, served by [server.Server].
//
// # Basic Usage
//
//	settings, _, err := config.LoadSettings(ctx, config.StandardOptions("courier.yaml", ".env")...)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	a, err := app.New(ctx, settings)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := a.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// The middleware chain, outermost first:
//
//	tracing → metrics → request id → logging → security headers →
//	timeout → body limit → recovery → dispatcher
//
// Tracing, metrics, logging and security headers follow their settings.
package app
