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

// Package server bridges net/http to a protocol.App.
//
// Each HTTP request becomes one http scope. The request body is delivered
// as http.request messages of at most [ChunkSize] bytes, and the app's
// response messages are written back as they arrive, so streamed bodies
// stream. An app that fails or panics before starting its response is
// answered with the formatted error, a 500 unless the error carries a
// status.
//
// [Server.Run] also drives the lifespan scope: startup before the listener
// opens, shutdown after the last request has drained.
//
//	srv := server.New(app, server.WithAddr(":8001"))
//	if err := srv.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
