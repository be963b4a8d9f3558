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

// Package tracing provides OpenTelemetry tracing for protocol applications.
//
//	tracer := tracing.MustNew(ctx,
//	    tracing.WithServiceName("quotes"),
//	    tracing.WithOTLP("collector:4317", tracing.OTLPInsecure()),
//	    tracing.WithErrorAwareSampling(0.1),
//	)
//	defer tracer.Shutdown(context.Background())
//
//	app := middleware.Chain(dispatcher.Serve, tracing.Middleware(tracer, registry))
//
// Pass [ErrorObserver] to the dispatcher so that application errors are
// traced even when ratio sampling would drop the request.
package tracing
