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

package middleware

import "rivaas.dev/courier/protocol"

// Func wraps an application with a cross-cutting concern. The returned
// application has the same shape as the wrapped one.
type Func func(next protocol.App) protocol.App

// Chain wraps app with mws. The first middleware is the outermost: it sees
// the request first and the response last.
//
// Nil entries are skipped, so disabled middleware can be passed as nil.
func Chain(app protocol.App, mws ...Func) protocol.App {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			app = mws[i](app)
		}
	}
	return app
}
