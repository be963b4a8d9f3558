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

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/protocol"
)

// BodyLimit rejects request bodies larger than limit bytes with a 413.
// A declared content-length over the limit fails before the application
// runs; otherwise the receive call that crosses the limit returns the
// error, which handlers reading the body pass on. A limit of zero or less
// disables the check.
func BodyLimit(limit int64) Func {
	return func(next protocol.App) protocol.App {
		if limit <= 0 {
			return next
		}
		return func(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
			if scope.Type != protocol.ScopeHTTP {
				return next(ctx, scope, receive, send)
			}
			if cl := scope.Header("content-length"); cl != "" {
				if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n > limit {
					return tooLarge(limit)
				}
			}

			var read int64
			limited := func(ctx context.Context) (protocol.Message, error) {
				msg, err := receive(ctx)
				if err != nil || msg.Type != protocol.HTTPRequest {
					return msg, err
				}
				read += int64(len(msg.Body))
				if read > limit {
					return protocol.Message{}, tooLarge(limit)
				}
				return msg, nil
			}
			return next(ctx, scope, limited, send)
		}
	}
}

func tooLarge(limit int64) *apperrors.Error {
	return apperrors.New(http.StatusRequestEntityTooLarge,
		fmt.Sprintf("request body exceeds %d bytes", limit))
}
