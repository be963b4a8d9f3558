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

package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/courier/dispatch"
	apperrors "rivaas.dev/courier/errors"
	"rivaas.dev/courier/protocol"
)

// ErrorObserver records every application error the dispatcher catches as
// its own span, "error.<status>", marked force_sample so that ratio
// sampling keeps it.
func ErrorObserver(t *Tracer) dispatch.ErrorObserver {
	return func(ctx context.Context, _ *protocol.Scope, err *apperrors.Error) {
		t.recordAppError(ctx, err)
	}
}

func (t *Tracer) recordAppError(ctx context.Context, err *apperrors.Error) {
	_, span := t.tracer.Start(ctx, fmt.Sprintf("error.%d", err.HTTPStatus()),
		trace.WithAttributes(ForceSampleKey.Bool(true)),
	)
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	span.End()
}
