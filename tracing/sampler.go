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
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ForceSampleKey marks a span that must be sampled whatever the ratio.
const ForceSampleKey = attribute.Key("force_sample")

type errorAwareSampler struct {
	ratio sdktrace.Sampler
}

// ErrorAwareSampler samples a span started with force_sample=true, and
// otherwise defers to TraceIDRatioBased(ratio).
func ErrorAwareSampler(ratio float64) sdktrace.Sampler {
	return errorAwareSampler{ratio: sdktrace.TraceIDRatioBased(ratio)}
}

func (s errorAwareSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	for _, kv := range p.Attributes {
		if kv.Key == ForceSampleKey && kv.Value.Type() == attribute.BOOL && kv.Value.AsBool() {
			return sdktrace.SamplingResult{
				Decision:   sdktrace.RecordAndSample,
				Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
			}
		}
	}
	return s.ratio.ShouldSample(p)
}

func (s errorAwareSampler) Description() string {
	return fmt.Sprintf("ErrorAwareSampler{%s}", s.ratio.Description())
}
