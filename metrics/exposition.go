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

package metrics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"

	"rivaas.dev/courier/response"
	"rivaas.dev/courier/router"
)

// ExpositionPath is where the text exposition is served.
const ExpositionPath = "/metrics"

// ErrNoExposition is returned when the provider has no pull endpoint.
var ErrNoExposition = errors.New("metrics: exposition only available with the Prometheus provider")

// WriteText writes every collected family in the Prometheus text format.
func (r *Recorder) WriteText(w io.Writer) error {
	if r.prometheusRegistry == nil {
		return ErrNoExposition
	}
	families, err := r.prometheusRegistry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Handler serves the text exposition as a route.
func (r *Recorder) Handler(_ context.Context, _ *router.Request) (*response.Response, error) {
	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		return nil, err
	}
	return response.Text(buf.Bytes()), nil
}

// Register adds GET /metrics to reg, outside the contract. It does nothing
// for push providers.
func (r *Recorder) Register(reg *router.Registry) error {
	if r.prometheusRegistry == nil {
		return nil
	}
	return reg.GET(ExpositionPath, r.Handler, router.WithHidden())
}
