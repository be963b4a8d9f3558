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
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var metricNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

const maxMetricNameLength = 255

// Prefixes reserved for built-in instruments.
var reservedPrefixes = []string{"__", "http_"}

type limitError struct {
	metricName string
	limit      int
}

func (e *limitError) Error() string {
	return fmt.Sprintf("metrics limit reached: cannot create '%s' (limit: %d)", e.metricName, e.limit)
}

func validateMetricName(name string) error {
	if name == "" {
		return fmt.Errorf("metric name cannot be empty")
	}
	if len(name) > maxMetricNameLength {
		return fmt.Errorf("metric name too long: %d characters (max %d)", len(name), maxMetricNameLength)
	}
	if !metricNameRegex.MatchString(name) {
		return fmt.Errorf("invalid metric name '%s': must start with letter and contain only alphanumeric, underscore, dot, or hyphen", name)
	}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("metric name '%s' uses reserved prefix '%s'", name, prefix)
		}
	}
	return nil
}

// ObserveRequest records one request latency under the given route label,
// method and status code.
func (r *Recorder) ObserveRequest(ctx context.Context, label, method string, status int, elapsed time.Duration) {
	r.requestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("path", label),
		attribute.String("method", method),
		attribute.String("status_code", strconv.Itoa(status)),
	))
}

// IncrementCounter adds one to a custom counter, creating it on first use.
func (r *Recorder) IncrementCounter(ctx context.Context, name string, attrs ...attribute.KeyValue) error {
	counter, err := r.counter(name)
	if err != nil {
		r.emitError("Failed to record custom counter", "name", name, "error", err)
		return err
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	return nil
}

func (r *Recorder) counter(name string) (metric.Int64Counter, error) {
	r.customMu.RLock()
	c, ok := r.customCounters[name]
	r.customMu.RUnlock()
	if ok {
		return c, nil
	}

	if err := validateMetricName(name); err != nil {
		return nil, err
	}

	r.customMu.Lock()
	defer r.customMu.Unlock()
	if c, ok := r.customCounters[name]; ok {
		return c, nil
	}
	if len(r.customCounters) >= r.maxCustomMetrics {
		return nil, &limitError{metricName: name, limit: r.maxCustomMetrics}
	}
	c, err := r.meter.Int64Counter(name)
	if err != nil {
		return nil, fmt.Errorf("create counter %s: %w", name, err)
	}
	r.customCounters[name] = c
	return c, nil
}
