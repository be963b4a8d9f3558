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
	"slices"
	"strings"

	"rivaas.dev/courier/protocol"
)

// SecurityOption configures [SecurityHeaders].
type SecurityOption func(*securityConfig)

type securityConfig struct {
	headers []protocol.Header
	hsts    string
	filter  *PathFilter
}

func (cfg *securityConfig) set(name, value string) {
	name = strings.ToLower(name)
	cfg.headers = slices.DeleteFunc(cfg.headers, func(h protocol.Header) bool { return h.Name == name })
	if value != "" {
		cfg.headers = append(cfg.headers, protocol.Header{Name: name, Value: value})
	}
}

// WithFrameOptions sets X-Frame-Options. Empty removes it.
func WithFrameOptions(value string) SecurityOption {
	return func(cfg *securityConfig) { cfg.set("x-frame-options", value) }
}

// WithContentSecurityPolicy sets Content-Security-Policy. Empty removes it.
func WithContentSecurityPolicy(policy string) SecurityOption {
	return func(cfg *securityConfig) { cfg.set("content-security-policy", policy) }
}

// WithReferrerPolicy sets Referrer-Policy. Empty removes it.
func WithReferrerPolicy(policy string) SecurityOption {
	return func(cfg *securityConfig) { cfg.set("referrer-policy", policy) }
}

// WithSecurityHeader sets any other header.
func WithSecurityHeader(name, value string) SecurityOption {
	return func(cfg *securityConfig) { cfg.set(name, value) }
}

// WithHSTS configures Strict-Transport-Security. A maxAge of zero
// disables it.
func WithHSTS(maxAge int, includeSubdomains, preload bool) SecurityOption {
	return func(cfg *securityConfig) {
		if maxAge <= 0 {
			cfg.hsts = ""
			return
		}
		cfg.hsts = fmt.Sprintf("max-age=%d", maxAge)
		if includeSubdomains {
			cfg.hsts += "; includeSubDomains"
		}
		if preload {
			cfg.hsts += "; preload"
		}
	}
}

// WithSecurityPathFilter replaces the paths left without headers. The
// default filter skips the docs page, whose assets come from a CDN.
func WithSecurityPathFilter(pf *PathFilter) SecurityOption {
	return func(cfg *securityConfig) { cfg.filter = pf }
}

// SecurityHeaders adds protective headers to every HTTP response start
// message. Headers the application already set win. HSTS is only sent when
// the request arrived over HTTPS, as told by X-Forwarded-Proto.
func SecurityHeaders(opts ...SecurityOption) Func {
	cfg := &securityConfig{
		headers: []protocol.Header{
			{Name: "x-frame-options", Value: "DENY"},
			{Name: "x-content-type-options", Value: "nosniff"},
			{Name: "content-security-policy", Value: "default-src 'self'"},
			{Name: "referrer-policy", Value: "strict-origin-when-cross-origin"},
		},
		hsts:   "max-age=31536000; includeSubDomains",
		filter: DefaultPathFilter(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next protocol.App) protocol.App {
		return func(ctx context.Context, scope *protocol.Scope, receive protocol.Receive, send protocol.Send) error {
			if scope.Type != protocol.ScopeHTTP || cfg.filter.Excluded(scope.Path) {
				return next(ctx, scope, receive, send)
			}
			extra := cfg.headers
			if cfg.hsts != "" && strings.EqualFold(scope.Header("x-forwarded-proto"), "https") {
				extra = append(slices.Clip(extra), protocol.Header{Name: "strict-transport-security", Value: cfg.hsts})
			}

			return next(ctx, scope, receive, func(ctx context.Context, msg protocol.Message) error {
				if msg.Type == protocol.HTTPResponseStart {
					msg.Headers = withDefaults(msg.Headers, extra)
				}
				return send(ctx, msg)
			})
		}
	}
}

func withDefaults(headers, defaults []protocol.Header) []protocol.Header {
	out := slices.Clip(headers)
	for _, d := range defaults {
		if !slices.ContainsFunc(headers, func(h protocol.Header) bool { return strings.EqualFold(h.Name, d.Name) }) {
			out = append(out, d)
		}
	}
	return out
}
