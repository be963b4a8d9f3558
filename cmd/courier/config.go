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

package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"rivaas.dev/courier/config/codec"
	"rivaas.dev/courier/config/dumper"
)

func newConfigCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		reveal bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings after layering every source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc, err := codec.GetEncoder(codec.Type(format))
			if err != nil {
				return err
			}
			_, c, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			values := c.Values()
			if !reveal {
				redactURLs(values)
			}
			if err := dumper.NewWriter(cmd.OutOrStdout(), enc).Dump(cmd.Context(), values); err != nil {
				return fmt.Errorf("printing settings: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(codec.TypeYAML), "yaml, json, toml or env")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print URL passwords as they are")
	return cmd
}

// redactURLs masks the password of every *_url value.
func redactURLs(values map[string]any) {
	for k, v := range values {
		s, ok := v.(string)
		if !ok || !strings.HasSuffix(k, "_url") {
			continue
		}
		if u, err := url.Parse(s); err == nil && u.User != nil {
			values[k] = u.Redacted()
		}
	}
}
