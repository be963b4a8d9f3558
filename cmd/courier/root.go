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
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rivaas.dev/courier/app"
	"rivaas.dev/courier/cache"
	"rivaas.dev/courier/config"
	"rivaas.dev/courier/internal/quote"
	"rivaas.dev/courier/internal/store"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "courier",
		Short:         "Quote service on the courier runtime",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "settings file (.yaml, .yml, .json, .toml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file read when present")

	root.AddCommand(
		newServeCmd(flags),
		newOpenAPICmd(flags),
		newRoutesCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

func (f *globalFlags) load(ctx context.Context) (*config.Settings, *config.Config, error) {
	s, c, err := config.LoadSettings(ctx, config.StandardOptions(f.configFile, f.envFile)...)
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	return s, c, nil
}

// offlineApp assembles the service without touching redis or the
// database, for commands that only inspect it.
func (f *globalFlags) offlineApp(ctx context.Context) (*app.App, error) {
	s, _, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	s.EnableTracing = false
	return app.New(ctx, s,
		app.WithLogOutput(io.Discard),
		app.WithCache(cache.NewMemory()),
		app.WithRepository(store.NewMemory[quote.Quote]()),
	)
}
