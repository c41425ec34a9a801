// Copyright 2025 go-highway Authors
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
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-ctree/toolchain"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	Config  string
	Verbose bool
}

func (o *rootOptions) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// toolchainConfig loads --config when given, else the defaults with
// environment overrides.
func (o *rootOptions) toolchainConfig() (toolchain.Config, error) {
	if o.Config == "" {
		cfg := toolchain.DefaultConfig().WithEnv()
		return cfg, cfg.Validate()
	}
	return toolchain.LoadConfig(o.Config)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "ctreejit",
		Short:         "Specialize Go kernels to C for concrete argument shapes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "toolchain configuration file (YAML)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newEmitCommand(opts))
	cmd.AddCommand(newDotCommand(opts))
	cmd.AddCommand(newCompileCommand(opts))
	return cmd
}
