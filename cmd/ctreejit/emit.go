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
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

type emitOptions struct {
	kernelOptions
	Output string
}

func newEmitCommand(root *rootOptions) *cobra.Command {
	opts := &emitOptions{kernelOptions: kernelOptions{rootOptions: root}}
	cmd := &cobra.Command{
		Use:   "emit <file.go>",
		Short: "Print the C source generated for the given argument shapes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(cmd, opts, args[0])
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the C files into this directory instead of stdout")
	return cmd
}

func runEmit(cmd *cobra.Command, opts *emitOptions, path string) error {
	cfg, err := opts.toolchainConfig()
	if err != nil {
		return err
	}
	f, args, err := opts.load(path, cfg)
	if err != nil {
		return err
	}
	files, err := f.Generate(args...)
	if err != nil {
		return err
	}
	if opts.Output == "" {
		for _, file := range files {
			fmt.Fprint(cmd.OutOrStdout(), file.Source)
		}
		return nil
	}
	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	for _, file := range files {
		out := filepath.Join(opts.Output, file.Name)
		if err := os.WriteFile(out, []byte(file.Source), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", out)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	}
	return nil
}
