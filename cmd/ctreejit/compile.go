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

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-ctree/toolchain"
)

func newCompileCommand(root *rootOptions) *cobra.Command {
	opts := &kernelOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "compile <file.go>",
		Short: "Compile the kernel for the given argument shapes and keep the module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.toolchainConfig()
			if err != nil {
				return err
			}
			cfg.Keep = true
			f, callArgs, err := opts.load(args[0], cfg)
			if err != nil {
				return err
			}
			fp, err := f.Fingerprint(callArgs...)
			if err != nil {
				return err
			}
			files, err := f.Generate(callArgs...)
			if err != nil {
				return err
			}
			art, err := toolchain.NewCC(cfg, opts.logger()).Compile(f.Name(), files)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Compiled %s%s in %v\n", f.Name(), fp.Desc, art.Elapsed)
			fmt.Fprintf(out, "  fingerprint: %s\n", fp.Key)
			fmt.Fprintf(out, "  build id:    %s\n", art.BuildID)
			fmt.Fprintf(out, "  module:      %s\n", art.Module)
			for _, src := range art.Sources {
				fmt.Fprintf(out, "  source:      %s\n", src)
			}
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}
