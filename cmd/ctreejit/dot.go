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

	"github.com/ajroetker/go-ctree/ir"
	"github.com/ajroetker/go-ctree/transform"
)

func newDotCommand(root *rootOptions) *cobra.Command {
	opts := &kernelOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "dot <file.go>",
		Short: "Print the converted kernel's IR as a Graphviz graph",
		Long: `Print the kernel's IR as a Graphviz graph.

Without --args the graph shows the kernel as converted, before any types
are bound. With --args it shows the specialized function that would be
compiled for those shapes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, err := opts.parseFunc(args[0])
			if err != nil {
				return err
			}
			res, err := transform.Convert(fn)
			if err != nil {
				return err
			}
			var node ir.Node = res.Func
			if opts.Args != "" {
				types, err := parseDescriptors(opts.Args)
				if err != nil {
					return err
				}
				spec, err := transform.Specialize(res, types)
				if err != nil {
					return err
				}
				node = spec
			}
			fmt.Fprint(cmd.OutOrStdout(), ir.Dot(node))
			return nil
		},
	}
	opts.register(cmd)
	return cmd
}
