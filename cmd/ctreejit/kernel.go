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
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/frontend"
	"github.com/ajroetker/go-ctree/jit"
	"github.com/ajroetker/go-ctree/native"
	"github.com/ajroetker/go-ctree/toolchain"
)

// kernelOptions selects a kernel and the shapes to specialize it for.
type kernelOptions struct {
	*rootOptions
	Func   string
	Args   string
	Map    bool
	Pragma string
	Tuning string
}

func (o *kernelOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Func, "func", "f", "", "kernel function name (optional when the file has one function)")
	cmd.Flags().StringVarP(&o.Args, "args", "a", "", "comma-separated argument descriptors, e.g. 'float64[12],int64'")
	cmd.Flags().BoolVar(&o.Map, "map", false, "treat the kernel as an elementwise map over its array arguments")
	cmd.Flags().StringVar(&o.Pragma, "pragma", "", "pragma emitted before a map loop, e.g. ivdep")
	cmd.Flags().StringVar(&o.Tuning, "tuning", "", "tuning value recorded in the fingerprint")
}

// parseFunc reads the kernel named by the options from path.
func (o *kernelOptions) parseFunc(path string) (*frontend.Func, error) {
	funcs, err := frontend.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return frontend.Lookup(funcs, o.Func)
}

// load prepares the kernel and the zero-valued arguments its descriptors
// name, including the output of a map kernel.
func (o *kernelOptions) load(path string, cfg toolchain.Config) (*jit.SpecializedFunc, []any, error) {
	fn, err := o.parseFunc(path)
	if err != nil {
		return nil, nil, err
	}
	var tr jit.Translator = jit.ScalarKernel{}
	if o.Map {
		tr = jit.MapKernel{Pragma: o.Pragma}
	}
	f, err := jit.New(fn, tr, jit.WithConfig(cfg), jit.WithLogger(o.logger()), jit.WithTuning(o.Tuning))
	if err != nil {
		return nil, nil, err
	}
	types, err := parseDescriptors(o.Args)
	if err != nil {
		return nil, nil, err
	}
	if o.Map {
		first, ok := lo.Find(types, func(t ctype.Type) bool { _, ok := t.(ctype.Pointer); return ok })
		if !ok {
			return nil, nil, errors.New("a map kernel needs at least one array argument")
		}
		types = append(types, first)
	}
	args, err := zeroArgs(types)
	if err != nil {
		return nil, nil, err
	}
	return f, args, nil
}

// parseDescriptors parses "float64[12],int32[3x4],float32" into types.
func parseDescriptors(s string) ([]ctype.Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var types []ctype.Type
	for _, d := range strings.Split(s, ",") {
		t, err := parseDescriptor(strings.TrimSpace(d))
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func parseDescriptor(d string) (ctype.Type, error) {
	name, dims, isArray := strings.Cut(d, "[")
	elem, ok := ctype.ParseGoType(name).(ctype.Scalar)
	if !ok || ctype.IsVoid(elem) {
		return nil, errors.Newf("descriptor %q: unknown element type %q", d, name)
	}
	if !isArray {
		return elem, nil
	}
	dims, ok = strings.CutSuffix(dims, "]")
	if !ok {
		return nil, errors.Newf("descriptor %q: missing ]", d)
	}
	var shape []int
	for _, s := range strings.Split(dims, "x") {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, errors.Newf("descriptor %q: bad extent %q", d, s)
		}
		shape = append(shape, n)
	}
	return ctype.ArrayOf(elem, shape...), nil
}

// zeroArgs builds a zero value per type: scalars as their Go type, 1-D arrays
// as slices and n-d arrays as *ctype.Array.
func zeroArgs(types []ctype.Type) ([]any, error) {
	args := make([]any, len(types))
	for i, t := range types {
		switch t := t.(type) {
		case ctype.Scalar:
			gt, ok := native.GoType(t)
			if !ok {
				return nil, errors.Newf("argument %d: no Go type for %s", i, t)
			}
			args[i] = reflect.Zero(gt).Interface()
		case ctype.Pointer:
			gt, ok := native.GoType(t.Elem)
			if !ok {
				return nil, errors.Newf("argument %d: no Go type for %s", i, t)
			}
			data := reflect.MakeSlice(reflect.SliceOf(gt), t.Len(), t.Len()).Interface()
			if len(t.Shape) == 1 {
				args[i] = data
				continue
			}
			a, err := ctype.NewArray(data, t.Shape...)
			if err != nil {
				return nil, err
			}
			args[i] = a
		default:
			return nil, errors.Newf("argument %d: unsupported type %s", i, t)
		}
	}
	return args, nil
}
