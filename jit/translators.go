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

package jit

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/ir"
	"github.com/ajroetker/go-ctree/transform"
)

// Request is what a Translator receives on a cache miss.
type Request struct {
	Kernel      *transform.Result
	Args        []ctype.Type
	Tuning      string
	Fingerprint Fingerprint
}

// Translation is a Translator's output: a project holding a definition of
// the entry point named Entry. The driver adds the trampoline.
type Translation struct {
	Project *ir.Project
	Entry   string
}

// Translator produces the C project for one fingerprint.
type Translator interface {
	Translate(req Request) (*Translation, error)
}

// Arity is implemented by translators that know how many arguments a call
// takes. Calls with a different count fail with an *InvocationError before
// any work is done.
type Arity interface {
	Arity(kernel *transform.Result) int
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(req Request) (*Translation, error)

func (f TranslatorFunc) Translate(req Request) (*Translation, error) { return f(req) }

// ScalarKernel compiles the kernel as written, with parameter types taken
// from the arguments.
type ScalarKernel struct{}

func (ScalarKernel) Arity(kernel *transform.Result) int { return len(kernel.Func.Params) }

func (ScalarKernel) Translate(req Request) (*Translation, error) {
	fn, err := transform.Specialize(req.Kernel, req.Args)
	if err != nil {
		return nil, err
	}
	return &Translation{
		Project: transform.Assemble(fn.Name, req.Kernel.Includes, fn),
		Entry:   fn.Name,
	}, nil
}

// MapKernel applies a scalar kernel elementwise. A call passes one argument
// per kernel parameter followed by the output array; array arguments must
// all have the same number of elements, scalars are broadcast.
type MapKernel struct {
	// Pragma is emitted before the loop, e.g. "ivdep".
	Pragma string
}

func (MapKernel) Arity(kernel *transform.Result) int { return len(kernel.Func.Params) + 1 }

func (m MapKernel) Translate(req Request) (*Translation, error) {
	n := len(req.Kernel.Func.Params)
	if len(req.Args) != n+1 {
		return nil, errors.Newf("map kernel %s takes %d arguments and an output, got %d", req.Kernel.Func.Name, n, len(req.Args))
	}
	in := req.Args[:n]
	elems := lo.Map(in, func(t ctype.Type, _ int) ctype.Type {
		if p, ok := t.(ctype.Pointer); ok {
			return p.Elem
		}
		return t
	})
	fn, err := transform.Specialize(req.Kernel, elems)
	if err != nil {
		return nil, err
	}
	mapped, err := transform.MapLoop(fn, transform.MapOptions{Params: in, Pragma: m.Pragma})
	if err != nil {
		return nil, err
	}
	return &Translation{
		Project: transform.Assemble(mapped.Name, req.Kernel.Includes, mapped),
		Entry:   mapped.Name,
	}, nil
}

// Map calls the map kernel f over args and returns the output, allocated
// like the first array argument: a slice for slices and Go arrays, an
// *ctype.Array of the same shape for arrays.
func Map(f *SpecializedFunc, args ...any) (any, error) {
	if _, err := ctype.DescribeAll(args); err != nil {
		return nil, err
	}
	out, err := newOutputLike(args)
	if err != nil {
		return nil, err
	}
	if _, err := f.Call(append(args[:len(args):len(args)], out)...); err != nil {
		return nil, err
	}
	return out, nil
}

func newOutputLike(args []any) (any, error) {
	for _, a := range args {
		if arr, ok := a.(ctype.Array); ok {
			a = &arr
		}
		if arr, ok := a.(*ctype.Array); ok {
			if arr == nil {
				continue
			}
			data := reflect.ValueOf(arr.Data)
			return &ctype.Array{
				Data:  reflect.MakeSlice(data.Type(), data.Len(), data.Len()).Interface(),
				Shape: append([]int(nil), arr.Shape...),
			}, nil
		}
		v := reflect.ValueOf(a)
		switch v.Kind() {
		case reflect.Slice:
			return reflect.MakeSlice(v.Type(), v.Len(), v.Len()).Interface(), nil
		case reflect.Array:
			return reflect.MakeSlice(reflect.SliceOf(v.Type().Elem()), v.Len(), v.Len()).Interface(), nil
		}
	}
	return nil, errors.WithStack(&InvocationError{Index: -1, Reason: "map needs at least one array argument"})
}
