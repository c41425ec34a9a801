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

package transform

import (
	"strconv"

	"github.com/samber/lo"

	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/ir"
)

// MapOptions configures MapLoop.
type MapOptions struct {
	// Params are the argument descriptors, one per parameter. Pointer
	// descriptors mark the array parameters the loop walks; the others are
	// passed through as scalars.
	Params []ctype.Type

	// Length bounds the loop. Defaults to the element count of the first
	// array.
	Length ir.Expr

	// LoopVar and Output name the induction variable and the output array.
	// They default to "i" and "out" and get a numeric suffix when the kernel
	// already uses the name.
	LoopVar string
	Output  string

	// Pragma, if set, is emitted before the loop, e.g. "ivdep".
	Pragma string
}

// MapLoop lifts the scalar kernel fn into an elementwise loop over its array
// arguments. Every reference to an array parameter becomes an element access
// at the loop index, each "return e" becomes "out[i] = e", and the function
// gains a trailing output parameter typed like the first array. The result
// returns void.
//
// fn must already be specialized for the element types. A return must be the
// last statement of the body or of a trailing if/else branch.
func MapLoop(fn *ir.FuncDecl, opts MapOptions) (*ir.FuncDecl, error) {
	name := fn.Name
	if len(opts.Params) != len(fn.Params) {
		return nil, transformErr(name, "map kernel", "%d argument types given, function takes %d", len(opts.Params), len(fn.Params))
	}
	if ctype.IsVoid(fn.Return) {
		return nil, transformErr(name, "map kernel", "the kernel must return a value")
	}

	var first ctype.Pointer
	arrays := map[string]bool{}
	for i, p := range fn.Params {
		arr, ok := opts.Params[i].(ctype.Pointer)
		if !ok {
			continue
		}
		if len(arrays) == 0 {
			first = arr
		} else if arr.Len() != first.Len() {
			return nil, transformErr(name, "map kernel", "array %s has %d elements, expected %d", p.Name, arr.Len(), first.Len())
		}
		if !ctype.Equal(arr.Elem, p.Type) {
			return nil, transformErr(name, "map kernel", "array %s holds %s, kernel parameter is %s", p.Name, arr.Elem, p.Type)
		}
		arrays[p.Name] = true
	}
	if len(arrays) == 0 {
		return nil, transformErr(name, "map kernel", "at least one argument must be an array")
	}
	if err := checkTailReturns(name, fn.Body); err != nil {
		return nil, err
	}

	used := usedNames(fn)
	loopVar := freshName(lo.CoalesceOrEmpty(opts.LoopVar, "i"), used)
	used[loopVar] = true
	output := freshName(lo.CoalesceOrEmpty(opts.Output, "out"), used)

	out := ir.Clone(fn)
	body, err := ir.Rewrite(&ir.Block{Body: out.Body}, func(n ir.Node) (ir.Node, error) {
		switch n := n.(type) {
		case *ir.SymbolRef:
			if arrays[n.Name] && n.Type == nil {
				return ir.Index(n, ir.Sym(loopVar)), nil
			}
		case *ir.Return:
			return &ir.Assign{Target: ir.Index(ir.Sym(output), ir.Sym(loopVar)), Value: n.Value}, nil
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}

	length := opts.Length
	if length == nil {
		length = ir.Int(int64(first.Len()))
	}
	loop := ir.CountedFor(loopVar, length, body.(*ir.Block).Body...)
	loop.Pragma = opts.Pragma

	for i, p := range out.Params {
		p.Type = opts.Params[i]
	}
	out.Params = append(out.Params, ir.TypedSym(output, ctype.Pointer{Elem: first.Elem, Shape: first.Shape}))
	out.Return = ctype.Void
	out.Body = []ir.Node{loop}
	return out, nil
}

// checkTailReturns rejects a return that would cut the loop body short.
func checkTailReturns(name string, body []ir.Node) error {
	for i, s := range body {
		last := i == len(body)-1
		switch s := s.(type) {
		case *ir.Return:
			if s.Value == nil {
				return transformErr(name, "map kernel", "bare return in a map kernel")
			}
			if !last {
				return transformErr(name, "map kernel", "return must be the last statement")
			}
		case *ir.If:
			if last {
				if err := checkTailReturns(name, s.Then); err != nil {
					return err
				}
				if err := checkTailReturns(name, s.Else); err != nil {
					return err
				}
				continue
			}
			if hasReturn(s) {
				return transformErr(name, "map kernel", "return must be the last statement")
			}
		default:
			if hasReturn(s) {
				return transformErr(name, "map kernel", "return inside a loop or block is not supported")
			}
		}
	}
	return nil
}

func hasReturn(n ir.Node) bool {
	found := false
	ir.Inspect(n, func(n ir.Node) bool {
		if _, ok := n.(*ir.Return); ok {
			found = true
		}
		return !found
	})
	return found
}

func usedNames(fn *ir.FuncDecl) map[string]bool {
	used := map[string]bool{fn.Name: true}
	ir.Inspect(fn, func(n ir.Node) bool {
		switch n := n.(type) {
		case *ir.SymbolRef:
			used[n.Name] = true
		case *ir.VarDecl:
			used[n.Name] = true
		}
		return true
	})
	return used
}

func freshName(base string, used map[string]bool) string {
	name := base
	for k := 1; used[name]; k++ {
		name = base + "_" + strconv.Itoa(k)
	}
	return name
}
