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
	"slices"
	"strings"

	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/ir"
)

// Specialize returns a copy of res.Func typed for the given parameter types.
//
// Type parameters are bound from the parameters that mention them ("T",
// "[]T", "*T"); concretely typed parameters must agree with the argument.
// Conversions to a type parameter become casts, len of a shaped parameter
// becomes a constant, locals are filled in, and a missing return type is
// inferred from the return statements.
func Specialize(res *Result, params []ctype.Type) (*ir.FuncDecl, error) {
	name := res.Func.Name
	if len(params) != len(res.Func.Params) {
		return nil, transformErr(name, "specialization", "%d parameter types given, function takes %d", len(params), len(res.Func.Params))
	}
	fn := ir.Clone(res.Func)

	bindings := map[string]ctype.Type{}
	for i, p := range fn.Params {
		if reason := res.bind(bindings, res.ParamTypes[i], params[i]); reason != "" {
			return nil, transformErr(name, "parameter "+p.Name, "%s", reason)
		}
		p.Type = params[i]
	}
	if fn.Return == nil {
		if t, ok := bindings[res.ResultType]; ok {
			fn.Return = t
		}
	}

	out, err := ir.Rewrite(fn, func(n ir.Node) (ir.Node, error) {
		call, ok := n.(*ir.FuncCall)
		if !ok {
			return n, nil
		}
		sym, ok := call.Func.(*ir.SymbolRef)
		if !ok {
			return n, nil
		}
		if slices.Contains(res.TypeParams, sym.Name) {
			t, bound := bindings[sym.Name]
			if !bound {
				return nil, transformErr(name, "conversion", "type parameter %s is not bound by any argument", sym.Name)
			}
			return &ir.Cast{Type: t, Value: call.Args[0]}, nil
		}
		if sym.Name == "len" && len(call.Args) == 1 {
			return resolveLen(name, fn, call.Args[0])
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	fn = out.(*ir.FuncDecl)

	f, err := fill(fn)
	if err != nil {
		return nil, err
	}
	if fn.Return == nil {
		for _, t := range f.returns {
			if t != nil {
				fn.Return = declType(t)
				break
			}
		}
	}
	if fn.Return == nil {
		if len(f.returns) > 0 {
			return nil, transformErr(name, "return type", "cannot infer the return type")
		}
		fn.Return = ctype.Void
	}
	return fn, nil
}

// bind records the type parameter bindings implied by a parameter written as
// expr receiving an argument of type t. It returns why the argument does not
// fit, or "".
func (res *Result) bind(bindings map[string]ctype.Type, expr string, t ctype.Type) string {
	if t == nil {
		return "no argument type"
	}
	indirect := strings.HasPrefix(expr, "[]") || strings.HasPrefix(expr, "*")
	base := strings.TrimLeft(expr, "[]*")
	elem := t
	if indirect {
		p, ok := t.(ctype.Pointer)
		if !ok {
			return "argument " + t.String() + " is not an array"
		}
		elem = p.Elem
	}

	if slices.Contains(res.TypeParams, base) {
		if prev, ok := bindings[base]; ok && !ctype.Equal(prev, elem) {
			return base + " bound to both " + prev.String() + " and " + elem.String()
		}
		bindings[base] = elem
		return ""
	}
	if expr == "any" || expr == "interface{}" {
		return ""
	}
	hint := ctype.ParseGoType(expr)
	if hint == nil {
		return "type " + expr + " has no C equivalent"
	}
	if indirect {
		if !ctype.Equal(ctype.Elem(hint), elem) {
			return "argument " + t.String() + " does not match " + expr
		}
		return ""
	}
	if !ctype.Equal(hint, t) {
		return "argument " + t.String() + " does not match " + expr
	}
	return ""
}

func resolveLen(name string, fn *ir.FuncDecl, arg ir.Expr) (ir.Node, error) {
	sym, ok := arg.(*ir.SymbolRef)
	if !ok {
		return nil, transformErr(name, "len", "argument must be a parameter")
	}
	p := fn.Param(sym.Name)
	if p == nil {
		return nil, transformErr(name, "len", "%s is not a parameter", sym.Name)
	}
	ptr, ok := p.Type.(ctype.Pointer)
	if !ok || ptr.Len() < 0 {
		return nil, transformErr(name, "len", "%s has no known extent", sym.Name)
	}
	return ir.Int(int64(ptr.Len())), nil
}
