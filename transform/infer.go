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
	"maps"

	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/ir"
)

// Env holds the types visible at a point in a function body.
type Env struct {
	Vars  map[string]ctype.Type
	Funcs map[string]ctype.Func
}

// NewEnv returns an environment containing fn's typed parameters and fn
// itself, so recursive calls resolve once the return type is known.
func NewEnv(fn *ir.FuncDecl) *Env {
	env := &Env{Vars: map[string]ctype.Type{}, Funcs: map[string]ctype.Func{}}
	for _, p := range fn.Params {
		if p.Type != nil {
			env.Vars[p.Name] = p.Type
		}
	}
	if fn.Return != nil {
		env.Funcs[fn.Name] = fn.Signature()
	}
	return env
}

// Child returns a copy for a nested scope.
func (e *Env) Child() *Env {
	return &Env{Vars: maps.Clone(e.Vars), Funcs: e.Funcs}
}

// InferType returns the C type of expr under the usual arithmetic
// conversions. Unknown names and calls fail with a *TransformError.
func InferType(expr ir.Expr, env *Env) (ctype.Type, error) {
	t := infer(expr, env)
	if t == nil {
		return nil, transformErr("type inference", "", "cannot infer the type of %s", describeExpr(expr))
	}
	return t, nil
}

// infer is the lenient form: unknown operands yield nil, and an arithmetic
// expression with one unknown side takes the type of the known side.
func infer(expr ir.Expr, env *Env) ctype.Type {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ir.Constant:
		if e.Type != nil {
			return e.Type
		}
		switch e.Value.(type) {
		case int, int64:
			return ctype.Int64
		case uint64:
			return ctype.Uint64
		case float32:
			return ctype.Float32
		case float64:
			return ctype.Float64
		case bool:
			return ctype.Bool
		case string:
			return ctype.PointerTo(ctype.Int8)
		}
		return nil
	case *ir.SymbolRef:
		if e.Type != nil {
			return e.Type
		}
		return env.Vars[e.Name]
	case *ir.UnaryOp:
		t := infer(e.Operand, env)
		switch e.Op {
		case ir.OpNot:
			return ctype.Int32
		case ir.OpRef:
			if t == nil {
				return nil
			}
			return ctype.PointerTo(t)
		case ir.OpDeref:
			return ctype.Elem(t)
		case ir.OpPreInc, ir.OpPreDec, ir.OpPostInc, ir.OpPostDec:
			return t
		}
		return promote(t)
	case *ir.BinaryOp:
		l, r := infer(e.Left, env), infer(e.Right, env)
		switch {
		case e.Op.IsComparison():
			return ctype.Int32
		case e.Op == ir.OpComma:
			return r
		case e.Op == ir.OpShl || e.Op == ir.OpShr:
			return promote(l)
		}
		return arith(l, r)
	case *ir.ArrayRef:
		return ctype.Elem(infer(e.Array, env))
	case *ir.Cast:
		return e.Type
	case *ir.Ternary:
		return arith(infer(e.Then, env), infer(e.Else, env))
	case *ir.FuncCall:
		sym, ok := e.Func.(*ir.SymbolRef)
		if !ok {
			if f, ok := infer(e.Func, env).(ctype.Func); ok {
				return f.Return
			}
			return nil
		}
		if f, ok := env.Funcs[sym.Name]; ok {
			return f.Return
		}
		if f, ok := env.Vars[sym.Name].(ctype.Func); ok {
			return f.Return
		}
		if libmNames[sym.Name] {
			return ctype.Float64
		}
		if sym.Name == "len" {
			return ctype.Int64
		}
		return nil
	}
	return nil
}

// promote applies the C integer promotions.
func promote(t ctype.Type) ctype.Type {
	s, ok := t.(ctype.Scalar)
	if !ok || s.IsFloat() || s.Width() >= 32 {
		return t
	}
	return ctype.Int32
}

// arith applies the usual arithmetic conversions to a pair of operand types.
func arith(l, r ctype.Type) ctype.Type {
	if l == nil {
		return promote(r)
	}
	if r == nil {
		return promote(l)
	}
	// Pointer arithmetic keeps the pointer type.
	if _, ok := l.(ctype.Pointer); ok {
		return l
	}
	if _, ok := r.(ctype.Pointer); ok {
		return r
	}
	ls, lok := l.(ctype.Scalar)
	rs, rok := r.(ctype.Scalar)
	if !lok || !rok {
		return nil
	}
	switch {
	case ls.IsFloat() || rs.IsFloat():
		if ls.Kind == ctype.KindFloat64 || rs.Kind == ctype.KindFloat64 {
			return ctype.Float64
		}
		if ls.IsFloat() && rs.IsFloat() {
			return ctype.Float32
		}
		// float combined with an integer stays float.
		if ls.IsFloat() {
			return ls
		}
		return rs
	}
	lp, rp := promote(ls).(ctype.Scalar), promote(rs).(ctype.Scalar)
	switch {
	case lp.Width() > rp.Width():
		return lp
	case rp.Width() > lp.Width():
		return rp
	case !lp.Signed():
		return lp
	default:
		return rp
	}
}

func describeExpr(e ir.Expr) string {
	switch e := e.(type) {
	case *ir.SymbolRef:
		return e.Name
	case *ir.FuncCall:
		if s, ok := e.Func.(*ir.SymbolRef); ok {
			return "call to " + s.Name
		}
	}
	if e == nil {
		return "<nil>"
	}
	return e.Kind()
}
