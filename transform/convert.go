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

// Package transform lowers parsed Go kernels to IR and specializes them for
// concrete argument types.
//
// The passes run in this order:
//
//	Convert           go/ast -> ir, one node at a time
//	Specialize        bind parameter types, resolve T(x) and len(x), fill
//	                  local declarations, infer the return type
//	MapLoop           (map kernels only) lift a scalar body into a counted
//	                  loop over array arguments
//	Trampoline        add the uniform entry point the native binder calls
package transform

import (
	"go/ast"
	"go/token"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/frontend"
	"github.com/ajroetker/go-ctree/ir"
)

// Result is the output of Convert.
type Result struct {
	// Func is the converted function. Parameter and return types are set
	// where the Go source spelled them concretely and nil otherwise.
	Func *ir.FuncDecl

	// Includes lists the system headers the body needs, e.g. "math.h".
	Includes []string

	// TypeParams are the names of the Go type parameters.
	TypeParams []string

	// ParamTypes holds each parameter's type expression as written.
	ParamTypes []string

	// ResultType is the result type expression, empty for no result.
	ResultType string

	src *frontend.Func
}

// libm maps Go math functions to their C counterparts.
var libm = map[string]string{
	"Abs": "fabs", "Acos": "acos", "Acosh": "acosh", "Asin": "asin",
	"Asinh": "asinh", "Atan": "atan", "Atan2": "atan2", "Atanh": "atanh",
	"Cbrt": "cbrt", "Ceil": "ceil", "Copysign": "copysign", "Cos": "cos",
	"Cosh": "cosh", "Erf": "erf", "Erfc": "erfc", "Exp": "exp",
	"Exp2": "exp2", "Expm1": "expm1", "Floor": "floor", "FMA": "fma",
	"Gamma": "tgamma", "Hypot": "hypot", "Log": "log", "Log10": "log10",
	"Log1p": "log1p", "Log2": "log2", "Max": "fmax", "Min": "fmin",
	"Mod": "fmod", "Pow": "pow", "Remainder": "remainder", "Round": "round",
	"Sin": "sin", "Sinh": "sinh", "Sqrt": "sqrt", "Tan": "tan",
	"Tanh": "tanh", "Trunc": "trunc",
}

// libmNames is the set of C names in libm, used by type inference.
var libmNames = func() map[string]bool {
	m := make(map[string]bool, len(libm))
	for _, c := range libm {
		m[c] = true
	}
	return m
}()

var mathConsts = map[string]float64{
	"Pi": math.Pi, "E": math.E, "Phi": math.Phi, "Sqrt2": math.Sqrt2,
	"SqrtE": math.SqrtE, "SqrtPi": math.SqrtPi, "SqrtPhi": math.SqrtPhi,
	"Ln2": math.Ln2, "Log2E": math.Log2E, "Ln10": math.Ln10, "Log10E": math.Log10E,
	"MaxFloat64": math.MaxFloat64, "SmallestNonzeroFloat64": math.SmallestNonzeroFloat64,
}

var binaryOps = map[token.Token]ir.BinaryOperator{
	token.ADD: ir.OpAdd, token.SUB: ir.OpSub, token.MUL: ir.OpMul,
	token.QUO: ir.OpDiv, token.REM: ir.OpMod,
	token.LSS: ir.OpLt, token.GTR: ir.OpGt, token.LEQ: ir.OpLtE,
	token.GEQ: ir.OpGtE, token.EQL: ir.OpEq, token.NEQ: ir.OpNotEq,
	token.LAND: ir.OpAnd, token.LOR: ir.OpOr,
	token.AND: ir.OpBitAnd, token.OR: ir.OpBitOr, token.XOR: ir.OpBitXor,
	token.SHL: ir.OpShl, token.SHR: ir.OpShr,
}

var augOps = map[token.Token]ir.BinaryOperator{
	token.ADD_ASSIGN: ir.OpAdd, token.SUB_ASSIGN: ir.OpSub,
	token.MUL_ASSIGN: ir.OpMul, token.QUO_ASSIGN: ir.OpDiv,
	token.REM_ASSIGN: ir.OpMod, token.AND_ASSIGN: ir.OpBitAnd,
	token.OR_ASSIGN: ir.OpBitOr, token.XOR_ASSIGN: ir.OpBitXor,
	token.SHL_ASSIGN: ir.OpShl, token.SHR_ASSIGN: ir.OpShr,
}

type converter struct {
	fn         *frontend.Func
	typeParams map[string]bool
	includes   []string
}

// Convert lowers fn to IR. Every Go construct maps to exactly one IR
// construct; anything without a C counterpart fails with a *TransformError
// carrying the source position.
func Convert(fn *frontend.Func) (*Result, error) {
	c := &converter{fn: fn, typeParams: map[string]bool{}}
	res := &Result{src: fn, ResultType: ""}
	for _, tp := range fn.TypeParams {
		c.typeParams[tp.Name] = true
		res.TypeParams = append(res.TypeParams, tp.Name)
	}

	if err := checkIdent(fn.Name, fn.Name); err != nil {
		return nil, err
	}
	decl := &ir.FuncDecl{Name: fn.Name, Return: ctype.Void}
	for i, p := range fn.Params {
		if p.Name == "" {
			return nil, transformErr(fn.Name, "parameter", "parameter %d is unnamed", i)
		}
		if err := checkIdent(fn.Name, p.Name); err != nil {
			return nil, err
		}
		if !c.isGenericType(p.Type) && p.Hint == nil && p.Type != "any" {
			return nil, transformErr(fn.Name, "parameter", "type %s of %s has no C equivalent", p.Type, p.Name)
		}
		decl.Params = append(decl.Params, &ir.SymbolRef{Name: p.Name, Type: p.Hint})
		res.ParamTypes = append(res.ParamTypes, p.Type)
	}
	switch len(fn.Results) {
	case 0:
	case 1:
		r := fn.Results[0]
		res.ResultType = r.Type
		decl.Return = r.Hint
		if r.Hint == nil && !c.typeParams[r.Type] && r.Type != "any" {
			return nil, transformErr(fn.Name, "result", "type %s has no C equivalent", r.Type)
		}
	default:
		return nil, transformErr(fn.Name, "result", "multiple results are not supported")
	}

	body, err := c.block(fn.Body.List)
	if err != nil {
		return nil, err
	}
	decl.Body = body
	res.Func = decl
	res.Includes = c.includes
	return res, nil
}

func (c *converter) isGenericType(expr string) bool {
	return c.typeParams[strings.TrimLeft(expr, "[]*")]
}

func (c *converter) pos(n ast.Node) string {
	return c.fn.Position(n.Pos())
}

func (c *converter) include(h string) {
	if !slices.Contains(c.includes, h) {
		c.includes = append(c.includes, h)
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (c *converter) block(list []ast.Stmt) ([]ir.Node, error) {
	out := []ir.Node{}
	for _, s := range list {
		nodes, err := c.stmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func (c *converter) stmt(s ast.Stmt) ([]ir.Node, error) {
	switch s := s.(type) {
	case *ast.EmptyStmt:
		return nil, nil

	case *ast.ExprStmt:
		// A bare identifier is a declaration marker for the filler.
		if id, ok := s.X.(*ast.Ident); ok {
			if err := checkIdent(c.pos(s), id.Name); err != nil {
				return nil, err
			}
			return []ir.Node{ir.Sym(id.Name)}, nil
		}
		call, ok := s.X.(*ast.CallExpr)
		if !ok {
			return nil, transformErr(c.pos(s), "expression statement", "only calls and declaration markers may stand alone")
		}
		e, err := c.expr(call)
		if err != nil {
			return nil, err
		}
		return []ir.Node{e}, nil

	case *ast.AssignStmt:
		n, err := c.assign(s)
		if err != nil {
			return nil, err
		}
		return []ir.Node{n}, nil

	case *ast.IncDecStmt:
		x, err := c.expr(s.X)
		if err != nil {
			return nil, err
		}
		op := ir.OpPostInc
		if s.Tok == token.DEC {
			op = ir.OpPostDec
		}
		return []ir.Node{ir.Unary(op, x)}, nil

	case *ast.DeclStmt:
		return c.decl(s)

	case *ast.ReturnStmt:
		switch len(s.Results) {
		case 0:
			return []ir.Node{&ir.Return{}}, nil
		case 1:
			v, err := c.expr(s.Results[0])
			if err != nil {
				return nil, err
			}
			return []ir.Node{&ir.Return{Value: v}}, nil
		default:
			return nil, transformErr(c.pos(s), "return statement", "multiple results are not supported")
		}

	case *ast.IfStmt:
		n, err := c.ifStmt(s)
		if err != nil {
			return nil, err
		}
		return []ir.Node{n}, nil

	case *ast.ForStmt:
		n, err := c.forStmt(s)
		if err != nil {
			return nil, err
		}
		return []ir.Node{n}, nil

	case *ast.RangeStmt:
		n, err := c.rangeStmt(s)
		if err != nil {
			return nil, err
		}
		return []ir.Node{n}, nil

	case *ast.BlockStmt:
		body, err := c.block(s.List)
		if err != nil {
			return nil, err
		}
		return []ir.Node{&ir.Block{Body: body}}, nil

	case *ast.SwitchStmt, *ast.TypeSwitchStmt:
		return nil, transformErr(c.pos(s), "switch statement", "not supported, use if/else")
	case *ast.GoStmt:
		return nil, transformErr(c.pos(s), "go statement", "not supported in kernels")
	case *ast.DeferStmt:
		return nil, transformErr(c.pos(s), "defer statement", "not supported in kernels")
	case *ast.SelectStmt, *ast.SendStmt:
		return nil, transformErr(c.pos(s), "channel operation", "not supported in kernels")
	case *ast.BranchStmt:
		return nil, transformErr(c.pos(s), s.Tok.String()+" statement", "not supported in kernels")
	case *ast.LabeledStmt:
		return nil, transformErr(c.pos(s), "labeled statement", "not supported in kernels")
	}
	return nil, transformErr(c.pos(s), "statement", "unsupported statement %T", s)
}

func (c *converter) assign(s *ast.AssignStmt) (ir.Node, error) {
	if len(s.Lhs) != 1 || len(s.Rhs) != 1 {
		return nil, transformErr(c.pos(s), "assignment", "multiple assignment is not supported")
	}
	value, err := c.expr(s.Rhs[0])
	if err != nil {
		return nil, err
	}
	if s.Tok == token.DEFINE {
		id, ok := s.Lhs[0].(*ast.Ident)
		if !ok {
			return nil, transformErr(c.pos(s), "short variable declaration", "left side must be an identifier")
		}
		if err := checkIdent(c.pos(s), id.Name); err != nil {
			return nil, err
		}
		return &ir.VarDecl{Name: id.Name, Init: value}, nil
	}
	target, err := c.expr(s.Lhs[0])
	if err != nil {
		return nil, err
	}
	if s.Tok == token.ASSIGN {
		return &ir.Assign{Target: target, Value: value}, nil
	}
	op, ok := augOps[s.Tok]
	if !ok {
		return nil, transformErr(c.pos(s), "assignment", "operator %s is not supported", s.Tok)
	}
	return &ir.AugAssign{Op: op, Target: target, Value: value}, nil
}

// decl lowers var and const declarations. Variables without an initializer
// get Go's zero value.
func (c *converter) decl(s *ast.DeclStmt) ([]ir.Node, error) {
	gd, ok := s.Decl.(*ast.GenDecl)
	if !ok || (gd.Tok != token.VAR && gd.Tok != token.CONST) {
		return nil, transformErr(c.pos(s), "declaration", "only var and const declarations are supported")
	}
	var out []ir.Node
	for _, spec := range gd.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			return nil, transformErr(c.pos(s), "declaration", "unsupported declaration")
		}
		if len(vs.Values) != 0 && len(vs.Values) != len(vs.Names) {
			return nil, transformErr(c.pos(s), "declaration", "multiple assignment is not supported")
		}
		typeExpr := ""
		if vs.Type != nil {
			typeExpr = exprString(vs.Type)
		}
		for i, name := range vs.Names {
			if err := checkIdent(c.pos(name), name.Name); err != nil {
				return nil, err
			}
			vd := &ir.VarDecl{Name: name.Name}
			var init ir.Expr = ir.Int(0)
			if len(vs.Values) > 0 {
				v, err := c.expr(vs.Values[i])
				if err != nil {
					return nil, err
				}
				init = v
			}
			switch {
			case typeExpr == "":
			case c.typeParams[typeExpr]:
				// Resolved to a cast once the type parameter is bound.
				init = &ir.FuncCall{Func: ir.Sym(typeExpr), Args: []ir.Expr{init}}
			default:
				t := ctype.ParseGoType(typeExpr)
				if _, scalar := t.(ctype.Scalar); !scalar {
					return nil, transformErr(c.pos(s), "declaration", "local of type %s is not supported", typeExpr)
				}
				vd.Type = t
				if len(vs.Values) == 0 {
					init = &ir.Constant{Value: int64(0), Type: t}
				}
			}
			vd.Init = init
			out = append(out, vd)
		}
	}
	return out, nil
}

func (c *converter) ifStmt(s *ast.IfStmt) (*ir.If, error) {
	if s.Init != nil {
		return nil, transformErr(c.pos(s), "if statement", "init clause is not supported here")
	}
	cond, err := c.expr(s.Cond)
	if err != nil {
		return nil, err
	}
	then, err := c.block(s.Body.List)
	if err != nil {
		return nil, err
	}
	n := &ir.If{Cond: cond, Then: then}
	switch e := s.Else.(type) {
	case nil:
	case *ast.BlockStmt:
		if n.Else, err = c.block(e.List); err != nil {
			return nil, err
		}
	case *ast.IfStmt:
		chained, err := c.ifStmt(e)
		if err != nil {
			return nil, err
		}
		n.Else = []ir.Node{chained}
	}
	return n, nil
}

func (c *converter) forStmt(s *ast.ForStmt) (*ir.For, error) {
	if s.Init == nil && s.Post == nil {
		return nil, transformErr(c.pos(s), "for statement", "only three-clause and range loops are supported")
	}
	n := &ir.For{}
	if s.Init != nil {
		init, err := c.stmt(s.Init)
		if err != nil {
			return nil, err
		}
		if len(init) != 1 {
			return nil, transformErr(c.pos(s.Init), "for statement", "init must be a single statement")
		}
		n.Init = init[0]
	}
	if s.Cond != nil {
		cond, err := c.expr(s.Cond)
		if err != nil {
			return nil, err
		}
		n.Cond = cond
	}
	if s.Post != nil {
		post, err := c.stmt(s.Post)
		if err != nil {
			return nil, err
		}
		if len(post) != 1 {
			return nil, transformErr(c.pos(s.Post), "for statement", "post must be a single statement")
		}
		n.Incr = post[0]
	}
	body, err := c.block(s.Body.List)
	if err != nil {
		return nil, err
	}
	n.Body = body
	return n, nil
}

// rangeStmt lowers "for i := range n", "for i := range xs" and
// "for i, x := range xs" to counted loops.
func (c *converter) rangeStmt(s *ast.RangeStmt) (*ir.For, error) {
	if s.Tok != token.DEFINE {
		return nil, transformErr(c.pos(s), "range statement", "loop variables must be declared with :=")
	}
	key, ok := s.Key.(*ast.Ident)
	if !ok || key.Name == "_" {
		return nil, transformErr(c.pos(s), "range statement", "an index variable is required")
	}
	if err := checkIdent(c.pos(s), key.Name); err != nil {
		return nil, err
	}
	over, err := c.expr(s.X)
	if err != nil {
		return nil, err
	}

	// Ranging over a parameter iterates its elements; anything else is an
	// integer bound.
	var bound ir.Expr = over
	ident, isIdent := s.X.(*ast.Ident)
	overParam := isIdent && slices.Contains(c.fn.ParamNames(), ident.Name) && c.isSliceParam(ident.Name)
	if overParam {
		bound = ir.Call("len", ir.Sym(ident.Name))
	}

	var body []ir.Node
	if s.Value != nil {
		val, ok := s.Value.(*ast.Ident)
		if !ok || !overParam {
			return nil, transformErr(c.pos(s), "range statement", "a value variable requires ranging over a slice parameter")
		}
		if val.Name != "_" {
			if err := checkIdent(c.pos(s), val.Name); err != nil {
				return nil, err
			}
			body = append(body, &ir.VarDecl{Name: val.Name, Init: ir.Index(ir.Sym(ident.Name), ir.Sym(key.Name))})
		}
	}
	rest, err := c.block(s.Body.List)
	if err != nil {
		return nil, err
	}
	return &ir.For{
		Init: &ir.VarDecl{Name: key.Name, Init: ir.Int(0)},
		Cond: ir.Bin(ir.OpLt, ir.Sym(key.Name), bound),
		Incr: ir.Unary(ir.OpPostInc, ir.Sym(key.Name)),
		Body: append(body, rest...),
	}, nil
}

func (c *converter) isSliceParam(name string) bool {
	for _, p := range c.fn.Params {
		if p.Name == name {
			return strings.HasPrefix(p.Type, "[]")
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *converter) expr(e ast.Expr) (ir.Expr, error) {
	switch e := e.(type) {
	case *ast.BasicLit:
		return c.literal(e)

	case *ast.Ident:
		switch e.Name {
		case "true":
			return &ir.Constant{Value: true, Type: ctype.Bool}, nil
		case "false":
			return &ir.Constant{Value: false, Type: ctype.Bool}, nil
		case "nil":
			return nil, transformErr(c.pos(e), "nil", "not supported in kernels")
		}
		if err := checkIdent(c.pos(e), e.Name); err != nil {
			return nil, err
		}
		return ir.Sym(e.Name), nil

	case *ast.ParenExpr:
		return c.expr(e.X)

	case *ast.BinaryExpr:
		op, ok := binaryOps[e.Op]
		if !ok {
			return nil, transformErr(c.pos(e), "binary expression", "operator %s is not supported", e.Op)
		}
		l, err := c.expr(e.X)
		if err != nil {
			return nil, err
		}
		r, err := c.expr(e.Y)
		if err != nil {
			return nil, err
		}
		return ir.Bin(op, l, r), nil

	case *ast.UnaryExpr:
		x, err := c.expr(e.X)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case token.SUB:
			// Fold negative literals so they render as a single constant.
			if k, ok := x.(*ir.Constant); ok {
				switch v := k.Value.(type) {
				case int64:
					return &ir.Constant{Value: -v, Type: k.Type}, nil
				case float64:
					return &ir.Constant{Value: -v, Type: k.Type}, nil
				}
			}
			return ir.Unary(ir.OpNeg, x), nil
		case token.ADD:
			return ir.Unary(ir.OpPlus, x), nil
		case token.NOT:
			return ir.Unary(ir.OpNot, x), nil
		case token.XOR:
			return ir.Unary(ir.OpBitNot, x), nil
		case token.AND:
			return ir.Unary(ir.OpRef, x), nil
		}
		return nil, transformErr(c.pos(e), "unary expression", "operator %s is not supported", e.Op)

	case *ast.StarExpr:
		x, err := c.expr(e.X)
		if err != nil {
			return nil, err
		}
		return ir.Unary(ir.OpDeref, x), nil

	case *ast.IndexExpr:
		a, err := c.expr(e.X)
		if err != nil {
			return nil, err
		}
		i, err := c.expr(e.Index)
		if err != nil {
			return nil, err
		}
		return ir.Index(a, i), nil

	case *ast.CallExpr:
		return c.call(e)

	case *ast.SelectorExpr:
		if pkg, ok := e.X.(*ast.Ident); ok && c.fn.Imports[pkg.Name] == "math" {
			if v, ok := mathConsts[e.Sel.Name]; ok {
				return ir.Float(v), nil
			}
		}
		return nil, transformErr(c.pos(e), "selector", "%s is not supported", exprString(e))

	case *ast.FuncLit:
		return nil, transformErr(c.pos(e), "function literal", "closures are not supported")
	case *ast.CompositeLit:
		return nil, transformErr(c.pos(e), "composite literal", "not supported in kernels")
	case *ast.SliceExpr:
		return nil, transformErr(c.pos(e), "slice expression", "not supported in kernels")
	case *ast.TypeAssertExpr:
		return nil, transformErr(c.pos(e), "type assertion", "not supported in kernels")
	}
	return nil, transformErr(c.pos(e), "expression", "unsupported expression %T", e)
}

func (c *converter) literal(e *ast.BasicLit) (ir.Expr, error) {
	switch e.Kind {
	case token.INT:
		if v, err := strconv.ParseInt(e.Value, 0, 64); err == nil {
			return ir.Int(v), nil
		}
		v, err := strconv.ParseUint(e.Value, 0, 64)
		if err != nil {
			return nil, transformErr(c.pos(e), "integer literal", "%s does not fit in 64 bits", e.Value)
		}
		return &ir.Constant{Value: v}, nil
	case token.FLOAT:
		v, err := strconv.ParseFloat(strings.ReplaceAll(e.Value, "_", ""), 64)
		if err != nil {
			return nil, transformErr(c.pos(e), "float literal", "%v", err)
		}
		return ir.Float(v), nil
	case token.CHAR:
		s, err := strconv.Unquote(e.Value)
		if err != nil || s == "" {
			return nil, transformErr(c.pos(e), "rune literal", "cannot decode %s", e.Value)
		}
		return ir.Int(int64([]rune(s)[0])), nil
	case token.STRING:
		s, err := strconv.Unquote(e.Value)
		if err != nil {
			return nil, transformErr(c.pos(e), "string literal", "cannot decode %s", e.Value)
		}
		return &ir.Constant{Value: s}, nil
	}
	return nil, transformErr(c.pos(e), "literal", "%s literals are not supported", e.Kind)
}

func (c *converter) call(e *ast.CallExpr) (ir.Expr, error) {
	if e.Ellipsis.IsValid() {
		return nil, transformErr(c.pos(e), "call", "variadic calls are not supported")
	}
	args := make([]ir.Expr, len(e.Args))
	for i, a := range e.Args {
		x, err := c.expr(a)
		if err != nil {
			return nil, err
		}
		args[i] = x
	}

	switch fun := e.Fun.(type) {
	case *ast.Ident:
		// Conversions to concrete scalar types.
		if t, ok := ctype.ParseGoType(fun.Name).(ctype.Scalar); ok {
			if len(args) != 1 {
				return nil, transformErr(c.pos(e), "conversion", "%s takes one argument", fun.Name)
			}
			return &ir.Cast{Type: t, Value: args[0]}, nil
		}
		switch fun.Name {
		case "len":
			if len(args) != 1 {
				return nil, transformErr(c.pos(e), "len", "takes one argument")
			}
			return ir.Call("len", args...), nil
		case "min", "max":
			return c.minMax(e, fun.Name, args)
		case "panic", "print", "println", "make", "new", "append", "copy", "cap", "delete", "close", "complex", "real", "imag", "clear", "recover":
			return nil, transformErr(c.pos(e), fun.Name, "builtin is not supported in kernels")
		}
		if c.typeParams[fun.Name] {
			// Conversion to a type parameter, resolved by Specialize.
			if len(args) != 1 {
				return nil, transformErr(c.pos(e), "conversion", "%s takes one argument", fun.Name)
			}
			return &ir.FuncCall{Func: ir.Sym(fun.Name), Args: args}, nil
		}
		if err := checkIdent(c.pos(e), fun.Name); err != nil {
			return nil, err
		}
		return &ir.FuncCall{Func: ir.Sym(fun.Name), Args: args}, nil

	case *ast.SelectorExpr:
		pkg, ok := fun.X.(*ast.Ident)
		if ok && c.fn.Imports[pkg.Name] == "math" {
			cname, ok := libm[fun.Sel.Name]
			if !ok {
				return nil, transformErr(c.pos(e), "call", "math.%s has no C counterpart", fun.Sel.Name)
			}
			c.include("math.h")
			return ir.Call(cname, args...), nil
		}
		return nil, transformErr(c.pos(e), "call", "calls to %s are not supported", exprString(fun))

	case *ast.IndexExpr, *ast.IndexListExpr:
		return nil, transformErr(c.pos(e), "call", "explicit instantiation is not supported")
	case *ast.FuncLit:
		return nil, transformErr(c.pos(e), "function literal", "closures are not supported")
	}
	return nil, transformErr(c.pos(e), "call", "unsupported callee %T", e.Fun)
}

// minMax lowers the min and max builtins to nested conditionals.
func (c *converter) minMax(e *ast.CallExpr, name string, args []ir.Expr) (ir.Expr, error) {
	if len(args) == 0 {
		return nil, transformErr(c.pos(e), name, "needs at least one argument")
	}
	op := ir.OpLt
	if name == "max" {
		op = ir.OpGt
	}
	acc := args[0]
	for _, a := range args[1:] {
		acc = &ir.Ternary{Cond: ir.Bin(op, acc, a), Then: ir.Clone(acc), Else: ir.Clone(a)}
	}
	return acc, nil
}

func exprString(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.StarExpr:
		return "*" + exprString(e.X)
	case *ast.ArrayType:
		if e.Len == nil {
			return "[]" + exprString(e.Elt)
		}
		return "[...]" + exprString(e.Elt)
	}
	return "?"
}
