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

package ir

import (
	"github.com/cockroachdb/errors"
)

// Visitor has one method per node kind. Node.Accept calls the method that
// matches the node; the method decides whether and how to descend.
type Visitor interface {
	VisitInclude(*Include) error
	VisitComment(*Comment) error
	VisitDefine(*Define) error
	VisitPragma(*Pragma) error
	VisitFuncDecl(*FuncDecl) error
	VisitVarDecl(*VarDecl) error
	VisitSymbolRef(*SymbolRef) error
	VisitConstant(*Constant) error
	VisitUnaryOp(*UnaryOp) error
	VisitBinaryOp(*BinaryOp) error
	VisitArrayRef(*ArrayRef) error
	VisitFuncCall(*FuncCall) error
	VisitCast(*Cast) error
	VisitTernary(*Ternary) error
	VisitAssign(*Assign) error
	VisitAugAssign(*AugAssign) error
	VisitReturn(*Return) error
	VisitIf(*If) error
	VisitFor(*For) error
	VisitBlock(*Block) error
	VisitCFile(*CFile) error
	VisitProject(*Project) error
}

// SkipChildren may be returned by a Walk callback to prune the subtree
// below the current node without stopping the walk.
var SkipChildren = errors.New("skip children")

// Walk calls fn for n and then for each descendant in pre-order, source
// order. If fn returns SkipChildren the node's subtree is skipped; any other
// error stops the walk and is returned.
func Walk(n Node, fn func(Node) error) error {
	err := walk(n, fn)
	if errors.Is(err, SkipChildren) {
		return nil
	}
	return err
}

func walk(n Node, fn func(Node) error) error {
	if n == nil {
		return nil
	}
	if err := fn(n); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, c := range n.children() {
		if err := walk(c, fn); err != nil {
			return err
		}
	}
	return nil
}

// Inspect is Walk without errors: fn returns false to skip a subtree.
func Inspect(n Node, fn func(Node) bool) {
	_ = Walk(n, func(n Node) error {
		if !fn(n) {
			return SkipChildren
		}
		return nil
	})
}

// Rewrite transforms the tree rooted at n bottom-up. Children are rewritten
// first and stored back into their parent; then fn is applied to the parent
// and its result replaces it. fn returns the node unchanged to keep it.
//
// A rewrite that puts a non-expression where an expression is required
// fails with an error naming the parent kind.
func Rewrite(n Node, fn func(Node) (Node, error)) (Node, error) {
	if n == nil {
		return nil, nil
	}
	if err := n.rewriteChildren(func(c Node) (Node, error) { return Rewrite(c, fn) }); err != nil {
		return nil, err
	}
	return fn(n)
}

// ---------------------------------------------------------------------------
// children
// ---------------------------------------------------------------------------

func (*Include) children() []Node { return nil }
func (*Comment) children() []Node { return nil }
func (*Define) children() []Node  { return nil }
func (*Pragma) children() []Node  { return nil }
func (*Constant) children() []Node {
	return nil
}

func (n *FuncDecl) children() []Node {
	out := make([]Node, 0, len(n.Params)+len(n.Body))
	for _, p := range n.Params {
		out = append(out, p)
	}
	return append(out, n.Body...)
}

func (n *VarDecl) children() []Node   { return exprs(n.Init) }
func (*SymbolRef) children() []Node   { return nil }
func (n *UnaryOp) children() []Node   { return exprs(n.Operand) }
func (n *BinaryOp) children() []Node  { return exprs(n.Left, n.Right) }
func (n *ArrayRef) children() []Node  { return exprs(n.Array, n.Index) }
func (n *Cast) children() []Node      { return exprs(n.Value) }
func (n *Ternary) children() []Node   { return exprs(n.Cond, n.Then, n.Else) }
func (n *Assign) children() []Node    { return exprs(n.Target, n.Value) }
func (n *AugAssign) children() []Node { return exprs(n.Target, n.Value) }
func (n *Return) children() []Node    { return exprs(n.Value) }
func (n *Block) children() []Node     { return n.Body }

func (n *FuncCall) children() []Node {
	return append(exprs(n.Func), exprs(n.Args...)...)
}

func (n *If) children() []Node {
	out := exprs(n.Cond)
	out = append(out, n.Then...)
	return append(out, n.Else...)
}

func (n *For) children() []Node {
	var out []Node
	if n.Init != nil {
		out = append(out, n.Init)
	}
	out = append(out, exprs(n.Cond)...)
	if n.Incr != nil {
		out = append(out, n.Incr)
	}
	return append(out, n.Body...)
}

func (n *CFile) children() []Node { return n.Body }

func (n *Project) children() []Node {
	out := make([]Node, len(n.Files))
	for i, f := range n.Files {
		out[i] = f
	}
	return out
}

// exprs drops nil expressions; a typed nil stored in an interface is also dropped.
func exprs(es ...Expr) []Node {
	out := make([]Node, 0, len(es))
	for _, e := range es {
		if isNil(e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch n := n.(type) {
	case *SymbolRef:
		return n == nil
	case *Constant:
		return n == nil
	case *UnaryOp:
		return n == nil
	case *BinaryOp:
		return n == nil
	case *ArrayRef:
		return n == nil
	case *FuncCall:
		return n == nil
	case *Cast:
		return n == nil
	case *Ternary:
		return n == nil
	}
	return false
}

// ---------------------------------------------------------------------------
// rewriteChildren
// ---------------------------------------------------------------------------

type rewriter = func(Node) (Node, error)

func rewriteExpr(parent Node, field string, e *Expr, fn rewriter) error {
	if isNil(*e) {
		return nil
	}
	out, err := fn(*e)
	if err != nil {
		return err
	}
	if out == nil {
		*e = nil
		return nil
	}
	x, ok := out.(Expr)
	if !ok {
		return errors.Newf("ir: %s.%s must be an expression, rewrite produced %s", parent.Kind(), field, out.Kind())
	}
	*e = x
	return nil
}

func rewriteNode(n *Node, fn rewriter) error {
	if *n == nil {
		return nil
	}
	out, err := fn(*n)
	if err != nil {
		return err
	}
	*n = out
	return nil
}

// rewriteList rewrites each element; a nil result removes the element.
func rewriteList(list []Node, fn rewriter) ([]Node, error) {
	if list == nil {
		return nil, nil
	}
	out := list[:0]
	for _, c := range list {
		r, err := fn(c)
		if err != nil {
			return nil, err
		}
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (*Include) rewriteChildren(rewriter) error   { return nil }
func (*Comment) rewriteChildren(rewriter) error   { return nil }
func (*Define) rewriteChildren(rewriter) error    { return nil }
func (*Pragma) rewriteChildren(rewriter) error    { return nil }
func (*SymbolRef) rewriteChildren(rewriter) error { return nil }
func (*Constant) rewriteChildren(rewriter) error  { return nil }

func (n *FuncDecl) rewriteChildren(fn rewriter) error {
	for i, p := range n.Params {
		out, err := fn(p)
		if err != nil {
			return err
		}
		sym, ok := out.(*SymbolRef)
		if !ok || sym == nil {
			return errors.Newf("ir: parameter %d of %s must remain a SymbolRef", i, n.Name)
		}
		n.Params[i] = sym
	}
	body, err := rewriteList(n.Body, fn)
	if err != nil {
		return err
	}
	if n.Body != nil && body == nil {
		body = []Node{}
	}
	n.Body = body
	return nil
}

func (n *VarDecl) rewriteChildren(fn rewriter) error {
	return rewriteExpr(n, "Init", &n.Init, fn)
}

func (n *UnaryOp) rewriteChildren(fn rewriter) error {
	return rewriteExpr(n, "Operand", &n.Operand, fn)
}

func (n *BinaryOp) rewriteChildren(fn rewriter) error {
	if err := rewriteExpr(n, "Left", &n.Left, fn); err != nil {
		return err
	}
	return rewriteExpr(n, "Right", &n.Right, fn)
}

func (n *ArrayRef) rewriteChildren(fn rewriter) error {
	if err := rewriteExpr(n, "Array", &n.Array, fn); err != nil {
		return err
	}
	return rewriteExpr(n, "Index", &n.Index, fn)
}

func (n *FuncCall) rewriteChildren(fn rewriter) error {
	if err := rewriteExpr(n, "Func", &n.Func, fn); err != nil {
		return err
	}
	for i := range n.Args {
		if err := rewriteExpr(n, "Args", &n.Args[i], fn); err != nil {
			return err
		}
	}
	return nil
}

func (n *Cast) rewriteChildren(fn rewriter) error {
	return rewriteExpr(n, "Value", &n.Value, fn)
}

func (n *Ternary) rewriteChildren(fn rewriter) error {
	if err := rewriteExpr(n, "Cond", &n.Cond, fn); err != nil {
		return err
	}
	if err := rewriteExpr(n, "Then", &n.Then, fn); err != nil {
		return err
	}
	return rewriteExpr(n, "Else", &n.Else, fn)
}

func (n *Assign) rewriteChildren(fn rewriter) error {
	if err := rewriteExpr(n, "Target", &n.Target, fn); err != nil {
		return err
	}
	return rewriteExpr(n, "Value", &n.Value, fn)
}

func (n *AugAssign) rewriteChildren(fn rewriter) error {
	if err := rewriteExpr(n, "Target", &n.Target, fn); err != nil {
		return err
	}
	return rewriteExpr(n, "Value", &n.Value, fn)
}

func (n *Return) rewriteChildren(fn rewriter) error {
	return rewriteExpr(n, "Value", &n.Value, fn)
}

func (n *If) rewriteChildren(fn rewriter) error {
	if err := rewriteExpr(n, "Cond", &n.Cond, fn); err != nil {
		return err
	}
	var err error
	if n.Then, err = rewriteList(n.Then, fn); err != nil {
		return err
	}
	n.Else, err = rewriteList(n.Else, fn)
	return err
}

func (n *For) rewriteChildren(fn rewriter) error {
	if err := rewriteNode(&n.Init, fn); err != nil {
		return err
	}
	if err := rewriteExpr(n, "Cond", &n.Cond, fn); err != nil {
		return err
	}
	if err := rewriteNode(&n.Incr, fn); err != nil {
		return err
	}
	var err error
	n.Body, err = rewriteList(n.Body, fn)
	return err
}

func (n *Block) rewriteChildren(fn rewriter) error {
	var err error
	n.Body, err = rewriteList(n.Body, fn)
	return err
}

func (n *CFile) rewriteChildren(fn rewriter) error {
	var err error
	n.Body, err = rewriteList(n.Body, fn)
	return err
}

func (n *Project) rewriteChildren(fn rewriter) error {
	for i, f := range n.Files {
		out, err := fn(f)
		if err != nil {
			return err
		}
		cf, ok := out.(*CFile)
		if !ok || cf == nil {
			return errors.Newf("ir: file %d of project %s must remain a CFile", i, n.Name)
		}
		n.Files[i] = cf
	}
	return nil
}
