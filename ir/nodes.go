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
	"math"

	"github.com/ajroetker/go-ctree/ctype"
)

// Node is a node of the C source tree.
type Node interface {
	// Accept dispatches to the Visitor method for the node's kind.
	Accept(v Visitor) error

	// RequiresTerminator reports whether the node, used as a statement,
	// must be followed by a semicolon.
	RequiresTerminator() bool

	// Kind returns the node kind name, e.g. "FuncDecl".
	Kind() string

	children() []Node
	rewriteChildren(fn func(Node) (Node, error)) error
}

// Expr is a node that can appear where C expects an expression.
type Expr interface {
	Node
	exprNode()
}

// ---------------------------------------------------------------------------
// Directives
// ---------------------------------------------------------------------------

// Include is #include <Target> or #include "Target".
type Include struct {
	Target string
	Angled bool
}

// Comment is a single-line // comment. Text must not contain newlines.
type Comment struct {
	Text string
}

// Define is #define Name(Params) Body. Params is nil for an object-like macro.
type Define struct {
	Name   string
	Params []string
	Body   string
}

// Pragma is a standalone #pragma line.
type Pragma struct {
	Text string
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// FuncDecl declares or defines a function. A nil Body makes it a forward
// declaration; a non-nil, empty Body defines a function with no statements.
type FuncDecl struct {
	Name   string
	Return ctype.Type
	Params []*SymbolRef
	Body   []Node

	// Static limits visibility to the file; Inline adds an inline hint.
	Static bool
	Inline bool
}

// VarDecl declares a local variable, optionally initialized. A nil Type is
// filled in by the declaration filler before code generation.
type VarDecl struct {
	Name string
	Type ctype.Type
	Init Expr
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// SymbolRef references a name. When Type is set it renders in declaration
// form ("double x"), which is how function parameters and for-loop
// induction variables are declared.
type SymbolRef struct {
	Name string
	Type ctype.Type
}

// Constant is a literal. Value holds an int64, uint64, float64, bool or string.
// Type, when set, selects the literal spelling (a Float32 constant gets an
// "f" suffix).
type Constant struct {
	Value any
	Type  ctype.Type
}

// UnaryOp applies a prefix or postfix operator to Operand.
type UnaryOp struct {
	Op      UnaryOperator
	Operand Expr
}

// BinaryOp is Left Op Right.
type BinaryOp struct {
	Op    BinaryOperator
	Left  Expr
	Right Expr
}

// ArrayRef is Array[Index].
type ArrayRef struct {
	Array Expr
	Index Expr
}

// FuncCall is Func(Args...).
type FuncCall struct {
	Func Expr
	Args []Expr
}

// Cast is (Type)Value.
type Cast struct {
	Type  ctype.Type
	Value Expr
}

// Ternary is Cond ? Then : Else.
type Ternary struct {
	Cond Expr
	Then Expr
	Else Expr
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// Assign is Target = Value.
type Assign struct {
	Target Expr
	Value  Expr
}

// AugAssign is Target Op= Value.
type AugAssign struct {
	Op     BinaryOperator
	Target Expr
	Value  Expr
}

// Return returns Value, or nothing when Value is nil.
type Return struct {
	Value Expr
}

// If is if (Cond) { Then } else { Else }. A nil Else omits the else clause.
type If struct {
	Cond Expr
	Then []Node
	Else []Node
}

// For is a counted loop: for (Init; Cond; Incr) { Body }. Pragma, when set,
// is emitted as "#pragma <Pragma>" on the line before the loop.
type For struct {
	Init   Node
	Cond   Expr
	Incr   Node
	Body   []Node
	Pragma string
}

// Block is a brace-delimited compound statement.
type Block struct {
	Body []Node
}

// ---------------------------------------------------------------------------
// Containers
// ---------------------------------------------------------------------------

// CFile is one translation unit. Name excludes the ".c" extension.
type CFile struct {
	Name string
	Body []Node
}

// Project is the ordered set of files built and compiled together.
type Project struct {
	Name  string
	Files []*CFile
}

// ---------------------------------------------------------------------------
// Kind, RequiresTerminator, Accept
// ---------------------------------------------------------------------------

func (*Include) Kind() string   { return "Include" }
func (*Comment) Kind() string   { return "Comment" }
func (*Define) Kind() string    { return "Define" }
func (*Pragma) Kind() string    { return "Pragma" }
func (*FuncDecl) Kind() string  { return "FuncDecl" }
func (*VarDecl) Kind() string   { return "VarDecl" }
func (*SymbolRef) Kind() string { return "SymbolRef" }
func (*Constant) Kind() string  { return "Constant" }
func (*UnaryOp) Kind() string   { return "UnaryOp" }
func (*BinaryOp) Kind() string  { return "BinaryOp" }
func (*ArrayRef) Kind() string  { return "ArrayRef" }
func (*FuncCall) Kind() string  { return "FuncCall" }
func (*Cast) Kind() string      { return "Cast" }
func (*Ternary) Kind() string   { return "Ternary" }
func (*Assign) Kind() string    { return "Assign" }
func (*AugAssign) Kind() string { return "AugAssign" }
func (*Return) Kind() string    { return "Return" }
func (*If) Kind() string        { return "If" }
func (*For) Kind() string       { return "For" }
func (*Block) Kind() string     { return "Block" }
func (*CFile) Kind() string     { return "CFile" }
func (*Project) Kind() string   { return "Project" }

func (*Include) RequiresTerminator() bool   { return false }
func (*Comment) RequiresTerminator() bool   { return false }
func (*Define) RequiresTerminator() bool    { return false }
func (*Pragma) RequiresTerminator() bool    { return false }
func (*VarDecl) RequiresTerminator() bool   { return true }
func (*SymbolRef) RequiresTerminator() bool { return true }
func (*Constant) RequiresTerminator() bool  { return true }
func (*UnaryOp) RequiresTerminator() bool   { return true }
func (*BinaryOp) RequiresTerminator() bool  { return true }
func (*ArrayRef) RequiresTerminator() bool  { return true }
func (*FuncCall) RequiresTerminator() bool  { return true }
func (*Cast) RequiresTerminator() bool      { return true }
func (*Ternary) RequiresTerminator() bool   { return true }
func (*Assign) RequiresTerminator() bool    { return true }
func (*AugAssign) RequiresTerminator() bool { return true }
func (*Return) RequiresTerminator() bool    { return true }
func (*If) RequiresTerminator() bool        { return false }
func (*For) RequiresTerminator() bool       { return false }
func (*Block) RequiresTerminator() bool     { return false }
func (*CFile) RequiresTerminator() bool     { return false }
func (*Project) RequiresTerminator() bool   { return false }

// RequiresTerminator is true only for forward declarations: a definition
// ends with its closing brace.
func (n *FuncDecl) RequiresTerminator() bool { return n.Body == nil }

func (n *Include) Accept(v Visitor) error   { return v.VisitInclude(n) }
func (n *Comment) Accept(v Visitor) error   { return v.VisitComment(n) }
func (n *Define) Accept(v Visitor) error    { return v.VisitDefine(n) }
func (n *Pragma) Accept(v Visitor) error    { return v.VisitPragma(n) }
func (n *FuncDecl) Accept(v Visitor) error  { return v.VisitFuncDecl(n) }
func (n *VarDecl) Accept(v Visitor) error   { return v.VisitVarDecl(n) }
func (n *SymbolRef) Accept(v Visitor) error { return v.VisitSymbolRef(n) }
func (n *Constant) Accept(v Visitor) error  { return v.VisitConstant(n) }
func (n *UnaryOp) Accept(v Visitor) error   { return v.VisitUnaryOp(n) }
func (n *BinaryOp) Accept(v Visitor) error  { return v.VisitBinaryOp(n) }
func (n *ArrayRef) Accept(v Visitor) error  { return v.VisitArrayRef(n) }
func (n *FuncCall) Accept(v Visitor) error  { return v.VisitFuncCall(n) }
func (n *Cast) Accept(v Visitor) error      { return v.VisitCast(n) }
func (n *Ternary) Accept(v Visitor) error   { return v.VisitTernary(n) }
func (n *Assign) Accept(v Visitor) error    { return v.VisitAssign(n) }
func (n *AugAssign) Accept(v Visitor) error { return v.VisitAugAssign(n) }
func (n *Return) Accept(v Visitor) error    { return v.VisitReturn(n) }
func (n *If) Accept(v Visitor) error        { return v.VisitIf(n) }
func (n *For) Accept(v Visitor) error       { return v.VisitFor(n) }
func (n *Block) Accept(v Visitor) error     { return v.VisitBlock(n) }
func (n *CFile) Accept(v Visitor) error     { return v.VisitCFile(n) }
func (n *Project) Accept(v Visitor) error   { return v.VisitProject(n) }

func (*SymbolRef) exprNode() {}
func (*Constant) exprNode()  {}
func (*UnaryOp) exprNode()   {}
func (*BinaryOp) exprNode()  {}
func (*ArrayRef) exprNode()  {}
func (*FuncCall) exprNode()  {}
func (*Cast) exprNode()      {}
func (*Ternary) exprNode()   {}

// ---------------------------------------------------------------------------
// Constructors and helpers
// ---------------------------------------------------------------------------

// Sym returns an untyped reference to name.
func Sym(name string) *SymbolRef {
	return &SymbolRef{Name: name}
}

// TypedSym returns a reference to name in declaration form.
func TypedSym(name string, t ctype.Type) *SymbolRef {
	return &SymbolRef{Name: name, Type: t}
}

// Int returns an integer constant.
func Int(v int64) *Constant {
	return &Constant{Value: v}
}

// Float returns a double constant.
func Float(v float64) *Constant {
	return &Constant{Value: v}
}

// Bin returns the binary operation l op r.
func Bin(op BinaryOperator, l, r Expr) *BinaryOp {
	return &BinaryOp{Op: op, Left: l, Right: r}
}

// Unary returns the unary operation op x.
func Unary(op UnaryOperator, x Expr) *UnaryOp {
	return &UnaryOp{Op: op, Operand: x}
}

// Index returns a[i].
func Index(a, i Expr) *ArrayRef {
	return &ArrayRef{Array: a, Index: i}
}

// Call returns a call to the named function.
func Call(name string, args ...Expr) *FuncCall {
	return &FuncCall{Func: Sym(name), Args: args}
}

// CountedFor returns for (int v = 0; v < n; v++) { body }. The counter is
// a long when n is a constant beyond the int range.
func CountedFor(v string, n Expr, body ...Node) *For {
	counter := ctype.Int32
	if c, ok := n.(*Constant); ok {
		if bound, ok := c.Value.(int64); ok && bound > math.MaxInt32 {
			counter = ctype.Int64
		}
	}
	return &For{
		Init: &Assign{Target: TypedSym(v, counter), Value: Int(0)},
		Cond: Bin(OpLt, Sym(v), n),
		Incr: Unary(OpPostInc, Sym(v)),
		Body: body,
	}
}

// SetStatic marks the function file-local and returns it.
func (n *FuncDecl) SetStatic() *FuncDecl {
	n.Static = true
	return n
}

// SetInline marks the function inline and returns it.
func (n *FuncDecl) SetInline() *FuncDecl {
	n.Inline = true
	return n
}

// Signature returns the function's type. Untyped parameters appear as nil.
func (n *FuncDecl) Signature() ctype.Func {
	params := make([]ctype.Type, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.Type
	}
	ret := n.Return
	if ret == nil {
		ret = ctype.Void
	}
	return ctype.Func{Return: ret, Params: params}
}

// SetSignature assigns parameter and return types from sig. It panics if the
// parameter counts differ, which is a programming error in the caller.
func (n *FuncDecl) SetSignature(sig ctype.Func) *FuncDecl {
	if len(sig.Params) != len(n.Params) {
		panic("ir: signature has a different parameter count than the declaration")
	}
	for i, t := range sig.Params {
		n.Params[i].Type = t
	}
	n.Return = sig.Return
	return n
}

// Param returns the parameter with the given name, or nil.
func (n *FuncDecl) Param(name string) *SymbolRef {
	for _, p := range n.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// FindFunc returns the first function declaration named name in the file, or nil.
func (f *CFile) FindFunc(name string) *FuncDecl {
	for _, n := range f.Body {
		if fd, ok := n.(*FuncDecl); ok && fd.Name == name {
			return fd
		}
	}
	return nil
}

// FindFunc returns the first function definition named name in any file of
// the project. Forward declarations are skipped.
func (p *Project) FindFunc(name string) *FuncDecl {
	for _, f := range p.Files {
		for _, n := range f.Body {
			if fd, ok := n.(*FuncDecl); ok && fd.Name == name && fd.Body != nil {
				return fd
			}
		}
	}
	return nil
}
