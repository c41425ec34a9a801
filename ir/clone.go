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
	"slices"

	"github.com/ajroetker/go-ctree/ctype"
)

// Clone returns a deep copy of the tree rooted at n. Type descriptors are
// values and are shared.
func Clone[N Node](n N) N {
	if isNil(n) {
		return n
	}
	return cloneNode(n).(N)
}

func cloneExpr(e Expr) Expr {
	if isNil(e) {
		return nil
	}
	return cloneNode(e).(Expr)
}

func cloneList(list []Node) []Node {
	if list == nil {
		return nil
	}
	out := make([]Node, len(list))
	for i, n := range list {
		out[i] = cloneNode(n)
	}
	return out
}

func cloneNode(n Node) Node {
	if n == nil {
		return nil
	}
	switch n := n.(type) {
	case *Include:
		c := *n
		return &c
	case *Comment:
		c := *n
		return &c
	case *Define:
		c := *n
		c.Params = slices.Clone(n.Params)
		return &c
	case *Pragma:
		c := *n
		return &c
	case *FuncDecl:
		c := *n
		c.Params = make([]*SymbolRef, len(n.Params))
		for i, p := range n.Params {
			pc := *p
			c.Params[i] = &pc
		}
		c.Body = cloneList(n.Body)
		return &c
	case *VarDecl:
		c := *n
		c.Init = cloneExpr(n.Init)
		return &c
	case *SymbolRef:
		c := *n
		return &c
	case *Constant:
		c := *n
		return &c
	case *UnaryOp:
		return &UnaryOp{Op: n.Op, Operand: cloneExpr(n.Operand)}
	case *BinaryOp:
		return &BinaryOp{Op: n.Op, Left: cloneExpr(n.Left), Right: cloneExpr(n.Right)}
	case *ArrayRef:
		return &ArrayRef{Array: cloneExpr(n.Array), Index: cloneExpr(n.Index)}
	case *FuncCall:
		c := &FuncCall{Func: cloneExpr(n.Func)}
		if n.Args != nil {
			c.Args = make([]Expr, len(n.Args))
			for i, a := range n.Args {
				c.Args[i] = cloneExpr(a)
			}
		}
		return c
	case *Cast:
		return &Cast{Type: n.Type, Value: cloneExpr(n.Value)}
	case *Ternary:
		return &Ternary{Cond: cloneExpr(n.Cond), Then: cloneExpr(n.Then), Else: cloneExpr(n.Else)}
	case *Assign:
		return &Assign{Target: cloneExpr(n.Target), Value: cloneExpr(n.Value)}
	case *AugAssign:
		return &AugAssign{Op: n.Op, Target: cloneExpr(n.Target), Value: cloneExpr(n.Value)}
	case *Return:
		return &Return{Value: cloneExpr(n.Value)}
	case *If:
		return &If{Cond: cloneExpr(n.Cond), Then: cloneList(n.Then), Else: cloneList(n.Else)}
	case *For:
		return &For{
			Init:   cloneNode(n.Init),
			Cond:   cloneExpr(n.Cond),
			Incr:   cloneNode(n.Incr),
			Body:   cloneList(n.Body),
			Pragma: n.Pragma,
		}
	case *Block:
		return &Block{Body: cloneList(n.Body)}
	case *CFile:
		return &CFile{Name: n.Name, Body: cloneList(n.Body)}
	case *Project:
		c := &Project{Name: n.Name, Files: make([]*CFile, len(n.Files))}
		for i, f := range n.Files {
			c.Files[i] = cloneNode(f).(*CFile)
		}
		return c
	}
	panic("ir: clone of unknown node kind " + n.Kind())
}

// Equal reports whether two trees have the same shape, attributes and
// type descriptors.
func Equal(a, b Node) bool {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case *Include:
		return *a == *b.(*Include)
	case *Comment:
		return *a == *b.(*Comment)
	case *Define:
		b := b.(*Define)
		return a.Name == b.Name && a.Body == b.Body && slices.Equal(a.Params, b.Params) && (a.Params == nil) == (b.Params == nil)
	case *Pragma:
		return *a == *b.(*Pragma)
	case *FuncDecl:
		b := b.(*FuncDecl)
		if a.Name != b.Name || a.Static != b.Static || a.Inline != b.Inline || !ctype.Equal(a.Return, b.Return) {
			return false
		}
		if len(a.Params) != len(b.Params) || (a.Body == nil) != (b.Body == nil) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return equalList(a.Body, b.Body)
	case *VarDecl:
		b := b.(*VarDecl)
		return a.Name == b.Name && ctype.Equal(a.Type, b.Type) && Equal(a.Init, b.Init)
	case *SymbolRef:
		b := b.(*SymbolRef)
		return a.Name == b.Name && ctype.Equal(a.Type, b.Type)
	case *Constant:
		b := b.(*Constant)
		return a.Value == b.Value && ctype.Equal(a.Type, b.Type)
	case *UnaryOp:
		b := b.(*UnaryOp)
		return a.Op == b.Op && Equal(a.Operand, b.Operand)
	case *BinaryOp:
		b := b.(*BinaryOp)
		return a.Op == b.Op && Equal(a.Left, b.Left) && Equal(a.Right, b.Right)
	case *ArrayRef:
		b := b.(*ArrayRef)
		return Equal(a.Array, b.Array) && Equal(a.Index, b.Index)
	case *FuncCall:
		b := b.(*FuncCall)
		if !Equal(a.Func, b.Func) || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *Cast:
		b := b.(*Cast)
		return ctype.Equal(a.Type, b.Type) && Equal(a.Value, b.Value)
	case *Ternary:
		b := b.(*Ternary)
		return Equal(a.Cond, b.Cond) && Equal(a.Then, b.Then) && Equal(a.Else, b.Else)
	case *Assign:
		b := b.(*Assign)
		return Equal(a.Target, b.Target) && Equal(a.Value, b.Value)
	case *AugAssign:
		b := b.(*AugAssign)
		return a.Op == b.Op && Equal(a.Target, b.Target) && Equal(a.Value, b.Value)
	case *Return:
		return Equal(a.Value, b.(*Return).Value)
	case *If:
		b := b.(*If)
		return Equal(a.Cond, b.Cond) && equalList(a.Then, b.Then) && equalList(a.Else, b.Else) && (a.Else == nil) == (b.Else == nil)
	case *For:
		b := b.(*For)
		return a.Pragma == b.Pragma && Equal(a.Init, b.Init) && Equal(a.Cond, b.Cond) && Equal(a.Incr, b.Incr) && equalList(a.Body, b.Body)
	case *Block:
		return equalList(a.Body, b.(*Block).Body)
	case *CFile:
		b := b.(*CFile)
		return a.Name == b.Name && equalList(a.Body, b.Body)
	case *Project:
		b := b.(*Project)
		if a.Name != b.Name || len(a.Files) != len(b.Files) {
			return false
		}
		for i := range a.Files {
			if !Equal(a.Files[i], b.Files[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func equalList(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
