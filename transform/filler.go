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
	"sort"

	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/ir"
)

// FillDeclarations gives every local in fn a concrete type.
//
// A bare, type-less SymbolRef statement declares a local whose type is taken
// from the first later assignment to it; the marker becomes a typed VarDecl
// at the marker's position. A VarDecl without a type takes the type of its
// initializer. Parameters must already be typed.
func FillDeclarations(fn *ir.FuncDecl) error {
	_, err := fill(fn)
	return err
}

type filler struct {
	fn      *ir.FuncDecl
	pending map[string]*ir.VarDecl
	returns []ctype.Type
	void    bool // a bare return was seen
}

func fill(fn *ir.FuncDecl) (*filler, error) {
	f := &filler{fn: fn, pending: map[string]*ir.VarDecl{}}
	body, err := f.list(fn.Body, NewEnv(fn))
	if err != nil {
		return nil, err
	}
	fn.Body = body
	if len(f.pending) > 0 {
		names := make([]string, 0, len(f.pending))
		for name := range f.pending {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, transformErr(fn.Name, "declaration", "cannot infer the type of local %s: it is never assigned", names[0])
	}
	return f, nil
}

func (f *filler) list(stmts []ir.Node, env *Env) ([]ir.Node, error) {
	if stmts == nil {
		return nil, nil
	}
	out := make([]ir.Node, 0, len(stmts))
	var markers []*ir.VarDecl
	for _, s := range stmts {
		n, err := f.stmt(s, env)
		if err != nil {
			return nil, err
		}
		if vd, ok := n.(*ir.VarDecl); ok && vd.Type == nil {
			markers = append(markers, vd)
		}
		out = append(out, n)
		// Markers resolved inside a nested scope become visible here too.
		markers = slices.DeleteFunc(markers, func(vd *ir.VarDecl) bool {
			if vd.Type != nil {
				env.Vars[vd.Name] = vd.Type
				return true
			}
			return false
		})
	}
	return out, nil
}

func (f *filler) stmt(s ir.Node, env *Env) (ir.Node, error) {
	switch s := s.(type) {
	case *ir.SymbolRef:
		if s.Type != nil {
			env.Vars[s.Name] = s.Type
			return s, nil
		}
		if _, known := env.Vars[s.Name]; known {
			return s, nil
		}
		vd := &ir.VarDecl{Name: s.Name}
		f.pending[s.Name] = vd
		return vd, nil

	case *ir.VarDecl:
		if s.Type == nil {
			if s.Init == nil {
				f.pending[s.Name] = s
				return s, nil
			}
			t := infer(s.Init, env)
			if t == nil {
				return nil, transformErr(f.fn.Name, "declaration", "cannot infer the type of local %s from %s", s.Name, describeExpr(s.Init))
			}
			s.Type = declType(t)
		}
		env.Vars[s.Name] = s.Type
		return s, nil

	case *ir.Assign:
		f.observe(s.Target, s.Value, env)
		if sym, ok := s.Target.(*ir.SymbolRef); ok && sym.Type != nil {
			env.Vars[sym.Name] = sym.Type
		}
		return s, nil

	case *ir.AugAssign:
		f.observe(s.Target, s.Value, env)
		return s, nil

	case *ir.Return:
		if s.Value == nil {
			f.void = true
		} else {
			f.returns = append(f.returns, infer(s.Value, env))
		}
		return s, nil

	case *ir.If:
		var err error
		if s.Then, err = f.list(s.Then, env.Child()); err != nil {
			return nil, err
		}
		if s.Else, err = f.list(s.Else, env.Child()); err != nil {
			return nil, err
		}
		return s, nil

	case *ir.For:
		scope := env.Child()
		if s.Init != nil {
			init, err := f.stmt(s.Init, scope)
			if err != nil {
				return nil, err
			}
			s.Init = init
		}
		body, err := f.list(s.Body, scope.Child())
		if err != nil {
			return nil, err
		}
		s.Body = body
		return s, nil

	case *ir.Block:
		body, err := f.list(s.Body, env.Child())
		if err != nil {
			return nil, err
		}
		s.Body = body
		return s, nil
	}
	return s, nil
}

// observe resolves a pending local from an assignment to it.
func (f *filler) observe(target, value ir.Expr, env *Env) {
	sym, ok := target.(*ir.SymbolRef)
	if !ok || sym.Type != nil {
		return
	}
	vd, ok := f.pending[sym.Name]
	if !ok {
		return
	}
	t := infer(value, env)
	if t == nil {
		return
	}
	vd.Type = declType(t)
	env.Vars[sym.Name] = vd.Type
	delete(f.pending, sym.Name)
}

// declType drops the buffer extent from pointer types; a local only needs
// the pointer.
func declType(t ctype.Type) ctype.Type {
	if p, ok := t.(ctype.Pointer); ok && len(p.Shape) > 0 {
		return ctype.PointerTo(p.Elem)
	}
	return t
}
