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
	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/ir"
)

// TrampolineSuffix is appended to the entry point name to form the name of
// its trampoline.
const TrampolineSuffix = "_trampoline"

var (
	voidPtr    = ctype.PointerTo(nil)
	voidPtrPtr = ctype.PointerTo(voidPtr)
)

// Trampoline returns the uniform entry point for entry:
//
//	void <name>_trampoline(void** args, void* ret)
//
// Slot i of args points at argument i: scalars are read through a typed
// pointer, arrays are passed as the pointer itself. A non-void result is
// stored through ret.
func Trampoline(entry *ir.FuncDecl) (*ir.FuncDecl, error) {
	if entry.Body == nil {
		return nil, transformErr(entry.Name, "trampoline", "entry point has no body")
	}
	args := make([]ir.Expr, len(entry.Params))
	for i, p := range entry.Params {
		slot := ir.Index(ir.Sym("args"), ir.Int(int64(i)))
		switch t := p.Type.(type) {
		case nil:
			return nil, transformErr(entry.Name, "trampoline", "parameter %s has no type", p.Name)
		case ctype.Pointer:
			args[i] = &ir.Cast{Type: ctype.PointerTo(t.Elem), Value: slot}
		default:
			args[i] = ir.Unary(ir.OpDeref, &ir.Cast{Type: ctype.PointerTo(t), Value: slot})
		}
	}
	call := ir.Call(entry.Name, args...)

	var stmt ir.Node = call
	if !ctype.IsVoid(entry.Return) {
		ret := ir.Unary(ir.OpDeref, &ir.Cast{Type: ctype.PointerTo(entry.Return), Value: ir.Sym("ret")})
		stmt = &ir.Assign{Target: ret, Value: call}
	}
	return &ir.FuncDecl{
		Name:   entry.Name + TrampolineSuffix,
		Return: ctype.Void,
		Params: []*ir.SymbolRef{ir.TypedSym("args", voidPtrPtr), ir.TypedSym("ret", voidPtr)},
		Body:   []ir.Node{stmt},
	}, nil
}

// Assemble packs the given functions into a single-file project named name,
// preceded by an angled #include for each header.
func Assemble(name string, includes []string, funcs ...*ir.FuncDecl) *ir.Project {
	file := &ir.CFile{Name: name}
	for _, h := range includes {
		file.Body = append(file.Body, &ir.Include{Target: h, Angled: true})
	}
	for _, f := range funcs {
		file.Body = append(file.Body, f)
	}
	return &ir.Project{Name: name, Files: []*ir.CFile{file}}
}
