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

// Package frontend parses kernel functions written in Go into the function
// descriptors the transformation passes consume.
//
// A kernel is an ordinary Go function. Its parameters may be typed
// concretely (float64, []int32) or generically (T, []T, any); generic
// parameters receive their C types at specialization from the runtime
// arguments.
package frontend

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ajroetker/go-ctree/ctype"
)

// Func is a parsed kernel function.
type Func struct {
	Name       string
	TypeParams []TypeParam
	Params     []Param
	Results    []Param
	Body       *ast.BlockStmt
	Doc        *ast.CommentGroup

	// Imports maps local package names to import paths, so "m.Sqrt" can be
	// recognized when math is imported as m.
	Imports map[string]string

	// Fset resolves positions in Body.
	Fset *token.FileSet
}

// TypeParam is a generic type parameter.
type TypeParam struct {
	Name       string // T
	Constraint string // ~float32 | ~float64
}

// Param is a function parameter or result.
type Param struct {
	Name string // may be empty for results
	Type string // type expression as written

	// Hint is the C type the written type implies, or nil when the type is
	// generic and must come from the call arguments.
	Hint ctype.Type
}

// ParamNames returns the parameter names in order.
func (f *Func) ParamNames() []string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
	}
	return names
}

// Position returns the file:line:column of pos.
func (f *Func) Position(pos token.Pos) string {
	if f.Fset == nil || !pos.IsValid() {
		return f.Name
	}
	return f.Fset.Position(pos).String()
}

// ParseFunc parses src and returns the function called name. src may be a
// complete Go file or a bare function declaration. With an empty name, src
// must contain exactly one function.
func ParseFunc(src, name string) (*Func, error) {
	funcs, err := parse("kernel.go", src)
	if err != nil {
		return nil, err
	}
	return pick(funcs, name)
}

// ParseFile parses the Go file at path and returns every top-level function.
func ParseFile(path string) ([]*Func, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return parse(filepath.Base(path), string(src))
}

// Lookup returns the function called name from a parsed file.
func Lookup(funcs []*Func, name string) (*Func, error) {
	return pick(funcs, name)
}

func pick(funcs []*Func, name string) (*Func, error) {
	if name == "" {
		if len(funcs) != 1 {
			return nil, errors.Newf("source has %d functions; name the kernel", len(funcs))
		}
		return funcs[0], nil
	}
	for _, f := range funcs {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, errors.Newf("function %s not found", name)
}

func parse(filename, src string) ([]*Func, error) {
	if !hasPackageClause(src) {
		src = "package kernel\n\n" + src
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrap(err, "parse file")
	}

	imports := make(map[string]string)
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		local := filepath.Base(path)
		if imp.Name != nil {
			local = imp.Name.Name
		}
		if local != "_" && local != "." {
			imports[local] = path
		}
	}

	var funcs []*Func
	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Recv != nil || fd.Body == nil {
			continue
		}
		f := &Func{
			Name:    fd.Name.Name,
			Body:    Normalize(fd.Body),
			Doc:     fd.Doc,
			Imports: imports,
			Fset:    fset,
		}

		generic := map[string]bool{}
		if fd.Type.TypeParams != nil {
			for _, field := range fd.Type.TypeParams.List {
				for _, n := range field.Names {
					generic[n.Name] = true
					f.TypeParams = append(f.TypeParams, TypeParam{Name: n.Name, Constraint: exprToString(field.Type)})
				}
			}
		}
		f.Params = fieldParams(fd.Type.Params, generic)
		f.Results = fieldParams(fd.Type.Results, generic)
		funcs = append(funcs, f)
	}
	return funcs, nil
}

func hasPackageClause(src string) bool {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		return strings.HasPrefix(line, "package ")
	}
	return false
}

func fieldParams(fields *ast.FieldList, generic map[string]bool) []Param {
	if fields == nil {
		return nil
	}
	var out []Param
	for _, field := range fields.List {
		typeStr := exprToString(field.Type)
		var hint ctype.Type
		if !generic[strings.TrimLeft(typeStr, "[]*")] {
			hint = ctype.ParseGoType(typeStr)
		}
		if len(field.Names) == 0 {
			out = append(out, Param{Type: typeStr, Hint: hint})
			continue
		}
		for _, n := range field.Names {
			out = append(out, Param{Name: n.Name, Type: typeStr, Hint: hint})
		}
	}
	return out
}

// exprToString renders a type expression the way it was written.
func exprToString(expr ast.Expr) string {
	switch e := expr.(type) {
	case nil:
		return ""
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return exprToString(e.X) + "." + e.Sel.Name
	case *ast.StarExpr:
		return "*" + exprToString(e.X)
	case *ast.ArrayType:
		if e.Len == nil {
			return "[]" + exprToString(e.Elt)
		}
		return "[" + exprToString(e.Len) + "]" + exprToString(e.Elt)
	case *ast.BasicLit:
		return e.Value
	case *ast.UnaryExpr:
		return e.Op.String() + exprToString(e.X)
	case *ast.BinaryExpr:
		return exprToString(e.X) + " " + e.Op.String() + " " + exprToString(e.Y)
	case *ast.ParenExpr:
		return "(" + exprToString(e.X) + ")"
	case *ast.InterfaceType:
		if e.Methods == nil || len(e.Methods.List) == 0 {
			return "any"
		}
		return "constraint"
	case *ast.Ellipsis:
		return "..." + exprToString(e.Elt)
	default:
		return "?"
	}
}
