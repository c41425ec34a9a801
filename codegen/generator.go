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

// Package codegen renders IR trees as C source text.
//
// Rendering is a pure function of the tree. Expressions are parenthesized
// only where C's precedence rules would otherwise regroup them, so the text
// always parses back into the tree it came from.
package codegen

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ajroetker/go-ctree/ctype"
	"github.com/ajroetker/go-ctree/ir"
)

// CodeGenError reports a node that cannot be rendered, usually because a
// required attribute was never filled in by the passes.
type CodeGenError struct {
	// Kind is the node kind, e.g. "VarDecl".
	Kind string
	// Attr names the offending attribute, e.g. "Type".
	Attr string
	// Reason describes the problem.
	Reason string
}

func (e *CodeGenError) Error() string {
	if e.Attr == "" {
		return fmt.Sprintf("codegen: %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("codegen: %s.%s: %s", e.Kind, e.Attr, e.Reason)
}

func missing(kind, attr string) error {
	return errors.WithStack(&CodeGenError{Kind: kind, Attr: attr, Reason: "missing"})
}

func invalid(kind, attr, format string, args ...any) error {
	return errors.WithStack(&CodeGenError{Kind: kind, Attr: attr, Reason: fmt.Sprintf(format, args...)})
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithIndent sets the text written per nesting level. The default is four spaces.
func WithIndent(unit string) GeneratorOption {
	return func(g *Generator) {
		g.unit = unit
	}
}

// Generator renders IR to C. A Generator is not safe for concurrent use;
// create one per goroutine or use the package-level functions.
type Generator struct {
	buf    *bytes.Buffer
	indent int
	unit   string
}

var _ ir.Visitor = (*Generator)(nil)

// NewGenerator creates a Generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		buf:  &bytes.Buffer{},
		unit: "    ",
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders n with default options. See [Generator.Generate].
func Generate(n ir.Node) (string, error) {
	return NewGenerator().Generate(n)
}

// Render writes the rendering of n to w.
func Render(w io.Writer, n ir.Node) error {
	text, err := Generate(n)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return errors.Wrap(err, "writing generated source")
}

// Generate renders n. Files and projects render as complete translation
// units. Any other node renders on its own without a trailing terminator,
// which is added by the enclosing block when the node is used as a statement.
func (g *Generator) Generate(n ir.Node) (string, error) {
	g.buf.Reset()
	g.indent = 0
	if n == nil {
		return "", missing("Node", "")
	}
	if err := n.Accept(g); err != nil {
		return "", err
	}
	return g.buf.String(), nil
}

// File is one generated translation unit.
type File struct {
	// Name is the file name including the ".c" extension.
	Name   string
	Source string
}

// GenerateProject renders every file of p, in project order.
func GenerateProject(p *ir.Project, opts ...GeneratorOption) ([]File, error) {
	if p == nil {
		return nil, missing("Project", "")
	}
	seen := make(map[string]bool, len(p.Files))
	files := make([]File, 0, len(p.Files))
	g := NewGenerator(opts...)
	for i, f := range p.Files {
		if f == nil || f.Name == "" {
			return nil, invalid("Project", "Files", "file %d has no name", i)
		}
		name := f.Name + ".c"
		if seen[name] {
			return nil, invalid("Project", "Files", "duplicate file %s", name)
		}
		seen[name] = true
		src, err := g.Generate(f)
		if err != nil {
			return nil, errors.Wrapf(err, "generating %s", name)
		}
		files = append(files, File{Name: name, Source: src})
	}
	return files, nil
}

// ---------------------------------------------------------------------------
// Output helpers
// ---------------------------------------------------------------------------

func (g *Generator) writeIndent() {
	for i := 0; i < g.indent; i++ {
		g.buf.WriteString(g.unit)
	}
}

func (g *Generator) write(s string) {
	g.buf.WriteString(s)
}

func (g *Generator) writef(format string, args ...any) {
	fmt.Fprintf(g.buf, format, args...)
}

// statement renders n on its own line at the current indentation.
func (g *Generator) statement(n ir.Node) error {
	if n == nil {
		return nil
	}
	g.writeIndent()
	if err := n.Accept(g); err != nil {
		return err
	}
	if n.RequiresTerminator() {
		g.write(";")
	}
	g.write("\n")
	return nil
}

// block renders a brace-delimited body. The opening brace continues the
// current line; the closing brace is left unterminated.
func (g *Generator) block(body []ir.Node) error {
	g.write("{\n")
	g.indent++
	for _, n := range body {
		if err := g.statement(n); err != nil {
			return err
		}
	}
	g.indent--
	g.writeIndent()
	g.write("}")
	return nil
}

// expr renders e, parenthesized when its precedence is below minPrec.
func (g *Generator) expr(e ir.Expr, minPrec int) error {
	paren := ir.Precedence(e) < minPrec
	if paren {
		g.write("(")
	}
	if err := e.Accept(g); err != nil {
		return err
	}
	if paren {
		g.write(")")
	}
	return nil
}

// declarator returns the C declaration of name with type t.
func declarator(name string, t ctype.Type) string {
	if f, ok := t.(ctype.Func); ok {
		ret := "void"
		if f.Return != nil {
			ret = f.Return.CName()
		}
		params := make([]string, len(f.Params))
		for i, p := range f.Params {
			params[i] = p.CName()
		}
		if len(params) == 0 {
			params = []string{"void"}
		}
		return ret + " (*" + name + ")(" + strings.Join(params, ", ") + ")"
	}
	return t.CName() + " " + name
}

// ---------------------------------------------------------------------------
// Directives
// ---------------------------------------------------------------------------

func (g *Generator) VisitInclude(n *ir.Include) error {
	if n.Target == "" {
		return missing("Include", "Target")
	}
	if n.Angled {
		g.writef("#include <%s>", n.Target)
	} else {
		g.writef("#include %q", n.Target)
	}
	return nil
}

func (g *Generator) VisitComment(n *ir.Comment) error {
	if strings.ContainsAny(n.Text, "\r\n") {
		return invalid("Comment", "Text", "comment text must be a single line")
	}
	g.write("// " + n.Text)
	return nil
}

func (g *Generator) VisitDefine(n *ir.Define) error {
	if n.Name == "" {
		return missing("Define", "Name")
	}
	if strings.ContainsAny(n.Body, "\r\n") {
		return invalid("Define", "Body", "macro body must be a single line")
	}
	g.write("#define " + n.Name)
	if n.Params != nil {
		g.write("(" + strings.Join(n.Params, ", ") + ")")
	}
	if n.Body != "" {
		g.write(" " + n.Body)
	}
	return nil
}

func (g *Generator) VisitPragma(n *ir.Pragma) error {
	if n.Text == "" {
		return missing("Pragma", "Text")
	}
	g.write("#pragma " + n.Text)
	return nil
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

func (g *Generator) VisitFuncDecl(n *ir.FuncDecl) error {
	if n.Name == "" {
		return missing("FuncDecl", "Name")
	}
	if n.Return == nil {
		return missing("FuncDecl", "Return")
	}
	if n.Static {
		g.write("static ")
	}
	if n.Inline {
		g.write("inline ")
	}
	g.write(n.Return.CName() + " " + n.Name + "(")
	if len(n.Params) == 0 {
		g.write("void")
	}
	for i, p := range n.Params {
		if p == nil || p.Name == "" {
			return invalid("FuncDecl", "Params", "parameter %d of %s has no name", i, n.Name)
		}
		if p.Type == nil {
			return invalid("FuncDecl", "Params", "parameter %s of %s has no type", p.Name, n.Name)
		}
		if i > 0 {
			g.write(", ")
		}
		g.write(declarator(p.Name, p.Type))
	}
	g.write(")")
	if n.Body == nil {
		return nil
	}
	g.write(" ")
	return g.block(n.Body)
}

func (g *Generator) VisitVarDecl(n *ir.VarDecl) error {
	if n.Name == "" {
		return missing("VarDecl", "Name")
	}
	if n.Type == nil {
		return invalid("VarDecl", "Type", "type of %s was never inferred", n.Name)
	}
	g.write(declarator(n.Name, n.Type))
	if n.Init == nil {
		return nil
	}
	g.write(" = ")
	return g.expr(n.Init, ir.PrecTernary)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (g *Generator) VisitSymbolRef(n *ir.SymbolRef) error {
	if n.Name == "" {
		return missing("SymbolRef", "Name")
	}
	if n.Type != nil {
		g.write(declarator(n.Name, n.Type))
		return nil
	}
	g.write(n.Name)
	return nil
}

func (g *Generator) VisitConstant(n *ir.Constant) error {
	text, err := constantText(n)
	if err != nil {
		return err
	}
	g.write(text)
	return nil
}

func constantText(n *ir.Constant) (string, error) {
	var isFloat, isF32 bool
	if s, ok := n.Type.(ctype.Scalar); ok {
		isFloat = s.IsFloat()
		isF32 = s.Kind == ctype.KindFloat32
	}
	switch v := n.Value.(type) {
	case nil:
		return "", missing("Constant", "Value")
	case bool:
		if v {
			return "1", nil
		}
		return "0", nil
	case int:
		return integerText(int64(v), isFloat, isF32)
	case int64:
		return integerText(v, isFloat, isF32)
	case uint64:
		if isFloat {
			return floatText(float64(v), isF32)
		}
		return strconv.FormatUint(v, 10) + "u", nil
	case float32:
		return floatText(float64(v), true)
	case float64:
		return floatText(v, isF32)
	case string:
		return strconv.QuoteToASCII(v), nil
	}
	return "", invalid("Constant", "Value", "unsupported literal %T", n.Value)
}

func integerText(v int64, isFloat, isF32 bool) (string, error) {
	if isFloat {
		return floatText(float64(v), isF32)
	}
	return strconv.FormatInt(v, 10), nil
}

// floatText always spells a floating literal, so 2.0 never renders as the
// integer 2.
func floatText(v float64, isF32 bool) (string, error) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "", invalid("Constant", "Value", "non-finite value %v", v)
	}
	bits := 64
	if isF32 {
		bits = 32
	}
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	if isF32 {
		s += "f"
	}
	return s, nil
}

// startsWith reports whether e renders starting with the byte c, which
// matters when a prefix operator with the same spelling precedes it.
func startsWith(e ir.Expr, c byte) bool {
	switch e := e.(type) {
	case *ir.UnaryOp:
		if e.Op.Postfix() {
			return startsWith(e.Operand, c)
		}
		tok := e.Op.Token()
		return tok != "" && tok[0] == c
	case *ir.Constant:
		text, err := constantText(e)
		return err == nil && text != "" && text[0] == c
	case *ir.BinaryOp:
		return startsWith(e.Left, c)
	case *ir.ArrayRef:
		return startsWith(e.Array, c)
	}
	return false
}

func (g *Generator) VisitUnaryOp(n *ir.UnaryOp) error {
	if n.Operand == nil {
		return missing("UnaryOp", "Operand")
	}
	tok := n.Op.Token()
	if tok == "" {
		return invalid("UnaryOp", "Op", "unknown operator %v", n.Op)
	}
	if n.Op.Postfix() {
		if err := g.expr(n.Operand, ir.PrecPrimary); err != nil {
			return err
		}
		g.write(tok)
		return nil
	}
	g.write(tok)
	if ir.Precedence(n.Operand) >= ir.PrecUnary && startsWith(n.Operand, tok[0]) {
		g.write("(")
		if err := n.Operand.Accept(g); err != nil {
			return err
		}
		g.write(")")
		return nil
	}
	return g.expr(n.Operand, ir.PrecUnary)
}

func (g *Generator) VisitBinaryOp(n *ir.BinaryOp) error {
	if n.Left == nil {
		return missing("BinaryOp", "Left")
	}
	if n.Right == nil {
		return missing("BinaryOp", "Right")
	}
	tok := n.Op.Token()
	if tok == "" {
		return invalid("BinaryOp", "Op", "unknown operator %v", n.Op)
	}
	prec := n.Op.Precedence()
	if err := g.expr(n.Left, prec); err != nil {
		return err
	}
	if n.Op == ir.OpComma {
		g.write(", ")
	} else {
		g.write(" " + tok + " ")
	}
	// Binary operators associate left, so an equal-precedence right operand
	// was grouped explicitly.
	return g.expr(n.Right, prec+1)
}

func (g *Generator) VisitArrayRef(n *ir.ArrayRef) error {
	if n.Array == nil {
		return missing("ArrayRef", "Array")
	}
	if n.Index == nil {
		return missing("ArrayRef", "Index")
	}
	if err := g.expr(n.Array, ir.PrecPrimary); err != nil {
		return err
	}
	g.write("[")
	if err := n.Index.Accept(g); err != nil {
		return err
	}
	g.write("]")
	return nil
}

func (g *Generator) VisitFuncCall(n *ir.FuncCall) error {
	if n.Func == nil {
		return missing("FuncCall", "Func")
	}
	if err := g.expr(n.Func, ir.PrecPrimary); err != nil {
		return err
	}
	g.write("(")
	for i, a := range n.Args {
		if a == nil {
			return invalid("FuncCall", "Args", "argument %d is nil", i)
		}
		if i > 0 {
			g.write(", ")
		}
		if err := g.expr(a, ir.OpComma.Precedence()+1); err != nil {
			return err
		}
	}
	g.write(")")
	return nil
}

func (g *Generator) VisitCast(n *ir.Cast) error {
	if n.Type == nil {
		return missing("Cast", "Type")
	}
	if n.Value == nil {
		return missing("Cast", "Value")
	}
	g.write("(" + n.Type.CName() + ")")
	return g.expr(n.Value, ir.PrecUnary)
}

func (g *Generator) VisitTernary(n *ir.Ternary) error {
	if n.Cond == nil || n.Then == nil || n.Else == nil {
		return missing("Ternary", "Cond/Then/Else")
	}
	if err := g.expr(n.Cond, ir.PrecTernary+1); err != nil {
		return err
	}
	g.write(" ? ")
	if err := g.expr(n.Then, ir.OpComma.Precedence()+1); err != nil {
		return err
	}
	g.write(" : ")
	return g.expr(n.Else, ir.PrecTernary)
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (g *Generator) VisitAssign(n *ir.Assign) error {
	if n.Target == nil {
		return missing("Assign", "Target")
	}
	if n.Value == nil {
		return missing("Assign", "Value")
	}
	if err := g.expr(n.Target, ir.PrecUnary); err != nil {
		return err
	}
	g.write(" = ")
	return g.expr(n.Value, ir.PrecTernary)
}

func (g *Generator) VisitAugAssign(n *ir.AugAssign) error {
	if n.Target == nil {
		return missing("AugAssign", "Target")
	}
	if n.Value == nil {
		return missing("AugAssign", "Value")
	}
	if n.Op.IsComparison() || n.Op == ir.OpComma || n.Op.Token() == "" {
		return invalid("AugAssign", "Op", "%v has no compound assignment form", n.Op)
	}
	if err := g.expr(n.Target, ir.PrecUnary); err != nil {
		return err
	}
	g.write(" " + n.Op.Token() + "= ")
	return g.expr(n.Value, ir.PrecTernary)
}

func (g *Generator) VisitReturn(n *ir.Return) error {
	if n.Value == nil {
		g.write("return")
		return nil
	}
	g.write("return ")
	return n.Value.Accept(g)
}

func (g *Generator) VisitIf(n *ir.If) error {
	if n.Cond == nil {
		return missing("If", "Cond")
	}
	g.write("if (")
	if err := n.Cond.Accept(g); err != nil {
		return err
	}
	g.write(") ")
	if err := g.block(n.Then); err != nil {
		return err
	}
	if n.Else == nil {
		return nil
	}
	g.write(" else ")
	if len(n.Else) == 1 {
		if chained, ok := n.Else[0].(*ir.If); ok {
			return g.VisitIf(chained)
		}
	}
	return g.block(n.Else)
}

func (g *Generator) VisitFor(n *ir.For) error {
	if n.Pragma != "" {
		g.write("#pragma " + n.Pragma + "\n")
		g.writeIndent()
	}
	g.write("for (")
	if n.Init != nil {
		if err := n.Init.Accept(g); err != nil {
			return err
		}
	}
	g.write(";")
	if n.Cond != nil {
		g.write(" ")
		if err := n.Cond.Accept(g); err != nil {
			return err
		}
	}
	g.write(";")
	if n.Incr != nil {
		g.write(" ")
		if err := n.Incr.Accept(g); err != nil {
			return err
		}
	}
	g.write(") ")
	return g.block(n.Body)
}

func (g *Generator) VisitBlock(n *ir.Block) error {
	return g.block(n.Body)
}

// ---------------------------------------------------------------------------
// Containers
// ---------------------------------------------------------------------------

func (g *Generator) VisitCFile(n *ir.CFile) error {
	for i, stmt := range n.Body {
		// Separate function definitions from whatever precedes them.
		if fd, ok := stmt.(*ir.FuncDecl); ok && fd.Body != nil && i > 0 {
			g.write("\n")
		}
		if err := g.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) VisitProject(n *ir.Project) error {
	for i, f := range n.Files {
		if f == nil {
			return invalid("Project", "Files", "file %d is nil", i)
		}
		if i > 0 {
			g.write("\n")
		}
		g.writef("// %s.c\n", f.Name)
		if err := g.VisitCFile(f); err != nil {
			return err
		}
	}
	return nil
}
