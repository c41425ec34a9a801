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
	"fmt"
	"strconv"
	"strings"
)

// Dot renders the tree rooted at n as a Graphviz digraph. Node identifiers
// are assigned in pre-order, so the output is stable for a given tree.
func Dot(n Node) string {
	var buf strings.Builder
	buf.WriteString("digraph ctree {\n")
	buf.WriteString("  node [shape=box, fontname=\"monospace\"];\n")
	next := 0
	var emit func(n Node) int
	emit = func(n Node) int {
		id := next
		next++
		fmt.Fprintf(&buf, "  n%d [label=%s];\n", id, strconv.Quote(label(n)))
		for _, c := range n.children() {
			cid := emit(c)
			fmt.Fprintf(&buf, "  n%d -> n%d;\n", id, cid)
		}
		return id
	}
	if !isNil(n) {
		emit(n)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func label(n Node) string {
	switch n := n.(type) {
	case *Include:
		if n.Angled {
			return "Include <" + n.Target + ">"
		}
		return "Include \"" + n.Target + "\""
	case *Comment:
		return "Comment " + n.Text
	case *Define:
		return "Define " + n.Name
	case *Pragma:
		return "Pragma " + n.Text
	case *FuncDecl:
		return "FuncDecl " + n.Name + " " + n.Signature().String()
	case *VarDecl:
		if n.Type == nil {
			return "VarDecl " + n.Name
		}
		return "VarDecl " + n.Name + " " + n.Type.String()
	case *SymbolRef:
		if n.Type == nil {
			return "SymbolRef " + n.Name
		}
		return "SymbolRef " + n.Name + " " + n.Type.String()
	case *Constant:
		return fmt.Sprintf("Constant %v", n.Value)
	case *UnaryOp:
		return "UnaryOp " + n.Op.String()
	case *BinaryOp:
		return "BinaryOp " + n.Op.String()
	case *AugAssign:
		return "AugAssign " + n.Op.String()
	case *Cast:
		if n.Type == nil {
			return "Cast"
		}
		return "Cast " + n.Type.String()
	case *For:
		if n.Pragma != "" {
			return "For #pragma " + n.Pragma
		}
		return "For"
	case *CFile:
		return "CFile " + n.Name
	case *Project:
		return "Project " + n.Name
	}
	return n.Kind()
}
