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

package frontend

import (
	"go/ast"

	"golang.org/x/tools/go/ast/astutil"
)

// Normalize rewrites a kernel body into the subset the converter handles:
//
//   - panic guards (an if whose body only panics) are removed, since
//     bounds and argument checks are enforced by the driver before dispatch;
//   - if-statement init clauses move into a block that encloses their if,
//     so they still run only when that if is reached;
//   - parenthesized expressions are unwrapped, their grouping is carried by
//     the tree shape.
//
// The body is rewritten in place and returned.
func Normalize(body *ast.BlockStmt) *ast.BlockStmt {
	if body == nil {
		return nil
	}
	return astutil.Apply(body, nil, func(c *astutil.Cursor) bool {
		switch node := c.Node().(type) {
		case *ast.ParenExpr:
			c.Replace(node.X)

		case *ast.IfStmt:
			if isPanicGuard(node) {
				if _, inList := c.Parent().(*ast.BlockStmt); inList && c.Index() >= 0 {
					c.Delete()
				}
				return true
			}
			// An else-if init runs only when the earlier conditions fail:
			// it moves into a block in the else arm.
			if elif, ok := node.Else.(*ast.IfStmt); ok && elif.Init != nil {
				init := elif.Init
				elif.Init = nil
				node.Else = &ast.BlockStmt{Lbrace: elif.Pos(), List: []ast.Stmt{init, elif}, Rbrace: elif.End()}
			}
			// The head's init goes into a block with the chain, so its
			// scope ends where the if does.
			if node.Init != nil {
				if _, inList := c.Parent().(*ast.BlockStmt); inList && c.Index() >= 0 {
					init := node.Init
					node.Init = nil
					c.Replace(&ast.BlockStmt{Lbrace: node.Pos(), List: []ast.Stmt{init, node}, Rbrace: node.End()})
				}
			}
		}
		return true
	}).(*ast.BlockStmt)
}

func isPanicGuard(n *ast.IfStmt) bool {
	if n.Else != nil || n.Init != nil || len(n.Body.List) != 1 {
		return false
	}
	es, ok := n.Body.List[0].(*ast.ExprStmt)
	if !ok {
		return false
	}
	call, ok := es.X.(*ast.CallExpr)
	if !ok {
		return false
	}
	id, ok := call.Fun.(*ast.Ident)
	return ok && id.Name == "panic"
}
