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

// Package ir provides a tree representation of C source: preprocessor
// directives, declarations, expressions, statements, and the file/project
// containers that group them.
//
// Nodes are plain structs. Each node exclusively owns its children, so a tree
// never contains cycles or shared subtrees; use [Clone] before grafting a
// subtree into a second tree. Passes that change a tree do so through
// [Rewrite], and read-only consumers (the code generator, [Dot]) traverse it
// with [Walk] or a [Visitor].
//
// The set of node kinds is closed. [Visitor] has one method per kind, so an
// implementation that misses a kind does not compile.
package ir
