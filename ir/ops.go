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

import "fmt"

// UnaryOperator identifies a unary operator.
type UnaryOperator int

const (
	OpPlus    UnaryOperator = iota // +x
	OpNeg                          // -x
	OpBitNot                       // ~x
	OpNot                          // !x
	OpRef                          // &x
	OpDeref                        // *x
	OpPreInc                       // ++x
	OpPreDec                       // --x
	OpPostInc                      // x++
	OpPostDec                      // x--
)

var unaryTokens = [...]string{
	OpPlus:    "+",
	OpNeg:     "-",
	OpBitNot:  "~",
	OpNot:     "!",
	OpRef:     "&",
	OpDeref:   "*",
	OpPreInc:  "++",
	OpPreDec:  "--",
	OpPostInc: "++",
	OpPostDec: "--",
}

// Token returns the C token for the operator.
func (op UnaryOperator) Token() string {
	if op < 0 || int(op) >= len(unaryTokens) {
		return ""
	}
	return unaryTokens[op]
}

// Postfix reports whether the operator is written after its operand.
func (op UnaryOperator) Postfix() bool {
	return op == OpPostInc || op == OpPostDec
}

func (op UnaryOperator) String() string {
	switch op {
	case OpPlus:
		return "Plus"
	case OpNeg:
		return "Neg"
	case OpBitNot:
		return "BitNot"
	case OpNot:
		return "Not"
	case OpRef:
		return "Ref"
	case OpDeref:
		return "Deref"
	case OpPreInc:
		return "PreInc"
	case OpPreDec:
		return "PreDec"
	case OpPostInc:
		return "PostInc"
	case OpPostDec:
		return "PostDec"
	default:
		return fmt.Sprintf("UnaryOperator(%d)", int(op))
	}
}

// BinaryOperator identifies a binary operator.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLt
	OpGt
	OpLtE
	OpGtE
	OpEq
	OpNotEq
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpComma
)

var binaryTokens = [...]string{
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpLt:     "<",
	OpGt:     ">",
	OpLtE:    "<=",
	OpGtE:    ">=",
	OpEq:     "==",
	OpNotEq:  "!=",
	OpAnd:    "&&",
	OpOr:     "||",
	OpBitAnd: "&",
	OpBitOr:  "|",
	OpBitXor: "^",
	OpShl:    "<<",
	OpShr:    ">>",
	OpComma:  ",",
}

// C precedence levels, higher binds tighter.
var binaryPrecedence = [...]int{
	OpMul:    13,
	OpDiv:    13,
	OpMod:    13,
	OpAdd:    12,
	OpSub:    12,
	OpShl:    11,
	OpShr:    11,
	OpLt:     10,
	OpGt:     10,
	OpLtE:    10,
	OpGtE:    10,
	OpEq:     9,
	OpNotEq:  9,
	OpBitAnd: 8,
	OpBitXor: 7,
	OpBitOr:  6,
	OpAnd:    5,
	OpOr:     4,
	OpComma:  1,
}

// Precedence of the non-binary expression forms, on the same scale.
const (
	PrecPrimary = 16 // names, constants, a[i], f(x), x++
	PrecUnary   = 15 // prefix operators and casts
	PrecTernary = 3
)

// Token returns the C token for the operator.
func (op BinaryOperator) Token() string {
	if op < 0 || int(op) >= len(binaryTokens) {
		return ""
	}
	return binaryTokens[op]
}

// Precedence returns the C precedence level of the operator.
func (op BinaryOperator) Precedence() int {
	if op < 0 || int(op) >= len(binaryPrecedence) {
		return 0
	}
	return binaryPrecedence[op]
}

// IsComparison reports whether the operator yields a truth value.
func (op BinaryOperator) IsComparison() bool {
	switch op {
	case OpLt, OpGt, OpLtE, OpGtE, OpEq, OpNotEq, OpAnd, OpOr:
		return true
	}
	return false
}

func (op BinaryOperator) String() string {
	switch op {
	case OpAdd:
		return "Add"
	case OpSub:
		return "Sub"
	case OpMul:
		return "Mul"
	case OpDiv:
		return "Div"
	case OpMod:
		return "Mod"
	case OpLt:
		return "Lt"
	case OpGt:
		return "Gt"
	case OpLtE:
		return "LtE"
	case OpGtE:
		return "GtE"
	case OpEq:
		return "Eq"
	case OpNotEq:
		return "NotEq"
	case OpAnd:
		return "And"
	case OpOr:
		return "Or"
	case OpBitAnd:
		return "BitAnd"
	case OpBitOr:
		return "BitOr"
	case OpBitXor:
		return "BitXor"
	case OpShl:
		return "Shl"
	case OpShr:
		return "Shr"
	case OpComma:
		return "Comma"
	default:
		return fmt.Sprintf("BinaryOperator(%d)", int(op))
	}
}

// Precedence returns the C precedence of an expression's outermost operator.
func Precedence(e Expr) int {
	switch e := e.(type) {
	case *BinaryOp:
		return e.Op.Precedence()
	case *UnaryOp:
		if e.Op.Postfix() {
			return PrecPrimary
		}
		return PrecUnary
	case *Cast:
		return PrecUnary
	case *Ternary:
		return PrecTernary
	case *Constant:
		// A negative literal renders with a leading minus.
		switch v := e.Value.(type) {
		case int64:
			if v < 0 {
				return PrecUnary
			}
		case float64:
			if v < 0 {
				return PrecUnary
			}
		}
		return PrecPrimary
	default:
		return PrecPrimary
	}
}
