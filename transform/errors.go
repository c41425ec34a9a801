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
	"fmt"

	"github.com/cockroachdb/errors"
)

// TransformError reports a construct the passes cannot lower to C, or a type
// they cannot resolve.
type TransformError struct {
	// Pos is the source position ("kernel.go:4:2"), or the function name when
	// the problem is not tied to a position.
	Pos string

	// Construct names what was being lowered, e.g. "switch statement".
	Construct string

	Reason string
}

func (e *TransformError) Error() string {
	if e.Construct == "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Construct, e.Reason)
}

func transformErr(pos, construct, format string, args ...any) error {
	return errors.WithStack(&TransformError{Pos: pos, Construct: construct, Reason: fmt.Sprintf(format, args...)})
}

// cReserved holds the C99 keywords. A Go identifier spelled like one of these
// would not survive the trip to C.
var cReserved = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true,
	"sizeof": true, "static": true, "struct": true, "switch": true,
	"typedef": true, "union": true, "unsigned": true, "void": true,
	"volatile": true, "while": true, "_Bool": true, "_Complex": true,
	"_Imaginary": true,
}

// checkIdent verifies that name can be used verbatim as a C identifier.
func checkIdent(pos, name string) error {
	if name == "_" {
		return transformErr(pos, "identifier", "blank identifier has no C equivalent")
	}
	if cReserved[name] {
		return transformErr(pos, "identifier", "%q is a C keyword", name)
	}
	for i, r := range name {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')
		if !ok {
			return transformErr(pos, "identifier", "%q is not a valid C identifier", name)
		}
	}
	return nil
}
