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

// Command ctreejit inspects and builds shape-specialized C kernels from Go
// source.
//
// Usage:
//
//	ctreejit emit -f apply --map --args 'float64[12]' kernels.go    # print the C
//	ctreejit dot -f apply kernels.go | dot -Tsvg > apply.svg       # IR graph
//	ctreejit compile -f calibrate --map --args 'int32[156x208],int32[156x208],int32[156x208]' hwacha.go
//
// Argument descriptors name an element type and, for arrays, an extent per
// axis separated by "x". A map kernel's output argument is added
// automatically.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
