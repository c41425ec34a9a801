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

package toolchain

import (
	"os"
	"strconv"
)

// NoSimdEnv reports whether CTREE_NO_SIMD is set. When set, no
// CPU-specific target flags are passed to the compiler, which is useful for
// testing and for building modules that run on other machines.
func NoSimdEnv() bool {
	val := os.Getenv("CTREE_NO_SIMD")
	if val == "" {
		return false
	}
	// Any non-empty value is considered true, but also parse as bool
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// CPUFlags returns the target flags matching the host CPU, e.g. "-mavx2".
func CPUFlags() []string {
	if NoSimdEnv() {
		return nil
	}
	return cpuFlags()
}
