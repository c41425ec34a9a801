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

package jit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/go-ctree/ctype"
)

// DomainSpecialization prefixes every fingerprint hash. The version suffix
// changes whenever the descriptor text changes meaning.
const DomainSpecialization = "go-ctree/specialization/v1"

// Fingerprint identifies one specialization of a kernel.
type Fingerprint struct {
	// Key is the hex SHA-256 of the domain and Desc.
	Key string

	// Desc is the canonical text of the argument descriptors and tuning,
	// e.g. "(float64[12], int64)".
	Desc string
}

func (f Fingerprint) String() string { return f.Desc }

// Short returns the first 12 hex digits of the key, for logs and names.
func (f Fingerprint) Short() string {
	if len(f.Key) < 12 {
		return f.Key
	}
	return f.Key[:12]
}

func newFingerprint(kernel string, types []ctype.Type, tuning string) Fingerprint {
	desc := "(" + strings.Join(lo.Map(types, func(t ctype.Type, _ int) string { return t.String() }), ", ") + ")"
	if tuning != "" {
		desc += " tuning=" + tuning
	}
	return Fingerprint{Key: hashWithDomain(DomainSpecialization+"/"+kernel, desc), Desc: desc}
}

// hashWithDomain computes SHA256(domain + 0x00 + data). The null byte keeps
// the domain/data boundary unambiguous.
func hashWithDomain(domain, data string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
