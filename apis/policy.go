/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package apis

import (
	"fmt"
	"strings"
)

// CreationPolicyKey is the well-known metadata key under which a part
// definition publishes its CreationPolicy.
//
// Only values of type CreationPolicy are honored. A missing key, or a value
// of any other type, is read as Any.
const CreationPolicyKey = "composition.creation-policy"

// CreationPolicy describes who owns the instances produced by a part.
//
// # Values
//
//   - Any      : policy unresolved; the host decides, and in practice
//     manages such parts as Shared.
//   - Shared   : one instance, owned and disposed by the host.
//   - NonShared: a fresh instance per request.
//
// # Contract
//
//   - The zero value is Any, so definitions that never declare a policy
//     read as unresolved rather than as NonShared.
//   - Existing values MUST NOT change their semantics; adding values is
//     allowed.
//   - Values are plain integers and safe to share across goroutines.
type CreationPolicy int

const (
	// Any leaves the policy to the host.
	Any CreationPolicy = iota

	// Shared selects one host-managed instance for all requests.
	Shared

	// NonShared selects a fresh instance for every request.
	//
	// Hosts do not cache these instances, and some hosts never dispose
	// them either. A disposable NonShared part is the at-risk category
	// handled by the wrapper catalog.
	NonShared
)

// String returns the canonical token for p.
//
// Known values map to "Any", "Shared" and "NonShared". Unknown values
// render as "Unknown(<n>)" and never panic, so corrupted values can still
// be logged.
func (p CreationPolicy) String() string {
	switch p {
	case Any:
		return "Any"
	case Shared:
		return "Shared"
	case NonShared:
		return "NonShared"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// ParsePolicy parses a textual CreationPolicy.
//
// Matching is case-insensitive and ignores surrounding whitespace. The
// tokens "non-shared" and "non_shared" are accepted as NonShared. Any other
// input returns Any and a non-nil error. ParsePolicy never panics.
//
//	p, err := ParsePolicy("nonshared")
//	if err != nil {
//	    // handle invalid configuration
//	}
//	_ = p // NonShared
func ParsePolicy(s string) (CreationPolicy, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Any, fmt.Errorf("apis: empty creation policy")
	}

	switch strings.ToUpper(trimmed) {
	case "ANY":
		return Any, nil
	case "SHARED":
		return Shared, nil
	case "NONSHARED", "NON-SHARED", "NON_SHARED":
		return NonShared, nil
	default:
		return Any, fmt.Errorf("apis: unknown creation policy %q", s)
	}
}

// MustParsePolicy is like ParsePolicy but panics on invalid input.
// It is meant for hard-coded values and tests.
func MustParsePolicy(s string) CreationPolicy {
	p, err := ParsePolicy(s)
	if err != nil {
		panic(err)
	}
	return p
}

// MarshalText implements encoding.TextMarshaler.
// Unknown values are rejected rather than persisted as "Unknown(n)".
func (p CreationPolicy) MarshalText() ([]byte, error) {
	switch p {
	case Any, Shared, NonShared:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("apis: cannot marshal unknown creation policy %d", int(p))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler with the same rules as
// ParsePolicy. On failure *p is left unchanged.
func (p *CreationPolicy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// PolicyOf reads the CreationPolicy published in md. Absent keys and values
// of a foreign type yield Any.
func PolicyOf(md Metadata) CreationPolicy {
	v, ok := md.Lookup(CreationPolicyKey)
	if !ok {
		return Any
	}
	p, ok := v.(CreationPolicy)
	if !ok {
		return Any
	}
	return p
}
