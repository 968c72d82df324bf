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

// Metadata is the key/value view a part or export publishes to the host.
type Metadata map[string]any

// Lookup returns the value stored under key. A nil Metadata has no keys.
func (m Metadata) Lookup(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Cardinality states how many exports an import accepts.
type Cardinality int

const (
	// ExactlyOne requires a single matching export.
	ExactlyOne Cardinality = iota
	// ZeroOrOne accepts at most one matching export.
	ZeroOrOne
	// ZeroOrMore accepts any number of matching exports.
	ZeroOrMore
)

// String returns "ExactlyOne", "ZeroOrOne", "ZeroOrMore" or "Unknown(<n>)".
func (c Cardinality) String() string {
	switch c {
	case ExactlyOne:
		return "ExactlyOne"
	case ZeroOrOne:
		return "ZeroOrOne"
	case ZeroOrMore:
		return "ZeroOrMore"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. Matching is
// case-insensitive. On failure *c is left unchanged.
func (c *Cardinality) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "exactlyone", "one":
		*c = ExactlyOne
	case "zeroorone", "optional":
		*c = ZeroOrOne
	case "zeroormore", "many":
		*c = ZeroOrMore
	default:
		return fmt.Errorf("apis: unknown cardinality %q", text)
	}
	return nil
}

// ExportDefinition describes one contract a part offers.
// Export definitions are compared by pointer.
type ExportDefinition struct {
	// ContractName identifies the exported contract.
	ContractName string
	// Metadata is attached to the export, not to the part.
	Metadata Metadata
}

// ImportDefinition describes one contract a part consumes.
type ImportDefinition struct {
	// ContractName identifies the required contract.
	ContractName string
	// Cardinality bounds the number of exports accepted.
	Cardinality Cardinality
	// RequiredPolicy restricts which parts may satisfy the import.
	// Any accepts every part.
	RequiredPolicy CreationPolicy
	// Metadata is attached to the import.
	Metadata Metadata
}

// Matches reports whether exp satisfies the contract of d.
func (d *ImportDefinition) Matches(exp *ExportDefinition) bool {
	if d == nil || exp == nil {
		return false
	}
	return d.ContractName == exp.ContractName
}

// MatchesPart reports whether exp, offered by def, satisfies d, including
// the creation policy constraint. A part with policy Any is compatible
// with every requirement.
func (d *ImportDefinition) MatchesPart(def PartDefinition, exp *ExportDefinition) bool {
	if !d.Matches(exp) || def == nil {
		return false
	}
	if d.RequiredPolicy == Any {
		return true
	}
	p := PolicyOf(def.Metadata())
	return p == Any || p == d.RequiredPolicy
}

// PartDefinition is the immutable descriptor of an instantiable component.
//
// Implementations must be pointer types: catalogs key their caches on the
// identity of a definition, never on its value.
type PartDefinition interface {
	// ExportDefinitions lists the contracts the part offers.
	ExportDefinitions() []*ExportDefinition
	// ImportDefinitions lists the contracts the part consumes.
	ImportDefinitions() []*ImportDefinition
	// Metadata returns the part metadata, including CreationPolicyKey.
	Metadata() Metadata
	// CreatePart instantiates a new live part.
	CreatePart() (Part, error)
}

// DisposalReporter is implemented by definitions that can tell whether
// their component must be disposed by its owner.
// Definitions that do not implement it are treated as not requiring
// disposal.
type DisposalReporter interface {
	DisposalRequired() bool
}

// Part is a live component instance as seen by the host.
//
// Parts whose component needs disposal also implement io.Closer.
type Part interface {
	// ExportDefinitions lists the contracts the part offers.
	ExportDefinitions() []*ExportDefinition
	// ImportDefinitions lists the contracts the part consumes.
	ImportDefinitions() []*ImportDefinition
	// Metadata returns the part metadata.
	Metadata() Metadata
	// ExportedValue returns the value satisfying exp.
	ExportedValue(exp *ExportDefinition) (any, error)
	// SetImport hands the resolved values for imp to the part.
	SetImport(imp *ImportDefinition, values []any) error
	// Activate is called once all imports are set.
	Activate() error
}
