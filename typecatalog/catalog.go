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

package typecatalog

import (
	"iter"

	"dirpx.dev/dparts/apis"
)

// Catalog is an immutable list of definitions.
type Catalog struct {
	defs []*Definition
}

var _ apis.Catalog = (*Catalog)(nil)

// New returns a catalog of defs. Nil definitions are ignored.
func New(defs ...*Definition) *Catalog {
	out := make([]*Definition, 0, len(defs))
	for _, d := range defs {
		if d != nil {
			out = append(out, d)
		}
	}
	return &Catalog{defs: out}
}

// Definitions returns a copy of the definition list.
func (c *Catalog) Definitions() []*Definition {
	out := make([]*Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Parts yields every definition in registration order.
func (c *Catalog) Parts() iter.Seq2[apis.PartDefinition, error] {
	return func(yield func(apis.PartDefinition, error) bool) {
		for _, d := range c.defs {
			if !yield(d, nil) {
				return
			}
		}
	}
}

// Exports yields every export whose contract and part policy satisfy imp.
func (c *Catalog) Exports(imp *apis.ImportDefinition) iter.Seq2[apis.Match, error] {
	return func(yield func(apis.Match, error) bool) {
		if imp == nil {
			yield(apis.Match{}, ErrNilImport)
			return
		}
		for _, d := range c.defs {
			for _, exp := range d.exports {
				if !imp.MatchesPart(d, exp) {
					continue
				}
				if !yield(apis.Match{Definition: d, Export: exp}, nil) {
					return
				}
			}
		}
	}
}

// String returns "typecatalog.Catalog".
func (c *Catalog) String() string {
	return "typecatalog.Catalog"
}
