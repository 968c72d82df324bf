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

// Package manifest builds catalogs from YAML descriptions of parts.
//
//	name: orders
//	parts:
//	  - contract: db
//	    policy: NonShared
//	    disposable: true
//	    metadata:
//	      tier: hot
//	    imports:
//	      - contract: logger
//	        cardinality: ZeroOrMore
//
// Every part is backed by a stub component: *DisposableComponent when
// disposable is set, *Component otherwise.
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/typecatalog"
)

// ErrInvalid is returned for a manifest that does not describe a catalog.
var ErrInvalid = fmt.Errorf("dparts(manifest): invalid manifest: %w", apis.ErrInvalidArgument)

// Manifest is the decoded document.
type Manifest struct {
	Name  string `yaml:"name"`
	Parts []Part `yaml:"parts"`
}

// Part describes one part definition.
type Part struct {
	Contract   string              `yaml:"contract"`
	Policy     apis.CreationPolicy `yaml:"policy"`
	Disposable bool                `yaml:"disposable"`
	Metadata   map[string]any      `yaml:"metadata"`
	Imports    []Import            `yaml:"imports"`
}

// Import describes one import of a part.
type Import struct {
	Contract    string           `yaml:"contract"`
	Cardinality apis.Cardinality `yaml:"cardinality"`
}

// Parse decodes and validates a manifest. Unknown fields are rejected.
func Parse(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every part and import names a contract. The
// creation policy is set with the policy field only, never in metadata.
func (m *Manifest) Validate() error {
	for i, p := range m.Parts {
		if p.Contract == "" {
			return fmt.Errorf("%w: part %d has no contract", ErrInvalid, i)
		}
		if _, ok := p.Metadata[apis.CreationPolicyKey]; ok {
			return fmt.Errorf("%w: part %q sets %q in metadata, use the policy field", ErrInvalid, p.Contract, apis.CreationPolicyKey)
		}
		for j, imp := range p.Imports {
			if imp.Contract == "" {
				return fmt.Errorf("%w: part %q import %d has no contract", ErrInvalid, p.Contract, j)
			}
		}
	}
	return nil
}

// Definitions returns one definition per part, in document order.
func (m *Manifest) Definitions() []*typecatalog.Definition {
	defs := make([]*typecatalog.Definition, 0, len(m.Parts))
	for _, p := range m.Parts {
		defs = append(defs, p.definition())
	}
	return defs
}

// Catalog returns a catalog of the manifest's definitions.
func (m *Manifest) Catalog() *typecatalog.Catalog {
	return typecatalog.New(m.Definitions()...)
}

// Load parses r and returns its catalog.
func Load(r io.Reader) (*typecatalog.Catalog, error) {
	m, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return m.Catalog(), nil
}

// LoadFile parses the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dparts(manifest): open %s: %w", path, err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = path
	}
	return m, nil
}

func (p Part) definition() *typecatalog.Definition {
	opts := []typecatalog.Option{typecatalog.WithContract(p.Contract)}
	for k, v := range p.Metadata {
		opts = append(opts, typecatalog.WithMetadata(k, v))
	}
	// After metadata, so the typed policy always wins.
	opts = append(opts, typecatalog.WithPolicy(p.Policy))
	for _, imp := range p.Imports {
		opts = append(opts, typecatalog.WithImport(imp.Contract, imp.Cardinality))
	}

	contract := p.Contract
	if p.Disposable {
		return typecatalog.Register(func() (*DisposableComponent, error) {
			return &DisposableComponent{Component: Component{Contract: contract}}, nil
		}, opts...)
	}
	return typecatalog.Register(func() (*Component, error) {
		return &Component{Contract: contract}, nil
	}, opts...)
}

// Component is the stub instance of a non-disposable part. It records the
// imports it is given.
type Component struct {
	Contract  string
	Imports   map[string][]any
	Activated bool
}

// SatisfyImport records values under contract.
func (c *Component) SatisfyImport(contract string, values []any) error {
	if c.Imports == nil {
		c.Imports = make(map[string][]any)
	}
	c.Imports[contract] = values
	return nil
}

// Activate marks the component active.
func (c *Component) Activate() error {
	c.Activated = true
	return nil
}

// DisposableComponent is the stub instance of a disposable part.
type DisposableComponent struct {
	Component
	closed atomic.Bool
}

// Close marks the component closed. Closing twice is an error, which
// makes double disposal visible.
func (c *DisposableComponent) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dparts(manifest): %s closed twice: %w", c.Contract, apis.ErrDisposed)
	}
	return nil
}

// Closed reports whether Close has been called.
func (c *DisposableComponent) Closed() bool {
	return c.closed.Load()
}
