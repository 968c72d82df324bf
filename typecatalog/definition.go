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

// Package typecatalog is a catalog of part definitions built from Go types.
//
// Each Definition pairs a component type with a factory. The default
// export contract is the contract registered for the component type in a
// registry.Registry, or else its "pkg.Type" name, and the
// definition requires disposal when the type implements io.Closer, unless
// ownership of disposal has been waived with WithoutDisposalOwnership.
//
// A value type whose Close, SatisfyImport or Activate has a pointer
// receiver is instantiated into an addressable *T, so the hooks reach the
// component. Its parts still export the T value.
package typecatalog

import (
	"fmt"
	"io"
	"reflect"
	"sync/atomic"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/registry"
	uref "dirpx.dev/dparts/utils/reflect"
)

var (
	// ErrUnknownExport is returned for an export the part does not offer.
	ErrUnknownExport = fmt.Errorf("dparts(typecatalog): export not offered by part: %w", apis.ErrInvalidArgument)
	// ErrUnknownImport is returned for an import the part does not declare.
	ErrUnknownImport = fmt.Errorf("dparts(typecatalog): import not declared by part: %w", apis.ErrInvalidArgument)
	// ErrCardinality is returned when the number of values does not fit the import.
	ErrCardinality = fmt.Errorf("dparts(typecatalog): cardinality mismatch: %w", apis.ErrInvalidArgument)
	// ErrNilImport is yielded by Exports for a nil import definition.
	ErrNilImport = fmt.Errorf("dparts(typecatalog): nil import definition: %w", apis.ErrInvalidArgument)
)

var (
	closerType    = reflect.TypeOf((*io.Closer)(nil)).Elem()
	satisfierType = reflect.TypeOf((*ImportSatisfier)(nil)).Elem()
	activatorType = reflect.TypeOf((*Activator)(nil)).Elem()
)

// ImportSatisfier is implemented by components that accept import values.
type ImportSatisfier interface {
	SatisfyImport(contract string, values []any) error
}

// Activator is implemented by components that need a hook once all imports are set.
type Activator interface {
	Activate() error
}

// Option configures a Definition.
type Option func(*Definition)

// WithContract adds an export under name. The first call replaces the
// default type-derived contract.
func WithContract(name string) Option {
	return func(d *Definition) {
		d.exports = append(d.exports, &apis.ExportDefinition{ContractName: name})
	}
}

// WithPolicy publishes p under apis.CreationPolicyKey.
func WithPolicy(p apis.CreationPolicy) Option {
	return func(d *Definition) {
		d.metadata[apis.CreationPolicyKey] = p
	}
}

// WithMetadata adds a metadata entry.
func WithMetadata(key string, value any) Option {
	return func(d *Definition) {
		d.metadata[key] = value
	}
}

// WithImport declares an import of contract.
func WithImport(contract string, c apis.Cardinality) Option {
	return func(d *Definition) {
		d.imports = append(d.imports, &apis.ImportDefinition{ContractName: contract, Cardinality: c})
	}
}

// WithRegistry names the default export after the contract registered
// for the component type in r, when there is one.
func WithRegistry(r *registry.Registry) Option {
	return func(d *Definition) {
		d.contracts = r
	}
}

// WithoutDisposalOwnership marks the part as not owning the disposal of
// its component, even when the component implements io.Closer.
func WithoutDisposalOwnership() Option {
	return func(d *Definition) {
		d.waiveDisposal = true
	}
}

// Definition is a part definition backed by a Go type and a factory.
type Definition struct {
	typ           reflect.Type
	factory       func() (any, error)
	exports       []*apis.ExportDefinition
	imports       []*apis.ImportDefinition
	metadata      apis.Metadata
	waiveDisposal bool
	disposal      bool
	addressable   bool
	contracts     *registry.Registry
}

var (
	_ apis.PartDefinition   = (*Definition)(nil)
	_ apis.DisposalReporter = (*Definition)(nil)
)

// Register builds a Definition for component type T. It panics if factory is nil.
func Register[T any](factory func() (T, error), opts ...Option) *Definition {
	if factory == nil {
		panic(fmt.Errorf("dparts(typecatalog): nil factory: %w", apis.ErrInvalidArgument))
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	d := &Definition{
		typ:         typ,
		metadata:    apis.Metadata{},
		addressable: pointerHooks(typ),
	}
	if d.addressable {
		d.factory = func() (any, error) {
			v, err := factory()
			if err != nil {
				return nil, err
			}
			return &v, nil
		}
	} else {
		d.factory = func() (any, error) {
			v, err := factory()
			return v, err
		}
	}
	for _, opt := range opts {
		opt(d)
	}
	if len(d.exports) == 0 {
		name := uref.TypeName(typ)
		if d.contracts != nil {
			name = d.contracts.ContractFor(typ)
		}
		d.exports = []*apis.ExportDefinition{{ContractName: name}}
	}
	d.disposal = !d.waiveDisposal && uref.Implements(typ, closerType)
	return d
}

// Type returns the component type.
func (d *Definition) Type() reflect.Type {
	return d.typ
}

// ExportDefinitions returns the exports. Callers must not modify the slice.
func (d *Definition) ExportDefinitions() []*apis.ExportDefinition {
	return d.exports
}

// ImportDefinitions returns the imports. Callers must not modify the slice.
func (d *Definition) ImportDefinitions() []*apis.ImportDefinition {
	return d.imports
}

// Metadata returns the part metadata.
func (d *Definition) Metadata() apis.Metadata {
	return d.metadata
}

// DisposalRequired reports whether the component implements io.Closer and
// disposal ownership was not waived.
func (d *Definition) DisposalRequired() bool {
	return d.disposal
}

// CreatePart calls the factory and returns a new part. When disposal is
// required the part implements io.Closer.
func (d *Definition) CreatePart() (apis.Part, error) {
	v, err := d.factory()
	if err != nil {
		return nil, fmt.Errorf("dparts(typecatalog): create %s: %w", d, err)
	}
	p := &part{def: d, value: v}
	if d.disposal {
		return &closablePart{part: p}, nil
	}
	return p, nil
}

// String returns "typecatalog.Definition(<contract>)".
func (d *Definition) String() string {
	return "typecatalog.Definition(" + d.exports[0].ContractName + ")"
}

// pointerHooks reports whether *t implements a lifecycle hook that t
// itself does not.
func pointerHooks(t reflect.Type) bool {
	for _, hook := range []reflect.Type{closerType, satisfierType, activatorType} {
		if !t.Implements(hook) && uref.Implements(t, hook) {
			return true
		}
	}
	return false
}

func (d *Definition) hasExport(exp *apis.ExportDefinition) bool {
	for _, e := range d.exports {
		if e == exp {
			return true
		}
	}
	return false
}

func (d *Definition) hasImport(imp *apis.ImportDefinition) bool {
	for _, i := range d.imports {
		if i == imp {
			return true
		}
	}
	return false
}

// part is a live instance of a Definition.
type part struct {
	def   *Definition
	value any
}

var _ apis.Part = (*part)(nil)

func (p *part) ExportDefinitions() []*apis.ExportDefinition { return p.def.exports }
func (p *part) ImportDefinitions() []*apis.ImportDefinition { return p.def.imports }
func (p *part) Metadata() apis.Metadata                     { return p.def.metadata }

func (p *part) ExportedValue(exp *apis.ExportDefinition) (any, error) {
	if !p.def.hasExport(exp) {
		return nil, ErrUnknownExport
	}
	if p.def.addressable {
		return reflect.ValueOf(p.value).Elem().Interface(), nil
	}
	return p.value, nil
}

func (p *part) SetImport(imp *apis.ImportDefinition, values []any) error {
	if !p.def.hasImport(imp) {
		return ErrUnknownImport
	}
	switch imp.Cardinality {
	case apis.ExactlyOne:
		if len(values) != 1 {
			return fmt.Errorf("%w: %q wants exactly one value, got %d", ErrCardinality, imp.ContractName, len(values))
		}
	case apis.ZeroOrOne:
		if len(values) > 1 {
			return fmt.Errorf("%w: %q wants at most one value, got %d", ErrCardinality, imp.ContractName, len(values))
		}
	}
	if s, ok := p.value.(ImportSatisfier); ok {
		return s.SatisfyImport(imp.ContractName, values)
	}
	return nil
}

func (p *part) Activate() error {
	if a, ok := p.value.(Activator); ok {
		return a.Activate()
	}
	return nil
}

// closablePart is a part whose component must be disposed by its owner.
type closablePart struct {
	*part
	closed atomic.Bool
}

var _ io.Closer = (*closablePart)(nil)

// Close closes the component once.
func (p *closablePart) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c, ok := p.value.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
