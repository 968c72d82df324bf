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

// Package wrapper holds the decorators a wrapper catalog hands to the host:
// PartDefinition, which wraps an inner part definition, and Part, which
// wraps the live instance of an at-risk definition so its disposal does
// not depend on the host's own bookkeeping.
package wrapper

import (
	"fmt"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/metrics"
)

// ErrNilDefinition is the panic value of NewPartDefinition(nil, ...).
var ErrNilDefinition = fmt.Errorf("dparts(wrapper): nil part definition: %w", apis.ErrInvalidArgument)

// ErrNilPart is returned by CreatePart when the inner definition yields a
// nil part without an error. It is also the panic value of NewPart(nil).
var ErrNilPart = fmt.Errorf("dparts(wrapper): nil part: %w", apis.ErrInvalidArgument)

// PartDefinition decorates an inner definition. Exports, imports and
// metadata are read from the inner definition on every call. CreatePart
// wraps the instance in a Part only when the definition is at risk.
//
// A PartDefinition is immutable and safe for concurrent use.
type PartDefinition struct {
	inner  apis.PartDefinition
	atRisk bool
}

var (
	_ apis.PartDefinition   = (*PartDefinition)(nil)
	_ apis.DisposalReporter = (*PartDefinition)(nil)
)

// NewPartDefinition wraps inner. atRisk is the precomputed classification.
// It panics with ErrNilDefinition if inner is nil.
func NewPartDefinition(inner apis.PartDefinition, atRisk bool) *PartDefinition {
	if inner == nil {
		panic(ErrNilDefinition)
	}
	return &PartDefinition{inner: inner, atRisk: atRisk}
}

// Inner returns the wrapped definition.
func (d *PartDefinition) Inner() apis.PartDefinition {
	return d.inner
}

// AtRisk reports whether instances are wrapped in a Part.
func (d *PartDefinition) AtRisk() bool {
	return d.atRisk
}

// ExportDefinitions delegates to the inner definition.
func (d *PartDefinition) ExportDefinitions() []*apis.ExportDefinition {
	return d.inner.ExportDefinitions()
}

// ImportDefinitions delegates to the inner definition.
func (d *PartDefinition) ImportDefinitions() []*apis.ImportDefinition {
	return d.inner.ImportDefinitions()
}

// Metadata delegates to the inner definition, so changes the inner
// definition makes to its metadata stay visible.
func (d *PartDefinition) Metadata() apis.Metadata {
	return d.inner.Metadata()
}

// DisposalRequired delegates to the inner definition when it reports one.
func (d *PartDefinition) DisposalRequired() bool {
	r, ok := d.inner.(apis.DisposalReporter)
	return ok && r.DisposalRequired()
}

// CreatePart instantiates the inner definition. At-risk instances come
// back wrapped in a *Part; all others are returned as is.
func (d *PartDefinition) CreatePart() (apis.Part, error) {
	p, err := d.inner.CreatePart()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w from %s", ErrNilPart, d)
	}
	if !d.atRisk {
		return p, nil
	}
	metrics.RecordPartWrapped()
	return NewPart(p), nil
}

// String returns a display name derived from the inner definition.
func (d *PartDefinition) String() string {
	if s, ok := d.inner.(fmt.Stringer); ok {
		return "wrapper.PartDefinition(" + s.String() + ")"
	}
	return fmt.Sprintf("wrapper.PartDefinition(%T)", d.inner)
}
