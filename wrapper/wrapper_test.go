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

package wrapper_test

import (
	"errors"
	"io"
	"sync/atomic"

	"dirpx.dev/dparts/apis"
)

var errBoom = errors.New("boom")

// fakePart records calls and optionally implements io.Closer through closingPart.
type fakePart struct {
	exports   []*apis.ExportDefinition
	imports   []*apis.ImportDefinition
	md        apis.Metadata
	value     any
	activated atomic.Int32
	set       [][]any
}

func (p *fakePart) ExportDefinitions() []*apis.ExportDefinition { return p.exports }
func (p *fakePart) ImportDefinitions() []*apis.ImportDefinition { return p.imports }
func (p *fakePart) Metadata() apis.Metadata                     { return p.md }

func (p *fakePart) ExportedValue(*apis.ExportDefinition) (any, error) { return p.value, nil }

func (p *fakePart) SetImport(_ *apis.ImportDefinition, values []any) error {
	p.set = append(p.set, values)
	return nil
}

func (p *fakePart) Activate() error {
	p.activated.Add(1)
	return nil
}

type closingPart struct {
	fakePart
	closes atomic.Int32
	err    error
}

var _ io.Closer = (*closingPart)(nil)

func (p *closingPart) Close() error {
	p.closes.Add(1)
	return p.err
}

// fakeDefinition returns parts from newPart.
type fakeDefinition struct {
	md       apis.Metadata
	exports  []*apis.ExportDefinition
	imports  []*apis.ImportDefinition
	disposal bool
	newPart  func() (apis.Part, error)
}

func (d *fakeDefinition) ExportDefinitions() []*apis.ExportDefinition { return d.exports }
func (d *fakeDefinition) ImportDefinitions() []*apis.ImportDefinition { return d.imports }
func (d *fakeDefinition) Metadata() apis.Metadata                     { return d.md }
func (d *fakeDefinition) CreatePart() (apis.Part, error)              { return d.newPart() }
func (d *fakeDefinition) DisposalRequired() bool                      { return d.disposal }
func (d *fakeDefinition) String() string                              { return "fake" }
