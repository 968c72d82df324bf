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

package catalog

import (
	"go.uber.org/zap"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/wrapper"
)

// Classifier decides whether a definition is at risk.
type Classifier func(def apis.PartDefinition) bool

// WrapperFactory builds the wrapper definition for inner. It runs under the
// catalog's write lock and must not call back into the catalog.
type WrapperFactory func(inner apis.PartDefinition, atRisk bool) apis.PartDefinition

// Option customizes a Catalog.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	classify Classifier
	factory  WrapperFactory
}

func defaultOptions() options {
	return options{
		logger:   zap.NewNop(),
		classify: IsNonSharedDisposable,
		factory:  DefaultWrapperFactory,
	}
}

// WithLogger sets the logger. A nil logger keeps the no-op default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClassifier replaces IsNonSharedDisposable. A nil classifier keeps the default.
func WithClassifier(c Classifier) Option {
	return func(o *options) {
		if c != nil {
			o.classify = c
		}
	}
}

// WithWrapperFactory replaces DefaultWrapperFactory. It is the seam tests
// use to observe wrapper construction. A nil factory keeps the default.
func WithWrapperFactory(f WrapperFactory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// DefaultWrapperFactory returns a *wrapper.PartDefinition.
func DefaultWrapperFactory(inner apis.PartDefinition, atRisk bool) apis.PartDefinition {
	return wrapper.NewPartDefinition(inner, atRisk)
}

// IsNonSharedDisposable is the default Classifier. A definition is at risk
// when it reports that disposal is required and its metadata carries the
// NonShared creation policy. Shared and unresolved policies are left to
// the host.
func IsNonSharedDisposable(def apis.PartDefinition) bool {
	if def == nil {
		return false
	}
	r, ok := def.(apis.DisposalReporter)
	if !ok || !r.DisposalRequired() {
		return false
	}
	return apis.PolicyOf(def.Metadata()) == apis.NonShared
}
