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

package dparts

import (
	"io"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/catalog"
	"dirpx.dev/dparts/config"
)

// Wrap returns a wrapper catalog over inner with the default configuration
// and the given locking mode.
func Wrap(inner apis.Catalog, threadSafe bool, opts ...catalog.Option) (*catalog.Catalog, error) {
	return WrapConfig(inner, config.NewConfig(config.WithThreadSafe(threadSafe)), opts...)
}

// WrapConfig returns a wrapper catalog over inner with cfg.
func WrapConfig(inner apis.Catalog, cfg apis.Config, opts ...catalog.Option) (*catalog.Catalog, error) {
	return catalog.New(inner, cfg, opts...)
}

// IsAtRisk reports whether parts of def would be wrapped by default:
// def requires disposal and its creation policy is NonShared.
func IsAtRisk(def apis.PartDefinition) bool {
	return catalog.IsNonSharedDisposable(def)
}

// DisposePart closes p if it owns a disposable component. Parts without
// one are left alone.
func DisposePart(p apis.Part) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
