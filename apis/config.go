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

import "time"

// Config carries the construction knobs of a wrapper catalog.
// It is passed by value and should be treated as immutable by implementations.
type Config struct {
	// ThreadSafe selects real reader/writer locking around the definition
	// cache. When false, every lock acquisition is elided and the catalog
	// must only be used from one goroutine at a time.
	ThreadSafe bool

	// LockTimeout bounds every lock acquisition. A negative value waits
	// forever; zero tries exactly once.
	LockTimeout time.Duration

	// Name is an optional display name used in logs and String().
	Name string
}
