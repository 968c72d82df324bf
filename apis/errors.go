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

import "errors"

// Error taxonomy shared by every package of the module. Package-level
// errors wrap exactly one of these so callers can classify with errors.Is.
var (
	// ErrInvalidArgument reports an absent or unusable argument.
	ErrInvalidArgument = errors.New("dparts: invalid argument")
	// ErrDisposed reports an operation on a disposed object.
	ErrDisposed = errors.New("dparts: object disposed")
	// ErrTimeout reports a lock acquisition deadline that elapsed.
	ErrTimeout = errors.New("dparts: timeout")
)
