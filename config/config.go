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

package config

import (
	"time"

	"dirpx.dev/dparts/apis"
)

const (
	// DefaultThreadSafe represents the default for ThreadSafe.
	// Catalogs are usually shared by the goroutines of a host, so locking is on.
	DefaultThreadSafe = true
	// DefaultLockTimeout represents the default for LockTimeout.
	// A negative value waits indefinitely.
	DefaultLockTimeout = time.Duration(-1)
)

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		ThreadSafe:  DefaultThreadSafe,
		LockTimeout: DefaultLockTimeout,
	}
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithThreadSafe sets the ThreadSafe option.
func WithThreadSafe(threadSafe bool) Option {
	return func(c *apis.Config) {
		c.ThreadSafe = threadSafe
	}
}

// WithLockTimeout sets the LockTimeout option.
// Any negative value is normalized to DefaultLockTimeout.
func WithLockTimeout(d time.Duration) Option {
	return func(c *apis.Config) {
		if d < 0 {
			c.LockTimeout = DefaultLockTimeout
			return
		}
		c.LockTimeout = d
	}
}

// WithName sets the display name.
func WithName(name string) Option {
	return func(c *apis.Config) {
		c.Name = name
	}
}
