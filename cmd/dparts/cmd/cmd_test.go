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

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestInspect_Table(t *testing.T) {
	out := execute(t, "inspect", "testdata/shop.yaml", "-o", "table", "--thread-safe=true", "--lock-timeout=-1s")

	assert.Contains(t, out, "shop (thread-safe: true, lock timeout: infinite)")
	for _, s := range []string{"db", "cache", "handler", "NonShared", "Shared"} {
		assert.Contains(t, out, s)
	}
}

func TestInspect_YAML(t *testing.T) {
	out := execute(t, "inspect", "testdata/shop.yaml", "-o", "yaml", "--thread-safe=false", "--lock-timeout=250ms")

	var report inspectReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, "shop", report.Catalog)
	assert.False(t, report.ThreadSafe)
	assert.Equal(t, "250ms", report.LockTimeout)

	want := []partRow{
		{Contract: "db", Policy: "NonShared", Disposable: true, AtRisk: true},
		{Contract: "cache", Policy: "Shared", Disposable: true},
		{Contract: "handler", Policy: "NonShared", Imports: 1},
	}
	assert.Equal(t, want, report.Parts)
}

func TestSimulate(t *testing.T) {
	out := execute(t, "simulate", "testdata/shop.yaml", "-n", "2", "--workers", "2", "-o", "table", "--thread-safe=true", "--lock-timeout=-1s")

	assert.Contains(t, out, "shop: 6 created, 2 wrapped, 2 disposed, 2 left to the host")
	assert.Contains(t, out, "dparts_parts_wrapped_total")
	assert.Contains(t, out, "dparts_catalogs_disposed_total")
}

func TestInspect_MissingManifest(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"inspect", "testdata/missing.yaml"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.Error(t, rootCmd.Execute())
}

func TestSimulate_Text(t *testing.T) {
	out := execute(t, "simulate", "testdata/shop.yaml", "-n", "1", "-o", "text", "--thread-safe=true", "--lock-timeout=-1s")

	assert.True(t, strings.HasPrefix(out, "# shop: 3 created, 1 wrapped, 1 disposed, 1 left to the host\n"), out)
	assert.Contains(t, out, "# TYPE dparts_parts_disposed_total counter")
	assert.Contains(t, out, `dparts_definition_lookups_total{result="miss"}`)
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchManifest_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: live\nparts:\n  - contract: alpha\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- watchManifest(ctx, path, out, zaptest.NewLogger(t), 0)
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "watching "+path)
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "alpha")

	doc := "name: live\nparts:\n  - contract: alpha\n  - contract: beta\n    policy: NonShared\n    disposable: true\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	require.Eventually(t, func() bool {
		s := out.String()
		return strings.Contains(s, "changed: 2 added, 0 removed") &&
			strings.Contains(s, "changed: 0 added, 1 removed") &&
			strings.Contains(s, "beta")
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
