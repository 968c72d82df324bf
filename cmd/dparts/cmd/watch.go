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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"dirpx.dev/dparts/aggregate"
	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/catalog"
	"dirpx.dev/dparts/manifest"
)

var reloadInterval time.Duration

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <manifest>",
	Short: "Reload a manifest on change and report catalog notifications",
	Long: `Serve a manifest through an aggregate catalog wrapped in a wrapper
catalog. Every time the file changes the aggregate swaps the old manifest
catalog for the new one; the notifications forwarded by the wrapper
catalog and the new part table are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&reloadInterval, "reload-interval", 200*time.Millisecond, "minimum time between two reloads")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchManifest(ctx, args[0], cmd.OutOrStdout(), log, reloadInterval)
}

// watchManifest serves path until ctx is done.
func watchManifest(ctx context.Context, path string, out io.Writer, log *zap.Logger, interval time.Duration) error {
	m, err := manifest.LoadFile(path)
	if err != nil {
		return err
	}
	current := m.Catalog()

	agg, err := aggregate.New(current)
	if err != nil {
		return err
	}
	defer agg.Close()

	c, err := catalog.New(agg, catalogConfig(m.Name), catalog.WithLogger(log))
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.Subscribe(apis.Changed, func(ev apis.ChangeEvent) {
		fmt.Fprintf(out, "changed: %d added, %d removed\n", len(ev.Added), len(ev.Removed))
	}); err != nil {
		return err
	}
	if err := printParts(out, c); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	fmt.Fprintf(out, "watching %s\n", path)

	target := filepath.Clean(path)
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("manifest watch error", zap.Error(err))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}

			next, err := manifest.LoadFile(path)
			if err != nil {
				log.Warn("manifest reload failed", zap.String("path", path), zap.Error(err))
				fmt.Fprintf(out, "reload failed: %v\n", err)
				continue
			}
			replacement := next.Catalog()
			if err := agg.Add(replacement); err != nil {
				return err
			}
			if _, err := agg.Remove(current); err != nil {
				return err
			}
			current = replacement
			log.Info("manifest reloaded", zap.String("path", path), zap.Int("parts", len(next.Parts)))

			if err := printParts(out, c); err != nil {
				return err
			}
		}
	}
}

func printParts(out io.Writer, c *catalog.Catalog) error {
	rows, err := inspectRows(c)
	if err != nil {
		return err
	}
	return writeInspectTable(out, inspectReport{
		Catalog:     c.String(),
		ThreadSafe:  c.ThreadSafe(),
		LockTimeout: lockTimeoutString(),
		Parts:       rows,
	})
}
