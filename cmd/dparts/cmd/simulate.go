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
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"dirpx.dev/dparts"
	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/metrics"
	"dirpx.dev/dparts/wrapper"
)

var (
	instances int
	workers   int
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate <manifest>",
	Short: "Instantiate and dispose every part of a manifest",
	Long: `Instantiate every part of a manifest several times through a wrapper
catalog, dispose the wrapped instances and print the catalog metrics as
a table, or in the prometheus text format with --output text.
Instances that are not wrapped are left to the host, as a container
would.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().IntVarP(&instances, "instances", "n", 3, "instances created per part")
	simulateCmd.Flags().IntVar(&workers, "workers", 4, "parts instantiated concurrently")
}

type simulation struct {
	created  int
	wrapped  int
	disposed int
	hostOwn  int
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if instances < 1 {
		return fmt.Errorf("--instances must be positive, got %d", instances)
	}
	if workers < 1 {
		return fmt.Errorf("--workers must be positive, got %d", workers)
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.Collectors()...)

	_, c, err := openCatalog(args[0], log)
	if err != nil {
		return err
	}
	defer c.Close()

	var defs []apis.PartDefinition
	for def, err := range c.Parts() {
		if err != nil {
			return err
		}
		defs = append(defs, def)
	}

	var (
		mu    sync.Mutex
		parts []apis.Part
	)
	var g errgroup.Group
	g.SetLimit(workers)
	for _, def := range defs {
		for range instances {
			g.Go(func() error {
				p, err := def.CreatePart()
				if err != nil {
					return err
				}
				if err := p.Activate(); err != nil {
					return err
				}
				mu.Lock()
				parts = append(parts, p)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var sim simulation
	var errs []error
	for _, p := range parts {
		sim.created++
		if _, ok := p.(*wrapper.Part); !ok {
			if _, closer := p.(io.Closer); closer {
				sim.hostOwn++
			}
			continue
		}
		sim.wrapped++
		if err := dparts.DisposePart(p); err != nil {
			errs = append(errs, err)
			continue
		}
		sim.disposed++
	}
	if err := c.Close(); err != nil {
		errs = append(errs, err)
	}

	out := cmd.OutOrStdout()
	format := viper.GetString(keyOutput)
	summary := fmt.Sprintf("%s: %d created, %d wrapped, %d disposed, %d left to the host",
		c.String(), sim.created, sim.wrapped, sim.disposed, sim.hostOwn)

	families, err := reg.Gather()
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	switch format {
	case "table":
		fmt.Fprintln(out, summary)
		err = writeMetricsTable(out, families)
	case "text":
		// The summary is a comment line of the exposition format.
		fmt.Fprintln(out, "# "+summary)
		err = writeMetricsText(out, families)
	default:
		err = fmt.Errorf("unknown output format %q for simulate", format)
	}
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func writeMetricsText(out io.Writer, families []*dto.MetricFamily) error {
	enc := expfmt.NewEncoder(out, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func writeMetricsTable(out io.Writer, families []*dto.MetricFamily) error {
	table := tablewriter.NewWriter(out)
	table.Header("Metric", "Labels", "Value")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if err := table.Append(metricRow(mf.GetName(), m)); err != nil {
				return err
			}
		}
	}
	return table.Render()
}

func metricRow(name string, m *dto.Metric) []string {
	labels := make([]string, 0, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		labels = append(labels, lp.GetName()+"="+lp.GetValue())
	}
	sort.Strings(labels)

	var v float64
	switch {
	case m.GetCounter() != nil:
		v = m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		v = m.GetGauge().GetValue()
	}
	return []string{name, strings.Join(labels, ","), strconv.FormatFloat(v, 'f', -1, 64)}
}
