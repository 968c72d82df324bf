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
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/catalog"
	"dirpx.dev/dparts/wrapper"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <manifest>",
	Short: "List the parts of a manifest and their risk classification",
	Long: `Load a manifest, enumerate its parts through a wrapper catalog and show,
for every part, its creation policy, whether it owns a disposable
component and whether its instances are wrapped for disposal.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

type partRow struct {
	Contract   string `yaml:"contract"`
	Policy     string `yaml:"policy"`
	Disposable bool   `yaml:"disposable"`
	AtRisk     bool   `yaml:"atRisk"`
	Imports    int    `yaml:"imports"`
}

type inspectReport struct {
	Catalog     string    `yaml:"catalog"`
	ThreadSafe  bool      `yaml:"threadSafe"`
	LockTimeout string    `yaml:"lockTimeout"`
	Parts       []partRow `yaml:"parts"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	_, c, err := openCatalog(args[0], log)
	if err != nil {
		return err
	}
	defer c.Close()

	rows, err := inspectRows(c)
	if err != nil {
		return err
	}
	report := inspectReport{
		Catalog:     c.String(),
		ThreadSafe:  c.ThreadSafe(),
		LockTimeout: lockTimeoutString(),
		Parts:       rows,
	}

	switch format := viper.GetString(keyOutput); format {
	case "yaml":
		return writeYAML(cmd.OutOrStdout(), report)
	case "table":
		return writeInspectTable(cmd.OutOrStdout(), report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func inspectRows(c *catalog.Catalog) ([]partRow, error) {
	var rows []partRow
	for def, err := range c.Parts() {
		if err != nil {
			return nil, err
		}
		row := partRow{
			Policy:  apis.PolicyOf(def.Metadata()).String(),
			Imports: len(def.ImportDefinitions()),
		}
		if exports := def.ExportDefinitions(); len(exports) > 0 {
			row.Contract = exports[0].ContractName
		}
		if r, ok := def.(apis.DisposalReporter); ok {
			row.Disposable = r.DisposalRequired()
		}
		if w, ok := def.(*wrapper.PartDefinition); ok {
			row.AtRisk = w.AtRisk()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func writeInspectTable(out io.Writer, report inspectReport) error {
	fmt.Fprintf(out, "%s (thread-safe: %t, lock timeout: %s)\n",
		report.Catalog, report.ThreadSafe, report.LockTimeout)
	if len(report.Parts) == 0 {
		fmt.Fprintln(out, "No parts")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("Contract", "Policy", "Disposable", "At risk", "Imports")
	for _, r := range report.Parts {
		if err := table.Append([]string{
			r.Contract,
			r.Policy,
			strconv.FormatBool(r.Disposable),
			strconv.FormatBool(r.AtRisk),
			strconv.Itoa(r.Imports),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
