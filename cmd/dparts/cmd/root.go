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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/catalog"
	"dirpx.dev/dparts/config"
	"dirpx.dev/dparts/manifest"
)

const envPrefix = "DPARTS"

// Viper keys. Flags of the same name are bound to them.
const (
	keyThreadSafe  = "thread-safe"
	keyLockTimeout = "lock-timeout"
	keyLogLevel    = "log-level"
	keyOutput      = "output"
)

var (
	cfgFile   string
	configErr error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dparts",
	Short: "Inspect part manifests through a disposal-safe wrapper catalog",
	Long: `dparts loads a YAML part manifest, wraps it in a wrapper catalog and
reports which parts are at risk (disposable and NonShared) and how the
catalog behaves when those parts are instantiated and disposed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configErr
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	addGlobalFlags(rootCmd.PersistentFlags())
}

// addGlobalFlags registers the persistent flags and binds them to viper,
// so that each can also come from the config file or a DPARTS_ variable.
func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dparts/config.yaml)")
	flags.Bool(keyThreadSafe, config.DefaultThreadSafe, "guard the definition cache with a reader/writer lock")
	flags.Duration(keyLockTimeout, config.DefaultLockTimeout, "bound on every lock acquisition; negative waits forever")
	flags.String(keyLogLevel, "warn", "log level: debug, info, warn or error")
	flags.StringP(keyOutput, "o", "table", "output format: table, yaml (inspect) or text (simulate)")

	_ = viper.BindPFlags(flags)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".dparts"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	configErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = fmt.Errorf("read config: %w", err)
		}
	}
}

// catalogConfig returns the wrapper catalog configuration for a manifest.
func catalogConfig(name string) apis.Config {
	return config.NewConfig(
		config.WithThreadSafe(viper.GetBool(keyThreadSafe)),
		config.WithLockTimeout(viper.GetDuration(keyLockTimeout)),
		config.WithName(name),
	)
}

// newLogger builds a logger writing to stderr at the configured level.
// Debug selects the development encoder.
func newLogger() (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(viper.GetString(keyLogLevel))
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// openCatalog loads the manifest at path and wraps it.
func openCatalog(path string, log *zap.Logger) (*manifest.Manifest, *catalog.Catalog, error) {
	m, err := manifest.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	c, err := catalog.New(m.Catalog(), catalogConfig(m.Name), catalog.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return m, c, nil
}

func lockTimeoutString() string {
	d := viper.GetDuration(keyLockTimeout)
	if d < 0 {
		return "infinite"
	}
	return d.Round(time.Microsecond).String()
}
