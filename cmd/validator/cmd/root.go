package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "VALIDATOR"

var rootCmd = &cobra.Command{
	Use:   "validator",
	Short: "Run a validator node",
	Long: `Run a validator node. Received batches are collected into blocks by the
block publisher, received blocks are validated by the chain controller.

Every flag can also be set through a VALIDATOR_ prefixed environment variable
(e.g. VALIDATOR_DATA_DIR) or a validator.toml file in the config directory.`,
	SilenceUsage: true,
	RunE:         run,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.String("data-dir", "/var/lib/validator", "directory for the block store, chain id and lock file")
	flags.String("config-dir", "/etc/validator", "directory holding validator.toml")
	flags.String("key-file", "", "hex encoded secp256k1 private key (default <data-dir>/validator.priv, generated if missing)")
	flags.String("metrics-addr", ":9100", "address of the prometheus /metrics endpoint, empty to disable")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.Duration("publish-frequency", 100*time.Millisecond, "how often the block publisher checks whether to build a block")
	flags.Duration("cache-purge-frequency", 30*time.Second, "minimum interval between block cache purges")
	flags.Duration("cache-keep-time", 300*time.Second, "how long an unaccessed block stays in the block cache")
	flags.StringSlice("batch-injectors", nil, "batch injectors to enable in the genesis settings (e.g. block_info)")

	bindFlags(flags)
	cobra.OnInitialize(initConfig)
}

func bindFlags(flags *pflag.FlagSet) {
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("validator")
	viper.SetConfigType("toml")
	viper.AddConfigPath(viper.GetString("config-dir"))
	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		fmt.Fprintf(os.Stderr, "could not read config file: %v\n", err)
		os.Exit(1)
	}
}
