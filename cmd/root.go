// Package cmd holds the CLI for inspecting the remote chains a fork can
// read from. It shares the remote package's config and client with the
// library, so what the CLI shows is exactly what a forked chain would see.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cosmos/multitest/remote"
)

var (
	cfgPath string
	debug   bool
	config  *remote.Config
	log     *zap.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", os.ExpandEnv("$HOME/.multitest/config.yaml"), "set config file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug output")
	rootCmd.AddCommand(chainsCmd)
	rootCmd.AddCommand(queryCmd)
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "multitest",
	Short: "Inspect the live chains configured as fork sources",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		var err error
		if debug {
			log, err = zap.NewDevelopment()
		} else {
			log, err = zap.NewProduction()
		}
		if err != nil {
			return err
		}
		config, err = remote.LoadConfig(cfgPath)
		return err
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
