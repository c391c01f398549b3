// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "etfdata",
	Short: "etfdata maintains a flat-file data lake of ETF holdings snapshots",
	Long: `etfdata is a command line utility that fetches ETF summary and holdings
data from the Schwab ETF research portal, normalizes it into JSON snapshots,
and stores them in a flat-file data lake. The lake is served to downstream
consumers through a small REST API.

Each pipeline run replaces the previous snapshot for a symbol wholesale;
there is no historical versioning. Holdings carry derived fields (market
value in millions, weight in basis points) recomputed on every run.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.etfdata.yaml)")
	rootCmd.PersistentFlags().String("lakeDir", "", "data lake directory")
	if err := viper.BindPFlag("lake_dir", rootCmd.PersistentFlags().Lookup("lakeDir")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for lakeDir failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("symbols", []string{"VTI", "VOO", "QQQ", "SPY"})
	viper.SetDefault("max_holdings", 100)
	viper.SetDefault("workers", 3)
	viper.SetDefault("lake_dir", "data_lake")
	viper.SetDefault("rate_limit", 30)
	viper.SetDefault("server.port", 3000)

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".etfdata" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".etfdata")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
