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
	"context"
	"fmt"
	"strings"

	"github.com/hako/durafmt"
	"github.com/penny-vault/etfdata/healthcheck"
	"github.com/penny-vault/etfdata/lake"
	"github.com/penny-vault/etfdata/pipeline"
	"github.com/penny-vault/etfdata/provider"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [symbol...]",
	Short: "Fetch ETF holdings and store fresh snapshots",
	Long: `The run sub-command executes the extraction pipeline. If no arguments are
provided the configured symbol list is used; otherwise only the named symbols
are refreshed. Symbols are fetched in parallel bounded by the configured
worker count, and a failure for one symbol does not abort the others.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLake, err := lake.New(viper.GetString("lake_dir"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not open data lake")
		}

		symbols := args
		if len(symbols) == 0 {
			symbols = viper.GetStringSlice("symbols")
		}

		if len(symbols) == 0 {
			log.Fatal().Msg("no symbols configured; set `symbols` in the config file or pass them as arguments")
		}

		schwab := provider.NewSchwab(viper.GetInt("rate_limit"))
		myPipeline := pipeline.New(schwab, myLake, viper.GetInt("workers"), viper.GetInt("max_holdings"))

		_, runSummary := myPipeline.Run(ctx, symbols)

		log.Info().Str("RunTime", durafmt.Parse(runSummary.Duration()).String()).
			Int("NumStored", runSummary.NumStored).Msg("pipeline finished")

		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("PIPELINE RESULTS")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Printf("Symbols processed: %d\n", len(runSummary.Symbols))
		fmt.Printf("Successful extractions: %d\n", runSummary.NumFetch)
		fmt.Printf("Snapshots stored: %d\n", runSummary.NumStored)
		fmt.Printf("Duration: %s\n", durafmt.Parse(runSummary.Duration()).String())

		for symbol, reason := range runSummary.Failures {
			fmt.Printf("  [x] %s: %s\n", symbol, reason)
		}

		fmt.Println(strings.Repeat("=", 50))

		if pingURL := viper.GetString("healthcheck.url"); pingURL != "" {
			notify := healthcheck.Ping
			if len(runSummary.Failures) > 0 {
				notify = healthcheck.Fail
			}

			if err := notify(ctx, pingURL); err != nil {
				log.Error().Err(err).Msg("could not notify healthcheck")
			}
		}

		if runSummary.NumStored == 0 {
			log.Fatal().Msg("no snapshots were stored")
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("workers", 0, "maximum concurrent symbol fetches")
	if err := viper.BindPFlag("workers", runCmd.Flags().Lookup("workers")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for workers failed")
	}

	runCmd.Flags().Int("maxHoldings", 0, "maximum holdings to keep per ETF")
	if err := viper.BindPFlag("max_holdings", runCmd.Flags().Lookup("maxHoldings")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for maxHoldings failed")
	}
}
