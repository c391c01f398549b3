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
	"os"
	"os/signal"
	"syscall"

	"github.com/penny-vault/etfdata/api"
	"github.com/penny-vault/etfdata/lake"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the data lake over a REST API",
	Long: `The serve sub-command starts an HTTP server exposing the stored ETF
snapshots:

  GET /api/etfs                    list available symbols
  GET /api/etfs/{symbol}           full snapshot for a symbol
  GET /api/etfs/{symbol}/holdings  holdings only
  GET /api/health                  health check

The server only reads the data lake; run the pipeline (etfdata run) to
refresh its contents.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		myLake, err := lake.New(viper.GetString("lake_dir"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not open data lake")
		}

		server := api.New(myLake, viper.GetInt("server.port"))
		if err := server.ListenAndServe(ctx); err != nil {
			log.Fatal().Err(err).Msg("API server failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "port to listen on")
	if err := viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for port failed")
	}
}
