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

	"github.com/gocarina/gocsv"
	"github.com/penny-vault/etfdata/lake"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <symbol> [output.csv]",
	Short: "Export a symbol's holdings as CSV",
	Long: `The export sub-command writes the stored holdings for a symbol as CSV to
the named output file, or to stdout when no file is given.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		myLake, err := lake.New(viper.GetString("lake_dir"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not open data lake")
		}

		record, err := myLake.Record(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("Symbol", args[0]).Msg("could not load record")
		}

		out := os.Stdout

		if len(args) == 2 {
			out, err = os.Create(args[1])
			if err != nil {
				log.Fatal().Err(err).Str("OutputFN", args[1]).Msg("could not create output file")
			}

			defer out.Close()
		}

		if err := gocsv.Marshal(record.Holdings, out); err != nil {
			log.Fatal().Err(err).Msg("could not marshal holdings csv")
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
