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
package lake

import (
	"fmt"
	"strings"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the data lake in markdown
func (myLake *Lake) Summary() (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString("# ETF Data Lake\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString(fmt.Sprintf("Path: %s\n\n", myLake.rootDir)); err != nil {
		return "", err
	}

	symbols, err := myLake.Symbols()
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("Symbols tracked: %d\n\n", len(symbols))); err != nil {
		return "", err
	}

	if len(symbols) == 0 {
		if _, err := builder.WriteString("No records yet. Run `etfdata run` to populate the lake.\n"); err != nil {
			return "", err
		}

		return builder.String(), nil
	}

	if _, err := builder.WriteString("## Snapshots\n\n"); err != nil {
		return "", err
	}

	for _, symbol := range symbols {
		record, err := myLake.Record(symbol)
		if err != nil {
			return "", err
		}

		totalValue := 0.0
		for _, holding := range record.Holdings {
			totalValue += holding.MarketValueMillions
		}

		lastUpdated, err := myLake.LastUpdated(symbol)
		if err != nil {
			return "", err
		}

		age := timeago.English.Format(lastUpdated)

		if _, err := builder.WriteString(p.Sprintf("  * %s: %d holdings, $%.1fmm held, last price %.2f (updated %s)\n",
			record.Symbol, len(record.Holdings), totalValue, record.Summary.LastPrice, age)); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}
