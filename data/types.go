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
package data

import (
	"time"

	"github.com/google/uuid"
)

// Summary holds the top-of-page quote details for an ETF. It is an immutable
// snapshot replaced wholesale on each refresh.
type Summary struct {
	Symbol      string    `json:"symbol"`
	Title       string    `json:"title,omitempty"`
	LastPrice   float64   `json:"last_price"`
	Change      string    `json:"change"`
	Bid         float64   `json:"bid,omitempty"`
	BidSize     string    `json:"bid_size,omitempty"`
	Ask         float64   `json:"ask,omitempty"`
	AskSize     string    `json:"ask_size,omitempty"`
	Volume      int64     `json:"volume"`
	VolumeLabel string    `json:"volume_label,omitempty"`
	AsOf        time.Time `json:"as_of"`
}

// Holding is one constituent position within an ETF's portfolio.
// MarketValueMillions and WeightBps are always derived from MarketValueUSD
// and WeightPct; use ComputeDerived after changing either source field.
type Holding struct {
	Symbol              string  `json:"symbol" csv:"symbol"`
	Name                string  `json:"name" csv:"name"`
	WeightPct           float64 `json:"weight_pct" csv:"weight_pct"`
	Shares              int64   `json:"shares" csv:"shares"`
	MarketValueUSD      float64 `json:"market_value_usd" csv:"market_value_usd"`
	MarketValueMillions float64 `json:"market_value_millions" csv:"market_value_millions"`
	WeightBps           float64 `json:"weight_bps" csv:"weight_bps"`
}

// ComputeDerived recomputes the derived fields from their source fields.
func (holding *Holding) ComputeDerived() {
	holding.MarketValueMillions = holding.MarketValueUSD / 1e6
	holding.WeightBps = holding.WeightPct * 100
}

// Record is the full snapshot for one ETF symbol: summary plus holdings
// ordered by descending weight as reported by the source.
type Record struct {
	Symbol    string     `json:"symbol"`
	Timestamp time.Time  `json:"timestamp"`
	Summary   Summary    `json:"summary"`
	Holdings  []*Holding `json:"holdings"`
}

// ComputeDerived recomputes the derived fields of every holding.
func (record *Record) ComputeDerived() {
	for _, holding := range record.Holdings {
		holding.ComputeDerived()
	}
}

// RunSummary captures the outcome of one pipeline run.
type RunSummary struct {
	RunID     uuid.UUID         `json:"run_id"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Symbols   []string          `json:"symbols"`
	NumFetch  int               `json:"num_fetched"`
	NumStored int               `json:"num_stored"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// Duration returns the wall time the run took.
func (summary *RunSummary) Duration() time.Duration {
	return summary.EndTime.Sub(summary.StartTime)
}
