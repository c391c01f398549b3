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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDerived(t *testing.T) {
	holding := &Holding{
		Symbol:         "AAPL",
		WeightPct:      6.19,
		MarketValueUSD: 118_900_000_000,
	}

	holding.ComputeDerived()

	assert.InDelta(t, 118900.0, holding.MarketValueMillions, 1e-9)
	assert.InDelta(t, 619.0, holding.WeightBps, 1e-9)
}

func TestComputeDerivedOverwritesStale(t *testing.T) {
	// derived fields always follow the source fields, even if a caller set
	// them directly
	holding := &Holding{
		WeightPct:           1.5,
		MarketValueUSD:      2_000_000,
		MarketValueMillions: 999,
		WeightBps:           999,
	}

	holding.ComputeDerived()

	assert.InDelta(t, 2.0, holding.MarketValueMillions, 1e-9)
	assert.InDelta(t, 150.0, holding.WeightBps, 1e-9)
}

func TestRecordComputeDerived(t *testing.T) {
	record := &Record{
		Symbol: "VTI",
		Holdings: []*Holding{
			{WeightPct: 6.19, MarketValueUSD: 118_900_000_000},
			{WeightPct: 0.01, MarketValueUSD: 1_000_000},
		},
	}

	record.ComputeDerived()

	assert.InDelta(t, 619.0, record.Holdings[0].WeightBps, 1e-9)
	assert.InDelta(t, 1.0, record.Holdings[1].MarketValueMillions, 1e-9)
}
