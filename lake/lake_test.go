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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/penny-vault/etfdata/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(symbol string, lastPrice float64) *data.Record {
	record := &data.Record{
		Symbol:    symbol,
		Timestamp: time.Date(2026, 8, 28, 21, 15, 0, 0, time.UTC),
		Summary: data.Summary{
			Symbol:    symbol,
			LastPrice: lastPrice,
			Change:    "-0.51 (-0.23%)",
			Volume:    3200000,
			AsOf:      time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC),
		},
		Holdings: []*data.Holding{
			{Symbol: "AAPL", Name: "APPLE INC", WeightPct: 6.19, Shares: 169921046, MarketValueUSD: 118.9e9},
			{Symbol: "MSFT", Name: "MICROSOFT CORP", WeightPct: 6.11, Shares: 88456089, MarketValueUSD: 117.3e9},
		},
	}

	record.ComputeDerived()

	return record
}

func TestWriteReadRoundTrip(t *testing.T) {
	myLake, err := New(t.TempDir())
	require.NoError(t, err)

	want := testRecord("VTI", 218.47)
	require.NoError(t, myLake.WriteRecord("VTI", want))

	got, err := myLake.Record("VTI")
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestReadNeverWritten(t *testing.T) {
	myLake, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = myLake.Record("GHOST")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = myLake.LastUpdated("GHOST")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteReplacesPriorVersion(t *testing.T) {
	myLake, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, myLake.WriteRecord("VTI", testRecord("VTI", 218.47)))
	require.NoError(t, myLake.WriteRecord("VTI", testRecord("VTI", 219.03)))

	got, err := myLake.Record("VTI")
	require.NoError(t, err)
	assert.InDelta(t, 219.03, got.Summary.LastPrice, 1e-9)

	symbols, err := myLake.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"VTI"}, symbols)
}

func TestSymbolsSortedAndSkipTempFiles(t *testing.T) {
	root := t.TempDir()

	myLake, err := New(root)
	require.NoError(t, err)

	require.NoError(t, myLake.WriteRecord("VTI", testRecord("VTI", 218.47)))
	require.NoError(t, myLake.WriteRecord("QQQ", testRecord("QQQ", 480.11)))
	require.NoError(t, myLake.WriteRecord("SPY", testRecord("SPY", 552.08)))

	// a stranded temp file from a crashed writer must not surface as a symbol
	stranded := filepath.Join(root, processedDirName, ".VTI.json.tmp-123")
	require.NoError(t, os.WriteFile(stranded, []byte("{"), 0o644))

	symbols, err := myLake.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"QQQ", "SPY", "VTI"}, symbols)
}

func TestSymbolSlugging(t *testing.T) {
	myLake, err := New(t.TempDir())
	require.NoError(t, err)

	// slashes in symbols must not escape the lake directory
	require.NoError(t, myLake.WriteRecord("BRK/B", testRecord("BRK/B", 0)))

	got, err := myLake.Record("BRK/B")
	require.NoError(t, err)
	assert.Equal(t, "BRK/B", got.Symbol)

	symbols, err := myLake.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"BRK-B"}, symbols)
}

func TestReadIsCaseInsensitive(t *testing.T) {
	myLake, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, myLake.WriteRecord("VTI", testRecord("VTI", 218.47)))

	got, err := myLake.Record("vti")
	require.NoError(t, err)
	assert.Equal(t, "VTI", got.Symbol)
}

func TestWriteRaw(t *testing.T) {
	root := t.TempDir()

	myLake, err := New(root)
	require.NoError(t, err)

	payload := map[string]string{"summary_html": "<html></html>"}
	require.NoError(t, myLake.WriteRaw("VTI", payload))

	// raw payloads do not surface through Symbols
	symbols, err := myLake.Symbols()
	require.NoError(t, err)
	assert.Empty(t, symbols)

	_, err = os.Stat(filepath.Join(root, rawDirName, "VTI.json"))
	assert.NoError(t, err)
}

func TestLastUpdated(t *testing.T) {
	myLake, err := New(t.TempDir())
	require.NoError(t, err)

	before := time.Now().Add(-time.Minute)
	require.NoError(t, myLake.WriteRecord("VTI", testRecord("VTI", 218.47)))

	updated, err := myLake.LastUpdated("VTI")
	require.NoError(t, err)
	assert.True(t, updated.After(before))
}

func TestSummary(t *testing.T) {
	myLake, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, myLake.WriteRecord("VTI", testRecord("VTI", 218.47)))

	summary, err := myLake.Summary()
	require.NoError(t, err)

	assert.Contains(t, summary, "# ETF Data Lake")
	assert.Contains(t, summary, "Symbols tracked: 1")
	assert.Contains(t, summary, "VTI")
}
