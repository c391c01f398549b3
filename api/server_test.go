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
package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/etfdata/data"
	"github.com/penny-vault/etfdata/lake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *lake.Lake) {
	t.Helper()

	myLake, err := lake.New(t.TempDir())
	require.NoError(t, err)

	return New(myLake, 0), myLake
}

func storeRecord(t *testing.T, myLake *lake.Lake, symbol string) *data.Record {
	t.Helper()

	record := &data.Record{
		Symbol:    symbol,
		Timestamp: time.Date(2026, 8, 28, 21, 15, 0, 0, time.UTC),
		Summary:   data.Summary{Symbol: symbol, LastPrice: 218.47, Volume: 3200000},
		Holdings: []*data.Holding{
			{Symbol: "AAPL", Name: "APPLE INC", WeightPct: 6.19, Shares: 169921046, MarketValueUSD: 118.9e9},
		},
	}

	record.ComputeDerived()
	require.NoError(t, myLake.WriteRecord(symbol, record))

	return record
}

func doRequest(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()

	server.Router().ServeHTTP(recorder, req)

	return recorder
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, server, "/api/health")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, resp.Body.String())
}

func TestListETFs(t *testing.T) {
	server, myLake := newTestServer(t)

	resp := doRequest(t, server, "/api/etfs")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())

	storeRecord(t, myLake, "VTI")
	storeRecord(t, myLake, "QQQ")

	resp = doRequest(t, server, "/api/etfs")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `["QQQ", "VTI"]`, resp.Body.String())
}

func TestGetETF(t *testing.T) {
	server, myLake := newTestServer(t)
	want := storeRecord(t, myLake, "VTI")

	resp := doRequest(t, server, "/api/etfs/VTI")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

	got := &data.Record{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), got))

	assert.Equal(t, want.Symbol, got.Symbol)
	assert.InDelta(t, want.Summary.LastPrice, got.Summary.LastPrice, 1e-9)
	require.Len(t, got.Holdings, 1)
	assert.InDelta(t, 118900.0, got.Holdings[0].MarketValueMillions, 1e-6)
	assert.InDelta(t, 619.0, got.Holdings[0].WeightBps, 1e-9)
}

func TestGetETFNotAvailable(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, server, "/api/etfs/GHOST")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"error": "symbol not available"}`, resp.Body.String())
}

func TestGetHoldings(t *testing.T) {
	server, myLake := newTestServer(t)
	storeRecord(t, myLake, "VTI")

	resp := doRequest(t, server, "/api/etfs/VTI/holdings")
	require.Equal(t, http.StatusOK, resp.Code)

	var holdings []*data.Holding
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &holdings))

	require.Len(t, holdings, 1)
	assert.Equal(t, "AAPL", holdings[0].Symbol)
	assert.InDelta(t, 6.19, holdings[0].WeightPct, 1e-9)
}

func TestGetHoldingsNotAvailable(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doRequest(t, server, "/api/etfs/GHOST/holdings")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"error": "symbol not available"}`, resp.Body.String())
}
