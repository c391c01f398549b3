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
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/penny-vault/etfdata/data"
)

var (
	// ErrFetch indicates a network failure, a non-success HTTP status, or a
	// response that is missing the tokens needed to continue the exchange.
	ErrFetch = errors.New("fetch failed")

	// ErrParse indicates the raw payload is missing expected fields or holds
	// values of an unexpected shape. Malformed financial data is rejected
	// rather than defaulted.
	ErrParse = errors.New("parse failed")
)

// RawPayload is the unmodified source material retrieved for one symbol. It
// is persisted as-is to the raw stage of the data lake so a parse can be
// replayed without re-fetching.
type RawPayload struct {
	Symbol         string    `json:"symbol"`
	RetrievedAt    time.Time `json:"retrieved_at"`
	SummaryHTML    string    `json:"summary_html"`
	HoldingsModule string    `json:"holdings_module"`
}

// Provider retrieves raw ETF data from an upstream source and normalizes it
// into records. Fetch performs network I/O only; Parse is pure and
// idempotent, so the same raw payload always yields the same record.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string, maxHoldings int) (*RawPayload, error)
	Parse(raw *RawPayload, maxHoldings int) (*data.Record, error)
}
