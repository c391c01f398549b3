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
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	schwabPageURL = "https://www.schwab.wallst.com/schwab/Prospect/research/etfs/schwabETF/index.asp"
	schwabAPIURL  = "https://www.schwab.wallst.com/schwab/Prospect/research/resources/server/Module/SchwabETF.ModuleAPI.asp"

	schwabUserAgent = "Mozilla/5.0"
)

var (
	sessionIDRe = regexp.MustCompile(`WSDOM\.Page\.sessionID\s*=\s*WSOD_DATA\.sessionID\s*\|\|\s*'([^']+)'`)
	wsodIssueRe = regexp.MustCompile(`var gSymbolWSODIssue = '(\d+)'`)
)

// Schwab retrieves ETF summary and holdings data from the Schwab ETF
// research portal. The portal is session-oriented: the holdings page embeds
// a session ID and a WSOD issue number that authorize subsequent calls to
// the module API.
type Schwab struct {
	client  *resty.Client
	limiter *rate.Limiter
	pageURL string
	apiURL  string
}

// NewSchwab creates a Schwab provider limited to rateLimit requests per
// minute. Transient transport errors and 5xx responses are retried twice
// with a short wait; 4xx responses are treated as permanent.
func NewSchwab(rateLimit int) *Schwab {
	if rateLimit <= 0 {
		rateLimit = 30
	}

	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, _ error) bool {
			return resp != nil && resp.StatusCode() >= 500
		}).
		SetHeader("User-Agent", schwabUserAgent)

	return &Schwab{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
		pageURL: schwabPageURL,
		apiURL:  schwabAPIURL,
	}
}

func (schwab *Schwab) Name() string {
	return "schwab"
}

// schwabModuleRequest is the payload posted to the module API. Field names
// are part of the upstream contract and must match exactly.
type schwabModuleRequest struct {
	Module     string           `json:"module"`
	ModuleArgs schwabModuleArgs `json:"moduleArgs"`
}

type schwabModuleArgs struct {
	ModuleID        string `json:"ModuleID"`
	Symbol          string `json:"symbol"`
	WSODIssue       string `json:"wsodissue"`
	SortDir         string `json:"sortDir"`
	SortBy          string `json:"sortBy"`
	Page            string `json:"page"`
	NumRows         string `json:"numRows"`
	IsThirdPartyETF string `json:"isThirdPartyETF"`
}

// Fetch retrieves the raw summary page and the first holdings page (sized to
// maxHoldings, sorted by descending weight) for the given symbol.
func (schwab *Schwab) Fetch(ctx context.Context, symbol string, maxHoldings int) (*RawPayload, error) {
	pageURL := fmt.Sprintf("%s?type=holdings&symbol=%s", schwab.pageURL, url.QueryEscape(symbol))

	if err := schwab.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %s", ErrFetch, err)
	}

	resp, err := schwab.client.R().
		SetContext(ctx).
		SetHeader("Referer", pageURL).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFetch, err)
	}

	if resp.StatusCode() >= 300 {
		log.Debug().Int("StatusCode", resp.StatusCode()).Str("URL", pageURL).
			Msg("received an invalid status code when querying the holdings page")
		return nil, fmt.Errorf("%w (%d): GET %s", ErrFetch, resp.StatusCode(), pageURL)
	}

	page := resp.String()

	sessionMatch := sessionIDRe.FindStringSubmatch(page)
	issueMatch := wsodIssueRe.FindStringSubmatch(page)

	if sessionMatch == nil || issueMatch == nil {
		return nil, fmt.Errorf("%w: session tokens not found in holdings page for %s", ErrFetch, symbol)
	}

	moduleResp, err := schwab.fetchHoldingsModule(ctx, symbol, pageURL, sessionMatch[1], issueMatch[1], maxHoldings)
	if err != nil {
		return nil, err
	}

	return &RawPayload{
		Symbol:         symbol,
		RetrievedAt:    time.Now().UTC(),
		SummaryHTML:    page,
		HoldingsModule: moduleResp,
	}, nil
}

func (schwab *Schwab) fetchHoldingsModule(ctx context.Context, symbol string, referer string, sessionID string, wsodIssue string, maxHoldings int) (string, error) {
	request := schwabModuleRequest{
		Module: "schwabETFHoldingsTable",
		ModuleArgs: schwabModuleArgs{
			ModuleID:        "holdingsTableContainer",
			Symbol:          symbol,
			WSODIssue:       wsodIssue,
			SortDir:         "desc",
			SortBy:          "PctNetAssets",
			Page:            "1",
			NumRows:         strconv.Itoa(maxHoldings),
			IsThirdPartyETF: "true",
		},
	}

	encoded, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("%w: could not marshal module request: %s", ErrFetch, err)
	}

	body := fmt.Sprintf("inputs=B64ENC%s&..contenttype..=text/javascript&..requester..=ContentBuffer",
		base64.StdEncoding.EncodeToString(encoded))

	if err := schwab.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %s", ErrFetch, err)
	}

	apiURL := fmt.Sprintf("%s?%s", schwab.apiURL, sessionID)

	resp, err := schwab.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetHeader("Referer", referer).
		SetHeader("Accept", "*/*").
		SetBody(body).
		Post(apiURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFetch, err)
	}

	if resp.StatusCode() >= 300 {
		log.Debug().Int("StatusCode", resp.StatusCode()).Str("Symbol", symbol).
			Msg("received an invalid status code when querying the holdings module API")
		return "", fmt.Errorf("%w (%d): POST %s", ErrFetch, resp.StatusCode(), apiURL)
	}

	return resp.String(), nil
}
