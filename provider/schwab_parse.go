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
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
	"github.com/penny-vault/etfdata/data"
)

var _ Provider = (*Schwab)(nil)

const apiReturnPrefix = "this.apiReturn ="

var asOfLayouts = []string{
	"01/02/2006 3:04 PM ET",
	"01/02/2006 3:04:05 PM ET",
	"01/02/2006",
}

// Parse extracts a normalized record from the raw payload. Holdings beyond
// maxHoldings are dropped, preserving the source's descending-weight order.
func (schwab *Schwab) Parse(raw *RawPayload, maxHoldings int) (*data.Record, error) {
	summary, err := parseSummary(raw.Symbol, raw.SummaryHTML)
	if err != nil {
		return nil, err
	}

	holdings, err := parseHoldings(raw.HoldingsModule)
	if err != nil {
		return nil, err
	}

	if maxHoldings > 0 && len(holdings) > maxHoldings {
		holdings = holdings[:maxHoldings]
	}

	return &data.Record{
		Symbol:    raw.Symbol,
		Timestamp: raw.RetrievedAt,
		Summary:   *summary,
		Holdings:  holdings,
	}, nil
}

// parseSummary scrapes the quote strip and page header out of the holdings
// page HTML.
func parseSummary(symbol string, pageHTML string) (*data.Summary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, fmt.Errorf("%w: summary page is not parseable HTML: %s", ErrParse, err)
	}

	cells := doc.Find("div.popupVersion.realtime table tr").Eq(1).Find("td")
	if cells.Length() < 9 {
		return nil, fmt.Errorf("%w: quote table not found in summary page for %s", ErrParse, symbol)
	}

	lastPrice, err := data.ParseNum(cells.Eq(0).Text())
	if err != nil {
		return nil, fmt.Errorf("%w: last price: %s", ErrParse, err)
	}

	bid, err := data.ParseNum(cells.Eq(4).Find(".value").Text())
	if err != nil {
		return nil, fmt.Errorf("%w: bid: %s", ErrParse, err)
	}

	ask, err := data.ParseNum(cells.Eq(6).Find(".value").Text())
	if err != nil {
		return nil, fmt.Errorf("%w: ask: %s", ErrParse, err)
	}

	volume, err := data.ParseInt(cells.Eq(8).Find(".value").Text())
	if err != nil {
		return nil, fmt.Errorf("%w: volume: %s", ErrParse, err)
	}

	asOf, err := parseAsOf(doc.Find("#firstGlanceFooter").Text())
	if err != nil {
		return nil, err
	}

	return &data.Summary{
		Symbol:      symbol,
		Title:       strings.TrimSpace(doc.Find("#content > div > h2").First().Text()),
		LastPrice:   lastPrice,
		Change:      collapseWhitespace(cells.Eq(2).Text()),
		Bid:         bid,
		BidSize:     strings.TrimSpace(cells.Eq(4).Find(".sublabel").Text()),
		Ask:         ask,
		AskSize:     strings.TrimSpace(cells.Eq(6).Find(".sublabel").Text()),
		Volume:      volume,
		VolumeLabel: strings.TrimSpace(cells.Eq(8).Find(".sublabel").Text()),
		AsOf:        asOf,
	}, nil
}

// parseAsOf converts the "As of ..." page footer into a timestamp. Portal
// times are US eastern.
func parseAsOf(footer string) (time.Time, error) {
	cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(footer), "As of"))
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("%w: as-of footer not found in summary page", ErrParse)
	}

	nyc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: could not load timezone: %s", ErrParse, err)
	}

	for _, layout := range asOfLayouts {
		if asOf, err := time.ParseInLocation(layout, cleaned, nyc); err == nil {
			return asOf, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unrecognized as-of timestamp %q", ErrParse, cleaned)
}

func collapseWhitespace(val string) string {
	return strings.Join(strings.Fields(val), " ")
}

// moduleNode is one node in the module API response tree. Every node carries
// a "c" array whose entries are either nested nodes or leaf strings.
type moduleNode struct {
	Children []moduleChild `json:"c"`
}

type moduleChild struct {
	Node *moduleNode
	Text string
}

func (child *moduleChild) UnmarshalJSON(buf []byte) error {
	trimmed := bytes.TrimSpace(buf)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		node := &moduleNode{}
		if err := json.Unmarshal(trimmed, node); err != nil {
			return err
		}

		child.Node = node

		return nil
	}

	if err := json.Unmarshal(trimmed, &child.Text); err == nil {
		return nil
	}

	// the portal occasionally emits bare numbers in leaf positions
	var val any
	if err := json.Unmarshal(trimmed, &val); err != nil {
		return err
	}

	child.Text = fmt.Sprint(val)

	return nil
}

func (node *moduleNode) childNode(idx int) (*moduleNode, error) {
	if idx >= len(node.Children) || node.Children[idx].Node == nil {
		return nil, fmt.Errorf("%w: module element %d not found in holdings response", ErrParse, idx)
	}

	return node.Children[idx].Node, nil
}

// cellText returns the leaf text of the idx-th cell. A present cell with no
// children renders as the empty string (the portal omits symbols for bonds
// and cash positions), but a missing cell is a malformed row.
func (node *moduleNode) cellText(idx int) (string, error) {
	if idx >= len(node.Children) {
		return "", fmt.Errorf("%w: holdings row is missing cell %d", ErrParse, idx)
	}

	cell := node.Children[idx].Node
	if cell == nil || len(cell.Children) == 0 {
		return "", nil
	}

	return cell.Children[0].Text, nil
}

// parseHoldings decodes the javascript-wrapped module API response into
// holdings with derived fields computed.
func parseHoldings(rawModule string) ([]*data.Holding, error) {
	txt := strings.TrimSpace(rawModule)
	txt = strings.TrimSpace(strings.TrimPrefix(txt, apiReturnPrefix))
	txt = strings.TrimSuffix(txt, ";")

	var moduleResp struct {
		Module *moduleNode `json:"module"`
	}

	if err := json.Unmarshal([]byte(txt), &moduleResp); err != nil {
		return nil, fmt.Errorf("%w: holdings response is not valid JSON: %s", ErrParse, err)
	}

	if moduleResp.Module == nil {
		return nil, fmt.Errorf("%w: holdings response has no module element", ErrParse)
	}

	container, err := moduleResp.Module.childNode(0)
	if err != nil {
		return nil, err
	}

	table, err := container.childNode(1)
	if err != nil {
		return nil, err
	}

	holdings := make([]*data.Holding, 0, len(table.Children))

	for idx := range table.Children {
		row, err := table.childNode(idx)
		if err != nil {
			return nil, err
		}

		holding, err := parseHoldingRow(row)
		if err != nil {
			return nil, err
		}

		holdings = append(holdings, holding)
	}

	return holdings, nil
}

func parseHoldingRow(row *moduleNode) (*data.Holding, error) {
	symbol, err := row.cellText(0)
	if err != nil {
		return nil, err
	}

	name, err := row.cellText(1)
	if err != nil {
		return nil, err
	}

	weightTxt, err := row.cellText(2)
	if err != nil {
		return nil, err
	}

	weightPct, err := data.ParseNum(weightTxt)
	if err != nil {
		return nil, fmt.Errorf("%w: holding weight: %s", ErrParse, err)
	}

	sharesTxt, err := row.cellText(3)
	if err != nil {
		return nil, err
	}

	shares, err := data.ParseInt(sharesTxt)
	if err != nil {
		return nil, fmt.Errorf("%w: holding shares: %s", ErrParse, err)
	}

	marketValueTxt, err := row.cellText(4)
	if err != nil {
		return nil, err
	}

	marketValue, err := data.ParseNum(marketValueTxt)
	if err != nil {
		return nil, fmt.Errorf("%w: holding market value: %s", ErrParse, err)
	}

	holding := &data.Holding{
		Symbol:         symbol,
		Name:           name,
		WeightPct:      weightPct,
		Shares:         shares,
		MarketValueUSD: marketValue,
	}

	holding.ComputeDerived()

	return holding, nil
}
