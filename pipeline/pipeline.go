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

// Package pipeline runs the fetch → normalize → store loop over a set of
// ETF symbols with a bounded worker pool. A failure for one symbol never
// aborts the batch; it is recorded in the run summary and the prior snapshot
// for that symbol stays authoritative.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/google/uuid"
	"github.com/penny-vault/etfdata/data"
	"github.com/penny-vault/etfdata/lake"
	"github.com/penny-vault/etfdata/provider"
	"github.com/rs/zerolog/log"
)

const defaultTaskTimeout = 2 * time.Minute

type Pipeline struct {
	provider    provider.Provider
	lake        *lake.Lake
	workers     int
	maxHoldings int
	taskTimeout time.Duration
}

// Result is the per-symbol outcome of a run: either a stored record or the
// error that stopped the symbol's update.
type Result struct {
	Symbol string
	Record *data.Record
	Err    error
}

// New creates a pipeline that fetches with prov and persists to myLake,
// running at most workers symbols concurrently.
func New(prov provider.Provider, myLake *lake.Lake, workers int, maxHoldings int) *Pipeline {
	if workers <= 0 {
		workers = 3
	}

	if maxHoldings <= 0 {
		maxHoldings = 100
	}

	return &Pipeline{
		provider:    prov,
		lake:        myLake,
		workers:     workers,
		maxHoldings: maxHoldings,
		taskTimeout: defaultTaskTimeout,
	}
}

// Run processes every symbol and returns a map keyed by symbol plus a run
// summary. Completion order is unspecified; each symbol appears exactly once.
func (myPipeline *Pipeline) Run(ctx context.Context, symbols []string) (map[string]*Result, *data.RunSummary) {
	runSummary := &data.RunSummary{
		RunID:     uuid.New(),
		StartTime: time.Now(),
		Symbols:   symbols,
		Failures:  make(map[string]string),
	}

	log.Info().Str("RunID", runSummary.RunID.String()).Int("NumSymbols", len(symbols)).
		Int("Workers", myPipeline.workers).Str("Provider", myPipeline.provider.Name()).
		Msg("starting pipeline run")

	results := haxmap.New[string, *Result]()
	jobs := make(chan string)

	var wg sync.WaitGroup

	for ii := 0; ii < myPipeline.workers; ii++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for symbol := range jobs {
				results.Set(symbol, myPipeline.processSymbol(ctx, runSummary.RunID, symbol))
			}
		}()
	}

	for _, symbol := range symbols {
		jobs <- symbol
	}

	close(jobs)
	wg.Wait()

	resultMap := make(map[string]*Result, len(symbols))

	results.ForEach(func(symbol string, result *Result) bool {
		resultMap[symbol] = result
		return true
	})

	for symbol, result := range resultMap {
		if result.Record != nil {
			runSummary.NumFetch++
		}

		if result.Err != nil {
			runSummary.Failures[symbol] = result.Err.Error()
			continue
		}

		runSummary.NumStored++
	}

	runSummary.EndTime = time.Now()

	log.Info().Str("RunID", runSummary.RunID.String()).Int("NumStored", runSummary.NumStored).
		Int("NumFailed", len(runSummary.Failures)).Msg("pipeline run complete")

	return resultMap, runSummary
}

// processSymbol runs one symbol end to end under its own deadline so a hung
// request cannot pin a worker slot for the rest of the batch.
func (myPipeline *Pipeline) processSymbol(ctx context.Context, runID uuid.UUID, symbol string) *Result {
	logger := log.With().Str("RunID", runID.String()).Str("Symbol", symbol).Logger()

	taskCtx, cancel := context.WithTimeout(ctx, myPipeline.taskTimeout)
	defer cancel()

	result := &Result{Symbol: symbol}

	logger.Info().Msg("extracting ETF data")

	raw, err := myPipeline.provider.Fetch(taskCtx, symbol, myPipeline.maxHoldings)
	if err != nil {
		logger.Error().Err(err).Msg("could not fetch ETF data")
		result.Err = err

		return result
	}

	if err := myPipeline.lake.WriteRaw(symbol, raw); err != nil {
		logger.Error().Err(err).Msg("could not store raw payload")
		result.Err = err

		return result
	}

	record, err := myPipeline.provider.Parse(raw, myPipeline.maxHoldings)
	if err != nil {
		logger.Error().Err(err).Msg("could not parse ETF data")
		result.Err = err

		return result
	}

	result.Record = record

	if err := myPipeline.lake.WriteRecord(symbol, record); err != nil {
		logger.Error().Err(err).Msg("could not store record; prior snapshot remains authoritative")
		result.Err = err

		return result
	}

	logger.Info().Int("NumHoldings", len(record.Holdings)).Msg("stored ETF snapshot")

	return result
}
