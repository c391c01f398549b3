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

// Package lake persists ETF snapshots as flat JSON files. Each symbol owns
// one file per stage (raw and processed); writes go to a temp file in the
// destination directory and are renamed into place, so a concurrent reader
// observes either the old or the new complete snapshot, never a partial one.
package lake

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gosimple/slug"
	"github.com/penny-vault/etfdata/data"
)

var (
	ErrNotFound = errors.New("no record found for symbol")
)

const (
	rawDirName       = "raw"
	processedDirName = "processed"
)

// Lake is a flat-file data lake rooted at a single directory.
type Lake struct {
	rootDir      string
	rawDir       string
	processedDir string
}

// New opens (creating if necessary) a data lake rooted at rootDir.
func New(rootDir string) (*Lake, error) {
	myLake := &Lake{
		rootDir:      rootDir,
		rawDir:       filepath.Join(rootDir, rawDirName),
		processedDir: filepath.Join(rootDir, processedDirName),
	}

	for _, dir := range []string{myLake.rawDir, myLake.processedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create data lake directory %s: %w", dir, err)
		}
	}

	return myLake, nil
}

// Path returns the root directory of the lake.
func (myLake *Lake) Path() string {
	return myLake.rootDir
}

// fileKey derives the storage filename for a symbol. Slugging keeps symbols
// like BRK/B from escaping the lake directory.
func fileKey(symbol string) string {
	return strings.ToUpper(slug.Make(symbol)) + ".json"
}

// WriteRaw persists the unparsed provider payload for a symbol, replacing
// any prior version.
func (myLake *Lake) WriteRaw(symbol string, payload any) error {
	return atomicWriteJSON(myLake.rawDir, fileKey(symbol), payload)
}

// WriteRecord persists the processed record for a symbol, replacing any
// prior version.
func (myLake *Lake) WriteRecord(symbol string, record *data.Record) error {
	return atomicWriteJSON(myLake.processedDir, fileKey(symbol), record)
}

// Record returns the most recently written processed record for a symbol,
// or ErrNotFound when the symbol has never been stored.
func (myLake *Lake) Record(symbol string) (*data.Record, error) {
	buf, err := os.ReadFile(filepath.Join(myLake.processedDir, fileKey(symbol)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
		}

		return nil, fmt.Errorf("could not read record for %s: %w", symbol, err)
	}

	record := &data.Record{}
	if err := json.Unmarshal(buf, record); err != nil {
		return nil, fmt.Errorf("could not decode record for %s: %w", symbol, err)
	}

	return record, nil
}

// Symbols returns the sorted set of symbols with a persisted processed
// record.
func (myLake *Lake) Symbols() ([]string, error) {
	entries, err := os.ReadDir(myLake.processedDir)
	if err != nil {
		return nil, fmt.Errorf("could not list data lake: %w", err)
	}

	symbols := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}

		symbols = append(symbols, strings.TrimSuffix(name, ".json"))
	}

	sort.Strings(symbols)

	return symbols, nil
}

// LastUpdated returns the modification time of a symbol's processed record,
// or ErrNotFound when the symbol has never been stored.
func (myLake *Lake) LastUpdated(symbol string) (time.Time, error) {
	info, err := os.Stat(filepath.Join(myLake.processedDir, fileKey(symbol)))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
		}

		return time.Time{}, fmt.Errorf("could not stat record for %s: %w", symbol, err)
	}

	return info.ModTime(), nil
}

// atomicWriteJSON marshals v and replaces dir/name with it. The temp file
// lives in dir so the rename never crosses a filesystem boundary.
func atomicWriteJSON(dir string, name string, v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal %s: %w", name, err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("could not create temp file for %s: %w", name, err)
	}

	tmpName := tmpFile.Name()

	defer os.Remove(tmpName)

	if _, err := tmpFile.Write(buf); err != nil {
		tmpFile.Close()
		return fmt.Errorf("could not write temp file for %s: %w", name, err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("could not sync temp file for %s: %w", name, err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("could not close temp file for %s: %w", name, err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("could not chmod temp file for %s: %w", name, err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("could not replace %s: %w", name, err)
	}

	return nil
}
