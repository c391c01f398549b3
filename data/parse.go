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
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrBadNumber = errors.New("malformed numeric value")
)

var magnitudes = map[byte]float64{
	'B': 1e9,
	'M': 1e6,
	'K': 1e3,
}

// ParseNum converts a display string from the source portal into a float64.
// It tolerates dollar signs, thousands separators, a trailing percent sign,
// and B/M/K magnitude suffixes. Percentages stay on the 0-100 scale, so
// "6.19%" parses to 6.19. An empty string parses to 0; anything else that
// fails to parse returns ErrBadNumber.
func ParseNum(val string) (float64, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(val))
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")

	if cleaned == "" {
		return 0, nil
	}

	if strings.HasSuffix(cleaned, "%") {
		num, err := strconv.ParseFloat(strings.TrimSuffix(cleaned, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadNumber, val)
		}

		return num, nil
	}

	if mult, ok := magnitudes[cleaned[len(cleaned)-1]]; ok {
		num, err := strconv.ParseFloat(cleaned[:len(cleaned)-1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadNumber, val)
		}

		return num * mult, nil
	}

	num, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNumber, val)
	}

	return num, nil
}

// ParseInt is ParseNum for whole-number fields like share and volume counts;
// the source rounds large counts with magnitude suffixes so fractional
// intermediate values are truncated.
func ParseInt(val string) (int64, error) {
	num, err := ParseNum(val)
	if err != nil {
		return 0, err
	}

	return int64(num), nil
}
