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
	"github.com/stretchr/testify/require"
)

func TestParseNum(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"plain", "42.5", 42.5},
		{"empty", "", 0},
		{"whitespace", "  \t ", 0},
		{"dollar sign", "$218.47", 218.47},
		{"thousands separators", "169,921,046", 169921046},
		{"percent stays on 0-100 scale", "6.19%", 6.19},
		{"billions", "118.9B", 118.9e9},
		{"millions", "$3.2M", 3.2e6},
		{"thousands", "500K", 500e3},
		{"lowercase suffix", "1.5b", 1.5e9},
		{"dollar with commas and suffix", "$1,234.5M", 1234.5e6},
		{"negative", "-0.51", -0.51},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNum(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseNumMalformed(t *testing.T) {
	for _, in := range []string{"N/A", "--", "12x34", "%", "B"} {
		_, err := ParseNum(in)
		assert.ErrorIs(t, err, ErrBadNumber, "input %q", in)
	}
}

func TestParseInt(t *testing.T) {
	got, err := ParseInt("3.2M")
	require.NoError(t, err)
	assert.Equal(t, int64(3200000), got)

	got, err = ParseInt("169,921,046")
	require.NoError(t, err)
	assert.Equal(t, int64(169921046), got)
}
