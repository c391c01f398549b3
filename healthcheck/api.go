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

// Package healthcheck notifies a healthchecks.io-style ping URL about
// pipeline run outcomes so scheduled runs can be monitored externally.
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrStatus = errors.New("status code is invalid")
)

// Ping signals a successful pipeline run
func Ping(ctx context.Context, pingURL string) error {
	return ping(ctx, pingURL)
}

// Fail signals a pipeline run that completed with failures
func Fail(ctx context.Context, pingURL string) error {
	return ping(ctx, pingURL+"/fail")
}

func ping(ctx context.Context, url string) error {
	client := resty.New().SetTimeout(10 * time.Second)

	resp, err := client.R().
		SetContext(ctx).
		Get(url)

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
