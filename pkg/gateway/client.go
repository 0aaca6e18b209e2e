/*
 * Copyright 2025 Chimera.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/chimera137/opcua-connector/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// Client talks to one gateway instance. Devices may point at different
// gateways, so the base URL is a per-call argument.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient builds a gateway client with a bounded request timeout; a
// timeout surfaces as ErrGatewayUnreachable, never as an indefinite block.
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Test checks whether the gateway can open a session to the device endpoint.
func (c *Client) Test(ctx context.Context, gatewayURL, endpoint string) (*TestResponse, error) {
	testURL := gatewayURL + "/test?endpoint=" + url.QueryEscape(endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, testURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnreachable, err)
	}
	defer c.closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrGatewayUnreachable, resp.StatusCode)
	}

	var body TestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	return &body, nil
}

// Fetch reads the given node ids from the device endpoint in one batch.
func (c *Client) Fetch(ctx context.Context, gatewayURL, endpoint string, nodeIDs []string) (*DataResponse, error) {
	start := time.Now()

	payload, err := json.Marshal(dataRequest{Endpoint: endpoint, NodeIDs: nodeIDs})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gatewayURL+"/data", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnreachable, err)
	}
	defer c.closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrGatewayUnreachable, resp.StatusCode)
	}

	// UseNumber keeps values as json.Number so the ingestion boundary can
	// convert them per node data type without a lossy float round-trip.
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var body DataResponse
	if err := decoder.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Int("nodes", len(nodeIDs)).
		Dur("latency", time.Since(start)).
		Msg("Fetched data from gateway")

	return &body, nil
}

func (c *Client) closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to close response body")
	}
}
