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

// Package gateway is the HTTP client for the OPC UA REST gateway. The
// gateway translates these calls into real OPC UA sessions; from this side
// both endpoints are idempotent reads.
package gateway

import "github.com/chimera137/opcua-connector/pkg/models"

// TestResponse is the body of GET /test.
type TestResponse struct {
	ConnectionStatus models.ConnectionStatus `json:"connectionStatus"`
	Error            string                  `json:"error,omitempty"`
}

// DataResponse is the body of POST /data. Values keeps raw JSON scalars
// (json.Number, bool, string); conversion to node data types happens in the
// ingestion pipeline. Errors carries per-node read failures (bad OPC UA
// status codes), Error a whole-batch failure.
type DataResponse struct {
	ConnectionStatus models.ConnectionStatus `json:"connectionStatus"`
	Values           map[string]interface{}  `json:"values"`
	Errors           map[string]string       `json:"errors,omitempty"`
	Error            string                  `json:"error,omitempty"`
	Timestamp        string                  `json:"timestamp,omitempty"`
}

// dataRequest is the body sent to POST /data.
type dataRequest struct {
	Endpoint string   `json:"endpoint"`
	NodeIDs  []string `json:"node_ids"`
}
