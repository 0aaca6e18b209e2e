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

package ingest

import (
	"github.com/chimera137/opcua-connector/pkg/gateway"
	"github.com/chimera137/opcua-connector/pkg/models"
)

// Connection state transitions are driven exclusively by gateway call
// outcomes. Once a device is in error only a later successful test or fetch
// clears it; there is no automatic recovery.

// StatusAfterTest yields the device status following a connection test with
// a well-formed gateway response.
func StatusAfterTest(resp *gateway.TestResponse, isPolling bool) models.ConnectionStatus {
	if resp.Error != "" {
		if resp.ConnectionStatus.Valid() {
			return resp.ConnectionStatus
		}

		return models.StatusError
	}

	if isPolling {
		return models.StatusPolling
	}

	return models.StatusConnected
}

// StatusAfterFetch adopts the status the gateway reported, defaulting to
// error when the response omits it. A gateway-reported batch error forces
// error regardless of the reported status.
func StatusAfterFetch(resp *gateway.DataResponse) models.ConnectionStatus {
	if resp.Error != "" {
		return models.StatusError
	}

	if !resp.ConnectionStatus.Valid() {
		return models.StatusError
	}

	return resp.ConnectionStatus
}

// StatusAfterStop is the transition for an explicit stop-polling action:
// a device that was polling settles to connected, one that never was keeps
// its current status.
func StatusAfterStop(current models.ConnectionStatus, wasPolling bool) models.ConnectionStatus {
	if wasPolling {
		return models.StatusConnected
	}

	return current
}
