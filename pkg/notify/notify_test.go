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

package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTestOutcomes(t *testing.T) {
	n := TestSucceeded("Press Line 3", "opc.tcp://10.0.0.5:4840")
	assert.Equal(t, SeveritySuccess, n.Severity)
	assert.False(t, n.Sticky)
	assert.Contains(t, n.Message, "Press Line 3")
	assert.Contains(t, n.Message, "opc.tcp://10.0.0.5:4840")

	n = TestFailed("BadSessionClosed")
	assert.Equal(t, SeverityDanger, n.Severity)
	assert.True(t, n.Sticky, "failures must stay on screen")
	assert.Contains(t, n.Message, "BadSessionClosed")

	n = GatewayUnreachable("http://localhost:3000")
	assert.Equal(t, SeverityDanger, n.Severity)
	assert.True(t, n.Sticky)
	assert.Contains(t, n.Message, "http://localhost:3000")
}

func TestFetchOutcomes(t *testing.T) {
	n := FetchSucceeded([]string{"Temperature: 22.5", "Pressure: 1.2"})
	assert.Equal(t, SeveritySuccess, n.Severity)
	assert.Equal(t, "Data fetched successfully:\nTemperature: 22.5\nPressure: 1.2", n.Message)

	n = FetchNoData()
	assert.Equal(t, SeverityWarning, n.Severity)
	assert.False(t, n.Sticky)

	n = FetchFailed("session lost")
	assert.Equal(t, SeverityDanger, n.Severity)
	assert.True(t, n.Sticky)
}

func TestPollingOutcomes(t *testing.T) {
	n := PollingStarted(5000)
	assert.Equal(t, SeveritySuccess, n.Severity)
	assert.Equal(t, "Auto fetch started every 5000 ms.", n.Message)

	assert.Equal(t, SeverityWarning, PollingAlreadyRunning().Severity)
	assert.Equal(t, SeverityWarning, PollingStopped().Severity)
	assert.Equal(t, SeverityInfo, PollingNotRunning().Severity)
}

func TestHistoryCleared(t *testing.T) {
	n := HistoryCleared()
	assert.Equal(t, SeveritySuccess, n.Severity)
	assert.False(t, n.Sticky)
}
