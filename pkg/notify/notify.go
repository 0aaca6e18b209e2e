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

// Package notify maps operation outcomes to the user-facing payloads the
// operator surface returns.
package notify

import (
	"fmt"
	"strings"
)

// Severity of a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
	SeverityInfo    Severity = "info"
)

// Notification is the payload returned by every operator action. Sticky
// notifications stay on screen until dismissed.
type Notification struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Sticky   bool     `json:"sticky"`
}

// Connection test outcomes.

func TestSucceeded(deviceName, endpoint string) Notification {
	return Notification{
		Title:    "Connection Test Successful",
		Message:  fmt.Sprintf("Successfully connected to OPC UA device %s at %s", deviceName, endpoint),
		Severity: SeveritySuccess,
	}
}

func TestFailed(gatewayError string) Notification {
	return Notification{
		Title:    "Connection Test Failed",
		Message:  "Connection test failed: " + gatewayError,
		Severity: SeverityDanger,
		Sticky:   true,
	}
}

func GatewayUnreachable(gatewayURL string) Notification {
	return Notification{
		Title:    "Connection Error",
		Message:  fmt.Sprintf("Could not connect to OPC UA gateway at %s. Please ensure the gateway is running and accessible.", gatewayURL),
		Severity: SeverityDanger,
		Sticky:   true,
	}
}

// Fetch outcomes.

func FetchSucceeded(summary []string) Notification {
	return Notification{
		Title:    "OPC UA Data",
		Message:  "Data fetched successfully:\n" + strings.Join(summary, "\n"),
		Severity: SeveritySuccess,
	}
}

func FetchNoData() Notification {
	return Notification{
		Title:    "OPC UA Data",
		Message:  "No data received from device",
		Severity: SeverityWarning,
	}
}

func FetchFailed(gatewayError string) Notification {
	return Notification{
		Title:    "OPC UA Data",
		Message:  "Error: " + gatewayError,
		Severity: SeverityDanger,
		Sticky:   true,
	}
}

// Polling lifecycle outcomes.

func PollingStarted(intervalMs int) Notification {
	return Notification{
		Title:    "Polling Started",
		Message:  fmt.Sprintf("Auto fetch started every %d ms.", intervalMs),
		Severity: SeveritySuccess,
	}
}

func PollingAlreadyRunning() Notification {
	return Notification{
		Title:    "Polling Already Running",
		Message:  "Auto fetch is already running for this device.",
		Severity: SeverityWarning,
	}
}

func PollingStopped() Notification {
	return Notification{
		Title:    "Polling Stopped",
		Message:  "Auto fetch stopped.",
		Severity: SeverityWarning,
	}
}

func PollingNotRunning() Notification {
	return Notification{
		Title:    "Polling Not Running",
		Message:  "No polling loop was running for this device.",
		Severity: SeverityInfo,
	}
}

// History outcomes.

func HistoryCleared() Notification {
	return Notification{
		Title:    "Historical Data",
		Message:  "All historical data has been cleared",
		Severity: SeveritySuccess,
	}
}
