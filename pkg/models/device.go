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

// Package models defines the data model shared across the connector.
package models

import "time"

// ConnectionStatus tracks per-device connectivity, driven exclusively by
// gateway call outcomes.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnected    ConnectionStatus = "connected"
	StatusPolling      ConnectionStatus = "polling"
	StatusError        ConnectionStatus = "error"
)

// Valid reports whether s is one of the known connection statuses.
func (s ConnectionStatus) Valid() bool {
	switch s {
	case StatusDisconnected, StatusConnected, StatusPolling, StatusError:
		return true
	default:
		return false
	}
}

// AlarmState is the severity classification of a node's current value
// against its configured thresholds.
type AlarmState string

const (
	AlarmNormal   AlarmState = "normal"
	AlarmWarning  AlarmState = "warning"
	AlarmCritical AlarmState = "critical"
)

// Rank orders alarm states by severity for comparisons.
func (a AlarmState) Rank() int {
	switch a {
	case AlarmWarning:
		return 1
	case AlarmCritical:
		return 2
	default:
		return 0
	}
}

// Device represents one OPC UA field device reachable through the gateway.
type Device struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Endpoint          string           `json:"endpoint"`
	GatewayURL        string           `json:"gateway_url"`
	Active            bool             `json:"active"`
	ConnectionStatus  ConnectionStatus `json:"connection_status"`
	IsPolling         bool             `json:"is_polling"`
	PollingIntervalMs int              `json:"polling_interval_ms"`
	LastError         string           `json:"last_error,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// PollInterval converts the configured millisecond interval into the loop
// sleep duration. Sub-second intervals clamp to one second.
func (d *Device) PollInterval() time.Duration {
	secs := d.PollingIntervalMs / 1000
	if secs < 1 {
		secs = 1
	}

	return time.Duration(secs) * time.Second
}

// Node is a single monitored data point (tag) owned by exactly one device.
// Its connection status is derived from the owning device and never stored.
type Node struct {
	ID                string     `json:"id"`
	DeviceID          string     `json:"device_id"`
	NodeID            string     `json:"node_id"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	Active            bool       `json:"active"`
	DataType          DataType   `json:"data_type"`
	Unit              string     `json:"unit,omitempty"`
	CurrentValue      float64    `json:"current_value"`
	MinValue          *float64   `json:"min_value,omitempty"`
	MaxValue          *float64   `json:"max_value,omitempty"`
	WarningThreshold  *float64   `json:"warning_threshold,omitempty"`
	CriticalThreshold *float64   `json:"critical_threshold,omitempty"`
	AlarmState        AlarmState `json:"alarm_state"`
	LastUpdate        *time.Time `json:"last_update,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
}

// HistoricalRecord is an immutable, timestamp-keyed sample of a node's value.
// (DeviceID, NodeID, Timestamp) is unique in the store.
type HistoricalRecord struct {
	DeviceID  string    `json:"device_id"`
	NodeID    string    `json:"node_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Error     string    `json:"error,omitempty"`
}
