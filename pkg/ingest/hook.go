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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/chimera137/opcua-connector/pkg/logger"
	"github.com/chimera137/opcua-connector/pkg/models"
)

// Hook is the external business-rule consumer invoked once per ingested
// value. Failures are the hook's own problem: the pipeline logs them and
// keeps going.
type Hook interface {
	Publish(ctx context.Context, deviceID, nodeID string, value models.Value) error
}

// NopHook is used when no hook is configured.
type NopHook struct{}

func (NopHook) Publish(context.Context, string, string, models.Value) error { return nil }

// SampleEvent is the JSON payload published per ingested value.
type SampleEvent struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	NodeID    string    `json:"node_id"`
	DataType  string    `json:"data_type"`
	Value     string    `json:"value"`
	Float     float64   `json:"float_value"`
	Timestamp time.Time `json:"timestamp"`
}

// NATSHook publishes each sample to connector.samples.<deviceID>.
type NATSHook struct {
	conn   *nats.Conn
	prefix string
	logger logger.Logger
}

// NewNATSHook connects to the configured NATS server.
func NewNATSHook(url, subjectPrefix string, log logger.Logger) (*NATSHook, error) {
	if subjectPrefix == "" {
		subjectPrefix = "connector.samples"
	}

	conn, err := nats.Connect(url,
		nats.Name("opcua-connector"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info().Str("url", url).Str("subject_prefix", subjectPrefix).Msg("Connected to NATS for sample events")

	return &NATSHook{conn: conn, prefix: subjectPrefix, logger: log}, nil
}

func (h *NATSHook) Publish(_ context.Context, deviceID, nodeID string, value models.Value) error {
	event := SampleEvent{
		ID:        uuid.New().String(),
		DeviceID:  deviceID,
		NodeID:    nodeID,
		DataType:  string(value.Type),
		Value:     value.String(),
		Float:     value.AsFloat(),
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sample event: %w", err)
	}

	subject := h.prefix + "." + deviceID
	if err := h.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish sample event: %w", err)
	}

	return nil
}

// Close drains the connection so queued events still go out on shutdown.
func (h *NATSHook) Close() {
	if err := h.conn.Drain(); err != nil {
		h.logger.Warn().Err(err).Msg("Error draining NATS connection")
	}
}
