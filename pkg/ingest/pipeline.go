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

// Package ingest turns a fetched value batch into updated node state,
// threshold-derived alarm state and deduplicated historical records.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chimera137/opcua-connector/pkg/alarm"
	"github.com/chimera137/opcua-connector/pkg/db"
	"github.com/chimera137/opcua-connector/pkg/gateway"
	"github.com/chimera137/opcua-connector/pkg/logger"
	"github.com/chimera137/opcua-connector/pkg/models"
)

// Outcome classifies one applied batch.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeNoData  Outcome = "no-data"
	OutcomeError   Outcome = "error"
)

// Result summarizes one applied batch for the notifier.
type Result struct {
	Outcome Outcome
	Status  models.ConnectionStatus
	Summary []string // "name: value" per ingested node
	Err     string   // gateway-reported or transport error text
}

// Pipeline applies fetch results to the store and the external hook.
type Pipeline struct {
	store  db.Service
	hook   Hook
	logger logger.Logger
	now    func() time.Time
}

func NewPipeline(store db.Service, hook Hook, log logger.Logger) *Pipeline {
	if hook == nil {
		hook = NopHook{}
	}

	return &Pipeline{
		store:  store,
		hook:   hook,
		logger: log,
		now:    time.Now,
	}
}

// ApplyTransportFailure records a gateway that could not be reached at all:
// device goes to error with the failure text, nothing is ingested.
func (p *Pipeline) ApplyTransportFailure(ctx context.Context, device *models.Device, transportErr error) (*Result, error) {
	msg := transportErr.Error()

	if err := p.store.UpdateDeviceStatus(ctx, device.ID, models.StatusError, msg); err != nil {
		return nil, err
	}

	return &Result{Outcome: OutcomeError, Status: models.StatusError, Err: msg}, nil
}

// Apply ingests one well-formed fetch response. The device's own node list
// decides what is ingestible; values for unknown node ids are discarded.
// A failure writing a single node is contained to that node, a store failure
// updating the device itself is returned to the caller.
func (p *Pipeline) Apply(ctx context.Context, device *models.Device, resp *gateway.DataResponse) (*Result, error) {
	now := p.now()

	nodes, err := p.store.ListNodes(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	summary := make([]string, 0, len(resp.Values))

	for _, node := range nodes {
		raw, ok := resp.Values[node.NodeID]
		if !ok {
			continue
		}

		if raw == nil {
			// Gateway read the batch but this node came back with a bad
			// OPC UA status code.
			p.recordNodeError(ctx, device.ID, node.NodeID, resp.Errors[node.NodeID])
			continue
		}

		value, err := models.ConvertValue(raw, node.DataType)
		if err != nil {
			p.logger.Warn().
				Err(err).
				Str("device_id", device.ID).
				Str("node_id", node.NodeID).
				Msg("Discarding value that does not match node data type")
			p.recordNodeError(ctx, device.ID, node.NodeID, err.Error())

			continue
		}

		floatValue := value.AsFloat()
		state := alarm.EvaluateNode(node, floatValue)

		if err := p.store.UpdateNodeValue(ctx, device.ID, node.NodeID, floatValue, state, now); err != nil {
			return nil, err
		}

		if err := p.hook.Publish(ctx, device.ID, node.NodeID, value); err != nil {
			p.logger.Error().
				Err(err).
				Str("device_id", device.ID).
				Str("node_id", node.NodeID).
				Msg("Business-rule hook failed; continuing batch")
		}

		if err := p.appendHistory(ctx, device.ID, node.NodeID, now, floatValue, resp.Error); err != nil {
			return nil, err
		}

		summary = append(summary, fmt.Sprintf("%s: %s", node.Name, value.String()))
	}

	status := StatusAfterFetch(resp)

	if err := p.store.UpdateDeviceStatus(ctx, device.ID, status, resp.Error); err != nil {
		return nil, err
	}

	return &Result{
		Outcome: classify(resp),
		Status:  status,
		Summary: summary,
		Err:     resp.Error,
	}, nil
}

// appendHistory inserts the record, swallowing duplicate-timestamp
// conflicts: a poll tick and a manual fetch racing on the same clock reading
// is benign double-sampling, not corruption.
func (p *Pipeline) appendHistory(ctx context.Context, deviceID, nodeID string, ts time.Time, value float64, gatewayErr string) error {
	rec := &models.HistoricalRecord{
		DeviceID:  deviceID,
		NodeID:    nodeID,
		Timestamp: ts,
		Value:     value,
		Error:     gatewayErr,
	}

	err := p.store.InsertHistoricalRecord(ctx, rec)
	if err == nil {
		return nil
	}

	if errors.Is(err, db.ErrDuplicateRecord) {
		p.logger.Debug().
			Str("device_id", deviceID).
			Str("node_id", nodeID).
			Time("timestamp", ts).
			Msg("Dropped duplicate historical record")

		return nil
	}

	return err
}

func (p *Pipeline) recordNodeError(ctx context.Context, deviceID, nodeID, message string) {
	if message == "" {
		message = "node read failed"
	}

	if err := p.store.SetNodeError(ctx, deviceID, nodeID, message); err != nil {
		p.logger.Warn().
			Err(err).
			Str("device_id", deviceID).
			Str("node_id", nodeID).
			Msg("Failed to record node error")
	}
}

func classify(resp *gateway.DataResponse) Outcome {
	if resp.Error != "" {
		return OutcomeError
	}

	if len(resp.Values) == 0 {
		return OutcomeNoData
	}

	return OutcomeSuccess
}
