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

// Package core implements the connector's operator-facing operations:
// connection tests, manual and periodic sampling, polling lifecycle, and
// history access. Every operator action returns a notification describing
// the outcome.
package core

import (
	"context"

	"github.com/chimera137/opcua-connector/pkg/db"
	"github.com/chimera137/opcua-connector/pkg/gateway"
	"github.com/chimera137/opcua-connector/pkg/ingest"
	"github.com/chimera137/opcua-connector/pkg/logger"
	"github.com/chimera137/opcua-connector/pkg/models"
	"github.com/chimera137/opcua-connector/pkg/notify"
	"github.com/chimera137/opcua-connector/pkg/poller"
)

// Gateway abstracts the HTTP gateway client.
type Gateway interface {
	Test(ctx context.Context, gatewayURL, endpoint string) (*gateway.TestResponse, error)
	Fetch(ctx context.Context, gatewayURL, endpoint string, nodeIDs []string) (*gateway.DataResponse, error)
}

// Service wires the gateway client, ingestion pipeline and polling
// supervisor behind the operator API.
type Service struct {
	store      db.Service
	gateway    Gateway
	pipeline   *ingest.Pipeline
	supervisor *poller.Supervisor
	logger     logger.Logger
}

// NewService creates the connector service. The polling supervisor uses the
// service's own fetch cycle for its loops.
func NewService(store db.Service, gw Gateway, pipeline *ingest.Pipeline, clock poller.Clock, log logger.Logger) *Service {
	s := &Service{
		store:    store,
		gateway:  gw,
		pipeline: pipeline,
		logger:   log,
	}

	s.supervisor = poller.NewSupervisor(store, s.fetchCycle, clock, log)

	return s
}

// Resume relaunches polling loops that were running before a restart.
func (s *Service) Resume(ctx context.Context) error {
	return s.supervisor.Resume(ctx)
}

// Stop shuts down the polling supervisor. Implements lifecycle.Service.
func (s *Service) Stop(_ context.Context) error {
	s.supervisor.Shutdown()
	return nil
}

// TestConnection asks the gateway to connect to the device's endpoint and
// records the resulting connection status.
func (s *Service) TestConnection(ctx context.Context, deviceID string) (notify.Notification, error) {
	device, err := s.store.GetDevice(ctx, deviceID)
	if err != nil {
		return notify.Notification{}, err
	}

	resp, err := s.gateway.Test(ctx, device.GatewayURL, device.Endpoint)
	if err != nil {
		if updateErr := s.store.UpdateDeviceStatus(ctx, deviceID, models.StatusError, err.Error()); updateErr != nil {
			return notify.Notification{}, updateErr
		}

		return notify.GatewayUnreachable(device.GatewayURL), nil
	}

	status := ingest.StatusAfterTest(resp, device.IsPolling)
	if err := s.store.UpdateDeviceStatus(ctx, deviceID, status, resp.Error); err != nil {
		return notify.Notification{}, err
	}

	if resp.Error != "" || status == models.StatusError {
		return notify.TestFailed(resp.Error), nil
	}

	return notify.TestSucceeded(device.Name, device.Endpoint), nil
}

// FetchOnce performs a single sampling cycle for the device and reports the
// outcome.
func (s *Service) FetchOnce(ctx context.Context, deviceID string) (notify.Notification, error) {
	device, err := s.store.GetDevice(ctx, deviceID)
	if err != nil {
		return notify.Notification{}, err
	}

	nodeIDs, err := s.nodeIDs(ctx, device.ID)
	if err != nil {
		return notify.Notification{}, err
	}

	resp, err := s.gateway.Fetch(ctx, device.GatewayURL, device.Endpoint, nodeIDs)
	if err != nil {
		if _, applyErr := s.pipeline.ApplyTransportFailure(ctx, device, err); applyErr != nil {
			return notify.Notification{}, applyErr
		}

		return notify.GatewayUnreachable(device.GatewayURL), nil
	}

	result, err := s.pipeline.Apply(ctx, device, resp)
	if err != nil {
		return notify.Notification{}, err
	}

	switch result.Outcome {
	case ingest.OutcomeSuccess:
		return notify.FetchSucceeded(result.Summary), nil
	case ingest.OutcomeNoData:
		return notify.FetchNoData(), nil
	default:
		return notify.FetchFailed(result.Err), nil
	}
}

// StartPolling begins periodic sampling for the device.
func (s *Service) StartPolling(ctx context.Context, deviceID string) (notify.Notification, error) {
	device, err := s.store.GetDevice(ctx, deviceID)
	if err != nil {
		return notify.Notification{}, err
	}

	started, err := s.supervisor.StartPolling(ctx, deviceID)
	if err != nil {
		return notify.Notification{}, err
	}

	if !started {
		return notify.PollingAlreadyRunning(), nil
	}

	return notify.PollingStarted(device.PollingIntervalMs), nil
}

// StopPolling ends periodic sampling for the device.
func (s *Service) StopPolling(ctx context.Context, deviceID string) (notify.Notification, error) {
	stopped, err := s.supervisor.StopPolling(ctx, deviceID)
	if err != nil {
		return notify.Notification{}, err
	}

	if !stopped {
		return notify.PollingNotRunning(), nil
	}

	return notify.PollingStopped(), nil
}

// ViewHistory returns the device's historical records, newest first.
func (s *Service) ViewHistory(ctx context.Context, deviceID string, limit int) ([]*models.HistoricalRecord, error) {
	if _, err := s.store.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}

	return s.store.ListHistory(ctx, deviceID, limit)
}

// ClearHistory deletes the device's historical records.
func (s *Service) ClearHistory(ctx context.Context, deviceID string) (notify.Notification, error) {
	if _, err := s.store.GetDevice(ctx, deviceID); err != nil {
		return notify.Notification{}, err
	}

	deleted, err := s.store.ClearHistory(ctx, deviceID)
	if err != nil {
		return notify.Notification{}, err
	}

	s.logger.Info().
		Str("device_id", deviceID).
		Int64("deleted", deleted).
		Msg("Historical records cleared")

	return notify.HistoryCleared(), nil
}

func (s *Service) nodeIDs(ctx context.Context, deviceID string) ([]string, error) {
	nodes, err := s.store.ListNodes(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.NodeID)
	}

	return ids, nil
}

// sample runs one fetch-and-apply cycle. Gateway transport failures are
// absorbed into the device status; only store failures surface as errors.
func (s *Service) sample(ctx context.Context, device *models.Device) (*ingest.Result, error) {
	nodeIDs, err := s.nodeIDs(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.Fetch(ctx, device.GatewayURL, device.Endpoint, nodeIDs)
	if err != nil {
		return s.pipeline.ApplyTransportFailure(ctx, device, err)
	}

	return s.pipeline.Apply(ctx, device, resp)
}

// fetchCycle is the supervisor's per-tick sampling function.
func (s *Service) fetchCycle(ctx context.Context, device *models.Device) error {
	result, err := s.sample(ctx, device)
	if err != nil {
		return err
	}

	if result.Outcome == ingest.OutcomeError {
		s.logger.Warn().
			Str("device_id", device.ID).
			Str("error", result.Err).
			Msg("Polling cycle reported gateway error")
	}

	return nil
}
