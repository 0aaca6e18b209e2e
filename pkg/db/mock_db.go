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

package db

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/chimera137/opcua-connector/pkg/models"
)

// MockService is a testify mock of Service for use in package tests.
type MockService struct {
	mock.Mock
}

var _ Service = (*MockService)(nil)

func (m *MockService) Close() {
	m.Called()
}

func (m *MockService) CreateDevice(ctx context.Context, device *models.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockService) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *MockService) ListDevices(ctx context.Context) ([]*models.Device, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Device), args.Error(1)
}

func (m *MockService) UpdateDeviceStatus(
	ctx context.Context, id string, status models.ConnectionStatus, lastError string) error {
	args := m.Called(ctx, id, status, lastError)
	return args.Error(0)
}

func (m *MockService) SetDevicePolling(
	ctx context.Context, id string, polling bool, status models.ConnectionStatus) error {
	args := m.Called(ctx, id, polling, status)
	return args.Error(0)
}

func (m *MockService) SetDeviceActive(ctx context.Context, id string, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockService) DeleteDevice(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) CreateNode(ctx context.Context, node *models.Node) error {
	args := m.Called(ctx, node)
	return args.Error(0)
}

func (m *MockService) GetNode(ctx context.Context, deviceID, nodeID string) (*models.Node, error) {
	args := m.Called(ctx, deviceID, nodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Node), args.Error(1)
}

func (m *MockService) ListNodes(ctx context.Context, deviceID string) ([]*models.Node, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Node), args.Error(1)
}

func (m *MockService) UpdateNodeValue(ctx context.Context, deviceID, nodeID string,
	value float64, alarm models.AlarmState, ts time.Time) error {
	args := m.Called(ctx, deviceID, nodeID, value, alarm, ts)
	return args.Error(0)
}

func (m *MockService) SetNodeError(ctx context.Context, deviceID, nodeID, message string) error {
	args := m.Called(ctx, deviceID, nodeID, message)
	return args.Error(0)
}

func (m *MockService) InsertHistoricalRecord(ctx context.Context, rec *models.HistoricalRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockService) ListHistory(
	ctx context.Context, deviceID string, limit int) ([]*models.HistoricalRecord, error) {
	args := m.Called(ctx, deviceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.HistoricalRecord), args.Error(1)
}

func (m *MockService) ClearHistory(ctx context.Context, deviceID string) (int64, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(int64), args.Error(1)
}
