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

// Package db pkg/db/interfaces.go
package db

import (
	"context"
	"time"

	"github.com/chimera137/opcua-connector/pkg/models"
)

// Service represents all record store operations. Every call is a
// short-lived transactional unit; callers never hold a transaction open
// across a poll cycle.
type Service interface {
	Close()

	// Device operations.

	CreateDevice(ctx context.Context, device *models.Device) error
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	ListDevices(ctx context.Context) ([]*models.Device, error)
	UpdateDeviceStatus(ctx context.Context, id string, status models.ConnectionStatus, lastError string) error
	SetDevicePolling(ctx context.Context, id string, polling bool, status models.ConnectionStatus) error
	SetDeviceActive(ctx context.Context, id string, active bool) error
	DeleteDevice(ctx context.Context, id string) error

	// Node operations.

	CreateNode(ctx context.Context, node *models.Node) error
	GetNode(ctx context.Context, deviceID, nodeID string) (*models.Node, error)
	ListNodes(ctx context.Context, deviceID string) ([]*models.Node, error)
	UpdateNodeValue(ctx context.Context, deviceID, nodeID string,
		value float64, alarm models.AlarmState, ts time.Time) error
	SetNodeError(ctx context.Context, deviceID, nodeID, message string) error

	// Historical record operations.

	InsertHistoricalRecord(ctx context.Context, rec *models.HistoricalRecord) error
	ListHistory(ctx context.Context, deviceID string, limit int) ([]*models.HistoricalRecord, error)
	ClearHistory(ctx context.Context, deviceID string) (int64, error)
}
