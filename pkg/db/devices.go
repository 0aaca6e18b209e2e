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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chimera137/opcua-connector/pkg/models"
)

const (
	insertDeviceSQL = `
INSERT INTO devices (
	id, name, endpoint, gateway_url, active, connection_status,
	is_polling, polling_interval_ms, last_error, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	selectDeviceSQL = `
SELECT id, name, endpoint, gateway_url, active, connection_status,
	is_polling, polling_interval_ms, last_error, created_at, updated_at
FROM devices`
)

func validateDevice(device *models.Device) error {
	if device.Name == "" {
		return ErrDeviceNameRequired
	}

	if device.Endpoint == "" {
		return ErrDeviceEndpointNeeded
	}

	if device.PollingIntervalMs < 1 {
		return ErrInvalidInterval
	}

	return nil
}

// CreateDevice stores a new device. Defaults mirror device creation in the
// operator UI: disconnected, not polling, active.
func (db *DB) CreateDevice(ctx context.Context, device *models.Device) error {
	if device.PollingIntervalMs == 0 {
		device.PollingIntervalMs = 1000
	}

	if err := validateDevice(device); err != nil {
		return err
	}

	if device.ID == "" {
		device.ID = uuid.New().String()
	}

	if device.ConnectionStatus == "" {
		device.ConnectionStatus = models.StatusDisconnected
	}

	now := time.Now()
	device.Active = true
	device.CreatedAt = now
	device.UpdatedAt = now

	_, err := db.Pool.Exec(ctx, insertDeviceSQL,
		device.ID,
		device.Name,
		device.Endpoint,
		device.GatewayURL,
		device.Active,
		device.ConnectionStatus,
		device.IsPolling,
		device.PollingIntervalMs,
		device.LastError,
		device.CreatedAt,
		device.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: device: %w", ErrFailedToInsert, err)
	}

	return nil
}

func scanDevice(row pgx.Row) (*models.Device, error) {
	var d models.Device

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Endpoint,
		&d.GatewayURL,
		&d.Active,
		&d.ConnectionStatus,
		&d.IsPolling,
		&d.PollingIntervalMs,
		&d.LastError,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &d, nil
}

// GetDevice reads one device row; this is the authoritative source for the
// polling flag re-checked by every loop iteration.
func (db *DB) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	row := db.Pool.QueryRow(ctx, selectDeviceSQL+` WHERE id = $1`, id)

	device, err := scanDevice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}

		return nil, fmt.Errorf("%w: device: %w", ErrFailedToQuery, err)
	}

	return device, nil
}

// ListDevices returns all active devices ordered by name.
func (db *DB) ListDevices(ctx context.Context) ([]*models.Device, error) {
	rows, err := db.Pool.Query(ctx, selectDeviceSQL+` WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: devices: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var devices []*models.Device

	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: devices: %w", ErrFailedToQuery, err)
		}

		devices = append(devices, device)
	}

	return devices, rows.Err()
}

// UpdateDeviceStatus writes the connection status and last error text.
func (db *DB) UpdateDeviceStatus(ctx context.Context, id string, status models.ConnectionStatus, lastError string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE devices SET connection_status = $2, last_error = $3, updated_at = now() WHERE id = $1`,
		id, status, lastError)
	if err != nil {
		return fmt.Errorf("%w: device status: %w", ErrFailedToQuery, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// SetDevicePolling atomically writes the polling flag together with the
// status it implies. Stop durability depends on this being its own statement.
func (db *DB) SetDevicePolling(ctx context.Context, id string, polling bool, status models.ConnectionStatus) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE devices SET is_polling = $2, connection_status = $3, updated_at = now() WHERE id = $1`,
		id, polling, status)
	if err != nil {
		return fmt.Errorf("%w: polling flag: %w", ErrFailedToQuery, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// SetDeviceActive soft-deactivates (or restores) a device without touching
// the historical data that references it.
func (db *DB) SetDeviceActive(ctx context.Context, id string, active bool) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE devices SET active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("%w: device active: %w", ErrFailedToQuery, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// DeleteDevice removes a device; nodes and history go with it via cascade.
func (db *DB) DeleteDevice(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete device: %w", ErrFailedToQuery, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}

	return nil
}
