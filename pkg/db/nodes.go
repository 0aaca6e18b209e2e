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
	insertNodeSQL = `
INSERT INTO nodes (
	id, device_id, node_id, name, description, active, data_type, unit,
	current_value, min_value, max_value, warning_threshold, critical_threshold,
	alarm_state, last_update, last_error
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

	selectNodeSQL = `
SELECT id, device_id, node_id, name, description, active, data_type, unit,
	current_value, min_value, max_value, warning_threshold, critical_threshold,
	alarm_state, last_update, last_error
FROM nodes`
)

// validateNode enforces the write-time invariants the store promises:
// min < max and warning < critical whenever both ends are set.
func validateNode(node *models.Node) error {
	if node.NodeID == "" {
		return ErrNodeIDRequired
	}

	if !node.DataType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDataType, node.DataType)
	}

	if node.MinValue != nil && node.MaxValue != nil && *node.MinValue >= *node.MaxValue {
		return ErrInvalidRange
	}

	if node.WarningThreshold != nil && node.CriticalThreshold != nil &&
		*node.WarningThreshold >= *node.CriticalThreshold {
		return ErrInvalidThresholds
	}

	return nil
}

// CreateNode stores a new node under its device. Duplicate (device, node_id)
// pairs are rejected by the store's uniqueness constraint.
func (db *DB) CreateNode(ctx context.Context, node *models.Node) error {
	if node.DataType == "" {
		node.DataType = models.TypeFloat
	}

	if err := validateNode(node); err != nil {
		return err
	}

	if node.ID == "" {
		node.ID = uuid.New().String()
	}

	if node.AlarmState == "" {
		node.AlarmState = models.AlarmNormal
	}

	node.Active = true

	_, err := db.Pool.Exec(ctx, insertNodeSQL,
		node.ID,
		node.DeviceID,
		node.NodeID,
		node.Name,
		node.Description,
		node.Active,
		node.DataType,
		node.Unit,
		node.CurrentValue,
		node.MinValue,
		node.MaxValue,
		node.WarningThreshold,
		node.CriticalThreshold,
		node.AlarmState,
		node.LastUpdate,
		node.LastError,
	)
	if err != nil {
		if isUniqueViolation(err, "nodes_device_node_uniq") {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, node.NodeID)
		}

		return fmt.Errorf("%w: node: %w", ErrFailedToInsert, err)
	}

	return nil
}

func scanNode(row pgx.Row) (*models.Node, error) {
	var n models.Node

	err := row.Scan(
		&n.ID,
		&n.DeviceID,
		&n.NodeID,
		&n.Name,
		&n.Description,
		&n.Active,
		&n.DataType,
		&n.Unit,
		&n.CurrentValue,
		&n.MinValue,
		&n.MaxValue,
		&n.WarningThreshold,
		&n.CriticalThreshold,
		&n.AlarmState,
		&n.LastUpdate,
		&n.LastError,
	)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

// GetNode resolves a node by its OPC UA node id within a device.
func (db *DB) GetNode(ctx context.Context, deviceID, nodeID string) (*models.Node, error) {
	row := db.Pool.QueryRow(ctx,
		selectNodeSQL+` WHERE device_id = $1 AND node_id = $2`, deviceID, nodeID)

	node, err := scanNode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNodeNotFound
		}

		return nil, fmt.Errorf("%w: node: %w", ErrFailedToQuery, err)
	}

	return node, nil
}

// ListNodes returns the device's nodes ordered by name. This list is the
// source of truth for what the ingestion pipeline accepts.
func (db *DB) ListNodes(ctx context.Context, deviceID string) ([]*models.Node, error) {
	rows, err := db.Pool.Query(ctx,
		selectNodeSQL+` WHERE device_id = $1 AND active ORDER BY name`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: nodes: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var nodes []*models.Node

	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: nodes: %w", ErrFailedToQuery, err)
		}

		nodes = append(nodes, node)
	}

	return nodes, rows.Err()
}

// UpdateNodeValue writes a freshly ingested value, its derived alarm state
// and the update timestamp, clearing any stale node error.
func (db *DB) UpdateNodeValue(ctx context.Context, deviceID, nodeID string,
	value float64, alarm models.AlarmState, ts time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE nodes SET current_value = $3, alarm_state = $4, last_update = $5, last_error = ''
		 WHERE device_id = $1 AND node_id = $2`,
		deviceID, nodeID, value, alarm, ts)
	if err != nil {
		return fmt.Errorf("%w: node value: %w", ErrFailedToQuery, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNodeNotFound
	}

	return nil
}

// SetNodeError records a per-node failure (bad status code from the gateway,
// value conversion failure) without touching the current value.
func (db *DB) SetNodeError(ctx context.Context, deviceID, nodeID, message string) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE nodes SET last_error = $3 WHERE device_id = $1 AND node_id = $2`,
		deviceID, nodeID, message)
	if err != nil {
		return fmt.Errorf("%w: node error: %w", ErrFailedToQuery, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNodeNotFound
	}

	return nil
}
