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
	"fmt"
)

// Schema notes: node identity is (device_id, node_id); history is keyed by
// (device_id, node_id, timestamp) so at most one value is recorded per node
// per timestamp. Deleting a device cascades to its nodes and history.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		gateway_url TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		connection_status TEXT NOT NULL DEFAULT 'disconnected',
		is_polling BOOLEAN NOT NULL DEFAULT FALSE,
		polling_interval_ms INTEGER NOT NULL DEFAULT 1000
			CONSTRAINT devices_interval_min CHECK (polling_interval_ms >= 1),
		last_error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS nodes (
		id UUID PRIMARY KEY,
		device_id UUID NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		node_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		data_type TEXT NOT NULL DEFAULT 'float',
		unit TEXT NOT NULL DEFAULT '',
		current_value DOUBLE PRECISION NOT NULL DEFAULT 0,
		min_value DOUBLE PRECISION,
		max_value DOUBLE PRECISION,
		warning_threshold DOUBLE PRECISION,
		critical_threshold DOUBLE PRECISION,
		alarm_state TEXT NOT NULL DEFAULT 'normal',
		last_update TIMESTAMPTZ,
		last_error TEXT NOT NULL DEFAULT '',
		CONSTRAINT nodes_device_node_uniq UNIQUE (device_id, node_id),
		CONSTRAINT nodes_value_range CHECK (
			min_value IS NULL OR max_value IS NULL OR min_value < max_value),
		CONSTRAINT nodes_thresholds CHECK (
			warning_threshold IS NULL OR critical_threshold IS NULL
			OR warning_threshold < critical_threshold)
	)`,

	`CREATE TABLE IF NOT EXISTS history (
		device_id UUID NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		node_id TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		CONSTRAINT history_device_node_ts_uniq PRIMARY KEY (device_id, node_id, timestamp)
	)`,

	`CREATE INDEX IF NOT EXISTS history_device_ts_idx
		ON history (device_id, timestamp DESC)`,
}

// Migrate applies the schema. Statements are idempotent so startup is safe
// against an already-initialized database.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: statement %d: %w", ErrFailedToInit, i, err)
		}
	}

	db.logger.Info().Int("statements", len(migrations)).Msg("schema migration complete")

	return nil
}
