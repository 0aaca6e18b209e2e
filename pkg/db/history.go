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

	"github.com/chimera137/opcua-connector/pkg/models"
)

const defaultHistoryLimit = 500

// InsertHistoricalRecord appends one immutable sample. A second insert for
// the same (device, node, timestamp) returns ErrDuplicateRecord; the caller
// decides whether that is benign.
func (db *DB) InsertHistoricalRecord(ctx context.Context, rec *models.HistoricalRecord) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO history (device_id, node_id, timestamp, value, error)
		 VALUES ($1,$2,$3,$4,$5)`,
		rec.DeviceID, rec.NodeID, rec.Timestamp, rec.Value, rec.Error)
	if err != nil {
		if isUniqueViolation(err, "history_device_node_ts_uniq") {
			return fmt.Errorf("%w: %s @ %s", ErrDuplicateRecord, rec.NodeID, rec.Timestamp)
		}

		return fmt.Errorf("%w: history: %w", ErrFailedToInsert, err)
	}

	return nil
}

// ListHistory returns the most recent records for a device, newest first.
func (db *DB) ListHistory(ctx context.Context, deviceID string, limit int) ([]*models.HistoricalRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT device_id, node_id, timestamp, value, error
		 FROM history WHERE device_id = $1
		 ORDER BY timestamp DESC LIMIT $2`,
		deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: history: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var records []*models.HistoricalRecord

	for rows.Next() {
		var rec models.HistoricalRecord

		if err := rows.Scan(&rec.DeviceID, &rec.NodeID, &rec.Timestamp, &rec.Value, &rec.Error); err != nil {
			return nil, fmt.Errorf("%w: history: %w", ErrFailedToQuery, err)
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}

// ClearHistory bulk-deletes all historical data for one device and reports
// how many records went away.
func (db *DB) ClearHistory(ctx context.Context, deviceID string) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM history WHERE device_id = $1`, deviceID)
	if err != nil {
		return 0, fmt.Errorf("%w: clear history: %w", ErrFailedToQuery, err)
	}

	return tag.RowsAffected(), nil
}
