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
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (

	// Core database errors.

	ErrFailedToQuery  = errors.New("failed to query")
	ErrFailedToInsert = errors.New("failed to insert")
	ErrFailedToInit   = errors.New("failed to initialize schema")

	// Lookup errors.

	ErrDeviceNotFound = errors.New("device not found")
	ErrNodeNotFound   = errors.New("node not found")

	// Store-enforced uniqueness.

	ErrDuplicateNode   = errors.New("node id must be unique per device")
	ErrDuplicateRecord = errors.New("historical record already exists for this timestamp")

	// Validation errors rejected at write time.

	ErrDeviceNameRequired   = errors.New("device name is required")
	ErrDeviceEndpointNeeded = errors.New("device endpoint is required")
	ErrNodeIDRequired       = errors.New("node id is required")
	ErrInvalidDataType      = errors.New("unknown node data type")
	ErrInvalidRange         = errors.New("minimum value must be less than maximum value")
	ErrInvalidThresholds    = errors.New("warning threshold must be less than critical threshold")
	ErrInvalidInterval      = errors.New("polling interval must be at least 1 ms")
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique constraint
// violation, optionally for a specific constraint name.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	if pgErr.Code != pgUniqueViolation {
		return false
	}

	return constraint == "" || pgErr.ConstraintName == constraint
}

// IsDuplicate reports whether err comes from violating one of the store's
// uniqueness constraints.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateNode) || errors.Is(err, ErrDuplicateRecord)
}

// IsValidationError reports whether err is a write-time validation failure
// caused by bad caller input rather than a store fault.
func IsValidationError(err error) bool {
	for _, validation := range []error{
		ErrDeviceNameRequired,
		ErrDeviceEndpointNeeded,
		ErrNodeIDRequired,
		ErrInvalidDataType,
		ErrInvalidRange,
		ErrInvalidThresholds,
		ErrInvalidInterval,
	} {
		if errors.Is(err, validation) {
			return true
		}
	}

	return false
}
