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

package core

import (
	"errors"

	"github.com/chimera137/opcua-connector/pkg/logger"
	"github.com/chimera137/opcua-connector/pkg/models"
)

var (
	errListenAddrRequired = errors.New("listen_addr is required")
	errDatabaseRequired   = errors.New("database host and name are required")
)

// Config holds the connector service configuration.
type Config struct {
	ListenAddr        string            `json:"listen_addr"`
	APIKey            string            `json:"api_key,omitempty"`
	CORS              models.CORSConfig `json:"cors,omitempty"`
	GatewayTimeout    models.Duration   `json:"gateway_timeout,omitempty"`
	Database          models.Database   `json:"database"`
	NATSURL           string            `json:"nats_url,omitempty"`
	NATSSubjectPrefix string            `json:"nats_subject_prefix,omitempty"`
	Logging           *logger.Config    `json:"logging,omitempty"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errListenAddrRequired
	}

	if c.Database.Host == "" || c.Database.Database == "" {
		return errDatabaseRequired
	}

	return nil
}
