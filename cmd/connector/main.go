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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/chimera137/opcua-connector/pkg/config"
	"github.com/chimera137/opcua-connector/pkg/core"
	"github.com/chimera137/opcua-connector/pkg/db"
	"github.com/chimera137/opcua-connector/pkg/gateway"
	"github.com/chimera137/opcua-connector/pkg/ingest"
	"github.com/chimera137/opcua-connector/pkg/lifecycle"
	"github.com/chimera137/opcua-connector/pkg/logger"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/opcua-connector/connector.json", "Path to connector config file")
	flag.Parse()

	ctx := context.Background()

	cfgLoader := config.NewConfig(nil)

	var cfg core.Config

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	logConfig := cfg.Logging
	if logConfig == nil {
		logConfig = &logger.Config{
			Level:  "info",
			Output: "stdout",
		}
	}

	connectorLogger, err := lifecycle.CreateComponentLogger("connector", logConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := db.New(ctx, &cfg.Database, connectorLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	var hook ingest.Hook
	if cfg.NATSURL != "" {
		natsHook, err := ingest.NewNATSHook(cfg.NATSURL, cfg.NATSSubjectPrefix, connectorLogger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsHook.Close()

		hook = natsHook
	}

	gw := gateway.NewClient(time.Duration(cfg.GatewayTimeout), connectorLogger)
	pipeline := ingest.NewPipeline(store, hook, connectorLogger)
	service := core.NewService(store, gw, pipeline, nil, connectorLogger)

	if err := service.Resume(ctx); err != nil {
		return fmt.Errorf("failed to resume polling: %w", err)
	}

	api := core.NewAPIServer(&cfg, service, store, connectorLogger)

	return lifecycle.RunServer(ctx, cfg.ListenAddr, api, connectorLogger, service)
}
