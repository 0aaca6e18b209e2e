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

package poller

import (
	"context"
	"sync"

	"github.com/chimera137/opcua-connector/pkg/db"
	"github.com/chimera137/opcua-connector/pkg/logger"
	"github.com/chimera137/opcua-connector/pkg/models"
)

// CycleFunc performs one sampling cycle for a device. It is expected to
// contain gateway failures internally; a returned error indicates the cycle
// could not persist its results and the loop must give up.
type CycleFunc func(ctx context.Context, device *models.Device) error

// Supervisor owns the background polling loops, one per device. Loops are
// started and stopped idempotently; the persisted polling flag on the device
// row is the authoritative signal, the in-memory registry is a fast path.
type Supervisor struct {
	mu     sync.Mutex
	runs   map[string]*run
	wg     sync.WaitGroup
	closed bool

	baseCtx    context.Context
	baseCancel context.CancelFunc

	store  db.Service
	cycle  CycleFunc
	clock  Clock
	logger logger.Logger
}

// run tracks a single live polling loop.
type run struct {
	cancel context.CancelFunc
}

// NewSupervisor creates a polling supervisor. No loops are started until
// StartPolling or Resume is called.
func NewSupervisor(store db.Service, cycle CycleFunc, clock Clock, log logger.Logger) *Supervisor {
	if clock == nil {
		clock = realClock{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Supervisor{
		runs:       make(map[string]*run),
		baseCtx:    ctx,
		baseCancel: cancel,
		store:      store,
		cycle:      cycle,
		clock:      clock,
		logger:     log,
	}
}
