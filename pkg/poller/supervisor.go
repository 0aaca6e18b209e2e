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

// Package poller supervises the periodic sampling loops, one goroutine per
// device. A loop's lifetime is governed by the device's persisted polling
// flag: StartPolling sets it and launches the loop, StopPolling clears it and
// the loop observes the cleared flag on its next tick and exits.
package poller

import (
	"context"
	"time"

	"github.com/chimera137/opcua-connector/pkg/models"
)

const clearFlagTimeout = 5 * time.Second

// StartPolling launches the polling loop for a device. It returns true if a
// new loop was started and false if one is already running with its polling
// flag set; a loop whose stop is still pending gets superseded by a fresh
// one. The device's polling flag and status are persisted before the loop
// starts so that a restart of the service resumes it.
func (s *Supervisor) StartPolling(ctx context.Context, deviceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrSupervisorClosed
	}

	device, err := s.store.GetDevice(ctx, deviceID)
	if err != nil {
		return false, err
	}

	if r, running := s.runs[deviceID]; running {
		if device.IsPolling {
			return false, nil
		}

		// A stop is pending: the flag is already cleared but the old loop
		// has not observed it yet. Supersede it rather than reporting the
		// device running, otherwise this restart would be silently lost
		// once the old loop exits.
		r.cancel()
		delete(s.runs, deviceID)
	}

	// A persisted flag with no live loop is stale state from an unclean
	// shutdown. Treat the device as not polling and start fresh.
	if err := s.store.SetDevicePolling(ctx, deviceID, true, models.StatusPolling); err != nil {
		return false, err
	}

	s.launch(device)

	return true, nil
}

// StopPolling clears the device's polling flag. The loop itself exits
// cooperatively on its next tick. Returns true if the device was polling.
func (s *Supervisor) StopPolling(ctx context.Context, deviceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, err := s.store.GetDevice(ctx, deviceID)
	if err != nil {
		return false, err
	}

	_, running := s.runs[deviceID]
	if !running && !device.IsPolling {
		return false, nil
	}

	if err := s.store.SetDevicePolling(ctx, deviceID, false, models.StatusConnected); err != nil {
		return false, err
	}

	return true, nil
}

// IsRunning reports whether a live loop exists for the device.
func (s *Supervisor) IsRunning(deviceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, running := s.runs[deviceID]

	return running
}

// Resume relaunches loops for every device whose polling flag survived a
// restart. Called once during startup.
func (s *Supervisor) Resume(ctx context.Context) error {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSupervisorClosed
	}

	for _, device := range devices {
		if !device.IsPolling {
			continue
		}

		if _, running := s.runs[device.ID]; running {
			continue
		}

		s.logger.Info().
			Str("device_id", device.ID).
			Str("device_name", device.Name).
			Msg("Resuming polling after restart")

		s.launch(device)
	}

	return nil
}

// Shutdown stops all loops and waits for them to exit. Polling flags are left
// set so that loops resume on the next start.
func (s *Supervisor) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.baseCancel()
	s.wg.Wait()
}

// launch starts the loop goroutine. Caller must hold s.mu.
func (s *Supervisor) launch(device *models.Device) {
	ctx, cancel := context.WithCancel(s.baseCtx)
	r := &run{cancel: cancel}
	s.runs[device.ID] = r

	s.wg.Add(1)

	go s.pollLoop(ctx, device, r)
}

// unregister removes a loop's registry entry. The entry is only deleted if
// it still belongs to r: a superseded loop must not evict its replacement.
func (s *Supervisor) unregister(deviceID string, r *run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.cancel()

	if cur, ok := s.runs[deviceID]; ok && cur == r {
		delete(s.runs, deviceID)
	}
}

func (s *Supervisor) pollLoop(ctx context.Context, device *models.Device, r *run) {
	defer s.wg.Done()
	defer s.unregister(device.ID, r)
	defer s.containCrash(device.ID)

	interval := device.PollInterval()
	ticker := s.clock.Ticker(interval)

	defer ticker.Stop()

	s.logger.Info().
		Str("device_id", device.ID).
		Str("device_name", device.Name).
		Dur("interval", interval).
		Msg("Polling loop started")

	for {
		// Re-read the device each cycle. The persisted flag is the
		// authoritative stop signal; a cleared flag ends the loop even if
		// it was cleared by another process.
		current, err := s.store.GetDevice(ctx, device.ID)
		if err != nil {
			// A canceled context means shutdown or supersession, not a
			// store failure. Exit without touching the polling flag.
			if ctx.Err() != nil {
				s.logger.Info().
					Str("device_id", device.ID).
					Msg("Polling loop canceled, exiting")

				return
			}

			s.failLoop(device.ID, err)

			return
		}

		if !current.IsPolling {
			s.logger.Info().
				Str("device_id", device.ID).
				Msg("Polling flag cleared, loop exiting")

			return
		}

		if err := s.cycle(ctx, current); err != nil {
			if ctx.Err() != nil {
				s.logger.Info().
					Str("device_id", device.ID).
					Msg("Polling loop canceled, exiting")

				return
			}

			s.failLoop(device.ID, err)

			return
		}

		select {
		case <-ctx.Done():
			s.logger.Info().
				Str("device_id", device.ID).
				Msg("Polling loop canceled, exiting")

			return
		case <-ticker.Chan():
		}
	}
}

// failLoop records an unrecoverable loop failure. Uses a background context
// because the loop context may already be canceled.
func (s *Supervisor) failLoop(deviceID string, loopErr error) {
	s.logger.Error().
		Err(loopErr).
		Str("device_id", deviceID).
		Msg("Polling loop failed")

	ctx, cancel := context.WithTimeout(context.Background(), clearFlagTimeout)
	defer cancel()

	if err := s.store.SetDevicePolling(ctx, deviceID, false, models.StatusError); err != nil {
		s.logger.Error().
			Err(err).
			Str("device_id", deviceID).
			Msg("Failed to clear polling flag after loop failure")
	}
}

// containCrash keeps a panicking loop from taking down the process. The
// device is marked stopped and errored; other loops are unaffected.
func (s *Supervisor) containCrash(deviceID string) {
	if r := recover(); r != nil {
		s.logger.Error().
			Str("device_id", deviceID).
			Interface("panic", r).
			Msg("Polling loop panicked")

		ctx, cancel := context.WithTimeout(context.Background(), clearFlagTimeout)
		defer cancel()

		if err := s.store.SetDevicePolling(ctx, deviceID, false, models.StatusError); err != nil {
			s.logger.Error().
				Err(err).
				Str("device_id", deviceID).
				Msg("Failed to clear polling flag after panic")
		}
	}
}
