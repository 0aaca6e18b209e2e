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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/chimera137/opcua-connector/pkg/db"
	httpx "github.com/chimera137/opcua-connector/pkg/http"
	"github.com/chimera137/opcua-connector/pkg/logger"
	"github.com/chimera137/opcua-connector/pkg/models"
)

// APIServer exposes the connector's operator surface over HTTP.
type APIServer struct {
	router  *mux.Router
	service *Service
	store   db.Service
	logger  logger.Logger
}

// NewAPIServer builds the router with CORS and API key middleware applied.
func NewAPIServer(cfg *Config, service *Service, store db.Service, log logger.Logger) *APIServer {
	s := &APIServer{
		router:  mux.NewRouter(),
		service: service,
		store:   store,
		logger:  log,
	}

	s.setupRoutes(cfg)

	return s
}

func (s *APIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *APIServer) setupRoutes(cfg *Config) {
	s.router.Use(func(next http.Handler) http.Handler {
		return httpx.CommonMiddleware(next, cfg.CORS, s.logger)
	})

	s.router.HandleFunc("/health", s.getHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(httpx.APIKeyMiddlewareWithOptions(httpx.APIKeyOptions{
		APIKey:          cfg.APIKey,
		LogUnauthorized: true,
		Logger:          s.logger,
	}))

	api.HandleFunc("/devices", s.createDevice).Methods("POST")
	api.HandleFunc("/devices", s.listDevices).Methods("GET")
	api.HandleFunc("/devices/{id}", s.getDevice).Methods("GET")
	api.HandleFunc("/devices/{id}", s.deleteDevice).Methods("DELETE")
	api.HandleFunc("/devices/{id}/active", s.setDeviceActive).Methods("PUT")

	api.HandleFunc("/devices/{id}/nodes", s.createNode).Methods("POST")
	api.HandleFunc("/devices/{id}/nodes", s.listNodes).Methods("GET")
	api.HandleFunc("/devices/{id}/nodes/{nodeID}", s.getNode).Methods("GET")

	api.HandleFunc("/devices/{id}/test", s.testConnection).Methods("POST")
	api.HandleFunc("/devices/{id}/fetch", s.fetchOnce).Methods("POST")
	api.HandleFunc("/devices/{id}/poll/start", s.startPolling).Methods("POST")
	api.HandleFunc("/devices/{id}/poll/stop", s.stopPolling).Methods("POST")

	api.HandleFunc("/devices/{id}/history", s.getHistory).Methods("GET")
	api.HandleFunc("/devices/{id}/history", s.clearHistory).Methods("DELETE")
}

func (s *APIServer) getHealth(w http.ResponseWriter, _ *http.Request) {
	s.encodeJSONResponse(w, map[string]string{"status": "ok"})
}

func (s *APIServer) createDevice(w http.ResponseWriter, r *http.Request) {
	var device models.Device
	if err := json.NewDecoder(r.Body).Decode(&device); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.CreateDevice(r.Context(), &device); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponseStatus(w, http.StatusCreated, &device)
}

func (s *APIServer) listDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.ListDevices(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponse(w, devices)
}

func (s *APIServer) getDevice(w http.ResponseWriter, r *http.Request) {
	device, err := s.store.GetDevice(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponse(w, device)
}

func (s *APIServer) deleteDevice(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDevice(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) setDeviceActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.SetDeviceActive(r.Context(), mux.Vars(r)["id"], body.Active); err != nil {
		s.writeStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *APIServer) createNode(w http.ResponseWriter, r *http.Request) {
	var node models.Node
	if err := json.NewDecoder(r.Body).Decode(&node); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	node.DeviceID = mux.Vars(r)["id"]

	if _, err := s.store.GetDevice(r.Context(), node.DeviceID); err != nil {
		s.writeStoreError(w, err)
		return
	}

	if err := s.store.CreateNode(r.Context(), &node); err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponseStatus(w, http.StatusCreated, &node)
}

func (s *APIServer) listNodes(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["id"]

	device, err := s.store.GetDevice(r.Context(), deviceID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	nodes, err := s.store.ListNodes(r.Context(), deviceID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	views := make([]*models.NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, &models.NodeView{Node: *n, ConnectionStatus: device.ConnectionStatus})
	}

	s.encodeJSONResponse(w, views)
}

func (s *APIServer) getNode(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	device, err := s.store.GetDevice(r.Context(), vars["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	node, err := s.store.GetNode(r.Context(), vars["id"], vars["nodeID"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponse(w, &models.NodeView{Node: *node, ConnectionStatus: device.ConnectionStatus})
}

func (s *APIServer) testConnection(w http.ResponseWriter, r *http.Request) {
	notification, err := s.service.TestConnection(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponse(w, notification)
}

func (s *APIServer) fetchOnce(w http.ResponseWriter, r *http.Request) {
	notification, err := s.service.FetchOnce(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponse(w, notification)
}

func (s *APIServer) startPolling(w http.ResponseWriter, r *http.Request) {
	notification, err := s.service.StartPolling(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponse(w, notification)
}

func (s *APIServer) stopPolling(w http.ResponseWriter, r *http.Request) {
	notification, err := s.service.StopPolling(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponse(w, notification)
}

func (s *APIServer) getHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}

		limit = parsed
	}

	records, err := s.service.ViewHistory(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponse(w, records)
}

func (s *APIServer) clearHistory(w http.ResponseWriter, r *http.Request) {
	notification, err := s.service.ClearHistory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}

	s.encodeJSONResponse(w, notification)
}

func (s *APIServer) encodeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding response")
	}
}

func (s *APIServer) encodeJSONResponseStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Error encoding response")
	}
}

// writeStoreError maps store errors to HTTP status codes.
func (s *APIServer) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrDeviceNotFound), errors.Is(err, db.ErrNodeNotFound):
		writeError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, db.ErrDuplicateNode):
		writeError(w, err.Error(), http.StatusConflict)
	case db.IsValidationError(err):
		writeError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResponse := models.ErrorResponse{
		Message: message,
		Status:  statusCode,
	}

	_ = json.NewEncoder(w).Encode(errResponse)
}
