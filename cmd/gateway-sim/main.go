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

// gateway-sim is a stand-in for the OPC UA HTTP gateway. It answers the
// gateway's /test and /data endpoints with simulated sensor values so the
// connector can be exercised without a real field device.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"time"
)

type dataRequest struct {
	Endpoint string   `json:"endpoint"`
	NodeIDs  []string `json:"node_ids"`
}

type dataResponse struct {
	ConnectionStatus string                 `json:"connectionStatus"`
	Values           map[string]interface{} `json:"values"`
	Errors           map[string]string      `json:"errors,omitempty"`
	Timestamp        string                 `json:"timestamp"`
}

// simulated nodes on the fake device, values drift per read
var simulatedNodes = map[string]func() float64{
	"ns=2;s=MyObject.Temperature": func() float64 { return 20.0 + rand.Float64()*10 },
	"ns=2;s=MyObject.Pressure":    func() float64 { return 1.0 + rand.Float64()*0.5 },
	"ns=2;s=MyObject.Humidity":    func() float64 { return 40.0 + rand.Float64()*20 },
	"ns=2;s=MyObject.CAM_VALUE":   func() float64 { return rand.Float64() * 100 },
}

func main() {
	addr := flag.String("addr", ":3000", "Listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /test", handleTest)
	mux.HandleFunc("POST /data", handleData)

	log.Printf("Gateway simulator listening on %s", *addr)

	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func handleTest(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		writeJSON(w, map[string]string{
			"connectionStatus": "error",
			"error":            "endpoint parameter is required",
		})

		return
	}

	log.Printf("Connection test for %s", endpoint)

	writeJSON(w, map[string]string{"connectionStatus": "connected"})
}

func handleData(w http.ResponseWriter, r *http.Request) {
	var req dataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]string{"error": "invalid request body"})

		return
	}

	resp := dataResponse{
		ConnectionStatus: "connected",
		Values:           make(map[string]interface{}),
		Errors:           make(map[string]string),
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}

	for _, nodeID := range req.NodeIDs {
		read, ok := simulatedNodes[nodeID]
		if !ok {
			resp.Errors[nodeID] = "BadNodeIdUnknown"
			continue
		}

		resp.Values[nodeID] = read()
	}

	if len(resp.Errors) == 0 {
		resp.Errors = nil
	}

	log.Printf("Read %d of %d nodes for %s", len(resp.Values), len(req.NodeIDs), req.Endpoint)

	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
