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

package gateway

import "errors"

var (
	// ErrGatewayUnreachable marks transport-level failures: connection
	// refused, timeout, or a non-2xx response. Distinct from an error the
	// gateway reports inside a well-formed body.
	ErrGatewayUnreachable = errors.New("gateway unreachable")

	ErrInvalidResponse = errors.New("invalid gateway response")
)

// IsTransportError reports whether err is a transport failure rather than a
// gateway-reported one.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrGatewayUnreachable)
}
