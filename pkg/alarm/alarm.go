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

// Package alarm derives a node's alarm state from its thresholds.
package alarm

import "github.com/chimera137/opcua-connector/pkg/models"

// Evaluate classifies value against the optional thresholds. Critical is
// checked first, ties resolve toward the more severe state (>=), and an
// unset threshold never triggers.
func Evaluate(value float64, warning, critical *float64) models.AlarmState {
	if critical != nil && value >= *critical {
		return models.AlarmCritical
	}

	if warning != nil && value >= *warning {
		return models.AlarmWarning
	}

	return models.AlarmNormal
}

// EvaluateNode is a convenience wrapper over a node's own thresholds.
func EvaluateNode(node *models.Node, value float64) models.AlarmState {
	return Evaluate(value, node.WarningThreshold, node.CriticalThreshold)
}
