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

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertValue(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		dt      DataType
		want    Value
		wantErr bool
	}{
		{
			name: "number as float",
			raw:  json.Number("22.5"),
			dt:   TypeFloat,
			want: Value{Type: TypeFloat, Float: 22.5},
		},
		{
			name: "integral number as int",
			raw:  json.Number("42"),
			dt:   TypeInt,
			want: Value{Type: TypeInt, Int: 42},
		},
		{
			name:    "fractional number as int",
			raw:     json.Number("42.5"),
			dt:      TypeInt,
			wantErr: true,
		},
		{
			name: "bool as bool",
			raw:  true,
			dt:   TypeBool,
			want: Value{Type: TypeBool, Bool: true},
		},
		{
			name: "number as bool",
			raw:  json.Number("0"),
			dt:   TypeBool,
			want: Value{Type: TypeBool, Bool: false},
		},
		{
			name: "string as bool",
			raw:  "true",
			dt:   TypeBool,
			want: Value{Type: TypeBool, Bool: true},
		},
		{
			name:    "word as bool",
			raw:     "maybe",
			dt:      TypeBool,
			wantErr: true,
		},
		{
			name: "string as string",
			raw:  "running",
			dt:   TypeString,
			want: Value{Type: TypeString, Str: "running"},
		},
		{
			name: "number as string",
			raw:  json.Number("7"),
			dt:   TypeString,
			want: Value{Type: TypeString, Str: "7"},
		},
		{
			name:    "string as float",
			raw:     "not-a-number",
			dt:      TypeFloat,
			wantErr: true,
		},
		{
			name:    "unknown data type",
			raw:     json.Number("1"),
			dt:      "decimal",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertValue(tt.raw, tt.dt)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueAsFloat(t *testing.T) {
	assert.InDelta(t, 22.5, Value{Type: TypeFloat, Float: 22.5}.AsFloat(), 0)
	assert.InDelta(t, 42.0, Value{Type: TypeInt, Int: 42}.AsFloat(), 0)
	assert.InDelta(t, 1.0, Value{Type: TypeBool, Bool: true}.AsFloat(), 0)
	assert.InDelta(t, 0.0, Value{Type: TypeBool, Bool: false}.AsFloat(), 0)
	assert.InDelta(t, 3.5, Value{Type: TypeString, Str: "3.5"}.AsFloat(), 0)
	assert.InDelta(t, 0.0, Value{Type: TypeString, Str: "pump"}.AsFloat(), 0)
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "22.5", Value{Type: TypeFloat, Float: 22.5}.String())
	assert.Equal(t, "42", Value{Type: TypeInt, Int: 42}.String())
	assert.Equal(t, "true", Value{Type: TypeBool, Bool: true}.String())
	assert.Equal(t, "running", Value{Type: TypeString, Str: "running"}.String())
}

func TestDevicePollInterval(t *testing.T) {
	tests := []struct {
		name string
		ms   int
		want time.Duration
	}{
		{name: "one second", ms: 1000, want: time.Second},
		{name: "five seconds", ms: 5000, want: 5 * time.Second},
		{name: "sub-second clamps to one second", ms: 100, want: time.Second},
		{name: "zero clamps to one second", ms: 0, want: time.Second},
		{name: "truncates to whole seconds", ms: 2500, want: 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Device{PollingIntervalMs: tt.ms}
			assert.Equal(t, tt.want, d.PollInterval())
		})
	}
}

func TestConnectionStatusValid(t *testing.T) {
	for _, status := range []ConnectionStatus{
		StatusDisconnected, StatusConnected, StatusPolling, StatusError,
	} {
		assert.True(t, status.Valid(), string(status))
	}

	assert.False(t, ConnectionStatus("borked").Valid())
	assert.False(t, ConnectionStatus("").Valid())
}

func TestAlarmStateRank(t *testing.T) {
	assert.Less(t, AlarmNormal.Rank(), AlarmWarning.Rank())
	assert.Less(t, AlarmWarning.Rank(), AlarmCritical.Rank())
}

func TestDurationJSON(t *testing.T) {
	var d Duration

	require.NoError(t, json.Unmarshal([]byte(`"30s"`), &d))
	assert.Equal(t, Duration(30*time.Second), d)

	require.NoError(t, json.Unmarshal([]byte(`5000000000`), &d))
	assert.Equal(t, Duration(5*time.Second), d)

	require.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	require.Error(t, json.Unmarshal([]byte(`true`), &d))

	out, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))
}
