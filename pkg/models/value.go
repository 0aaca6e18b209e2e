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
	"errors"
	"fmt"
	"strconv"
)

// DataType is the declared type of a node's values.
type DataType string

const (
	TypeFloat  DataType = "float"
	TypeInt    DataType = "int"
	TypeBool   DataType = "bool"
	TypeString DataType = "string"
)

// Valid reports whether t is a known data type.
func (t DataType) Valid() bool {
	switch t {
	case TypeFloat, TypeInt, TypeBool, TypeString:
		return true
	default:
		return false
	}
}

var (
	ErrUnknownDataType  = errors.New("unknown data type")
	ErrValueNotConvert  = errors.New("value cannot be converted to declared data type")
	ErrValueUnsupported = errors.New("unsupported raw value kind")
)

// Value is a closed tagged variant matching a node's declared DataType.
// Gateway responses carry untyped JSON; conversion happens once at the
// ingestion boundary.
type Value struct {
	Type  DataType
	Float float64
	Int   int64
	Bool  bool
	Str   string
}

// AsFloat collapses the variant to the float representation used for
// threshold evaluation and historical storage.
func (v Value) AsFloat() float64 {
	switch v.Type {
	case TypeInt:
		return float64(v.Int)
	case TypeBool:
		if v.Bool {
			return 1
		}

		return 0
	case TypeString:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0
		}

		return f
	default:
		return v.Float
	}
}

// String renders the value the way the node summary line expects it.
func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	case TypeString:
		return v.Str
	default:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}
}

// ConvertValue validates and converts a raw gateway value into the node's
// declared data type. Raw values arrive as json.Number, bool or string.
func ConvertValue(raw interface{}, dt DataType) (Value, error) {
	switch dt {
	case TypeFloat:
		f, err := rawToFloat(raw)
		if err != nil {
			return Value{}, err
		}

		return Value{Type: TypeFloat, Float: f}, nil
	case TypeInt:
		f, err := rawToFloat(raw)
		if err != nil {
			return Value{}, err
		}

		i := int64(f)
		if float64(i) != f {
			return Value{}, fmt.Errorf("%w: %v is not integral", ErrValueNotConvert, raw)
		}

		return Value{Type: TypeInt, Int: i}, nil
	case TypeBool:
		switch b := raw.(type) {
		case bool:
			return Value{Type: TypeBool, Bool: b}, nil
		case json.Number:
			return Value{Type: TypeBool, Bool: b.String() != "0"}, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return Value{}, fmt.Errorf("%w: %q as bool", ErrValueNotConvert, b)
			}

			return Value{Type: TypeBool, Bool: parsed}, nil
		default:
			return Value{}, fmt.Errorf("%w: %T as bool", ErrValueNotConvert, raw)
		}
	case TypeString:
		switch s := raw.(type) {
		case string:
			return Value{Type: TypeString, Str: s}, nil
		case json.Number:
			return Value{Type: TypeString, Str: s.String()}, nil
		case bool:
			return Value{Type: TypeString, Str: strconv.FormatBool(s)}, nil
		default:
			return Value{}, fmt.Errorf("%w: %T as string", ErrValueNotConvert, raw)
		}
	default:
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownDataType, dt)
	}
}

func rawToFloat(raw interface{}) (float64, error) {
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q as number", ErrValueNotConvert, n.String())
		}

		return f, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q as number", ErrValueNotConvert, n)
		}

		return f, nil
	case bool:
		if n {
			return 1, nil
		}

		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrValueUnsupported, raw)
	}
}
