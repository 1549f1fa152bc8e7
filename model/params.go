// Copyright 2024 The RecLab Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/lematt1991/reclab/base/log"
)

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	Alpha       ParamName = "Alpha"       // regularization strength
	L1Ratio     ParamName = "L1Ratio"     // L1 vs L2 regularization mix
	Positive    ParamName = "Positive"    // non-negative coefficients
	MaxIter     ParamName = "MaxIter"     // maximum number of solver iterations
	Tol         ParamName = "Tol"         // solver convergence tolerance
	RandomState ParamName = "RandomState" // random state (seed)
)

// Params stores hyper-parameters for a model. It is a map between strings
// (names) and interface{}s (values). For example, hyper-parameters for SLIM
// are given by:
//
//	model.Params{
//		model.Alpha:   1.0,
//		model.L1Ratio: 0.1,
//		model.MaxIter: 100,
//	}
type Params map[ParamName]interface{}

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// GetInt gets an integer parameter by name. Returns defaultValue if not exists or type doesn't match.
func (parameters Params) GetInt(name ParamName, defaultValue int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("expect", "int"),
				zap.String("name", string(name)),
				zap.String("got", reflect.TypeOf(val).String()))
		}
	}
	return defaultValue
}

// GetInt64 gets an int64 parameter by name. Returns defaultValue if not exists
// or type doesn't match. The type will be converted if given int.
func (parameters Params) GetInt64(name ParamName, defaultValue int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("expect", "int64"),
				zap.String("name", string(name)),
				zap.String("got", reflect.TypeOf(val).String()))
		}
	}
	return defaultValue
}

// GetBool gets a bool parameter by name. Returns defaultValue if not exists or type doesn't match.
func (parameters Params) GetBool(name ParamName, defaultValue bool) bool {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case bool:
			return val
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("expect", "bool"),
				zap.String("name", string(name)),
				zap.String("got", reflect.TypeOf(val).String()))
		}
	}
	return defaultValue
}

// GetFloat64 gets a float parameter by name. Returns defaultValue if not exists
// or type doesn't match. The type will be converted if given int.
func (parameters Params) GetFloat64(name ParamName, defaultValue float64) float64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float64:
			return val
		case int:
			return float64(val)
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("expect", "float64"),
				zap.String("name", string(name)),
				zap.String("got", reflect.TypeOf(val).String()))
		}
	}
	return defaultValue
}

// Overwrite merges params into the current parameters, overwriting duplicates.
func (parameters Params) Overwrite(params Params) Params {
	merged := make(Params)
	for k, v := range parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}
