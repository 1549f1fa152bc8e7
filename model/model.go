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

// Package model defines the shared pieces of recommendation models:
// hyper-parameter handling, the fit configuration and rating evaluators.
package model

import (
	"github.com/lematt1991/reclab/base"
)

// Model is the interface for all models. Any model in this package should
// implement it.
type Model interface {
	// SetParams sets hyper-parameters.
	SetParams(params Params)
	// GetParams returns hyper-parameters.
	GetParams() Params
	// Clear model weights.
	Clear()
	// Invalid reports whether the model has no trained weights.
	Invalid() bool
}

// BaseModel must be included by every recommendation model. Hyper-parameters
// and the seeded random generator are managed by the BaseModel.
type BaseModel struct {
	Params    Params
	rng       base.RandomGenerator
	randState int64
}

// SetParams sets hyper-parameters for the BaseModel.
func (model *BaseModel) SetParams(params Params) {
	model.Params = params
	model.randState = model.Params.GetInt64(RandomState, 0)
	model.rng = base.NewRandomGenerator(model.randState)
}

// GetParams returns all hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

// GetRandomGenerator returns the random generator seeded by RandomState.
func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return model.rng
}

// FitConfig holds runtime options of a training pass.
type FitConfig struct {
	Jobs    int
	Verbose int
}

// NewFitConfig creates a FitConfig with default options.
func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    1,
		Verbose: 100,
	}
}

// SetJobs sets the number of concurrent executors.
func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

// SetVerbose sets the logging period of the fitting loop.
func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}
