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

package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lematt1991/reclab/base"
)

const solverEpsilon = 1e-6

// orthogonalDesign returns a 4x2 design matrix with orthogonal columns:
// column 0 covers samples 0-1, column 1 covers samples 2-3.
func orthogonalDesign() *base.CSCMatrix {
	return base.NewCSCMatrix(4, 2, []base.Triple{
		{Row: 0, Col: 0, Value: 1},
		{Row: 1, Col: 0, Value: 1},
		{Row: 2, Col: 1, Value: 1},
		{Row: 3, Col: 1, Value: 1},
	})
}

func denseCoefficients(vec *base.SparseVector, size int) []float64 {
	dense := make([]float64, size)
	vec.ForEach(func(_, index int, value float64) {
		dense[index] = value
	})
	return dense
}

func TestElasticNet_LeastSquares(t *testing.T) {
	// with alpha = 0 the solver reduces to ordinary least squares
	en := NewElasticNet()
	en.Alpha = 0
	w := denseCoefficients(en.Fit(orthogonalDesign(), []float64{2, 2, 3, 3}), 2)
	assert.InDelta(t, 2, w[0], solverEpsilon)
	assert.InDelta(t, 3, w[1], solverEpsilon)
}

func TestElasticNet_L1Shrinkage(t *testing.T) {
	// for orthogonal columns the lasso solution is the soft-thresholded
	// least squares solution: w_0 = 2 - 2 * alpha
	en := NewElasticNet()
	en.Alpha = 0.5
	en.L1Ratio = 1
	w := denseCoefficients(en.Fit(orthogonalDesign(), []float64{2, 2, 3, 3}), 2)
	assert.InDelta(t, 1, w[0], solverEpsilon)
	assert.InDelta(t, 2, w[1], solverEpsilon)
}

func TestElasticNet_Positive(t *testing.T) {
	en := NewElasticNet()
	en.Alpha = 0.01
	en.Positive = true
	w := denseCoefficients(en.Fit(orthogonalDesign(), []float64{-2, -2, 3, 3}), 2)
	assert.Zero(t, w[0])
	assert.Greater(t, w[1], 0.0)
}

func TestElasticNet_ZeroTarget(t *testing.T) {
	// an all-zero target must yield zero coefficients, not a failure
	en := NewElasticNet()
	coefficients := en.Fit(orthogonalDesign(), []float64{0, 0, 0, 0})
	assert.Zero(t, coefficients.Len())
}

func TestElasticNet_ZeroColumn(t *testing.T) {
	// predictor columns without any stored value receive a zero coefficient
	x := base.NewCSCMatrix(3, 2, []base.Triple{
		{Row: 0, Col: 0, Value: 1},
		{Row: 1, Col: 0, Value: 1},
		{Row: 2, Col: 0, Value: 1},
	})
	en := NewElasticNet()
	en.Alpha = 0.1
	w := denseCoefficients(en.Fit(x, []float64{1, 1, 1}), 2)
	assert.Greater(t, w[0], 0.0)
	assert.Zero(t, w[1])
}

func TestElasticNet_Deterministic(t *testing.T) {
	// correlated columns so that the randomized coordinate order matters
	x := base.NewCSCMatrix(4, 3, []base.Triple{
		{Row: 0, Col: 0, Value: 1},
		{Row: 1, Col: 0, Value: 2},
		{Row: 0, Col: 1, Value: 1},
		{Row: 1, Col: 1, Value: 2},
		{Row: 2, Col: 2, Value: 1},
		{Row: 3, Col: 2, Value: 1},
	})
	y := []float64{1, 2, 3, 3}
	en := NewElasticNet()
	en.Alpha = 0.1
	en.Seed = 42
	a := denseCoefficients(en.Fit(x, y), 3)
	b := denseCoefficients(en.Fit(x, y), 3)
	assert.Equal(t, a, b)
}
