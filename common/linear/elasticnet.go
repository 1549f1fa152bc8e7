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

// Package linear provides regularized linear regression solvers.
package linear

import (
	"math"

	"go.uber.org/zap"

	"github.com/lematt1991/reclab/base"
	"github.com/lematt1991/reclab/base/log"
)

// ElasticNet is a linear regression solver with combined L1 and L2 priors as
// regularizer, optimized by coordinate descent. The minimized objective is
//
//	1/(2n) * ||y - Xw||^2 + alpha * l1Ratio * ||w||_1
//	    + 1/2 * alpha * (1 - l1Ratio) * ||w||^2
//
// where n is the number of samples. No intercept is fitted.
//
// Hyper-parameters:
//
//	Alpha   - Constant that multiplies the regularization terms. Default is 1.
//	L1Ratio - The mix between the L1 and the L2 penalty, in [0, 1]. Default is 0.5.
//	Positive - Restrict coefficients to be non-negative. Default is false.
//	MaxIter - The maximum number of coordinate descent sweeps. Default is 1000.
//	Tol     - Stop once the largest coordinate update of a sweep drops below
//	          this threshold. Default is 1e-4.
//	Seed    - Seed of the randomized coordinate order.
type ElasticNet struct {
	Alpha    float64
	L1Ratio  float64
	Positive bool
	MaxIter  int
	Tol      float64
	Seed     int64
}

// NewElasticNet creates an ElasticNet solver with default hyper-parameters.
func NewElasticNet() *ElasticNet {
	return &ElasticNet{
		Alpha:   1,
		L1Ratio: 0.5,
		MaxIter: 1000,
		Tol:     1e-4,
	}
}

// Fit solves the elastic net for a design matrix x (rows are samples, columns
// are predictors) and a target vector y, and returns the sparse coefficient
// vector. Each call starts from a zero coefficient vector and a coordinate
// order reseeded from Seed, so identical inputs produce identical results.
//
// Degenerate inputs never fail: an all-zero target or an all-zero predictor
// column yields zero coefficients. Failing to converge within MaxIter sweeps
// is reported as a warning and the best iterate found is returned.
func (en *ElasticNet) Fit(x *base.CSCMatrix, y []float64) *base.SparseVector {
	n, p := x.Rows(), x.Cols()
	if len(y) != n {
		log.Logger().Panic("mismatched design matrix and target",
			zap.Int("rows", n), zap.Int("target_len", len(y)))
	}
	rng := base.NewRandomGenerator(en.Seed)
	// The objective scales the squared error by 1/(2n), so the penalties are
	// scaled by n inside the coordinate updates instead.
	l1Reg := en.Alpha * en.L1Ratio * float64(n)
	l2Reg := en.Alpha * (1 - en.L1Ratio) * float64(n)
	// Precompute squared norms of predictor columns.
	colNormSq := make([]float64, p)
	for j := 0; j < p; j++ {
		x.ForEachInCol(j, func(_ int, value float64) {
			colNormSq[j] += value * value
		})
	}
	// Coordinate descent on the residual r = y - Xw.
	w := make([]float64, p)
	residual := make([]float64, n)
	copy(residual, y)
	converged := false
	for iter := 0; iter < en.MaxIter; iter++ {
		maxUpdate := 0.0
		for _, j := range rng.Perm(p) {
			if colNormSq[j] == 0 {
				continue
			}
			// rho = x_j^T r + w_j * ||x_j||^2
			rho := w[j] * colNormSq[j]
			x.ForEachInCol(j, func(row int, value float64) {
				rho += value * residual[row]
			})
			next := softThreshold(rho, l1Reg) / (colNormSq[j] + l2Reg)
			if en.Positive && next < 0 {
				next = 0
			}
			if delta := next - w[j]; delta != 0 {
				x.ForEachInCol(j, func(row int, value float64) {
					residual[row] -= delta * value
				})
				w[j] = next
				maxUpdate = math.Max(maxUpdate, math.Abs(delta))
			}
		}
		if maxUpdate < en.Tol {
			converged = true
			break
		}
	}
	if !converged {
		log.Logger().Warn("elastic net did not converge, returning best iterate",
			zap.Int("max_iter", en.MaxIter), zap.Float64("tol", en.Tol))
	}
	coefficients := base.NewSparseVector()
	for j, v := range w {
		coefficients.Add(j, v)
	}
	return coefficients
}

// softThreshold is the proximal operator of the L1 penalty.
func softThreshold(z, gamma float64) float64 {
	switch {
	case z > gamma:
		return z - gamma
	case z < -gamma:
		return z + gamma
	default:
		return 0
	}
}
